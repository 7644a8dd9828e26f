// Package markdown renders the subset of Markdown used by blog posts:
// headings, paragraphs, lists, block quotes, fenced code, rules, emphasis,
// inline code and links. All text is HTML-escaped.
package markdown

import (
	"context"
	"html"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/a-h/templ"
)

var (
	reHeading     = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	reOrderedItem = regexp.MustCompile(`^\d+[.)]\s+(.*)$`)
	reBulletItem  = regexp.MustCompile(`^[-*+]\s+(.*)$`)
	reRule        = regexp.MustCompile(`^(?:-{3,}|\*{3,}|_{3,})$`)

	reInlineCode = regexp.MustCompile("`([^`]+)`")
	reLink       = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	reBold       = regexp.MustCompile(`\*\*(.+?)\*\*|__(.+?)__`)
	reItalic     = regexp.MustCompile(`\*([^*]+)\*|\b_([^_]+)_\b`)
)

// Markdown returns a component that renders md as HTML.
func Markdown(md string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, ToHTML(md))
		return err
	})
}

type block int

const (
	none block = iota
	para
	bullets
	ordered
	quote
	code
)

// ToHTML converts md to an HTML fragment.
func ToHTML(md string) string {
	var b strings.Builder
	open := none

	closeBlock := func() {
		switch open {
		case para:
			b.WriteString("</p>\n")
		case bullets:
			b.WriteString("</ul>\n")
		case ordered:
			b.WriteString("</ol>\n")
		case quote:
			b.WriteString("</blockquote>\n")
		case code:
			b.WriteString("</code></pre>\n")
		}
		open = none
	}
	enter := func(kind block, tag string) {
		if open != kind {
			closeBlock()
			b.WriteString(tag)
			open = kind
		}
	}

	for _, raw := range strings.Split(strings.ReplaceAll(md, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(raw)

		if strings.HasPrefix(line, "```") {
			if open == code {
				closeBlock()
				continue
			}
			closeBlock()
			lang := strings.TrimSpace(strings.TrimPrefix(line, "```"))
			if lang != "" {
				b.WriteString(`<pre><code class="language-` + html.EscapeString(lang) + `">`)
			} else {
				b.WriteString("<pre><code>")
			}
			open = code
			continue
		}
		if open == code {
			b.WriteString(html.EscapeString(raw))
			b.WriteByte('\n')
			continue
		}

		switch {
		case line == "":
			closeBlock()
		case reRule.MatchString(line):
			closeBlock()
			b.WriteString("<hr>\n")
		case reHeading.MatchString(line):
			closeBlock()
			m := reHeading.FindStringSubmatch(line)
			level := string(rune('0' + len(m[1])))
			b.WriteString("<h" + level + ">" + inline(m[2]) + "</h" + level + ">\n")
		case reBulletItem.MatchString(line):
			enter(bullets, "<ul>\n")
			b.WriteString("<li>" + inline(reBulletItem.FindStringSubmatch(line)[1]) + "</li>\n")
		case reOrderedItem.MatchString(line):
			enter(ordered, "<ol>\n")
			b.WriteString("<li>" + inline(reOrderedItem.FindStringSubmatch(line)[1]) + "</li>\n")
		case strings.HasPrefix(line, ">"):
			if open == quote {
				b.WriteString("<br>")
			}
			enter(quote, "<blockquote>")
			b.WriteString(inline(strings.TrimSpace(strings.TrimPrefix(line, ">"))))
		default:
			if open == para {
				b.WriteByte('\n')
			}
			enter(para, "<p>")
			b.WriteString(inline(line))
		}
	}
	closeBlock()
	return b.String()
}

// inline escapes s and applies code spans, links and emphasis. Code spans
// are swapped out first so their contents stay literal.
func inline(s string) string {
	var spans []string
	s = reInlineCode.ReplaceAllStringFunc(s, func(m string) string {
		spans = append(spans, "<code>"+html.EscapeString(m[1:len(m)-1])+"</code>")
		return "\x00" + string(rune('a'+len(spans)-1)) + "\x00"
	})
	s = html.EscapeString(s)

	s = reLink.ReplaceAllStringFunc(s, func(m string) string {
		parts := reLink.FindStringSubmatch(m)
		href := html.UnescapeString(parts[2])
		if !safeURL(href) {
			return parts[1]
		}
		attrs := ""
		if u, err := url.Parse(href); err == nil && u.IsAbs() {
			attrs = ` target="_blank" rel="noopener noreferrer"`
		}
		return `<a href="` + html.EscapeString(href) + `"` + attrs + `>` + parts[1] + `</a>`
	})
	s = reBold.ReplaceAllString(s, "<strong>$1$2</strong>")
	s = reItalic.ReplaceAllString(s, "<em>$1$2</em>")

	for i, span := range spans {
		s = strings.Replace(s, "\x00"+string(rune('a'+i))+"\x00", span, 1)
	}
	return s
}

// safeURL allows relative links and the http, https and mailto schemes.
func safeURL(href string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto":
		return true
	}
	return false
}
