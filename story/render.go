package story

import (
	"strings"

	"github.com/rotisserie/eris"
)

// ErrOutOfRange is returned when a page, element or block index does not
// exist.
var ErrOutOfRange = eris.New("story: index out of range")

// Progress is the state of one segment of the progress indicator.
type Progress string

const (
	ProgressDone    Progress = "done"
	ProgressCurrent Progress = "current"
	ProgressPending Progress = "pending"
)

// RenderedBlock is a block ready for markup: its literal text and a
// sanitized inline style declaration.
type RenderedBlock struct {
	Tag  Tag
	Text string
	CSS  string
}

// Card is one text overlay.
type Card struct {
	Blocks []RenderedBlock
}

// Frame is everything a viewer draws for a single page.
type Frame struct {
	Index      int
	Total      int
	PageID     string
	Background Background
	Cards      []Card
	CTA        *CTA
	Progress   []Progress
}

// First reports whether the frame shows the first page.
func (f Frame) First() bool { return f.Index == 0 }

// Last reports whether the frame shows the final page.
func (f Frame) Last() bool { return f.Index == f.Total-1 }

// Render builds the frame for pages[index].
func Render(pages []Page, index int) (Frame, error) {
	if index < 0 || index >= len(pages) {
		return Frame{}, ErrOutOfRange
	}
	p := pages[index]
	f := Frame{
		Index:      index,
		Total:      len(pages),
		PageID:     p.ID,
		Background: p.Background,
		Progress:   make([]Progress, len(pages)),
	}
	if f.Background.Type == "" {
		f.Background.Type = BackgroundImage
	}
	for i := range pages {
		switch {
		case i < index:
			f.Progress[i] = ProgressDone
		case i == index:
			f.Progress[i] = ProgressCurrent
		default:
			f.Progress[i] = ProgressPending
		}
	}
	for _, t := range p.TextElements() {
		card := Card{Blocks: make([]RenderedBlock, 0, len(t.Blocks))}
		for _, b := range t.Blocks {
			card.Blocks = append(card.Blocks, RenderedBlock{Tag: b.Tag, Text: b.Value, CSS: b.Style.CSS()})
		}
		f.Cards = append(f.Cards, card)
	}
	if p.CTA != nil && strings.TrimSpace(p.CTA.Text) != "" {
		cta := *p.CTA
		f.CTA = &cta
	}
	return f, nil
}

// CSS renders the style as an inline declaration list. Values with
// characters outside a conservative set are dropped.
func (s Style) CSS() string {
	var b strings.Builder
	decl := func(prop, val string) {
		val = strings.TrimSpace(val)
		if val == "" || !safeCSSValue(val) {
			return
		}
		b.WriteString(prop)
		b.WriteByte(':')
		b.WriteString(val)
		b.WriteByte(';')
	}
	decl("font-size", s.FontSize)
	decl("color", s.Color)
	decl("font-weight", s.FontWeight)
	if s.Italic {
		decl("font-style", "italic")
	}
	decl("letter-spacing", s.LetterSpacing)
	decl("line-height", s.LineHeight)
	decl("text-align", s.TextAlign)
	return b.String()
}

// CSS renders the button colors as an inline declaration list.
func (c CTA) CSS() string {
	return Style{Color: c.TextColor}.CSS() + backgroundCSS(c.BackgroundColor)
}

func backgroundCSS(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || !safeCSSValue(v) {
		return ""
	}
	return "background-color:" + v + ";"
}

func safeCSSValue(v string) bool {
	for _, r := range v {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("#.%(), -", r):
		default:
			return false
		}
	}
	return true
}
