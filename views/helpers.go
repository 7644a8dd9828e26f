package views

import (
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/eringen/webstory/story"
)

var funcs = template.FuncMap{
	"css":           func(s string) template.CSS { return template.CSS(s) },
	"html":          func(s string) template.HTML { return template.HTML(s) },
	"jsonld":        func(s string) template.JS { return template.JS(s) },
	"add":           func(a, b int) int { return a + b },
	"pathEscape":    url.PathEscape,
	"categoryClass": CategoryClass,
	"progressClass": ProgressClass,
	"ctaCSS":        func(c story.CTA) template.CSS { return template.CSS(c.CSS()) },
	"humanSize":     HumanSize,
	"joinTags":      func(tags []string) string { return strings.Join(tags, ", ") },
	"selected":      selectedAttr,
}

// CategoryClass returns CSS classes for a category pill, with active variant.
func CategoryClass(active bool) string {
	if active {
		return "pill pill-active"
	}
	return "pill"
}

// ProgressClass maps a progress segment to its CSS class.
func ProgressClass(p story.Progress) string {
	return "progress-" + string(p)
}

// HumanSize formats a byte count for the media library.
func HumanSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%d KB", n/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func selectedAttr(a, b string) template.HTMLAttr {
	if a == b {
		return "selected"
	}
	return ""
}
