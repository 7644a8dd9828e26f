// Package story holds the web-story composition model: pages made of a
// background, text overlays and an optional call to action. Pages are
// persisted as a JSON document inside a story's content field.
package story

import (
	"strings"

	"github.com/lithammer/shortuuid/v4"
)

// BackgroundType is the media kind shown behind a page.
type BackgroundType string

const (
	BackgroundImage BackgroundType = "image"
	BackgroundVideo BackgroundType = "video"
)

// Tag is the typographic role of a text block.
type Tag string

const (
	TagH1        Tag = "h1"
	TagH2        Tag = "h2"
	TagH3        Tag = "h3"
	TagParagraph Tag = "p"
)

// Tags lists the block tags in the order the editor offers them.
var Tags = []Tag{TagH1, TagH2, TagH3, TagParagraph}

// TextAligns are the accepted values of Style.TextAlign besides empty.
var TextAligns = []string{"left", "center", "right", "justify"}

// Background is the full-bleed media of a page.
type Background struct {
	Type BackgroundType
	URL  string
	Alt  string
}

// Style is the inline typography of a single block. Empty fields fall back
// to the tag defaults when rendered.
type Style struct {
	FontSize      string
	Color         string
	FontWeight    string
	Italic        bool
	LetterSpacing string
	LineHeight    string
	TextAlign     string
}

// Block is one run of literal text with a tag and style.
type Block struct {
	Tag   Tag
	Value string
	Style Style
}

// CTA is the call-to-action button pinned to the bottom of a page.
type CTA struct {
	Text            string
	URL             string
	BackgroundColor string
	TextColor       string
}

// ElementKind discriminates the variants of Element.
type ElementKind string

const (
	KindText  ElementKind = "text"
	KindImage ElementKind = "image"
	KindVideo ElementKind = "video"
)

// Element is an overlay placed on a page. The set of implementations is
// closed: *TextElement and *MediaElement.
type Element interface {
	Kind() ElementKind
	clone() Element
}

// TextElement is a card of ordered text blocks.
type TextElement struct {
	Blocks []Block
}

// Kind implements Element.
func (*TextElement) Kind() ElementKind { return KindText }

func (e *TextElement) clone() Element {
	c := &TextElement{}
	if e.Blocks != nil {
		c.Blocks = append(make([]Block, 0, len(e.Blocks)), e.Blocks...)
	}
	return c
}

// MediaElement is an image or video dropped onto a page. It never renders
// as an overlay; Normalize turns it into the page background.
type MediaElement struct {
	Media BackgroundType
	URL   string
	Alt   string
}

// Kind implements Element.
func (e *MediaElement) Kind() ElementKind {
	if e.Media == BackgroundVideo {
		return KindVideo
	}
	return KindImage
}

func (e *MediaElement) clone() Element {
	c := *e
	return &c
}

// Page is one screen of a story.
type Page struct {
	ID         string
	Background Background
	Elements   []Element
	CTA        *CTA
}

// NewPage returns an empty image page with a fresh id.
func NewPage() Page {
	return Page{
		ID:         shortuuid.New(),
		Background: Background{Type: BackgroundImage},
	}
}

// Normalize folds media elements into the page background, keeping the
// last one, and drops them from the element list.
func (p *Page) Normalize() {
	kept := p.Elements[:0]
	for _, el := range p.Elements {
		m, ok := el.(*MediaElement)
		if !ok {
			kept = append(kept, el)
			continue
		}
		p.Background = Background{Type: m.Media, URL: m.URL, Alt: m.Alt}
	}
	for i := len(kept); i < len(p.Elements); i++ {
		p.Elements[i] = nil
	}
	p.Elements = kept
	if len(kept) == 0 {
		p.Elements = nil
	}
	if p.Background.Type == "" {
		p.Background.Type = BackgroundImage
	}
}

// Clone returns a deep copy of the page.
func (p Page) Clone() Page {
	c := p
	if p.Elements != nil {
		c.Elements = make([]Element, len(p.Elements))
		for i, el := range p.Elements {
			c.Elements[i] = el.clone()
		}
	}
	if p.CTA != nil {
		cta := *p.CTA
		c.CTA = &cta
	}
	return c
}

// TextElements returns the text overlays of the page in order.
func (p Page) TextElements() []*TextElement {
	var out []*TextElement
	for _, el := range p.Elements {
		if t, ok := el.(*TextElement); ok {
			out = append(out, t)
		}
	}
	return out
}

// ClonePages deep-copies a page list.
func ClonePages(pages []Page) []Page {
	out := make([]Page, len(pages))
	for i, p := range pages {
		out[i] = p.Clone()
	}
	return out
}

// WordCount counts whitespace separated words across every block value.
func WordCount(pages []Page) int {
	n := 0
	for _, p := range pages {
		for _, t := range p.TextElements() {
			for _, b := range t.Blocks {
				n += len(strings.Fields(b.Value))
			}
		}
	}
	return n
}

// ReadingTime estimates minutes of reading at 200 words per minute,
// rounded up, never less than one.
func ReadingTime(words int) int {
	minutes := (words + 199) / 200
	if minutes < 1 {
		return 1
	}
	return minutes
}
