package story

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

// RenderError reports content that cannot be turned into pages. Viewers
// show it as an "invalid content" panel instead of failing the request.
type RenderError struct {
	Reason string
	Err    error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("story: %s: %v", e.Reason, e.Err)
	}
	return "story: " + e.Reason
}

func (e *RenderError) Unwrap() error { return e.Err }

// The persisted shape. Field names are part of the storage format.
type wirePage struct {
	ID             string         `json:"id,omitempty"`
	BackgroundType BackgroundType `json:"backgroundType"`
	BackgroundURL  string         `json:"backgroundUrl"`
	BackgroundAlt  string         `json:"backgroundAlt"`
	Elements       []wireElement  `json:"elements"`
	CTA            *wireCTA       `json:"cta,omitempty"`
}

type wireElement struct {
	Type   ElementKind `json:"type"`
	Blocks []wireBlock `json:"blocks,omitempty"`
	URL    string      `json:"url,omitempty"`
	Alt    string      `json:"alt,omitempty"`
}

type wireBlock struct {
	Tag   Tag       `json:"tag"`
	Value string    `json:"value"`
	Style wireStyle `json:"style"`
}

type wireStyle struct {
	FontSize      string `json:"fontSize,omitempty"`
	Color         string `json:"color,omitempty"`
	FontWeight    string `json:"fontWeight,omitempty"`
	Italic        bool   `json:"italic,omitempty"`
	LetterSpacing string `json:"letterSpacing,omitempty"`
	LineHeight    string `json:"lineHeight,omitempty"`
	TextAlign     string `json:"textAlign,omitempty"`
}

type wireCTA struct {
	Text            string `json:"text"`
	URL             string `json:"url"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	TextColor       string `json:"textColor,omitempty"`
}

func (p wirePage) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.BackgroundType, validation.In(BackgroundImage, BackgroundVideo)),
		validation.Field(&p.Elements),
	)
}

func (e wireElement) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Type, validation.Required, validation.In(KindText, KindImage, KindVideo)),
		validation.Field(&e.Blocks),
	)
}

func (b wireBlock) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Tag, validation.Required, validation.In(TagH1, TagH2, TagH3, TagParagraph)),
		validation.Field(&b.Style),
	)
}

func (s wireStyle) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.TextAlign, validation.In(textAlignValues()...)),
	)
}

func textAlignValues() []any {
	out := make([]any, len(TextAligns))
	for i, v := range TextAligns {
		out[i] = v
	}
	return out
}

// Decode parses persisted content into pages. Any failure, including an
// empty document, is returned as a *RenderError.
func Decode(content string) ([]Page, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &RenderError{Reason: "empty content"}
	}
	var raw []wirePage
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, &RenderError{Reason: "content is not a page list", Err: eris.Wrap(err, "decoding pages")}
	}
	if len(raw) == 0 {
		return nil, &RenderError{Reason: "story has no pages"}
	}
	if err := validation.Validate(raw); err != nil {
		return nil, &RenderError{Reason: "invalid page", Err: err}
	}
	pages := make([]Page, len(raw))
	for i, wp := range raw {
		pages[i] = wp.page()
	}
	return pages, nil
}

// Encode serializes pages into the persisted shape. Media elements are
// folded into backgrounds first.
func Encode(pages []Page) (string, error) {
	if len(pages) == 0 {
		return "", eris.New("story: at least one page is required")
	}
	raw := make([]wirePage, len(pages))
	for i, p := range pages {
		p = p.Clone()
		p.Normalize()
		raw[i] = toWire(p)
	}
	if err := validation.Validate(raw); err != nil {
		return "", eris.Wrap(err, "story: invalid pages")
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return "", eris.Wrap(err, "story: encoding pages")
	}
	return string(b), nil
}

func (wp wirePage) page() Page {
	p := Page{
		ID: wp.ID,
		Background: Background{
			Type: wp.BackgroundType,
			URL:  wp.BackgroundURL,
			Alt:  wp.BackgroundAlt,
		},
	}
	for _, we := range wp.Elements {
		switch we.Type {
		case KindText:
			t := &TextElement{}
			for _, wb := range we.Blocks {
				t.Blocks = append(t.Blocks, Block{Tag: wb.Tag, Value: wb.Value, Style: Style(wb.Style)})
			}
			p.Elements = append(p.Elements, t)
		case KindImage, KindVideo:
			p.Elements = append(p.Elements, &MediaElement{Media: BackgroundType(we.Type), URL: we.URL, Alt: we.Alt})
		}
	}
	if wp.CTA != nil {
		cta := CTA(*wp.CTA)
		p.CTA = &cta
	}
	p.Normalize()
	return p
}

func toWire(p Page) wirePage {
	wp := wirePage{
		ID:             p.ID,
		BackgroundType: p.Background.Type,
		BackgroundURL:  p.Background.URL,
		BackgroundAlt:  p.Background.Alt,
		Elements:       make([]wireElement, 0, len(p.Elements)),
	}
	for _, t := range p.TextElements() {
		we := wireElement{Type: KindText, Blocks: make([]wireBlock, 0, len(t.Blocks))}
		for _, b := range t.Blocks {
			we.Blocks = append(we.Blocks, wireBlock{Tag: b.Tag, Value: b.Value, Style: wireStyle(b.Style)})
		}
		wp.Elements = append(wp.Elements, we)
	}
	if p.CTA != nil {
		cta := wireCTA(*p.CTA)
		wp.CTA = &cta
	}
	return wp
}
