package story

import (
	"slices"

	"github.com/rotisserie/eris"
)

// Selection points at the page, element and block being edited. Element
// and Block are -1 when nothing below the page is selected.
type Selection struct {
	Page    int
	Element int
	Block   int
}

// Editor applies composition operations to an in-memory page list. A story
// always keeps at least one page.
type Editor struct {
	Pages     []Page
	Selection Selection
}

// NewEditor wraps pages for editing. An empty list starts with one blank
// page.
func NewEditor(pages []Page) *Editor {
	if len(pages) == 0 {
		pages = []Page{NewPage()}
	}
	return &Editor{Pages: pages, Selection: Selection{Element: -1, Block: -1}}
}

// Encode serializes the current pages.
func (e *Editor) Encode() (string, error) {
	return Encode(e.Pages)
}

// Current returns the selected page.
func (e *Editor) Current() Page {
	return e.Pages[e.Selection.Page]
}

// SelectedBlock returns the selected block, if any.
func (e *Editor) SelectedBlock() (Block, bool) {
	t, err := e.text(e.Selection.Page, e.Selection.Element)
	if err != nil || e.Selection.Block < 0 || e.Selection.Block >= len(t.Blocks) {
		return Block{}, false
	}
	return t.Blocks[e.Selection.Block], true
}

// Select moves the selection. Pass -1 for element or block to select only
// the enclosing page or element.
func (e *Editor) Select(page, element, block int) error {
	if page < 0 || page >= len(e.Pages) {
		return ErrOutOfRange
	}
	sel := Selection{Page: page, Element: -1, Block: -1}
	if element >= 0 {
		t, err := e.text(page, element)
		if err != nil {
			return err
		}
		sel.Element = element
		if block >= 0 {
			if block >= len(t.Blocks) {
				return ErrOutOfRange
			}
			sel.Block = block
		}
	}
	e.Selection = sel
	return nil
}

// AddPage inserts a blank page after the selected one and selects it.
func (e *Editor) AddPage() int {
	at := e.Selection.Page + 1
	e.Pages = slices.Insert(e.Pages, at, NewPage())
	e.Selection = Selection{Page: at, Element: -1, Block: -1}
	return at
}

// RemovePage deletes page i. Removing the only page is a no-op.
func (e *Editor) RemovePage(i int) error {
	if i < 0 || i >= len(e.Pages) {
		return ErrOutOfRange
	}
	if len(e.Pages) == 1 {
		return nil
	}
	e.Pages = slices.Delete(e.Pages, i, i+1)
	switch {
	case e.Selection.Page == i:
		e.Selection = Selection{Page: max(i-1, 0), Element: -1, Block: -1}
	case e.Selection.Page > i:
		e.Selection.Page--
	}
	return nil
}

// MovePage moves page from to position to, keeping the selection on the
// same page.
func (e *Editor) MovePage(from, to int) error {
	if from < 0 || from >= len(e.Pages) || to < 0 || to >= len(e.Pages) {
		return ErrOutOfRange
	}
	if from == to {
		return nil
	}
	p := e.Pages[from]
	e.Pages = slices.Delete(e.Pages, from, from+1)
	e.Pages = slices.Insert(e.Pages, to, p)
	sel := e.Selection.Page
	switch {
	case sel == from:
		e.Selection.Page = to
	case from < sel && sel <= to:
		e.Selection.Page--
	case to <= sel && sel < from:
		e.Selection.Page++
	}
	return nil
}

// AddText appends a text element holding one empty paragraph and selects
// that block.
func (e *Editor) AddText(page int) (int, error) {
	if page < 0 || page >= len(e.Pages) {
		return 0, ErrOutOfRange
	}
	p := &e.Pages[page]
	p.Elements = append(p.Elements, &TextElement{Blocks: []Block{{Tag: TagParagraph}}})
	idx := len(p.Elements) - 1
	e.Selection = Selection{Page: page, Element: idx, Block: 0}
	return idx, nil
}

// RemoveElement deletes an element from a page.
func (e *Editor) RemoveElement(page, element int) error {
	if page < 0 || page >= len(e.Pages) {
		return ErrOutOfRange
	}
	p := &e.Pages[page]
	if element < 0 || element >= len(p.Elements) {
		return ErrOutOfRange
	}
	p.Elements = slices.Delete(p.Elements, element, element+1)
	if len(p.Elements) == 0 {
		p.Elements = nil
	}
	if e.Selection.Page == page {
		switch {
		case e.Selection.Element == element:
			e.Selection.Element, e.Selection.Block = -1, -1
		case e.Selection.Element > element:
			e.Selection.Element--
		}
	}
	return nil
}

// AddBlock appends a block with the given tag to a text element and
// selects it.
func (e *Editor) AddBlock(page, element int, tag Tag) (int, error) {
	if !slices.Contains(Tags, tag) {
		return 0, eris.Errorf("story: unknown block tag %q", tag)
	}
	t, err := e.text(page, element)
	if err != nil {
		return 0, err
	}
	t.Blocks = append(t.Blocks, Block{Tag: tag})
	idx := len(t.Blocks) - 1
	e.Selection = Selection{Page: page, Element: element, Block: idx}
	return idx, nil
}

// RemoveBlock deletes a block from a text element.
func (e *Editor) RemoveBlock(page, element, block int) error {
	t, err := e.text(page, element)
	if err != nil {
		return err
	}
	if block < 0 || block >= len(t.Blocks) {
		return ErrOutOfRange
	}
	t.Blocks = slices.Delete(t.Blocks, block, block+1)
	if len(t.Blocks) == 0 {
		t.Blocks = nil
	}
	if e.Selection.Page == page && e.Selection.Element == element {
		switch {
		case e.Selection.Block == block:
			e.Selection.Block = -1
		case e.Selection.Block > block:
			e.Selection.Block--
		}
	}
	return nil
}

// UpdateBlock replaces the text, tag and style of a block.
func (e *Editor) UpdateBlock(page, element, block int, b Block) error {
	if !slices.Contains(Tags, b.Tag) {
		return eris.Errorf("story: unknown block tag %q", b.Tag)
	}
	if b.Style.TextAlign != "" && !slices.Contains(TextAligns, b.Style.TextAlign) {
		return eris.Errorf("story: unknown text alignment %q", b.Style.TextAlign)
	}
	t, err := e.text(page, element)
	if err != nil {
		return err
	}
	if block < 0 || block >= len(t.Blocks) {
		return ErrOutOfRange
	}
	t.Blocks[block] = b
	return nil
}

// SetBackground replaces the page background.
func (e *Editor) SetBackground(page int, bg Background) error {
	if page < 0 || page >= len(e.Pages) {
		return ErrOutOfRange
	}
	if bg.Type != BackgroundImage && bg.Type != BackgroundVideo {
		return eris.Errorf("story: unknown background type %q", bg.Type)
	}
	e.Pages[page].Background = bg
	return nil
}

// AddMedia drops an image or video onto a page, which makes it the page
// background.
func (e *Editor) AddMedia(page int, media BackgroundType, url, alt string) error {
	if page < 0 || page >= len(e.Pages) {
		return ErrOutOfRange
	}
	if media != BackgroundImage && media != BackgroundVideo {
		return eris.Errorf("story: unknown media type %q", media)
	}
	p := &e.Pages[page]
	p.Elements = append(p.Elements, &MediaElement{Media: media, URL: url, Alt: alt})
	p.Normalize()
	return nil
}

// SetCTA sets the call to action of a page; nil removes it.
func (e *Editor) SetCTA(page int, cta *CTA) error {
	if page < 0 || page >= len(e.Pages) {
		return ErrOutOfRange
	}
	if cta != nil {
		c := *cta
		cta = &c
	}
	e.Pages[page].CTA = cta
	return nil
}

func (e *Editor) text(page, element int) (*TextElement, error) {
	if page < 0 || page >= len(e.Pages) {
		return nil, ErrOutOfRange
	}
	els := e.Pages[page].Elements
	if element < 0 || element >= len(els) {
		return nil, ErrOutOfRange
	}
	t, ok := els[element].(*TextElement)
	if !ok {
		return nil, eris.Errorf("story: element %d on page %d is not text", element, page)
	}
	return t, nil
}
