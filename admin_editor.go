package webstory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/eringen/webstory/story"
	"github.com/eringen/webstory/views"
)

const blockPreviewLen = 40

// Editor actions posted in the "action" field. Some carry indexes after a
// colon, e.g. "select-block:0:2".
const (
	actionUpdate        = "update"
	actionSaveDraft     = "save-draft"
	actionPublish       = "publish"
	actionAddPage       = "add-page"
	actionRemovePage    = "remove-page"
	actionMovePageUp    = "move-page-up"
	actionMovePageDown  = "move-page-down"
	actionSelectPage    = "select-page"
	actionAddText       = "add-text"
	actionRemoveElement = "remove-element"
	actionSelectElement = "select-element"
	actionAddBlock      = "add-block"
	actionRemoveBlock   = "remove-block"
	actionSelectBlock   = "select-block"
	actionAddMedia      = "add-media"
	actionClearCTA      = "clear-cta"
	actionPreviewPrev   = "preview-prev"
	actionPreviewNext   = "preview-next"
)

func editURL(id string) string {
	return "/admin/story/edit/" + url.PathEscape(id) + "/"
}

func (a *App) handleEditorNew(c echo.Context) error {
	st := Story{Status: StatusDraft, Author: a.Config.Author, PublisherName: a.Config.Name}
	return a.renderEditor(c, http.StatusOK, st, story.NewEditor(nil), "")
}

func (a *App) handleEditorEdit(c echo.Context) error {
	st, err := a.Store.GetStory(c.Request().Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		return redirectWithMsg(c, "/admin/stories/", "Story not found.")
	}
	if err != nil {
		return err
	}
	pages, err := st.Pages()
	if err != nil {
		return a.renderEditor(c, http.StatusOK, st, story.NewEditor(nil),
			"The saved content could not be read and was replaced by a blank page: "+err.Error())
	}
	return a.renderEditor(c, http.StatusOK, st, story.NewEditor(pages), "")
}

// handleEditorPost applies one editor action to the posted state. The
// whole story travels with every request, so a failed action or save
// re-renders exactly what the author had.
func (a *App) handleEditorPost(c echo.Context) error {
	st := storyFromForm(c)
	if id := c.Param("id"); id != "" {
		st.ID = id
	}
	ed, err := editorFromForm(c)
	if err != nil {
		return a.renderEditor(c, http.StatusUnprocessableEntity, st, ed,
			"The page data could not be read; editing continues from a blank page: "+err.Error())
	}

	var notices []string
	if err := applyPendingEdits(c, ed); err != nil {
		notices = append(notices, err.Error())
	}
	action := c.FormValue("action")
	if err := applyAction(c, ed, action); err != nil {
		notices = append(notices, err.Error())
	}

	switch action {
	case actionSaveDraft, actionPublish:
		if len(notices) > 0 {
			return a.renderEditor(c, http.StatusUnprocessableEntity, st, ed, strings.Join(notices, " "))
		}
		return a.saveFromEditor(c, st, ed, action == actionPublish)
	}

	if st.ID != "" && len(notices) == 0 {
		if content, err := ed.Encode(); err == nil {
			snapshot := st
			snapshot.Content = content
			a.AutoSaver.Schedule(snapshot)
		}
	}
	return a.renderEditor(c, http.StatusOK, st, ed, strings.Join(notices, " "))
}

func (a *App) saveFromEditor(c echo.Context, st Story, ed *story.Editor, publish bool) error {
	ctx := c.Request().Context()
	content, err := ed.Encode()
	if err != nil {
		return a.renderEditor(c, http.StatusUnprocessableEntity, st, ed, "The story could not be saved: "+err.Error())
	}
	st.Content = content
	if strings.TrimSpace(st.Title) == "" {
		return a.renderEditor(c, http.StatusUnprocessableEntity, st, ed, "A title is required.")
	}
	if publish {
		st.Status = StatusPublished
		if st.PublishDate == "" {
			st.PublishDate = time.Now().Format("2006-01-02")
		}
	} else {
		st.Status = StatusDraft
	}

	var prevSlug string
	if st.ID != "" {
		a.AutoSaver.Cancel(st.ID)
		if prev, err := a.Store.GetStory(ctx, st.ID); err == nil {
			prevSlug = prev.Slug
		}
	}
	draft := st
	if err := a.Store.SaveStory(ctx, &st); err != nil {
		a.Logger.WithFields(logrus.Fields{"story_id": draft.ID}).WithError(err).Error("saving story from editor")
		// SaveStory assigns an id to new stories before writing.
		st.ID, st.Slug = draft.ID, draft.Slug
		return a.renderEditor(c, http.StatusInternalServerError, st, ed, "The story could not be saved. Your changes are still here; please try again.")
	}
	a.invalidateStories(st.Slug, prevSlug)

	if publish {
		return redirectWithMsg(c, "/admin/dashboard/", fmt.Sprintf("%q published.", st.Title))
	}
	return redirectWithMsg(c, editURL(st.ID), "Draft saved.")
}

// handleAutoSave queues a debounced save of the posted editor state.
func (a *App) handleAutoSave(c echo.Context) error {
	st := storyFromForm(c)
	st.ID = c.Param("id")
	ed, err := editorFromForm(c)
	if err != nil {
		return jsonError(c, http.StatusUnprocessableEntity, err.Error())
	}
	if err := applyPendingEdits(c, ed); err != nil {
		return jsonError(c, http.StatusUnprocessableEntity, err.Error())
	}
	content, err := ed.Encode()
	if err != nil {
		return jsonError(c, http.StatusUnprocessableEntity, err.Error())
	}
	st.Content = content
	scheduled := a.AutoSaver.Schedule(st)
	return renderJSON(c, http.StatusAccepted, map[string]any{
		"scheduled": scheduled,
		"delayMs":   a.Config.AutoSaveDelay.Milliseconds(),
	})
}

// autoSaveStory is the AutoSaver's save function. It never overwrites a
// story that was published or deleted since the snapshot was taken.
func (a *App) autoSaveStory(ctx context.Context, st Story) error {
	prev, err := a.Store.GetStory(ctx, st.ID)
	if err != nil {
		return eris.Wrapf(err, "loading story %s for auto-save", st.ID)
	}
	if prev.Status != StatusDraft {
		return nil
	}
	st.Status = StatusDraft
	if err := a.Store.SaveStory(ctx, &st); err != nil {
		return err
	}
	a.invalidateStories(st.Slug, prev.Slug)
	return nil
}

func (a *App) handleEditorClose(c echo.Context) error {
	a.AutoSaver.Cancel(c.Param("id"))
	return c.Redirect(http.StatusSeeOther, "/admin/stories/")
}

// handleStoryPreview shows a saved story of any status in the viewer, with
// navigation wrapping around and autoplay off until toggled.
func (a *App) handleStoryPreview(c echo.Context) error {
	id := c.Param("id")
	st, err := a.Store.GetStory(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return a.renderNotFound(c)
	}
	if err != nil {
		return err
	}
	path := "/admin/story/preview/" + url.PathEscape(id) + "/"
	data, err := viewerData(st, path, c.QueryParams(), story.Wrap, false)
	if err != nil {
		// Editors get the decode reason.
		data.Invalid = err.Error()
	}
	data.Preview = true
	data.PreviewBackURL = editURL(id)

	meta := views.Meta{Title: "Preview: " + st.Title}
	if data.Playing && data.Invalid == "" {
		meta.Refresh = fmt.Sprintf("%d;url=%s", int(story.DefaultInterval.Seconds()), viewerURL(path, data.Frame.Index, true, "tick"))
	}
	return Render(c, views.Viewer(a.layout(c, meta), data))
}

func storyFromForm(c echo.Context) Story {
	f := func(name string) string { return strings.TrimSpace(c.FormValue(name)) }
	st := Story{
		ID:               f("id"),
		Title:            f("title"),
		Slug:             f("slug"),
		Category:         f("category"),
		CoverImage:       f("coverImage"),
		Status:           Status(f("status")),
		Tags:             SplitTags(c.FormValue("tags")),
		Author:           f("author"),
		PublisherName:    f("publisherName"),
		PublisherLogoAlt: f("publisherLogoAlt"),
		PosterAlt:        f("posterAlt"),
		PublishDate:      f("publishDate"),
		UpdateDate:       f("updateDate"),
		CanonicalURL:     f("canonicalUrl"),
	}
	if st.Status != StatusPublished {
		st.Status = StatusDraft
	}
	return st
}

func formInt(c echo.Context, name string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.FormValue(name)))
	if err != nil {
		return fallback
	}
	return n
}

// editorFromForm restores the editor from the posted content and selection.
// Undecodable content yields a blank editor and the decode error.
func editorFromForm(c echo.Context) (*story.Editor, error) {
	var pages []story.Page
	if content := c.FormValue("content"); strings.TrimSpace(content) != "" {
		p, err := story.Decode(content)
		if err != nil {
			return story.NewEditor(nil), err
		}
		pages = p
	}
	ed := story.NewEditor(pages)
	if err := ed.Select(formInt(c, "sel_page", 0), formInt(c, "sel_element", -1), formInt(c, "sel_block", -1)); err != nil {
		_ = ed.Select(0, -1, -1)
	}
	return ed, nil
}

// applyPendingEdits copies the inspector fields of the selected page and
// block into the editor before the action runs.
func applyPendingEdits(c echo.Context, ed *story.Editor) error {
	form, err := c.FormParams()
	if err != nil {
		return eris.Wrap(err, "reading form")
	}
	page := ed.Selection.Page
	var errs []string

	if form.Has("bg_type") {
		bg := story.Background{
			Type: story.BackgroundType(form.Get("bg_type")),
			URL:  strings.TrimSpace(form.Get("bg_url")),
			Alt:  strings.TrimSpace(form.Get("bg_alt")),
		}
		if err := ed.SetBackground(page, bg); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if form.Has("cta_text") {
		cta := &story.CTA{
			Text:            strings.TrimSpace(form.Get("cta_text")),
			URL:             strings.TrimSpace(form.Get("cta_url")),
			BackgroundColor: strings.TrimSpace(form.Get("cta_bg")),
			TextColor:       strings.TrimSpace(form.Get("cta_color")),
		}
		if cta.Text == "" && cta.URL == "" {
			cta = nil
		}
		if err := ed.SetCTA(page, cta); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if form.Has("block_value") && ed.Selection.Block >= 0 {
		b := story.Block{
			Tag:   story.Tag(form.Get("block_tag")),
			Value: form.Get("block_value"),
			Style: story.Style{
				FontSize:      strings.TrimSpace(form.Get("style_fontSize")),
				Color:         strings.TrimSpace(form.Get("style_color")),
				FontWeight:    strings.TrimSpace(form.Get("style_fontWeight")),
				Italic:        form.Get("style_italic") == "1",
				LetterSpacing: strings.TrimSpace(form.Get("style_letterSpacing")),
				LineHeight:    strings.TrimSpace(form.Get("style_lineHeight")),
				TextAlign:     strings.TrimSpace(form.Get("style_textAlign")),
			},
		}
		if err := ed.UpdateBlock(page, ed.Selection.Element, ed.Selection.Block, b); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return eris.New(strings.Join(errs, "; "))
	}
	return nil
}

func parseAction(action string) (string, []int, error) {
	parts := strings.Split(action, ":")
	args := make([]int, 0, len(parts)-1)
	for _, p := range parts[1:] {
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", nil, eris.Errorf("malformed editor action %q", action)
		}
		args = append(args, n)
	}
	return parts[0], args, nil
}

func applyAction(c echo.Context, ed *story.Editor, action string) error {
	name, args, err := parseAction(action)
	if err != nil {
		return err
	}
	arg := func(i int) int {
		if i < len(args) {
			return args[i]
		}
		return -1
	}
	page := ed.Selection.Page

	switch name {
	case "", actionUpdate, actionSaveDraft, actionPublish:
		return nil
	case actionAddPage:
		ed.AddPage()
	case actionRemovePage:
		return ed.RemovePage(arg(0))
	case actionMovePageUp:
		if page > 0 {
			return ed.MovePage(page, page-1)
		}
	case actionMovePageDown:
		if page < len(ed.Pages)-1 {
			return ed.MovePage(page, page+1)
		}
	case actionSelectPage:
		return ed.Select(arg(0), -1, -1)
	case actionAddText:
		_, err := ed.AddText(page)
		return err
	case actionRemoveElement:
		return ed.RemoveElement(page, arg(0))
	case actionSelectElement:
		return ed.Select(page, arg(0), -1)
	case actionAddBlock:
		_, err := ed.AddBlock(page, ed.Selection.Element, story.Tag(c.FormValue("new_tag")))
		return err
	case actionRemoveBlock:
		return ed.RemoveBlock(page, arg(0), arg(1))
	case actionSelectBlock:
		return ed.Select(page, arg(0), arg(1))
	case actionAddMedia:
		mediaURL := strings.TrimSpace(c.FormValue("media_url"))
		if mediaURL == "" {
			return eris.New("a media URL is required")
		}
		return ed.AddMedia(page, story.BackgroundType(c.FormValue("media_type")), mediaURL, strings.TrimSpace(c.FormValue("media_alt")))
	case actionClearCTA:
		return ed.SetCTA(page, nil)
	case actionPreviewPrev, actionPreviewNext:
		n := story.NewNavigator(len(ed.Pages), story.Wrap)
		n.Seek(page)
		if name == actionPreviewPrev {
			n.Prev()
		} else {
			n.Next()
		}
		return ed.Select(n.Index, -1, -1)
	default:
		return eris.Errorf("unknown editor action %q", name)
	}
	return nil
}

func (a *App) renderEditor(c echo.Context, code int, st Story, ed *story.Editor, errMsg string) error {
	content, err := ed.Encode()
	if err != nil {
		content = c.FormValue("content")
		errMsg = strings.TrimSpace(errMsg + " " + err.Error())
	}

	data := views.EditorData{
		Action:    "/admin/story/new/",
		IsNew:     st.ID == "",
		Content:   content,
		Selection: ed.Selection,
		Story: views.StoryForm{
			ID:               st.ID,
			Title:            st.Title,
			Slug:             st.Slug,
			Category:         st.Category,
			CoverImage:       st.CoverImage,
			Tags:             JoinTags(st.Tags),
			Author:           st.Author,
			Status:           string(st.Status),
			PublisherName:    st.PublisherName,
			PublisherLogoAlt: st.PublisherLogoAlt,
			PosterAlt:        st.PosterAlt,
			PublishDate:      st.PublishDate,
			UpdateDate:       st.UpdateDate,
			CanonicalURL:     st.CanonicalURL,
		},
		Categories: a.categoryOptions(c),
		Error:      errMsg,
	}
	if st.ID != "" {
		data.Action = editURL(st.ID)
		data.CloseURL = "/admin/story/" + url.PathEscape(st.ID) + "/close/"
		if st.Status == StatusDraft {
			data.AutoSaveURL = "/admin/api/stories/" + url.PathEscape(st.ID) + "/autosave"
		}
	}
	for _, t := range story.Tags {
		data.Tags = append(data.Tags, string(t))
	}

	for i, p := range ed.Pages {
		data.Pages = append(data.Pages, views.PageThumb{
			Index:      i,
			Label:      fmt.Sprintf("%d. %s", i+1, firstNonEmpty(pageSnippet(p), "Untitled")),
			Background: p.Background.URL,
			Selected:   i == ed.Selection.Page,
		})
	}

	cur := ed.Current()
	data.Background = cur.Background
	if cur.CTA != nil {
		data.CTA = *cur.CTA
	}
	for i, el := range cur.Elements {
		row := views.ElementRow{Index: i, Kind: string(el.Kind()), Selected: i == ed.Selection.Element}
		if t, ok := el.(*story.TextElement); ok {
			for j, b := range t.Blocks {
				row.Blocks = append(row.Blocks, views.BlockRow{
					Index:    j,
					Tag:      string(b.Tag),
					Preview:  truncate(b.Value, blockPreviewLen),
					Selected: row.Selected && j == ed.Selection.Block,
				})
			}
		}
		data.Elements = append(data.Elements, row)
	}
	if b, ok := ed.SelectedBlock(); ok {
		data.Block = &b
	}
	if frame, err := story.Render(ed.Pages, ed.Selection.Page); err == nil {
		data.Preview = frame
	}

	if imgs, err := a.Store.ListImages(c.Request().Context()); err == nil {
		for _, img := range imgs {
			data.Images = append(data.Images, imageItem(img))
		}
	}

	return RenderStatus(c, code, views.AdminEditor(a.adminLayout(c, "Story editor"), data))
}

func pageSnippet(p story.Page) string {
	for _, t := range p.TextElements() {
		for _, b := range t.Blocks {
			if v := strings.TrimSpace(b.Value); v != "" {
				return truncate(v, blockPreviewLen/2)
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}
