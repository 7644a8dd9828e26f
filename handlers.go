package webstory

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/mileusna/useragent"
	"github.com/sirupsen/logrus"

	"github.com/eringen/webstory/markdown"
	"github.com/eringen/webstory/story"
	"github.com/eringen/webstory/views"
)

const (
	homePageSize = 12
	stageWidth   = 360
	stageHeight  = 640
)

// invalidContentNotice replaces decode errors on the public viewer.
const invalidContentNotice = "This story's content could not be displayed."

func (a *App) handleHome(c echo.Context) error {
	f := StoryFilter{
		Category: strings.TrimSpace(c.QueryParam("category")),
		Search:   strings.TrimSpace(c.QueryParam("q")),
		Status:   StatusPublished,
	}
	page := queryInt(c.QueryParam("page"), 1)
	data := views.HomeData{Category: f.Category, Search: f.Search, Page: page}

	stories, err := a.filteredStories(c.Request().Context(), f)
	if err != nil {
		a.Logger.WithError(err).Error("loading stories for home")
		data.Error = "Stories could not be loaded right now. Please try again shortly."
	} else {
		for _, st := range Paginate(stories, page, homePageSize) {
			data.Stories = append(data.Stories, storyCard(st))
		}
		if page > 1 {
			data.PrevURL = homeURL(f, page-1)
		}
		if page*homePageSize < len(stories) {
			data.NextURL = homeURL(f, page+1)
		}
	}

	meta := views.Meta{URL: BuildURL(a.Config.URL), OGType: "website"}
	return Render(c, views.Home(a.layout(c, meta), data))
}

func homeURL(f StoryFilter, page int) string {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Search != "" {
		q.Set("q", f.Search)
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

// slugParam returns the unescaped :slug segment. echo hands back the raw
// segment when the request path carried escapes.
func slugParam(c echo.Context) string {
	raw := c.Param("slug")
	if s, err := url.PathUnescape(raw); err == nil {
		return s
	}
	return raw
}

func (a *App) handleStory(c echo.Context) error {
	ctx := c.Request().Context()
	st, err := a.publishedStory(ctx, slugParam(c))
	if errors.Is(err, ErrNotFound) {
		return a.renderNotFound(c)
	}
	if err != nil {
		return err
	}

	q := c.QueryParams()
	if !q.Has("page") && !isBot(c.Request().UserAgent()) {
		if err := a.Store.IncrementViews(ctx, st.ID); err != nil {
			a.Logger.WithFields(logrus.Fields{"story_id": st.ID}).WithError(err).Warn("counting story view")
		} else {
			a.Metrics.StoryViews.Inc()
		}
	}

	data, err := viewerData(st, st.Link(), q, story.Clamp, true)
	if err != nil {
		a.Logger.WithFields(logrus.Fields{"story_id": st.ID}).WithError(err).Warn("story content could not be rendered")
	}
	if stories, err := a.publishedStories(ctx); err == nil {
		for _, rel := range RelatedStories(st, stories, relatedStoryCount) {
			data.Related = append(data.Related, storyCard(rel))
		}
	}

	meta := views.Meta{
		Title:       st.Title,
		Description: storyDescription(st),
		URL:         firstNonEmpty(st.CanonicalURL, BuildURL(a.Config.URL, "story", st.Slug)),
		OGType:      "article",
		Image:       absoluteURL(a.Config.URL, st.CoverImage),
	}
	if data.Playing && data.Invalid == "" {
		meta.Refresh = fmt.Sprintf("%d;url=%s", int(story.DefaultInterval.Seconds()), viewerURL(data.Path, data.Frame.Index, true, "tick"))
	}
	l := a.layout(c, meta)
	l.PageJSONLD = StoryJsonLD(st, a.Config)
	return Render(c, views.Viewer(l, data))
}

// viewerData applies one navigation request to a story. The query carries
// the current page (1-based), whether autoplay is on, and at most one of
// nav, tap.x or swipe. Content that cannot be rendered yields a fixed
// reader-facing notice in Invalid and the underlying error.
func viewerData(st Story, path string, q url.Values, policy story.Policy, autoplay bool) (views.ViewerData, error) {
	data := views.ViewerData{
		Title:       st.Title,
		Path:        path,
		Category:    st.Category,
		Author:      st.Author,
		ReadingTime: st.ReadingTime,
		StageWidth:  stageWidth,
		StageHeight: stageHeight,
	}
	pages, err := st.Pages()
	if err != nil {
		data.Invalid = invalidContentNotice
		return data, err
	}

	n := navigate(q, len(pages), policy, autoplay)
	frame, err := story.Render(pages, n.Index)
	if err != nil {
		data.Invalid = invalidContentNotice
		return data, err
	}
	data.Frame = frame
	data.Playing = n.Playing
	if policy == story.Wrap || !frame.First() {
		data.PrevURL = viewerURL(data.Path, n.Index, n.Playing, "prev")
	}
	if policy == story.Wrap || !frame.Last() {
		data.NextURL = viewerURL(data.Path, n.Index, n.Playing, "next")
	}
	data.ToggleURL = viewerURL(data.Path, n.Index, n.Playing, "toggle")
	return data, nil
}

// navigate rebuilds the viewer state from the query and applies the
// requested move.
func navigate(q url.Values, total int, policy story.Policy, autoplay bool) *story.Navigator {
	n := story.NewNavigator(total, policy)
	n.Seek(queryInt(q.Get("page"), 1) - 1)
	n.Playing = autoplay
	if v := q.Get("play"); v != "" {
		n.Playing = v == "1"
	}
	switch {
	case q.Get("nav") == "next":
		n.Next()
	case q.Get("nav") == "prev":
		n.Prev()
	case q.Get("nav") == "toggle":
		n.Toggle()
	case q.Get("nav") == "tick":
		n.Tick(n.Interval)
	case q.Has("tap.x"):
		if x, err := strconv.ParseFloat(q.Get("tap.x"), 64); err == nil {
			n.Click(x, stageWidth)
		}
	case q.Has("swipe"):
		if dx, err := strconv.ParseFloat(q.Get("swipe"), 64); err == nil {
			n.Swipe(dx)
		}
	}
	return n
}

func viewerURL(path string, index int, playing bool, nav string) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(index+1))
	if playing {
		q.Set("play", "1")
	} else {
		q.Set("play", "0")
	}
	if nav != "" {
		q.Set("nav", nav)
	}
	return path + "?" + q.Encode()
}

func isBot(ua string) bool {
	if ua == "" {
		return true
	}
	return useragent.Parse(ua).Bot
}

// storyDescription is the first paragraph of the story, used for meta
// descriptions.
func storyDescription(st Story) string {
	pages, err := st.Pages()
	if err != nil {
		return ""
	}
	for _, p := range pages {
		for _, t := range p.TextElements() {
			for _, b := range t.Blocks {
				if b.Tag == story.TagParagraph && strings.TrimSpace(b.Value) != "" {
					return b.Value
				}
			}
		}
	}
	return ""
}

func storyCard(st Story) views.StoryCard {
	date := st.PublishDate
	if date == "" && !st.UpdatedAt.IsZero() {
		date = st.UpdatedAt.Format("2006-01-02")
	}
	return views.StoryCard{
		ID:          st.ID,
		Title:       st.Title,
		URL:         st.Link(),
		EditURL:     "/admin/story/edit/" + url.PathEscape(st.ID) + "/",
		CoverImage:  st.CoverImage,
		Category:    st.Category,
		Author:      st.Author,
		Status:      string(st.Status),
		Date:        date,
		Views:       st.Views,
		ReadingTime: st.ReadingTime,
	}
}

func (a *App) handleBlogList(c echo.Context) error {
	data := views.BlogListData{}
	posts, err := a.publishedPosts(c.Request().Context())
	if err != nil {
		a.Logger.WithError(err).Error("loading blog posts")
		data.Error = "Posts could not be loaded right now."
	}
	for _, p := range posts {
		data.Posts = append(data.Posts, postCard(p))
	}
	meta := views.Meta{Title: "Blog", URL: BuildURL(a.Config.URL, "blog"), OGType: "website"}
	return Render(c, views.BlogList(a.layout(c, meta), data))
}

func (a *App) handleBlogPost(c echo.Context) error {
	post, err := a.publishedPost(c.Request().Context(), slugParam(c))
	if errors.Is(err, ErrNotFound) {
		return a.renderNotFound(c)
	}
	if err != nil {
		return err
	}
	meta := views.Meta{
		Title:       firstNonEmpty(post.SEOTitle, post.Title),
		Description: post.SEODescription,
		URL:         BuildURL(a.Config.URL, "blog", post.Slug),
		OGType:      "article",
		Image:       absoluteURL(a.Config.URL, post.CoverImage),
	}
	return Render(c, views.BlogPost(a.layout(c, meta), views.BlogPostData{
		Post: postCard(post),
		HTML: markdown.ToHTML(post.Content),
	}))
}

func postCard(p BlogPost) views.PostCard {
	return views.PostCard{
		Title:       p.Title,
		URL:         p.Link(),
		EditURL:     "/admin/blog/edit/" + url.PathEscape(p.ID) + "/",
		CoverImage:  p.CoverImage,
		Description: p.SEODescription,
		Status:      string(p.Status),
		Date:        p.UpdatedAt.Format("2006-01-02"),
		Tags:        p.Tags,
	}
}

func (a *App) handleStaticPage(slug string) echo.HandlerFunc {
	return func(c echo.Context) error {
		p := staticPages[slug]
		meta := views.Meta{Title: p.Title, URL: BuildURL(a.Config.URL, slug), OGType: "website"}
		return Render(c, views.StaticPage(a.layout(c, meta), p))
	}
}

func (a *App) handleRobots(c echo.Context) error {
	body := "User-agent: *\nAllow: /\nDisallow: /admin/\nDisallow: /api/\n\nSitemap: " +
		strings.TrimRight(a.Config.URL, "/") + "/sitemap.xml\n"
	return c.String(http.StatusOK, body)
}

func (a *App) handleSitemap(c echo.Context) error {
	ctx := c.Request().Context()
	stories, err := a.publishedStories(ctx)
	if err != nil {
		return err
	}
	posts, err := a.publishedPosts(ctx)
	if err != nil {
		return err
	}
	return a.renderSitemap(c, stories, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	stories, err := a.publishedStories(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderRSS(c, stories)
}

// handleHealth reports whether the database answers.
func (a *App) handleHealth(c echo.Context) error {
	if err := a.Store.Ping(c.Request().Context()); err != nil {
		a.Logger.WithError(err).Error("health check failed")
		return jsonError(c, http.StatusServiceUnavailable, "database unavailable")
	}
	return renderJSON(c, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) renderNotFound(c echo.Context) error {
	return RenderStatus(c, http.StatusNotFound, views.Error(a.layout(c, views.Meta{Title: "Not found"}), views.ErrorData{
		Code:    http.StatusNotFound,
		Message: "The page you are looking for does not exist.",
	}))
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}
	if errors.Is(err, ErrNotFound) {
		code = http.StatusNotFound
	}
	api := strings.HasPrefix(c.Request().URL.Path, "/api/") || strings.HasPrefix(c.Request().URL.Path, "/admin/api/")

	if code >= http.StatusInternalServerError {
		a.Logger.WithFields(logrus.Fields{
			"method": c.Request().Method,
			"uri":    c.Request().RequestURI,
		}).WithError(err).Error("server error")
		if a.Sentry != nil {
			hub := a.Sentry.Clone()
			hub.Scope().SetRequest(c.Request())
			hub.CaptureException(err)
		}
		if api {
			_ = jsonError(c, code, http.StatusText(code))
			return
		}
		_ = RenderStatus(c, code, views.Error(a.layout(c, views.Meta{Title: "Error"}), views.ErrorData{
			Code:    code,
			Message: "Something went wrong on our side. Please try again.",
		}))
		return
	}
	if api {
		msg := http.StatusText(code)
		if he != nil {
			if m, ok := he.Message.(string); ok {
				msg = m
			}
		}
		_ = jsonError(c, code, msg)
		return
	}
	if code == http.StatusNotFound {
		_ = a.renderNotFound(c)
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
