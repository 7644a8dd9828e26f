package webstory

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/eringen/webstory/views"
)

func (a *App) adminLayout(c echo.Context, title string) views.Layout {
	l := a.layout(c, views.Meta{Title: title})
	l.Notice = c.QueryParam("msg")
	return l
}

func redirectWithMsg(c echo.Context, path, msg string) error {
	return c.Redirect(http.StatusSeeOther, path+"?msg="+url.QueryEscape(msg))
}

func (a *App) handleAdmin(c echo.Context) error {
	if IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/dashboard/")
	}
	return Render(c, views.AdminLogin(a.adminLayout(c, "Sign in"), views.LoginData{}))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	email := strings.TrimSpace(c.FormValue("email"))
	if !a.loginLimiter.Check(ip) {
		a.Metrics.LoginAttempts.WithLabelValues("limited").Inc()
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	acc, err := a.Auth.SignIn(c.Request().Context(), email, c.FormValue("password"))
	if errors.Is(err, ErrInvalidCredentials) {
		a.loginLimiter.Record(ip)
		a.Metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		a.Logger.WithFields(logrus.Fields{"ip": ip}).Warn("failed admin login")
		return RenderStatus(c, http.StatusUnauthorized, views.AdminLogin(a.adminLayout(c, "Sign in"), views.LoginData{
			Email: email,
			Error: "Invalid email or password.",
		}))
	}
	if err != nil {
		return err
	}
	a.loginLimiter.Reset(ip)
	a.Metrics.LoginAttempts.WithLabelValues("ok").Inc()
	if err := setAdminSession(c, acc); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/dashboard/")
}

func (a *App) handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/login/")
}

func (a *App) handleDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	data := views.DashboardData{}
	stats, err := a.dashboardStats(ctx)
	if err != nil {
		a.Logger.WithError(err).Error("loading dashboard stats")
		data.Error = "Statistics could not be loaded."
	}
	data.TotalStories = stats.TotalStories
	data.PublishedStories = stats.PublishedStories
	data.DraftStories = stats.DraftStories
	data.TotalCategories = stats.TotalCategories
	data.TotalViews = stats.TotalViews
	data.MonthlyViews = stats.MonthlyViews
	data.PublishedPercent = stats.PublishedPercent()

	recent, err := a.recentStories(ctx)
	if err != nil {
		a.Logger.WithError(err).Error("loading recent stories")
		data.Error = "Recent stories could not be loaded."
	}
	for _, st := range recent {
		data.Recent = append(data.Recent, storyCard(st))
	}
	return Render(c, views.AdminDashboard(a.adminLayout(c, "Dashboard"), data))
}

func (a *App) handleAdminStories(c echo.Context) error {
	ctx := c.Request().Context()
	f := StoryFilter{
		Category: strings.TrimSpace(c.QueryParam("category")),
		Search:   strings.TrimSpace(c.QueryParam("q")),
		Status:   Status(c.QueryParam("status")),
	}
	if f.Status != StatusDraft && f.Status != StatusPublished {
		f.Status = ""
	}
	data := views.StoriesData{Category: f.Category, Search: f.Search, Status: string(f.Status)}
	stories, err := a.filteredStories(ctx, f)
	if err != nil {
		a.Logger.WithError(err).Error("loading admin stories")
		data.Error = "Stories could not be loaded."
	}
	for _, st := range stories {
		data.Stories = append(data.Stories, storyCard(st))
	}
	data.Categories = a.categoryOptions(c)
	return Render(c, views.AdminStories(a.adminLayout(c, "Stories"), data))
}

func (a *App) categoryOptions(c echo.Context) []views.CategoryLink {
	cats, err := a.categories(c.Request().Context())
	if err != nil {
		a.Logger.WithError(err).Warn("loading category options")
	}
	out := make([]views.CategoryLink, 0, len(cats))
	for _, cat := range cats {
		out = append(out, views.CategoryLink{Name: cat.Name, Slug: cat.Slug, Count: cat.StoryCount})
	}
	return out
}

func (a *App) handleStoryDelete(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	st, err := a.Store.GetStory(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return redirectWithMsg(c, "/admin/stories/", "Story not found.")
	}
	if err != nil {
		return err
	}
	a.AutoSaver.Cancel(id)
	if err := a.Store.DeleteStory(ctx, id); err != nil {
		a.Logger.WithFields(logrus.Fields{"story_id": id}).WithError(err).Error("deleting story")
		return redirectWithMsg(c, "/admin/stories/", "The story could not be deleted. Please try again.")
	}
	a.invalidateStories(st.Slug)
	return redirectWithMsg(c, "/admin/stories/", "Story deleted.")
}

func (a *App) handleCategories(c echo.Context) error {
	return a.renderCategories(c, views.CategoryRow{ID: c.QueryParam("edit")}, "")
}

func (a *App) renderCategories(c echo.Context, form views.CategoryRow, errMsg string) error {
	ctx := c.Request().Context()
	data := views.CategoriesData{Form: form, Error: errMsg}
	cats, err := a.categories(ctx)
	if err != nil {
		a.Logger.WithError(err).Error("loading categories")
		data.Error = "Categories could not be loaded."
	}
	for _, cat := range cats {
		row := categoryRow(cat)
		data.Categories = append(data.Categories, row)
		if form.ID == cat.ID && form.Name == "" {
			data.Form = row
		}
	}
	return Render(c, views.AdminCategories(a.adminLayout(c, "Categories"), data))
}

func categoryRow(cat Category) views.CategoryRow {
	return views.CategoryRow{
		ID:          cat.ID,
		Name:        cat.Name,
		Slug:        cat.Slug,
		Description: cat.Description,
		StoryCount:  cat.StoryCount,
	}
}

func (a *App) handleCategorySave(c echo.Context) error {
	cat := Category{
		ID:          strings.TrimSpace(c.FormValue("id")),
		Name:        strings.TrimSpace(c.FormValue("name")),
		Slug:        strings.TrimSpace(c.FormValue("slug")),
		Description: strings.TrimSpace(c.FormValue("description")),
	}
	if err := a.Store.SaveCategory(c.Request().Context(), &cat); err != nil {
		a.Logger.WithError(err).Error("saving category")
		return a.renderCategories(c, categoryRow(cat), "The category could not be saved: "+err.Error())
	}
	a.invalidateCategories()
	return redirectWithMsg(c, "/admin/categories/", "Category saved.")
}

func (a *App) handleCategoryDelete(c echo.Context) error {
	err := a.Store.DeleteCategory(c.Request().Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		return redirectWithMsg(c, "/admin/categories/", "Category not found.")
	}
	if err != nil {
		a.Logger.WithError(err).Error("deleting category")
		return redirectWithMsg(c, "/admin/categories/", "The category could not be deleted.")
	}
	a.invalidateCategories()
	return redirectWithMsg(c, "/admin/categories/", "Category deleted.")
}

func (a *App) handleSettings(c echo.Context) error {
	return a.renderSettings(c, a.siteSettings(c.Request().Context()), "")
}

func (a *App) renderSettings(c echo.Context, s SiteSettings, errMsg string) error {
	return Render(c, views.AdminSettings(a.adminLayout(c, "Settings"), views.SettingsData{
		SiteTitle:       s.SiteTitle,
		SiteDescription: s.SiteDescription,
		LogoURL:         s.LogoURL,
		AdsenseCode:     s.AdsenseCode,
		AnalyticsCode:   s.AnalyticsCode,
		Facebook:        s.Facebook,
		Twitter:         s.Twitter,
		Instagram:       s.Instagram,
		Error:           errMsg,
	}))
}

func (a *App) handleSettingsSave(c echo.Context) error {
	s := SiteSettings{
		SiteTitle:       strings.TrimSpace(c.FormValue("siteTitle")),
		SiteDescription: strings.TrimSpace(c.FormValue("siteDescription")),
		LogoURL:         strings.TrimSpace(c.FormValue("logoUrl")),
		AdsenseCode:     c.FormValue("adsenseCode"),
		AnalyticsCode:   c.FormValue("analyticsCode"),
		Facebook:        strings.TrimSpace(c.FormValue("facebook")),
		Twitter:         strings.TrimSpace(c.FormValue("twitter")),
		Instagram:       strings.TrimSpace(c.FormValue("instagram")),
	}
	if err := s.Validate(); err != nil {
		return a.renderSettings(c, s, err.Error())
	}
	if err := a.Store.SaveSiteSettings(c.Request().Context(), s); err != nil {
		a.Logger.WithError(err).Error("saving site settings")
		return a.renderSettings(c, s, "Settings could not be saved. Please try again.")
	}
	a.Cache.Invalidate(keySettings)
	return redirectWithMsg(c, "/admin/settings/", "Settings saved.")
}

func (a *App) handleFooter(c echo.Context) error {
	return a.renderFooter(c, a.footerSettings(c.Request().Context()), "")
}

func (a *App) renderFooter(c echo.Context, f FooterSettings, errMsg string) error {
	return Render(c, views.AdminFooter(a.adminLayout(c, "Footer"), views.FooterData{
		Brand:       f.Brand,
		Description: f.Description,
		Facebook:    f.Facebook,
		WhatsApp:    f.WhatsApp,
		Instagram:   f.Instagram,
		YouTube:     f.YouTube,
		Copyright:   f.Copyright,
		Error:       errMsg,
	}))
}

func (a *App) handleFooterSave(c echo.Context) error {
	f := FooterSettings{
		Brand:       strings.TrimSpace(c.FormValue("brand")),
		Description: strings.TrimSpace(c.FormValue("description")),
		Facebook:    strings.TrimSpace(c.FormValue("facebook")),
		WhatsApp:    strings.TrimSpace(c.FormValue("whatsapp")),
		Instagram:   strings.TrimSpace(c.FormValue("instagram")),
		YouTube:     strings.TrimSpace(c.FormValue("youtube")),
		Copyright:   strings.TrimSpace(c.FormValue("copyright")),
	}
	if err := f.Validate(); err != nil {
		return a.renderFooter(c, f, err.Error())
	}
	if err := a.Store.SaveFooterSettings(c.Request().Context(), f); err != nil {
		a.Logger.WithError(err).Error("saving footer settings")
		return a.renderFooter(c, f, "Footer could not be saved. Please try again.")
	}
	a.Cache.Invalidate(keySettings)
	return redirectWithMsg(c, "/admin/footer/", "Footer saved.")
}

func (a *App) handleAdminBlogs(c echo.Context) error {
	data := views.BlogsData{}
	posts, err := a.Store.ListPosts(c.Request().Context(), false)
	if err != nil {
		a.Logger.WithError(err).Error("loading admin posts")
		data.Error = "Posts could not be loaded."
	}
	for _, p := range posts {
		data.Posts = append(data.Posts, postCard(p))
	}
	return Render(c, views.AdminBlogs(a.adminLayout(c, "Blog"), data))
}

func (a *App) handleBlogEditor(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return a.renderBlogEditor(c, BlogPost{Status: StatusDraft, Author: a.Config.Author}, "")
	}
	post, err := a.Store.GetPost(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return redirectWithMsg(c, "/admin/blogs/", "Post not found.")
	}
	if err != nil {
		return err
	}
	return a.renderBlogEditor(c, post, "")
}

func (a *App) renderBlogEditor(c echo.Context, p BlogPost, errMsg string) error {
	action := "/admin/blog/new/"
	if p.ID != "" {
		action = "/admin/blog/edit/" + url.PathEscape(p.ID) + "/"
	}
	return Render(c, views.AdminBlogEditor(a.adminLayout(c, "Blog editor"), views.BlogEditorData{
		Action: action,
		Error:  errMsg,
		Post: views.PostForm{
			ID:             p.ID,
			Title:          p.Title,
			Slug:           p.Slug,
			Content:        p.Content,
			CoverImage:     p.CoverImage,
			Tags:           JoinTags(p.Tags),
			Status:         string(p.Status),
			Author:         p.Author,
			SEOTitle:       p.SEOTitle,
			SEODescription: p.SEODescription,
		},
	}))
}

func (a *App) handleBlogSave(c echo.Context) error {
	p := BlogPost{
		ID:             c.Param("id"),
		Title:          strings.TrimSpace(c.FormValue("title")),
		Slug:           strings.TrimSpace(c.FormValue("slug")),
		Content:        c.FormValue("content"),
		CoverImage:     strings.TrimSpace(c.FormValue("coverImage")),
		Tags:           SplitTags(c.FormValue("tags")),
		Status:         Status(c.FormValue("status")),
		Author:         strings.TrimSpace(c.FormValue("author")),
		SEOTitle:       strings.TrimSpace(c.FormValue("seoTitle")),
		SEODescription: strings.TrimSpace(c.FormValue("seoDescription")),
	}
	if p.Status != StatusPublished {
		p.Status = StatusDraft
	}
	if err := a.Store.SavePost(c.Request().Context(), &p); err != nil {
		a.Logger.WithError(err).Error("saving post")
		return a.renderBlogEditor(c, p, "The post could not be saved: "+err.Error())
	}
	a.invalidatePosts()
	return redirectWithMsg(c, "/admin/blogs/", "Post saved.")
}

func (a *App) handleBlogDelete(c echo.Context) error {
	err := a.Store.DeletePost(c.Request().Context(), c.Param("id"))
	if err != nil && !errors.Is(err, ErrNotFound) {
		a.Logger.WithError(err).Error("deleting post")
		return redirectWithMsg(c, "/admin/blogs/", "The post could not be deleted.")
	}
	a.invalidatePosts()
	return redirectWithMsg(c, "/admin/blogs/", "Post deleted.")
}
