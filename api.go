package webstory

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/eringen/webstory/story"
)

const (
	apiDefaultLimit = 20
	apiMaxLimit     = 100
	claimsKey       = "api_claims"
)

type storyList struct {
	Stories []Story `json:"stories"`
	Total   int     `json:"total"`
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (a *App) setupAPI() {
	api := a.Echo.Group("/api/v1")
	api.GET("/stories", a.apiListStories)
	api.GET("/stories/:slug", a.apiGetStory)
	api.GET("/categories", a.apiListCategories)
	api.POST("/auth/token", a.apiToken)

	admin := api.Group("/admin", a.requireToken)
	admin.GET("/stories", a.apiAdminStories)
	admin.POST("/stories", a.apiCreateStory)
	admin.PUT("/stories/:id", a.apiUpdateStory)
	admin.DELETE("/stories/:id", a.apiDeleteStory)
	admin.POST("/categories", a.apiCreateCategory)
	admin.PUT("/categories/:id", a.apiUpdateCategory)
	admin.DELETE("/categories/:id", a.apiDeleteCategory)
	admin.GET("/dashboard", a.apiDashboard)
}

// requireToken accepts requests carrying a valid bearer token.
func (a *App) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			return jsonError(c, http.StatusUnauthorized, "missing bearer token")
		}
		claims, err := a.Auth.ParseToken(strings.TrimSpace(raw))
		if err != nil {
			return jsonError(c, http.StatusUnauthorized, "invalid token")
		}
		c.Set(claimsKey, claims)
		return next(c)
	}
}

func decodeBody(c echo.Context, dst any) error {
	if err := json.NewDecoder(c.Request().Body).Decode(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}
	return nil
}

func (a *App) apiListStories(c echo.Context) error {
	f := StoryFilter{
		Category: strings.TrimSpace(c.QueryParam("category")),
		Search:   strings.TrimSpace(c.QueryParam("search")),
		Status:   StatusPublished,
	}
	stories, err := a.filteredStories(c.Request().Context(), f)
	if err != nil {
		return err
	}
	limit := min(queryInt(c.QueryParam("limit"), apiDefaultLimit), apiMaxLimit)
	page := Paginate(stories, queryInt(c.QueryParam("page"), 1), limit)
	if page == nil {
		page = []Story{}
	}
	return renderJSON(c, http.StatusOK, storyList{Stories: page, Total: len(stories)})
}

func (a *App) apiGetStory(c echo.Context) error {
	st, err := a.publishedStory(c.Request().Context(), slugParam(c))
	if errors.Is(err, ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "story not found")
	}
	if err != nil {
		return err
	}
	return renderJSON(c, http.StatusOK, st)
}

func (a *App) apiListCategories(c echo.Context) error {
	cats, err := a.categories(c.Request().Context())
	if err != nil {
		return err
	}
	if cats == nil {
		cats = []Category{}
	}
	return renderJSON(c, http.StatusOK, cats)
}

func (a *App) apiToken(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		a.Metrics.LoginAttempts.WithLabelValues("limited").Inc()
		return jsonError(c, http.StatusTooManyRequests, "too many attempts")
	}
	var req tokenRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	acc, err := a.Auth.SignIn(c.Request().Context(), req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		a.loginLimiter.Record(ip)
		a.Metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		return jsonError(c, http.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		return err
	}
	a.loginLimiter.Reset(ip)
	a.Metrics.LoginAttempts.WithLabelValues("ok").Inc()
	token, expires, err := a.Auth.IssueToken(acc, time.Now())
	if err != nil {
		return err
	}
	return renderJSON(c, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expires})
}

func (a *App) apiAdminStories(c echo.Context) error {
	f := StoryFilter{
		Category: strings.TrimSpace(c.QueryParam("category")),
		Search:   strings.TrimSpace(c.QueryParam("search")),
		Status:   Status(c.QueryParam("status")),
	}
	stories, err := a.filteredStories(c.Request().Context(), f)
	if err != nil {
		return err
	}
	if stories == nil {
		stories = []Story{}
	}
	return renderJSON(c, http.StatusOK, storyList{Stories: stories, Total: len(stories)})
}

// checkStory rejects stories the viewer could not render.
func checkStory(st Story) error {
	if strings.TrimSpace(st.Title) == "" {
		return eris.New("title is required")
	}
	if st.Status != "" && st.Status != StatusDraft && st.Status != StatusPublished {
		return eris.Errorf("unknown status %q", st.Status)
	}
	if st.Content != "" {
		if _, err := story.Decode(st.Content); err != nil {
			return eris.Wrap(err, "invalid content")
		}
	}
	return nil
}

func (a *App) apiCreateStory(c echo.Context) error {
	var st Story
	if err := decodeBody(c, &st); err != nil {
		return err
	}
	st.ID, st.Views = "", 0
	if err := checkStory(st); err != nil {
		return jsonError(c, http.StatusUnprocessableEntity, err.Error())
	}
	if err := a.Store.SaveStory(c.Request().Context(), &st); err != nil {
		return err
	}
	a.invalidateStories(st.Slug)
	return renderJSON(c, http.StatusCreated, st)
}

func (a *App) apiUpdateStory(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	prev, err := a.Store.GetStory(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "story not found")
	}
	if err != nil {
		return err
	}
	// Fields absent from the body keep their stored values.
	st := prev
	if err := decodeBody(c, &st); err != nil {
		return err
	}
	st.ID, st.Views, st.CreatedAt = prev.ID, prev.Views, prev.CreatedAt
	if err := checkStory(st); err != nil {
		return jsonError(c, http.StatusUnprocessableEntity, err.Error())
	}
	a.AutoSaver.Cancel(id)
	if err := a.Store.SaveStory(ctx, &st); err != nil {
		return err
	}
	a.invalidateStories(st.Slug, prev.Slug)
	return renderJSON(c, http.StatusOK, st)
}

func (a *App) apiDeleteStory(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	prev, err := a.Store.GetStory(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "story not found")
	}
	if err != nil {
		return err
	}
	a.AutoSaver.Cancel(id)
	if err := a.Store.DeleteStory(ctx, id); err != nil {
		return err
	}
	a.invalidateStories(prev.Slug)
	if claims, ok := c.Get(claimsKey).(*TokenClaims); ok {
		a.Logger.WithFields(logrus.Fields{"story_id": id, "by": claims.Email}).Info("story deleted through api")
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *App) apiCreateCategory(c echo.Context) error {
	var cat Category
	if err := decodeBody(c, &cat); err != nil {
		return err
	}
	cat.ID, cat.StoryCount = "", 0
	return a.apiSaveCategory(c, &cat, http.StatusCreated)
}

func (a *App) apiUpdateCategory(c echo.Context) error {
	prev, err := a.Store.GetCategory(c.Request().Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "category not found")
	}
	if err != nil {
		return err
	}
	cat := prev
	if err := decodeBody(c, &cat); err != nil {
		return err
	}
	cat.ID, cat.CreatedAt = prev.ID, prev.CreatedAt
	return a.apiSaveCategory(c, &cat, http.StatusOK)
}

func (a *App) apiSaveCategory(c echo.Context, cat *Category, code int) error {
	if strings.TrimSpace(cat.Name) == "" {
		return jsonError(c, http.StatusUnprocessableEntity, "name is required")
	}
	if err := a.Store.SaveCategory(c.Request().Context(), cat); err != nil {
		return err
	}
	a.invalidateCategories()
	return renderJSON(c, code, cat)
}

func (a *App) apiDeleteCategory(c echo.Context) error {
	err := a.Store.DeleteCategory(c.Request().Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "category not found")
	}
	if err != nil {
		return err
	}
	a.invalidateCategories()
	return c.NoContent(http.StatusNoContent)
}

func (a *App) apiDashboard(c echo.Context) error {
	stats, err := a.dashboardStats(c.Request().Context())
	if err != nil {
		return err
	}
	return renderJSON(c, http.StatusOK, struct {
		DashboardStats
		PublishedPercent int `json:"publishedPercent"`
	}{stats, stats.PublishedPercent()})
}
