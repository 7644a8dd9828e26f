package webstory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
)

func (tc *testClient) api(method, target, token string, body any) *httptest.ResponseRecorder {
	tc.t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			tc.t.Fatalf("marshal: %v", err)
		}
		req = httptest.NewRequest(method, target, strings.NewReader(string(b)))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	return tc.do(req)
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func apiToken(t *testing.T, c *testClient) string {
	t.Helper()
	rec := c.api(http.MethodPost, "/api/v1/auth/token", "", tokenRequest{Email: testAdmin, Password: testPassword})
	if rec.Code != http.StatusOK {
		t.Fatalf("token: status %d body %s", rec.Code, rec.Body.String())
	}
	resp := decodeJSON[tokenResponse](t, rec)
	if resp.Token == "" || resp.ExpiresAt.IsZero() {
		t.Fatalf("token response = %+v", resp)
	}
	return resp.Token
}

func TestAPIPublicStories(t *testing.T) {
	a := newTestApp(t)
	c := newTestClient(t, a)
	for _, title := range []string{"Alpha trip", "Beta trip", "Gamma food"} {
		saveStory(t, a, Story{Title: title, Status: StatusPublished, Category: "travel"})
	}
	saveStory(t, a, Story{Title: "Hidden trip"})

	rec := c.api(http.MethodGet, "/api/v1/stories?search=trip&limit=1&page=2", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	list := decodeJSON[storyList](t, rec)
	if list.Total != 2 || len(list.Stories) != 1 {
		t.Errorf("list = total %d, %d stories; want 2, 1", list.Total, len(list.Stories))
	}

	rec = c.api(http.MethodGet, "/api/v1/stories?page=9", "", nil)
	if body := rec.Body.String(); !strings.Contains(body, `"stories":[]`) {
		t.Errorf("empty page body = %s", body)
	}

	rec = c.api(http.MethodGet, "/api/v1/stories/alpha-trip", "", nil)
	if rec.Code != http.StatusOK || decodeJSON[Story](t, rec).Title != "Alpha trip" {
		t.Errorf("get story: %d %s", rec.Code, rec.Body.String())
	}
	rec = c.api(http.MethodGet, "/api/v1/stories/hidden-trip", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("draft story served: %d", rec.Code)
	}
}

func TestAPITokenRejectsBadCredentials(t *testing.T) {
	a := newTestApp(t)
	c := newTestClient(t, a)
	rec := c.api(http.MethodPost, "/api/v1/auth/token", "", tokenRequest{Email: testAdmin, Password: "wrong-pass"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", rec.Code)
	}
}

func TestAPIAdminRequiresToken(t *testing.T) {
	a := newTestApp(t)
	c := newTestClient(t, a)
	for _, token := range []string{"", "not-a-jwt"} {
		rec := c.api(http.MethodGet, "/api/v1/admin/stories", token, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("token %q: status %d, want 401", token, rec.Code)
		}
	}
}

func TestAPIAdminStoryLifecycle(t *testing.T) {
	a := newTestApp(t)
	c := newTestClient(t, a)
	token := apiToken(t, c)

	rec := c.api(http.MethodPost, "/api/v1/admin/stories", token, map[string]any{"title": ""})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty title: status %d", rec.Code)
	}
	rec = c.api(http.MethodPost, "/api/v1/admin/stories", token, map[string]any{"title": "Bad", "content": "[]"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty page list: status %d", rec.Code)
	}

	rec = c.api(http.MethodPost, "/api/v1/admin/stories", token, map[string]any{
		"title":   "From the API",
		"content": pagesContent(t, "hello"),
		"status":  "published",
		"views":   99,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}
	created := decodeJSON[Story](t, rec)
	if created.ID == "" || created.Slug != "from-the-api" || created.Views != 0 {
		t.Errorf("created = %+v", created)
	}
	if rec := c.get("/story/from-the-api/"); rec.Code != http.StatusOK {
		t.Errorf("public viewer: status %d", rec.Code)
	}

	rec = c.api(http.MethodPut, "/api/v1/admin/stories/"+created.ID, token, map[string]any{"title": "Renamed", "slug": "renamed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", rec.Code, rec.Body.String())
	}
	updated := decodeJSON[Story](t, rec)
	if updated.Title != "Renamed" || updated.Content != created.Content || updated.Status != StatusPublished {
		t.Errorf("update should keep omitted fields: %+v", updated)
	}
	if rec := c.get("/story/from-the-api/"); rec.Code != http.StatusNotFound {
		t.Errorf("old slug still served: %d", rec.Code)
	}

	rec = c.api(http.MethodGet, "/api/v1/admin/dashboard", token, nil)
	if !strings.Contains(rec.Body.String(), `"publishedStories":1`) {
		t.Errorf("dashboard = %s", rec.Body.String())
	}

	if rec := c.api(http.MethodDelete, "/api/v1/admin/stories/"+created.ID, token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
	if rec := c.api(http.MethodDelete, "/api/v1/admin/stories/"+created.ID, token, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete: status %d", rec.Code)
	}
}

func TestAPIAdminCategories(t *testing.T) {
	a := newTestApp(t)
	c := newTestClient(t, a)
	token := apiToken(t, c)

	rec := c.api(http.MethodPost, "/api/v1/admin/categories", token, map[string]any{"name": "World News"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}
	cat := decodeJSON[Category](t, rec)
	if cat.Slug != "world-news" {
		t.Errorf("slug = %q", cat.Slug)
	}

	rec = c.api(http.MethodPut, "/api/v1/admin/categories/"+cat.ID, token, map[string]any{"description": "Global"})
	if rec.Code != http.StatusOK || decodeJSON[Category](t, rec).Name != "World News" {
		t.Errorf("update: %d %s", rec.Code, rec.Body.String())
	}

	rec = c.api(http.MethodGet, "/api/v1/categories", "", nil)
	cats := decodeJSON[[]Category](t, rec)
	if len(cats) != 1 || cats[0].Description != "Global" {
		t.Errorf("categories = %+v", cats)
	}

	if rec := c.api(http.MethodDelete, "/api/v1/admin/categories/"+cat.ID, token, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete: status %d", rec.Code)
	}
	if rec := c.api(http.MethodDelete, "/api/v1/admin/categories/"+cat.ID, token, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete: status %d", rec.Code)
	}
}

func TestCategoryStoryCountFollowsStoryChanges(t *testing.T) {
	a := newTestApp(t)
	c := newTestClient(t, a)
	token := apiToken(t, c)
	if err := a.Store.SaveCategory(context.Background(), &Category{Name: "Travel", Slug: "travel"}); err != nil {
		t.Fatalf("SaveCategory failed: %v", err)
	}

	storyCount := func() int {
		t.Helper()
		cats := decodeJSON[[]Category](t, c.api(http.MethodGet, "/api/v1/categories", "", nil))
		if len(cats) != 1 {
			t.Fatalf("categories = %+v", cats)
		}
		return cats[0].StoryCount
	}

	if n := storyCount(); n != 0 {
		t.Fatalf("storyCount = %d before any story", n)
	}
	rec := c.api(http.MethodPost, "/api/v1/admin/stories", token, map[string]any{"title": "Coastal walk", "category": "travel"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}
	created := decodeJSON[Story](t, rec)
	if n := storyCount(); n != 1 {
		t.Errorf("storyCount = %d after create, want 1", n)
	}

	if rec := c.api(http.MethodPut, "/api/v1/admin/stories/"+created.ID, token, map[string]any{"category": "food"}); rec.Code != http.StatusOK {
		t.Fatalf("update: status %d", rec.Code)
	}
	if n := storyCount(); n != 0 {
		t.Errorf("storyCount = %d after moving the story, want 0", n)
	}
}
