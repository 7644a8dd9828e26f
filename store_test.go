package webstory

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/eringen/webstory/story"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "test.db"), quietLogger())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// pagesContent encodes one text page per paragraph.
func pagesContent(t *testing.T, paragraphs ...string) string {
	t.Helper()
	var pages []story.Page
	for _, p := range paragraphs {
		page := story.NewPage()
		page.Elements = []story.Element{&story.TextElement{Blocks: []story.Block{{Tag: story.TagParagraph, Value: p}}}}
		pages = append(pages, page)
	}
	content, err := story.Encode(pages)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	return content
}

func TestNewStoreCreatesDataDir(t *testing.T) {
	s := setupTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestNewStoreReopensMigratedDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(path, quietLogger())
	if err != nil {
		t.Fatalf("first open failed: %v", err)
	}
	s.Close()
	s, err = NewStore(path, quietLogger())
	if err != nil {
		t.Fatalf("second open failed: %v", err)
	}
	s.Close()
}

func TestSaveAndGetStory(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	st := Story{
		Title:    "Amazing Travel Adventure",
		Content:  pagesContent(t, "one two three"),
		Category: "travel",
		Tags:     []string{"Beach", " sun "},
		Author:   "Ana",
	}
	if err := s.SaveStory(ctx, &st); err != nil {
		t.Fatalf("SaveStory failed: %v", err)
	}
	if st.ID == "" {
		t.Fatal("SaveStory should assign an id")
	}
	if st.Slug != "amazing-travel-adventure" {
		t.Errorf("Slug = %q, want amazing-travel-adventure", st.Slug)
	}
	if st.Status != StatusDraft {
		t.Errorf("Status = %q, want draft", st.Status)
	}
	if st.ReadingTime != 1 {
		t.Errorf("ReadingTime = %d, want 1", st.ReadingTime)
	}

	got, err := s.GetStory(ctx, st.ID)
	if err != nil {
		t.Fatalf("GetStory failed: %v", err)
	}
	if got.Title != st.Title || got.Content != st.Content || got.Category != "travel" {
		t.Errorf("GetStory returned %+v", got)
	}
	if diff := cmp.Diff([]string{"beach", "sun"}, got.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}

	bySlug, err := s.GetStoryBySlug(ctx, st.Slug)
	if err != nil {
		t.Fatalf("GetStoryBySlug failed: %v", err)
	}
	if bySlug.ID != st.ID {
		t.Errorf("GetStoryBySlug id = %q, want %q", bySlug.ID, st.ID)
	}
}

func TestSaveStoryUpdateKeepsViewsAndCreatedAt(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	st := Story{Title: "First"}
	if err := s.SaveStory(ctx, &st); err != nil {
		t.Fatalf("SaveStory failed: %v", err)
	}
	if err := s.IncrementViews(ctx, st.ID); err != nil {
		t.Fatalf("IncrementViews failed: %v", err)
	}
	created := st.CreatedAt

	update := Story{ID: st.ID, Title: "First edited", Slug: st.Slug, Status: StatusPublished}
	if err := s.SaveStory(ctx, &update); err != nil {
		t.Fatalf("SaveStory update failed: %v", err)
	}
	got, err := s.GetStory(ctx, st.ID)
	if err != nil {
		t.Fatalf("GetStory failed: %v", err)
	}
	if got.Title != "First edited" || got.Status != StatusPublished {
		t.Errorf("update not applied: %+v", got)
	}
	if got.Views != 1 {
		t.Errorf("Views = %d, want 1", got.Views)
	}
	if !got.CreatedAt.Equal(created.UTC().Truncate(time.Microsecond)) {
		t.Errorf("CreatedAt changed: %v -> %v", created, got.CreatedAt)
	}
}

func TestSaveStoryMakesSlugUnique(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	var slugs []string
	for range 3 {
		st := Story{Title: "Same Title"}
		if err := s.SaveStory(ctx, &st); err != nil {
			t.Fatalf("SaveStory failed: %v", err)
		}
		slugs = append(slugs, st.Slug)
	}
	if diff := cmp.Diff([]string{"same-title", "same-title-2", "same-title-3"}, slugs); diff != "" {
		t.Errorf("slugs mismatch (-want +got):\n%s", diff)
	}
}

func TestGetStoryNotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.GetStory(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListPublishedStories(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, st := range []Story{
		{Title: "Draft one"},
		{Title: "Live one", Status: StatusPublished},
		{Title: "Live two", Status: StatusPublished},
	} {
		if err := s.SaveStory(ctx, &st); err != nil {
			t.Fatalf("SaveStory failed: %v", err)
		}
		time.Sleep(2 * time.Millisecond) // distinct created_at
	}

	all, err := s.ListStories(ctx)
	if err != nil {
		t.Fatalf("ListStories failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListStories returned %d, want 3", len(all))
	}
	if all[0].Title != "Live two" {
		t.Errorf("newest first: got %q first", all[0].Title)
	}

	published, err := s.ListPublishedStories(ctx)
	if err != nil {
		t.Fatalf("ListPublishedStories failed: %v", err)
	}
	var titles []string
	for _, st := range published {
		titles = append(titles, st.Title)
	}
	if diff := cmp.Diff([]string{"Live two", "Live one"}, titles); diff != "" {
		t.Errorf("published mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteStory(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	st := Story{Title: "Gone soon"}
	if err := s.SaveStory(ctx, &st); err != nil {
		t.Fatalf("SaveStory failed: %v", err)
	}
	if err := s.DeleteStory(ctx, st.ID); err != nil {
		t.Fatalf("DeleteStory failed: %v", err)
	}
	if _, err := s.GetStory(ctx, st.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("story should be deleted, got %v", err)
	}
	if err := s.DeleteStory(ctx, st.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestCountsAndViews(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	a := Story{Title: "A", Status: StatusPublished}
	b := Story{Title: "B"}
	for _, st := range []*Story{&a, &b} {
		if err := s.SaveStory(ctx, st); err != nil {
			t.Fatalf("SaveStory failed: %v", err)
		}
	}
	for range 3 {
		if err := s.IncrementViews(ctx, a.ID); err != nil {
			t.Fatalf("IncrementViews failed: %v", err)
		}
	}

	stats, err := loadDashboardStats(ctx, s, time.Now())
	if err != nil {
		t.Fatalf("loadDashboardStats failed: %v", err)
	}
	want := DashboardStats{TotalStories: 2, PublishedStories: 1, DraftStories: 1, TotalViews: 3, MonthlyViews: 3}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}

	future, err := s.SumViews(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("SumViews failed: %v", err)
	}
	if future != 0 {
		t.Errorf("SumViews(future) = %d, want 0", future)
	}
}

func TestCategoriesCountStories(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	travel := Category{Name: "Travel Guides"}
	if err := s.SaveCategory(ctx, &travel); err != nil {
		t.Fatalf("SaveCategory failed: %v", err)
	}
	if travel.Slug != "travel-guides" {
		t.Errorf("Slug = %q, want travel-guides", travel.Slug)
	}
	food := Category{Name: "Food", Slug: "food"}
	if err := s.SaveCategory(ctx, &food); err != nil {
		t.Fatalf("SaveCategory failed: %v", err)
	}
	for _, cat := range []string{"travel-guides", "Travel Guides", "food"} {
		st := Story{Title: "In " + cat, Category: cat}
		if err := s.SaveStory(ctx, &st); err != nil {
			t.Fatalf("SaveStory failed: %v", err)
		}
	}

	cats, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	counts := map[string]int{}
	for _, c := range cats {
		counts[c.Slug] = c.StoryCount
	}
	if diff := cmp.Diff(map[string]int{"food": 1, "travel-guides": 2}, counts); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
	if cats[0].Name != "Food" {
		t.Errorf("categories should be ordered by name, got %q first", cats[0].Name)
	}

	n, err := s.CountCategories(ctx)
	if err != nil || n != 2 {
		t.Errorf("CountCategories = %d, %v; want 2", n, err)
	}
}

func TestSaveCategoryRequiresName(t *testing.T) {
	s := setupTestStore(t)
	if err := s.SaveCategory(context.Background(), &Category{Name: "  "}); err == nil {
		t.Fatal("expected an error for an empty name")
	}
}

func TestDeleteCategory(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	c := Category{Name: "News"}
	if err := s.SaveCategory(ctx, &c); err != nil {
		t.Fatalf("SaveCategory failed: %v", err)
	}
	if err := s.DeleteCategory(ctx, c.ID); err != nil {
		t.Fatalf("DeleteCategory failed: %v", err)
	}
	if _, err := s.GetCategory(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetCategory err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteCategory(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestSaveAndGetPost(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	post := BlogPost{
		Title:   "Hello, World!",
		Content: "# Test Content\n\nThis is test content.",
		Tags:    []string{"go", "testing"},
		Status:  StatusPublished,
	}
	if err := s.SavePost(ctx, &post); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}
	if post.Slug != "hello-world" {
		t.Errorf("Slug = %q, want hello-world", post.Slug)
	}

	got, err := s.GetPublishedPost(ctx, "hello-world")
	if err != nil {
		t.Fatalf("GetPublishedPost failed: %v", err)
	}
	if got.Title != post.Title || got.Content != post.Content {
		t.Errorf("GetPublishedPost returned %+v", got)
	}
	if diff := cmp.Diff([]string{"go", "testing"}, got.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestGetPublishedPostSkipsDrafts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	post := BlogPost{Title: "Unpublished"}
	if err := s.SavePost(ctx, &post); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}
	if _, err := s.GetPublishedPost(ctx, post.Slug); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetPost(ctx, post.ID); err != nil {
		t.Errorf("GetPost should find drafts: %v", err)
	}
}

func TestListPosts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, p := range []BlogPost{
		{Title: "Published", Status: StatusPublished},
		{Title: "Draft"},
	} {
		if err := s.SavePost(ctx, &p); err != nil {
			t.Fatalf("SavePost failed: %v", err)
		}
	}
	all, err := s.ListPosts(ctx, false)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListPosts(false) = %d posts, want 2", len(all))
	}
	published, err := s.ListPosts(ctx, true)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(published) != 1 || published[0].Title != "Published" {
		t.Errorf("ListPosts(true) = %+v", published)
	}
}

func TestDeletePost(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	post := BlogPost{Title: "To delete"}
	if err := s.SavePost(ctx, &post); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}
	if err := s.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if _, err := s.GetPost(ctx, post.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestImages(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	img := Image{Filename: "beach.jpg", OriginalName: "Beach.PNG", Width: 1080, Height: 720, Size: 2048, UploadedAt: "2026-01-02T03:04:05Z"}
	if err := s.SaveImage(ctx, img); err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}
	exists, err := s.ImageExists(ctx, "beach.jpg")
	if err != nil || !exists {
		t.Fatalf("ImageExists = %v, %v; want true", exists, err)
	}
	images, err := s.ListImages(ctx)
	if err != nil {
		t.Fatalf("ListImages failed: %v", err)
	}
	if diff := cmp.Diff([]Image{img}, images); diff != "" {
		t.Errorf("images mismatch (-want +got):\n%s", diff)
	}
	if err := s.DeleteImage(ctx, "beach.jpg"); err != nil {
		t.Fatalf("DeleteImage failed: %v", err)
	}
	if exists, _ := s.ImageExists(ctx, "beach.jpg"); exists {
		t.Error("image should be deleted")
	}
}

func TestSettingsFallBackToDefaults(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	def := SiteSettings{SiteTitle: "Default"}

	got, err := s.SiteSettings(ctx, def)
	if err != nil {
		t.Fatalf("SiteSettings failed: %v", err)
	}
	if got != def {
		t.Errorf("SiteSettings = %+v, want defaults", got)
	}

	saved := SiteSettings{SiteTitle: "Stories Daily", LogoURL: "/public/logo.png"}
	if err := s.SaveSiteSettings(ctx, saved); err != nil {
		t.Fatalf("SaveSiteSettings failed: %v", err)
	}
	got, err = s.SiteSettings(ctx, def)
	if err != nil {
		t.Fatalf("SiteSettings failed: %v", err)
	}
	if got != saved {
		t.Errorf("SiteSettings = %+v, want %+v", got, saved)
	}

	footer := FooterSettings{Brand: "Daily", Copyright: "(c) Daily"}
	if err := s.SaveFooterSettings(ctx, footer); err != nil {
		t.Fatalf("SaveFooterSettings failed: %v", err)
	}
	gotFooter, err := s.FooterSettings(ctx, FooterSettings{})
	if err != nil {
		t.Fatalf("FooterSettings failed: %v", err)
	}
	if gotFooter != footer {
		t.Errorf("FooterSettings = %+v, want %+v", gotFooter, footer)
	}
}

func TestAccounts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.CreateAccount(ctx, Account{Email: " Editor@Example.com ", Name: "Editor", PasswordHash: "hash"}); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	acc, err := s.GetAccount(ctx, "editor@example.com")
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if acc.Email != "editor@example.com" || acc.Role != "admin" {
		t.Errorf("GetAccount = %+v", acc)
	}
	if _, err := s.GetAccount(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{",go,web,", []string{"go", "web"}},
		{"go", []string{"go"}},
		{",", nil},
		{"", nil},
		{", go , ,web,", []string{"go", "web"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.expected, ParseTags(tt.input)); diff != "" {
			t.Errorf("ParseTags(%q) mismatch (-want +got):\n%s", tt.input, diff)
		}
	}
}

func TestStoryReadingTime(t *testing.T) {
	words := make([]byte, 0, 401*2)
	for range 401 {
		words = append(words, "w "...)
	}
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"empty", "", 1},
		{"raw words", string(words), 3},
	}
	for _, tt := range tests {
		if got := StoryReadingTime(tt.content); got != tt.want {
			t.Errorf("%s: StoryReadingTime = %d, want %d", tt.name, got, tt.want)
		}
	}
}
