package webstory

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func titles(stories []Story) []string {
	out := make([]string, len(stories))
	for i, st := range stories {
		out[i] = st.Title
	}
	return out
}

func TestFilterStories(t *testing.T) {
	stories := []Story{
		{ID: "1", Title: "Beach Days", Category: "travel", Status: StatusPublished},
		{ID: "2", Title: "Mountain days", Category: "travel", Status: StatusDraft},
		{ID: "3", Title: "Pasta Night", Category: "food", Status: StatusPublished},
	}
	tests := []struct {
		name   string
		filter StoryFilter
		want   []string
	}{
		{"zero filter", StoryFilter{}, []string{"Beach Days", "Mountain days", "Pasta Night"}},
		{"category", StoryFilter{Category: "travel"}, []string{"Beach Days", "Mountain days"}},
		{"search ignores case", StoryFilter{Search: "  DAYS "}, []string{"Beach Days", "Mountain days"}},
		{"status", StoryFilter{Status: StatusPublished}, []string{"Beach Days", "Pasta Night"}},
		{"combined", StoryFilter{Category: "travel", Search: "beach", Status: StatusPublished}, []string{"Beach Days"}},
		{"no match", StoryFilter{Category: "music"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := titles(FilterStories(stories, tt.filter))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FilterStories() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStoryFilterKey(t *testing.T) {
	a := StoryFilter{Category: "travel", Search: " Beach ", Status: StatusPublished}
	b := StoryFilter{Category: "travel", Search: "beach", Status: StatusPublished}
	if a.Key() != b.Key() {
		t.Errorf("keys differ: %q vs %q", a.Key(), b.Key())
	}
	if a.Key() == (StoryFilter{Category: "travel"}).Key() {
		t.Error("different filters share a key")
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	tests := []struct {
		page, limit int
		want        []int
	}{
		{1, 2, []int{1, 2}},
		{3, 2, []int{5}},
		{4, 2, nil},
		{0, 2, []int{1, 2}},
		{1, 0, []int{1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		got := Paginate(items, tt.page, tt.limit)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Paginate(page=%d, limit=%d) mismatch (-want +got):\n%s", tt.page, tt.limit, diff)
		}
	}
}

func TestRelatedStories(t *testing.T) {
	current := Story{ID: "1", Category: "travel"}
	stories := []Story{
		{ID: "1", Title: "Self", Category: "travel"},
		{ID: "2", Title: "Food", Category: "food"},
		{ID: "3", Title: "Trip A", Category: "travel"},
		{ID: "4", Title: "Trip B", Category: "travel"},
		{ID: "5", Title: "Trip C", Category: "travel"},
	}
	got := titles(RelatedStories(current, stories, 2))
	if diff := cmp.Diff([]string{"Trip A", "Trip B"}, got); diff != "" {
		t.Errorf("RelatedStories() mismatch (-want +got):\n%s", diff)
	}
	if got := RelatedStories(Story{ID: "9"}, stories, 3); len(got) != 0 {
		t.Errorf("uncategorised story got %d related", len(got))
	}
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"3", 3},
		{" 7 ", 7},
		{"", 10},
		{"0", 10},
		{"-2", 10},
		{"abc", 10},
	}
	for _, tt := range tests {
		if got := queryInt(tt.in, 10); got != tt.want {
			t.Errorf("queryInt(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
