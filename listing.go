package webstory

import (
	"strconv"
	"strings"
)

// StoryFilter narrows a story list. Zero fields match everything.
type StoryFilter struct {
	Category string
	Search   string
	Status   Status
}

// Key is a stable cache key fragment for the filter.
func (f StoryFilter) Key() string {
	return string(f.Status) + "|" + f.Category + "|" + strings.ToLower(strings.TrimSpace(f.Search))
}

// FilterStories keeps stories matching f.Category and f.Status exactly and
// whose title contains f.Search, ignoring case. Input order is preserved.
func FilterStories(stories []Story, f StoryFilter) []Story {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]Story, 0, len(stories))
	for _, st := range stories {
		if f.Category != "" && st.Category != f.Category {
			continue
		}
		if f.Status != "" && st.Status != f.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(st.Title), search) {
			continue
		}
		out = append(out, st)
	}
	return out
}

// Paginate returns the 1-based page of size limit. Out of range pages are
// empty; a non-positive limit returns everything.
func Paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return nil
	}
	end := min(start+limit, len(items))
	return items[start:end]
}

// RelatedStories returns up to limit stories from the same category as
// current, excluding current itself.
func RelatedStories(current Story, stories []Story, limit int) []Story {
	var related []Story
	for _, st := range stories {
		if len(related) >= limit {
			break
		}
		if st.ID == current.ID || st.Category == "" || st.Category != current.Category {
			continue
		}
		related = append(related, st)
	}
	return related
}

// queryInt parses a positive integer query value with a fallback.
func queryInt(v string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
