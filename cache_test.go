package webstory

import (
	"errors"
	"testing"
	"time"
)

func TestQueryCacheExpires(t *testing.T) {
	c := NewQueryCache()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	loads := 0
	load := func() (int, error) {
		loads++
		return loads, nil
	}

	if v, _ := cached(c, "k", time.Minute, load); v != 1 {
		t.Fatalf("first load = %d, want 1", v)
	}
	now = now.Add(30 * time.Second)
	if v, _ := cached(c, "k", time.Minute, load); v != 1 {
		t.Errorf("cached value = %d, want 1", v)
	}
	now = now.Add(31 * time.Second)
	if v, _ := cached(c, "k", time.Minute, load); v != 2 {
		t.Errorf("expired value = %d, want reload 2", v)
	}
}

func TestQueryCacheSkipsFailedLoads(t *testing.T) {
	c := NewQueryCache()
	boom := errors.New("boom")
	if _, err := cached(c, "k", time.Minute, func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after a failed load", c.Len())
	}
	v, err := cached(c, "k", time.Minute, func() (string, error) { return "ok", nil })
	if err != nil || v != "ok" {
		t.Errorf("cached() = %q, %v", v, err)
	}
}

func TestQueryCacheInvalidatePrefix(t *testing.T) {
	c := NewQueryCache()
	for _, k := range []string{
		keyStories,
		cacheKey(keyStories, "published|travel|"),
		cacheKey(keyStory, "a"),
		cacheKey(keyStory, "ab"),
		"storybook",
		keyCategories,
	} {
		c.set(k, true, time.Minute)
	}

	c.Invalidate(keyStories, cacheKey(keyStory, "a"))

	tests := []struct {
		key  string
		kept bool
	}{
		{keyStories, false},
		{cacheKey(keyStories, "published|travel|"), false},
		{cacheKey(keyStory, "a"), false},
		{cacheKey(keyStory, "ab"), true},
		{"storybook", true},
		{keyCategories, true},
	}
	for _, tt := range tests {
		if _, ok := c.get(tt.key); ok != tt.kept {
			t.Errorf("key %q present = %v, want %v", tt.key, ok, tt.kept)
		}
	}
}
