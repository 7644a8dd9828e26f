package webstory

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/eringen/webstory/story"
)

func TestNavigate(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		policy    story.Policy
		wantIndex int
		wantPlay  bool
	}{
		{"fresh load autoplays", "", story.Clamp, 0, true},
		{"page is one based", "page=2", story.Clamp, 1, true},
		{"page out of range is pinned", "page=99", story.Clamp, 2, true},
		{"next", "page=1&play=0&nav=next", story.Clamp, 1, false},
		{"prev clamps at first", "page=1&nav=prev", story.Clamp, 0, true},
		{"prev wraps to last", "page=1&nav=prev", story.Wrap, 2, true},
		{"next wraps to first", "page=3&nav=next", story.Wrap, 0, true},
		{"toggle pauses", "page=2&play=1&nav=toggle", story.Clamp, 1, false},
		{"tick advances", "page=1&play=1&nav=tick", story.Clamp, 1, true},
		{"tick stops on last page", "page=3&play=1&nav=tick", story.Clamp, 2, false},
		{"tick ignored when paused", "page=1&play=0&nav=tick", story.Clamp, 0, false},
		{"tap right half", "page=1&tap.x=300", story.Clamp, 1, true},
		{"tap left half", "page=2&tap.x=20", story.Clamp, 0, true},
		{"swipe left", "page=1&swipe=-80", story.Clamp, 1, true},
		{"short swipe", "page=1&swipe=-10", story.Clamp, 0, true},
		{"bad tap value", "page=2&tap.x=left", story.Clamp, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			n := navigate(q, 3, tt.policy, true)
			if n.Index != tt.wantIndex || n.Playing != tt.wantPlay {
				t.Errorf("navigate(%q) = index %d playing %v, want %d %v", tt.query, n.Index, n.Playing, tt.wantIndex, tt.wantPlay)
			}
		})
	}
}

func TestNavigatePreviewStartsPaused(t *testing.T) {
	n := navigate(url.Values{}, 3, story.Wrap, false)
	if n.Playing {
		t.Error("preview should not autoplay")
	}
}

func TestViewerURL(t *testing.T) {
	if got := viewerURL("/story/a/", 1, true, "next"); got != "/story/a/?nav=next&page=2&play=1" {
		t.Errorf("viewerURL() = %q", got)
	}
	if got := viewerURL("/story/a/", 0, false, ""); got != "/story/a/?page=1&play=0" {
		t.Errorf("viewerURL() = %q", got)
	}
}

func TestViewerDataLinks(t *testing.T) {
	st := Story{Title: "T", Content: pagesContent(t, "a", "b", "c")}

	data, err := viewerData(st, "/story/t/", url.Values{}, story.Clamp, true)
	if err != nil || data.Invalid != "" {
		t.Fatalf("viewerData() = %q, %v", data.Invalid, err)
	}
	if data.PrevURL != "" {
		t.Error("clamped viewer offers prev on the first page")
	}
	if data.NextURL != "/story/t/?nav=next&page=1&play=1" {
		t.Errorf("NextURL = %q", data.NextURL)
	}

	data, _ = viewerData(st, "/p/", url.Values{"page": {"1"}}, story.Wrap, false)
	if data.PrevURL == "" || data.NextURL == "" {
		t.Error("wrapping preview should always link both ways")
	}

	data, err = viewerData(Story{Content: "{"}, "/story/x/", url.Values{}, story.Clamp, true)
	if err == nil {
		t.Error("broken content should return the decode error")
	}
	if data.Invalid != invalidContentNotice {
		t.Errorf("Invalid = %q, want the fixed notice", data.Invalid)
	}
}

func TestIsBot(t *testing.T) {
	tests := []struct {
		ua   string
		want bool
	}{
		{"", true},
		{"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", true},
		{testBrowserUA, false},
	}
	for _, tt := range tests {
		if got := isBot(tt.ua); got != tt.want {
			t.Errorf("isBot(%q) = %v, want %v", tt.ua, got, tt.want)
		}
	}
}

func TestHomeURL(t *testing.T) {
	tests := []struct {
		filter StoryFilter
		page   int
		want   string
	}{
		{StoryFilter{}, 1, "/"},
		{StoryFilter{Category: "travel"}, 2, "/?category=travel&page=2"},
		{StoryFilter{Search: "a b"}, 1, "/?q=a+b"},
	}
	for _, tt := range tests {
		if got := homeURL(tt.filter, tt.page); got != tt.want {
			t.Errorf("homeURL(%+v, %d) = %q, want %q", tt.filter, tt.page, got, tt.want)
		}
	}
}

func TestParseAction(t *testing.T) {
	name, args, err := parseAction("move-element:1:2")
	if err != nil {
		t.Fatalf("parseAction failed: %v", err)
	}
	if name != "move-element" {
		t.Errorf("name = %q", name)
	}
	if diff := cmp.Diff([]int{1, 2}, args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
	if _, _, err := parseAction("select-page:x"); err == nil {
		t.Error("expected error for a non-numeric argument")
	}
}
