package story

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func samplePages() []Page {
	return []Page{
		{
			ID:         "p1",
			Background: Background{Type: BackgroundImage, URL: "/public/uploads/beach.jpg", Alt: "A beach"},
			Elements: []Element{
				&TextElement{Blocks: []Block{
					{Tag: TagH1, Value: "Hi", Style: Style{FontSize: "32px", Color: "#ffffff", FontWeight: "700"}},
					{Tag: TagParagraph, Value: "Welcome aboard", Style: Style{Italic: true, LetterSpacing: "1px", LineHeight: "1.4", TextAlign: "center"}},
				}},
			},
			CTA: &CTA{Text: "Read more", URL: "https://example.com", BackgroundColor: "#000", TextColor: "#fff"},
		},
		{
			ID:         "p2",
			Background: Background{Type: BackgroundVideo, URL: "/public/uploads/wave.mp4"},
			Elements: []Element{
				&TextElement{Blocks: []Block{{Tag: TagH2, Value: "Second"}}},
				&TextElement{Blocks: []Block{{Tag: TagH3, Value: "Third"}, {Tag: TagParagraph, Value: "Fourth"}}},
			},
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	pages := samplePages()
	encoded, err := Encode(pages)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if diff := cmp.Diff(pages, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeWritesPersistedFieldNames(t *testing.T) {
	encoded, err := Encode(samplePages())
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	for _, key := range []string{`"backgroundType":"image"`, `"backgroundUrl"`, `"backgroundAlt"`, `"elements"`, `"type":"text"`, `"blocks"`, `"tag":"h1"`, `"value":"Hi"`, `"style"`, `"cta"`} {
		if !strings.Contains(encoded, key) {
			t.Errorf("encoded content missing %s: %s", key, encoded)
		}
	}
}

func TestDecodeMinimalPage(t *testing.T) {
	pages, err := Decode(`[{"backgroundType":"image","backgroundUrl":"","backgroundAlt":"","elements":[{"type":"text","blocks":[{"tag":"h1","value":"Hi","style":{}}]}]}]`)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	texts := pages[0].TextElements()
	if len(texts) != 1 || len(texts[0].Blocks) != 1 {
		t.Fatalf("unexpected elements: %+v", pages[0].Elements)
	}
	if got := texts[0].Blocks[0]; got.Tag != TagH1 || got.Value != "Hi" {
		t.Errorf("first block = %+v", got)
	}
}

func TestDecodeMalformedContent(t *testing.T) {
	cases := map[string]string{
		"empty":       "",
		"not json":    "<p>hello</p>",
		"object":      `{"pages":[]}`,
		"no pages":    `[]`,
		"bad tag":     `[{"backgroundType":"image","elements":[{"type":"text","blocks":[{"tag":"h7","value":"x"}]}]}]`,
		"bad type":    `[{"backgroundType":"gif","elements":[]}]`,
		"bad element": `[{"backgroundType":"image","elements":[{"type":"sticker"}]}]`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(content)
			if err == nil {
				t.Fatalf("expected error for %q", content)
			}
			var re *RenderError
			if !errors.As(err, &re) {
				t.Fatalf("expected *RenderError, got %T: %v", err, err)
			}
		})
	}
}

func TestDecodeFoldsMediaIntoBackground(t *testing.T) {
	pages, err := Decode(`[{"backgroundType":"image","backgroundUrl":"old.jpg","elements":[{"type":"video","url":"clip.mp4","alt":"clip"},{"type":"text","blocks":[{"tag":"p","value":"x"}]}]}]`)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := Background{Type: BackgroundVideo, URL: "clip.mp4", Alt: "clip"}
	if pages[0].Background != want {
		t.Errorf("background = %+v, want %+v", pages[0].Background, want)
	}
	if len(pages[0].Elements) != 1 || pages[0].Elements[0].Kind() != KindText {
		t.Errorf("expected only the text element to remain, got %d elements", len(pages[0].Elements))
	}
}

func TestEncodeRejectsEmptyAndInvalid(t *testing.T) {
	if _, err := Encode(nil); err == nil {
		t.Fatal("expected error encoding no pages")
	}
	bad := []Page{{Background: Background{Type: BackgroundImage}, Elements: []Element{&TextElement{Blocks: []Block{{Tag: "blink"}}}}}}
	if _, err := Encode(bad); err == nil {
		t.Fatal("expected error encoding unknown tag")
	}
}

func TestReadingTime(t *testing.T) {
	cases := []struct {
		words int
		want  int
	}{
		{0, 1},
		{1, 1},
		{200, 1},
		{201, 2},
		{450, 3},
	}
	for _, tc := range cases {
		if got := ReadingTime(tc.words); got != tc.want {
			t.Errorf("ReadingTime(%d) = %d, want %d", tc.words, got, tc.want)
		}
	}
}

func TestWordCount(t *testing.T) {
	if got := WordCount(samplePages()); got != 6 {
		t.Errorf("WordCount = %d, want 6", got)
	}
}
