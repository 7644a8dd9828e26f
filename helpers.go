package webstory

import (
	"net/url"
	"path"
	"strings"
	"unicode"

	"github.com/goccy/go-json"
)

// Slugify converts a name to a URL-safe slug of [a-z0-9-]. Used for
// upload filenames.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// SlugFallback derives a story or category slug from its title: lowercase,
// with every whitespace run replaced by a single hyphen.
func SlugFallback(title string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(title), unicode.IsSpace), "-")
}

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// FilterEmpty removes empty/whitespace-only strings from a slice.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SplitTags parses a comma separated form value.
func SplitTags(v string) []string {
	return FilterEmpty(strings.Split(v, ","))
}

// JoinTags joins tags with ", ".
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// absoluteURL resolves a site-relative path such as /public/uploads/a.jpg
// against the canonical base.
func absoluteURL(base, ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
}

// WebsiteJsonLD returns a JSON-LD string for a WebSite schema.
func WebsiteJsonLD(cfg SiteConfig, settings SiteSettings) string {
	data := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        settings.SiteTitle,
		"url":         BuildURL(cfg.URL),
		"description": settings.SiteDescription,
	}
	return marshalJsonLD(data)
}

// StoryJsonLD returns a JSON-LD string for a story, carrying the publisher
// metadata entered in the editor.
func StoryJsonLD(st Story, cfg SiteConfig) string {
	storyURL := BuildURL(cfg.URL, "story", st.Slug)
	if st.CanonicalURL != "" {
		storyURL = st.CanonicalURL
	}
	published := st.PublishDate
	if published == "" {
		published = st.CreatedAt.Format("2006-01-02")
	}
	modified := st.UpdateDate
	if modified == "" {
		modified = st.UpdatedAt.Format("2006-01-02")
	}
	publisher := st.PublisherName
	if publisher == "" {
		publisher = cfg.Name
	}
	data := map[string]any{
		"@context":      "https://schema.org",
		"@type":         "Article",
		"headline":      st.Title,
		"datePublished": published,
		"dateModified":  modified,
		"url":           storyURL,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   storyURL,
		},
		"publisher": map[string]any{
			"@type": "Organization",
			"name":  publisher,
		},
	}
	if st.CoverImage != "" {
		data["image"] = absoluteURL(cfg.URL, st.CoverImage)
	}
	if author := firstNonEmpty(st.Author, cfg.Author); author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  author,
		}
	}
	if len(st.Tags) > 0 {
		data["keywords"] = strings.Join(st.Tags, ", ")
	}
	return marshalJsonLD(data)
}

func marshalJsonLD(data map[string]any) string {
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
