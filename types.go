package webstory

import (
	"net/url"
	"time"

	"github.com/eringen/webstory/story"
)

// Status is the publication state shared by stories and blog posts.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Story is a web story: metadata plus its pages serialized into Content.
type Story struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Content     string    `json:"content"`
	Category    string    `json:"category"`
	CoverImage  string    `json:"coverImage"`
	Status      Status    `json:"status"`
	Tags        []string  `json:"tags"`
	Author      string    `json:"author"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Views       int       `json:"views"`
	ReadingTime int       `json:"readingTime"`

	PublisherName    string `json:"publisherName"`
	PublisherLogoAlt string `json:"publisherLogoAlt"`
	PosterAlt        string `json:"posterAlt"`
	PublishDate      string `json:"publishDate"`
	UpdateDate       string `json:"updateDate"`
	CanonicalURL     string `json:"canonicalUrl"`
}

// Published reports whether the story is visible to readers.
func (s Story) Published() bool { return s.Status == StatusPublished }

// Link is the public path of the story. Slugs may carry punctuation, so
// the segment is escaped.
func (s Story) Link() string { return "/story/" + url.PathEscape(s.Slug) + "/" }

// Pages decodes the story content.
func (s Story) Pages() ([]story.Page, error) {
	return story.Decode(s.Content)
}

// Category groups stories. StoryCount is derived when categories are read.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	StoryCount  int       `json:"storyCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BlogPost is a long-form article written in the blog editor.
type BlogPost struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Slug           string    `json:"slug"`
	Content        string    `json:"content"`
	CoverImage     string    `json:"coverImage"`
	Tags           []string  `json:"tags"`
	Status         Status    `json:"status"`
	Author         string    `json:"author"`
	SEOTitle       string    `json:"seoTitle"`
	SEODescription string    `json:"seoDescription"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Link is the public path of the post.
func (p BlogPost) Link() string { return "/blog/" + url.PathEscape(p.Slug) + "/" }

// Image is an uploaded media file kept under the static uploads directory.
type Image struct {
	Filename     string
	OriginalName string
	Width        int
	Height       int
	Size         int
	UploadedAt   string
}

// URL is the public path of the image.
func (i Image) URL() string { return "/public/" + uploadsSubdir + "/" + i.Filename }

// Account is an admin user of the auth provider.
type Account struct {
	Email        string
	Name         string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
}

// DashboardStats are the aggregate counts shown on the admin dashboard.
type DashboardStats struct {
	TotalStories     int `json:"totalStories"`
	PublishedStories int `json:"publishedStories"`
	DraftStories     int `json:"draftStories"`
	TotalCategories  int `json:"totalCategories"`
	TotalViews       int `json:"totalViews"`
	MonthlyViews     int `json:"monthlyViews"`
}

// PublishedPercent is the share of published stories, rounded to the
// nearest whole percent.
func (d DashboardStats) PublishedPercent() int {
	if d.TotalStories == 0 {
		return 0
	}
	return (d.PublishedStories*200 + d.TotalStories) / (2 * d.TotalStories)
}
