package views

import "github.com/eringen/webstory/story"

// Layout is the chrome shared by every page: head metadata, navigation,
// footer and the admin toolbar.
type Layout struct {
	SiteTitle       string
	SiteDescription string
	LogoURL         string
	Meta            Meta
	SiteJSONLD      string
	PageJSONLD      string
	Categories      []CategoryLink
	Footer          Footer
	Admin           bool
	CSRF            string
	Notice          string
	Year            int
}

// Meta carries per-page OpenGraph and SEO metadata into the <head> template.
type Meta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
	Refresh     string // meta refresh content, used by the autoplaying viewer
}

// Footer is the rendered footer settings.
type Footer struct {
	Brand       string
	Description string
	Copyright   string
	Links       []Link
}

// Link is a labelled URL.
type Link struct {
	Label string
	URL   string
}

type CategoryLink struct {
	Name   string
	Slug   string
	URL    string
	Count  int
	Active bool
}

// StoryCard is a story in a grid or a table row.
type StoryCard struct {
	ID          string
	Title       string
	URL         string
	EditURL     string
	CoverImage  string
	Category    string
	Author      string
	Status      string
	Date        string
	Views       int
	ReadingTime int
}

type HomeData struct {
	Stories  []StoryCard
	Category string
	Search   string
	Page     int
	PrevURL  string
	NextURL  string
	Error    string
}

// ViewerData drives the server-side story viewer. Navigation happens
// through plain links and a tap form, so every URL below already carries
// the viewer state.
type ViewerData struct {
	Title          string
	Path           string
	Category       string
	Author         string
	ReadingTime    int
	Frame          story.Frame
	Invalid        string
	Playing        bool
	StageWidth     int
	StageHeight    int
	PrevURL        string
	NextURL        string
	ToggleURL      string
	Related        []StoryCard
	Preview        bool
	PreviewBackURL string
}

type PostCard struct {
	Title       string
	URL         string
	EditURL     string
	CoverImage  string
	Description string
	Status      string
	Date        string
	Tags        []string
}

type BlogListData struct {
	Posts []PostCard
	Error string
}

type BlogPostData struct {
	Post PostCard
	HTML string
}

// StaticPageData is a policy or information page.
type StaticPageData struct {
	Title      string
	Paragraphs []string
}

type ErrorData struct {
	Code    int
	Message string
}

type LoginData struct {
	Email string
	Error string
}

type DashboardData struct {
	TotalStories     int
	PublishedStories int
	DraftStories     int
	TotalCategories  int
	TotalViews       int
	MonthlyViews     int
	PublishedPercent int
	Recent           []StoryCard
	Error            string
}

type StoriesData struct {
	Stories    []StoryCard
	Categories []CategoryLink
	Category   string
	Search     string
	Status     string
	Error      string
}

// StoryForm holds the metadata fields of the story editor.
type StoryForm struct {
	ID               string
	Title            string
	Slug             string
	Category         string
	CoverImage       string
	Tags             string
	Author           string
	Status           string
	PublisherName    string
	PublisherLogoAlt string
	PosterAlt        string
	PublishDate      string
	UpdateDate       string
	CanonicalURL     string
}

// PageThumb is one entry of the editor's page strip.
type PageThumb struct {
	Index      int
	Label      string
	Background string
	Selected   bool
}

// ElementRow is one element of the selected page in the editor.
type ElementRow struct {
	Index    int
	Kind     string
	Selected bool
	Blocks   []BlockRow
}

type BlockRow struct {
	Index    int
	Tag      string
	Preview  string
	Selected bool
}

type EditorData struct {
	Action      string
	AutoSaveURL string
	CloseURL    string
	IsNew       bool
	Story       StoryForm
	Content     string
	Selection   story.Selection
	Pages       []PageThumb
	Elements    []ElementRow
	Background  story.Background
	CTA         story.CTA
	Block       *story.Block
	Preview     story.Frame
	Tags        []string
	Categories  []CategoryLink
	Images      []ImageItem
	Error       string
}

type CategoryRow struct {
	ID          string
	Name        string
	Slug        string
	Description string
	StoryCount  int
}

type CategoriesData struct {
	Categories []CategoryRow
	Form       CategoryRow
	Error      string
}

type SettingsData struct {
	SiteTitle       string
	SiteDescription string
	LogoURL         string
	AdsenseCode     string
	AnalyticsCode   string
	Facebook        string
	Twitter         string
	Instagram       string
	Error           string
}

type FooterData struct {
	Brand       string
	Description string
	Facebook    string
	WhatsApp    string
	Instagram   string
	YouTube     string
	Copyright   string
	Error       string
}

type BlogsData struct {
	Posts []PostCard
	Error string
}

// PostForm holds the fields of the blog editor.
type PostForm struct {
	ID             string
	Title          string
	Slug           string
	Content        string
	CoverImage     string
	Tags           string
	Status         string
	Author         string
	SEOTitle       string
	SEODescription string
}

type BlogEditorData struct {
	Action string
	Post   PostForm
	Error  string
}

type ImageItem struct {
	Filename     string
	OriginalName string
	URL          string
	Width        int
	Height       int
	Size         int
}

type ImagesData struct {
	Images []ImageItem
	Error  string
}
