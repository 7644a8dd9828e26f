package webstory

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Category    string `xml:"category,omitempty"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

// storyPubDate prefers the editor's publish date over the row timestamp.
func storyPubDate(st Story) time.Time {
	if t, err := time.Parse("2006-01-02", st.PublishDate); err == nil {
		return t
	}
	return st.CreatedAt
}

func (a *App) buildFeed(stories []Story) rssXML {
	base := a.Config.URL
	items := make([]rssItem, 0, len(stories))
	var latest time.Time
	for _, st := range stories {
		pub := storyPubDate(st)
		if st.UpdatedAt.After(latest) {
			latest = st.UpdatedAt
		}
		link := BuildURL(base, "story", st.Slug)
		items = append(items, rssItem{
			Title:       st.Title,
			Link:        link,
			Description: storyDescription(st),
			Category:    st.Category,
			PubDate:     pub.Format(time.RFC1123Z),
			GUID:        link,
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        BuildURL(base),
			Description: a.Config.Description,
			Items:       items,
		},
	}
	if !latest.IsZero() {
		feed.Channel.LastBuildDate = latest.Format(time.RFC1123Z)
	}
	return feed
}

func (a *App) renderRSS(c echo.Context, stories []Story) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(a.buildFeed(stories))
}
