package webstory

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"

	"github.com/eringen/webstory/views"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// renderJSON encodes v with goccy/go-json.
func renderJSON(c echo.Context, code int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Blob(code, echo.MIMEApplicationJSONCharsetUTF8, b)
}

type apiError struct {
	Error string `json:"error"`
}

func jsonError(c echo.Context, code int, msg string) error {
	return renderJSON(c, code, apiError{Error: msg})
}

// layout builds the page chrome from the stored settings. Failing reads
// fall back to defaults so a broken settings row never takes a page down.
func (a *App) layout(c echo.Context, meta views.Meta) views.Layout {
	ctx := c.Request().Context()
	site := a.siteSettings(ctx)
	footer := a.footerSettings(ctx)

	l := views.Layout{
		SiteTitle:       site.SiteTitle,
		SiteDescription: site.SiteDescription,
		LogoURL:         site.LogoURL,
		Meta:            meta,
		SiteJSONLD:      WebsiteJsonLD(a.Config, site),
		Footer: views.Footer{
			Brand:       footer.Brand,
			Description: footer.Description,
			Copyright:   footer.Copyright,
		},
		Admin: IsAdmin(c) && strings.HasPrefix(c.Request().URL.Path, "/admin"),
		CSRF:  CsrfToken(c),
		Year:  time.Now().Year(),
	}
	for _, link := range []views.Link{
		{Label: "Facebook", URL: footer.Facebook},
		{Label: "WhatsApp", URL: footer.WhatsApp},
		{Label: "Instagram", URL: footer.Instagram},
		{Label: "YouTube", URL: footer.YouTube},
	} {
		if link.URL != "" {
			l.Footer.Links = append(l.Footer.Links, link)
		}
	}
	if !l.Admin {
		cats, err := a.categories(ctx)
		if err != nil {
			a.Logger.WithError(err).Warn("loading navigation categories")
		}
		active := c.QueryParam("category")
		for _, cat := range cats {
			l.Categories = append(l.Categories, views.CategoryLink{
				Name:   cat.Name,
				Slug:   cat.Slug,
				URL:    "/?category=" + url.QueryEscape(cat.Slug),
				Count:  cat.StoryCount,
				Active: cat.Slug == active,
			})
		}
	}
	return l
}
