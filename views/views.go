// Package views renders the site's pages. Each page is a templ component
// backed by an embedded html/template file sharing one layout.
package views

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/a-h/templ"
)

//go:embed templates
var templateFS embed.FS

var pages = mustParsePages()

type pageData struct {
	Layout Layout
	Data   any
}

func mustParsePages() map[string]*template.Template {
	base := template.Must(template.New("layout.html").Funcs(funcs).
		ParseFS(templateFS, "templates/layout.html", "templates/partials.html"))
	files, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		panic(err)
	}
	out := make(map[string]*template.Template, len(files))
	for _, f := range files {
		t := template.Must(template.Must(base.Clone()).ParseFS(templateFS, f))
		out[strings.TrimSuffix(path.Base(f), ".html")] = t
	}
	return out
}

func page(name string, l Layout, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t, ok := pages[name]
		if !ok {
			return fmt.Errorf("views: unknown page %q", name)
		}
		return t.ExecuteTemplate(w, "layout", pageData{Layout: l, Data: data})
	})
}

// Home renders the story grid with category and search filters.
func Home(l Layout, d HomeData) templ.Component { return page("home", l, d) }

// Viewer renders one frame of a story in the public viewer or the admin preview.
func Viewer(l Layout, d ViewerData) templ.Component { return page("viewer", l, d) }

// BlogList renders the published blog posts.
func BlogList(l Layout, d BlogListData) templ.Component { return page("blog_list", l, d) }

// BlogPost renders a single blog post.
func BlogPost(l Layout, d BlogPostData) templ.Component { return page("blog_post", l, d) }

// StaticPage renders an information or policy page.
func StaticPage(l Layout, d StaticPageData) templ.Component { return page("static", l, d) }

// Error renders the not found and server error pages.
func Error(l Layout, d ErrorData) templ.Component { return page("error", l, d) }

// AdminLogin renders the login form.
func AdminLogin(l Layout, d LoginData) templ.Component { return page("admin_login", l, d) }

// AdminDashboard renders the aggregate counts and recent stories.
func AdminDashboard(l Layout, d DashboardData) templ.Component { return page("admin_dashboard", l, d) }

// AdminStories renders the story table with its status filter.
func AdminStories(l Layout, d StoriesData) templ.Component { return page("admin_stories", l, d) }

// AdminEditor renders the story editor form.
func AdminEditor(l Layout, d EditorData) templ.Component { return page("admin_editor", l, d) }

// AdminCategories renders the category manager.
func AdminCategories(l Layout, d CategoriesData) templ.Component { return page("admin_categories", l, d) }

// AdminSettings renders the global settings form.
func AdminSettings(l Layout, d SettingsData) templ.Component { return page("admin_settings", l, d) }

// AdminFooter renders the footer settings form.
func AdminFooter(l Layout, d FooterData) templ.Component { return page("admin_footer", l, d) }

// AdminBlogs renders the blog post table.
func AdminBlogs(l Layout, d BlogsData) templ.Component { return page("admin_blogs", l, d) }

// AdminBlogEditor renders the blog post editor.
func AdminBlogEditor(l Layout, d BlogEditorData) templ.Component { return page("admin_blog_editor", l, d) }

// AdminImages renders the media library and upload form.
func AdminImages(l Layout, d ImagesData) templ.Component { return page("admin_images", l, d) }
