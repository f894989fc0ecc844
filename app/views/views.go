// Package views holds the embedded HTML templates and static assets of the
// blog.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"techporium/app/contentstore"
	"techporium/app/models"
	"techporium/app/portabletext"
)

//go:embed layout.html shared/*.html posts/*.html errors/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

// DateLayout formats creation dates on pages.
const DateLayout = "1/2/2006, 3:04:05 PM"

// Page names accepted by Render.
const (
	PageIndex    = "index"
	PageShow     = "show"
	PageNotFound = "404"
	PageError    = "500"
)

var pageFiles = map[string]string{
	PageIndex:    "posts/index.html",
	PageShow:     "posts/show.html",
	PageNotFound: "errors/404.html",
	PageError:    "errors/500.html",
}

// IndexData is rendered by the post list page.
type IndexData struct {
	Posts []*models.Post
}

// ShowData is rendered by the post detail page.
type ShowData struct {
	Post      *models.Post
	Submitted bool
	FormError string
	Form      models.CommentSubmission
}

// Renderer executes page templates.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every page against the layout. Images resolve through images,
// and absolute post links are built on siteURL.
func New(images *contentstore.ImageBuilder, siteURL string) (*Renderer, error) {
	siteURL = strings.TrimRight(siteURL, "/")
	funcs := template.FuncMap{
		"mainImage": func(post *models.Post) string {
			return images.Resolve(post.MainImage, contentstore.PlaceholderPostImage)
		},
		"authorImage": func(post *models.Post) string {
			if post.Author == nil {
				return contentstore.PlaceholderAuthorImage
			}
			return images.Resolve(post.Author.Image, contentstore.PlaceholderAuthorImage)
		},
		"body": func(post *models.Post) template.HTML {
			return portabletext.Render(post.Body, images.AssetURL)
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(DateLayout)
		},
		"postURL": func(slug string) string {
			return siteURL + "/post/" + slug
		},
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pageFiles))}
	for name, file := range pageFiles {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFiles, "layout.html", "shared/*.html", file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render writes the named page with data to w.
func (r *Renderer) Render(w io.Writer, name string, data interface{}) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// Static serves the embedded static assets. Mount it under /static/ with the
// prefix stripped.
func Static() http.Handler {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
