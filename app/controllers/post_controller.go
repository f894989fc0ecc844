package controllers

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"techporium/app/metrics"
	"techporium/app/models"
	"techporium/app/pagecache"
	"techporium/app/repositories"
	"techporium/app/services"
	"techporium/app/views"

	"github.com/gorilla/mux"
)

// Values of the X-Cache header.
const (
	CacheHit         = "HIT"
	CacheMiss        = "MISS"
	CacheStale       = "STALE"
	CacheRevalidated = "REVALIDATED"
	CacheBypass      = "BYPASS"
)

// PostController handles HTTP requests for blog posts
type PostController struct {
	postService *services.PostService
	views       *views.Renderer
	cache       pagecache.Cache
	revalidate  time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewPostController creates a new PostController. Detail pages are served from
// cache and regenerated once older than revalidate.
func NewPostController(postService *services.PostService, renderer *views.Renderer, cache pagecache.Cache, revalidate time.Duration, logger *slog.Logger) *PostController {
	return &PostController{
		postService: postService,
		views:       renderer,
		cache:       cache,
		revalidate:  revalidate,
		logger:      logger,
		now:         time.Now,
	}
}

// Index renders the list of every post on each request
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	posts, err := pc.postService.ListPosts(r.Context())
	if err != nil {
		pc.sendError(w, r, err)
		return
	}

	buf := new(bytes.Buffer)
	if err := pc.views.Render(buf, views.PageIndex, views.IndexData{Posts: posts}); err != nil {
		pc.sendError(w, r, err)
		return
	}
	sendHTML(w, http.StatusOK, buf.Bytes())
}

// Show serves a post page from the page cache, regenerating it when stale and
// generating it on demand when it was never cached
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	ctx := r.Context()

	if r.URL.Query().Get("submitted") == "true" {
		pc.renderPost(w, r, slug, http.StatusOK, views.ShowData{Submitted: true}, CacheBypass)
		return
	}

	cached, err := pc.cache.Get(ctx, slug)
	if err != nil && !errors.Is(err, pagecache.ErrMiss) {
		pc.logger.WarnContext(ctx, "page cache read failed", slog.String("slug", slug), slog.Any("error", err))
	}
	if cached == nil {
		page, err := pc.Generate(ctx, slug)
		if errors.Is(err, repositories.ErrNotFound) {
			metrics.PageCacheLookups.WithLabelValues("not_found").Inc()
			pc.NotFound(w, r)
			return
		}
		if err != nil {
			pc.sendError(w, r, err)
			return
		}
		pc.servePage(w, page, CacheMiss)
		return
	}

	if !cached.Stale(pc.now(), pc.revalidate) {
		pc.servePage(w, cached, CacheHit)
		return
	}

	page, err := pc.Generate(ctx, slug)
	if err != nil {
		pc.logger.ErrorContext(ctx, "page regeneration failed, serving stale page",
			slog.String("slug", slug),
			slog.Time("generatedAt", cached.GeneratedAt),
			slog.Any("error", err),
		)
		pc.servePage(w, cached, CacheStale)
		return
	}
	pc.servePage(w, page, CacheRevalidated)
}

func (pc *PostController) servePage(w http.ResponseWriter, page *pagecache.Page, state string) {
	switch state {
	case CacheHit:
		metrics.PageCacheLookups.WithLabelValues("hit").Inc()
	case CacheMiss:
		metrics.PageCacheLookups.WithLabelValues("miss").Inc()
	case CacheStale:
		metrics.PageCacheLookups.WithLabelValues("stale").Inc()
	case CacheRevalidated:
		metrics.PageCacheLookups.WithLabelValues("revalidated").Inc()
	}
	w.Header().Set(CacheHeader, state)
	sendHTML(w, http.StatusOK, page.HTML)
}

// Generate renders the page of a post and stores it in the page cache. A post
// that does not exist returns repositories.ErrNotFound and nothing is stored.
func (pc *PostController) Generate(ctx context.Context, slug string) (*pagecache.Page, error) {
	post, err := pc.postService.GetPost(ctx, slug)
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := pc.views.Render(buf, views.PageShow, views.ShowData{Post: post}); err != nil {
		return nil, err
	}

	page := &pagecache.Page{Slug: slug, HTML: buf.Bytes(), GeneratedAt: pc.now()}
	if err := pc.cache.Set(ctx, page); err != nil {
		pc.logger.WarnContext(ctx, "page cache write failed", slog.String("slug", slug), slog.Any("error", err))
	}
	return page, nil
}

// RenderForm renders a post page uncached, showing the comment form with the
// submitted values and an error notice
func (pc *PostController) RenderForm(w http.ResponseWriter, r *http.Request, slug string, status int, form models.CommentSubmission, formErr string) {
	pc.renderPost(w, r, slug, status, views.ShowData{Form: form, FormError: formErr}, CacheBypass)
}

func (pc *PostController) renderPost(w http.ResponseWriter, r *http.Request, slug string, status int, data views.ShowData, state string) {
	post, err := pc.postService.GetPost(r.Context(), slug)
	if errors.Is(err, repositories.ErrNotFound) {
		pc.NotFound(w, r)
		return
	}
	if err != nil {
		pc.sendError(w, r, err)
		return
	}

	data.Post = post
	buf := new(bytes.Buffer)
	if err := pc.views.Render(buf, views.PageShow, data); err != nil {
		pc.sendError(w, r, err)
		return
	}
	w.Header().Set(CacheHeader, state)
	sendHTML(w, status, buf.Bytes())
}

// PrerenderReport lists the outcome of pre-generating post pages.
type PrerenderReport struct {
	Generated []string
	NotFound  []string
	Failed    map[string]error
}

// Prerender generates and caches the page of every post. Slugs the detail
// query cannot find are reported and skipped.
func (pc *PostController) Prerender(ctx context.Context) (*PrerenderReport, error) {
	slugs, err := pc.postService.ListSlugs(ctx)
	if err != nil {
		return nil, err
	}

	report := &PrerenderReport{Failed: make(map[string]error)}
	for _, slug := range slugs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		_, err := pc.Generate(ctx, slug)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			report.NotFound = append(report.NotFound, slug)
		case err != nil:
			report.Failed[slug] = err
		default:
			report.Generated = append(report.Generated, slug)
		}
	}
	pc.logger.InfoContext(ctx, "prerendered post pages",
		slog.Int("generated", len(report.Generated)),
		slog.Int("notFound", len(report.NotFound)),
		slog.Int("failed", len(report.Failed)),
	)
	return report, nil
}

// NotFound renders the 404 page
func (pc *PostController) NotFound(w http.ResponseWriter, r *http.Request) {
	buf := new(bytes.Buffer)
	if err := pc.views.Render(buf, views.PageNotFound, nil); err != nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	sendHTML(w, http.StatusNotFound, buf.Bytes())
}

func (pc *PostController) sendError(w http.ResponseWriter, r *http.Request, err error) {
	pc.logger.ErrorContext(r.Context(), "page render failed", slog.String("path", r.URL.Path), slog.Any("error", err))

	buf := new(bytes.Buffer)
	if err := pc.views.Render(buf, views.PageError, nil); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	sendHTML(w, http.StatusInternalServerError, buf.Bytes())
}
