// Package site wires the blog server together and implements its commands.
package site

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"techporium/app/config"
	"techporium/app/contentstore"
	"techporium/app/controllers"
	"techporium/app/pagecache"
	"techporium/app/repositories"
	"techporium/app/routes"
	"techporium/app/services"
	"techporium/app/views"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/mux"
)

// App is a fully wired blog server.
type App struct {
	Router   *mux.Router
	Posts    *controllers.PostController
	Comments *controllers.CommentController
	Cache    pagecache.Cache

	closers []io.Closer
}

// Build opens the configured stores and page cache and wires the handlers.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	var (
		postRepo    repositories.PostRepository
		commentRepo repositories.CommentRepository
		images      = contentstore.NewImageBuilder(cfg.SanityProjectID, cfg.SanityDataset, "")
		storeDB     *badger.DB
	)

	switch cfg.StoreDriver {
	case "remote":
		client, err := contentstore.New(contentstore.Config{
			ProjectID:  cfg.SanityProjectID,
			Dataset:    cfg.SanityDataset,
			APIVersion: cfg.SanityAPIVersion,
			Token:      cfg.SanityToken,
			UseCDN:     cfg.SanityUseCDN,
			BaseURL:    cfg.SanityBaseURL,
		})
		if err != nil {
			return nil, err
		}
		postRepo = repositories.NewContentStorePostRepository(client)
		commentRepo = repositories.NewContentStoreCommentRepository(client)
		images = client.Images()
	case "badger":
		db, err := openStore(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, db)
		storeDB = db
		postRepo = repositories.NewBadgerPostRepository(db)
		commentRepo = repositories.NewBadgerCommentRepository(db)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	cache, err := openCache(ctx, cfg, storeDB)
	if err != nil {
		return nil, err
	}
	app.Cache = cache
	app.closers = append(app.closers, cache)

	renderer, err := views.New(images, cfg.SiteURL)
	if err != nil {
		return nil, err
	}

	app.Posts = controllers.NewPostController(services.NewPostService(postRepo), renderer, cache, cfg.Revalidate(), logger)
	app.Comments = controllers.NewCommentController(services.NewCommentService(commentRepo), app.Posts, logger)
	app.Router = routes.SetupRoutes(routes.Options{
		Posts:          app.Posts,
		Comments:       app.Comments,
		Logger:         logger,
		AllowedOrigins: cfg.Origins(),
	})

	ok = true
	return app, nil
}

// Close releases the page cache and local store, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func openStore(path string) (*badger.DB, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open local store %s: %w", path, err)
	}
	return db, nil
}

// openCache opens the configured page cache. A badger cache at the local
// store's path shares its database.
func openCache(ctx context.Context, cfg *config.Config, storeDB *badger.DB) (pagecache.Cache, error) {
	switch cfg.CacheDriver {
	case "badger":
		if storeDB != nil && cfg.CachePath != "" && filepath.Clean(cfg.CachePath) == filepath.Clean(cfg.BadgerPath) {
			return pagecache.NewBadger(storeDB), nil
		}
		return pagecache.OpenBadger(cfg.CachePath)
	case "redis":
		return pagecache.OpenRedis(ctx, cfg.RedisURL)
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.CacheDriver)
	}
}
