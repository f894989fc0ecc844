package site

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"techporium/app/config"
	"techporium/app/models"
	"techporium/app/pagecache"
	"techporium/app/repositories"
)

// ErrCancelled is returned when a destructive command was not confirmed.
var ErrCancelled = errors.New("operation cancelled")

// Commands runs the CLI commands against a configuration.
type Commands struct {
	Config *config.Config
	Logger *slog.Logger
	In     io.Reader
	Out    io.Writer
}

// Serve runs the HTTP server until ctx is done, then shuts it down gracefully.
// Post pages are pre-generated first unless skipPrerender is set.
func (c *Commands) Serve(ctx context.Context, skipPrerender bool) error {
	app, err := Build(ctx, c.Config, c.Logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if !skipPrerender {
		if _, err := app.Posts.Prerender(ctx); err != nil {
			c.Logger.WarnContext(ctx, "prerender failed, pages will be generated on demand", slog.Any("error", err))
		}
	}

	srv := &http.Server{
		Addr:              c.Config.Addr(),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("blog server starting", slog.String("addr", srv.Addr), slog.String("env", c.Config.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	c.Logger.Info("blog server stopped")
	return nil
}

// Prerender generates every post page into the page cache and prints a report.
func (c *Commands) Prerender(ctx context.Context) error {
	app, err := Build(ctx, c.Config, c.Logger)
	if err != nil {
		return err
	}
	defer app.Close()

	report, err := app.Posts.Prerender(ctx)
	if err != nil {
		return err
	}
	for _, slug := range report.Generated {
		fmt.Fprintf(c.Out, "generated /post/%s\n", slug)
	}
	for _, slug := range report.NotFound {
		fmt.Fprintf(c.Out, "not found /post/%s (skipped)\n", slug)
	}
	failed := make([]string, 0, len(report.Failed))
	for slug := range report.Failed {
		failed = append(failed, slug)
	}
	sort.Strings(failed)
	for _, slug := range failed {
		fmt.Fprintf(c.Out, "failed    /post/%s: %v\n", slug, report.Failed[slug])
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d post pages failed to generate", len(failed))
	}
	return nil
}

// Store handles the local store subcommands
func (c *Commands) Store(args []string) error {
	if len(args) < 1 {
		return usageError("store")
	}
	path := c.Config.BadgerPath

	switch args[0] {
	case "init":
		return c.initStore(path)
	case "clean":
		return c.cleanStore(path)
	case "backup":
		file := ""
		if len(args) > 1 {
			file = args[1]
		}
		return c.backupStore(path, file)
	case "restore":
		if len(args) < 2 {
			return errors.New("backup file path required for restore")
		}
		return c.restoreStore(path, args[1])
	case "seed":
		if len(args) < 2 {
			return errors.New("seed file path required")
		}
		return c.seedStore(path, args[1])
	case "approve":
		if len(args) < 2 {
			return errors.New("comment id required")
		}
		return c.approveComment(path, args[1])
	default:
		return usageError("store " + args[0])
	}
}

// Cache handles the page cache subcommands
func (c *Commands) Cache(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usageError("cache")
	}

	switch args[0] {
	case "clean":
		if c.Config.CacheDriver == "badger" && c.Config.CachePath == "" {
			fmt.Fprintln(c.Out, "Page cache is in memory (CACHE_PATH not set), nothing to clean")
			return nil
		}
		cache, err := openCache(ctx, c.Config, nil)
		if err != nil {
			return err
		}
		defer cache.Close()
		if err := cache.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clean page cache: %w", err)
		}
		fmt.Fprintln(c.Out, "Page cache cleaned successfully")
		return nil
	case "backup", "restore":
		if c.Config.CacheDriver != "badger" || c.Config.CachePath == "" {
			return errors.New("cache backup and restore need a badger cache with CACHE_PATH set")
		}
		cache, err := pagecache.OpenBadger(c.Config.CachePath)
		if err != nil {
			return err
		}
		defer cache.Close()
		if args[0] == "backup" {
			file := ""
			if len(args) > 1 {
				file = args[1]
			}
			return c.writeBackup(c.Config.CachePath, file, cache.Backup)
		}
		if len(args) < 2 {
			return errors.New("backup file path required for restore")
		}
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("failed to open backup file: %w", err)
		}
		defer f.Close()
		if err := cache.Restore(f); err != nil {
			return fmt.Errorf("failed to restore page cache: %w", err)
		}
		fmt.Fprintln(c.Out, "Page cache restored successfully")
		return nil
	default:
		return usageError("cache " + args[0])
	}
}

func usageError(cmd string) error {
	return fmt.Errorf("unknown or incomplete command: %s", cmd)
}

// confirm asks a yes/no question on Out and reads the answer from In
func (c *Commands) confirm(question string) bool {
	fmt.Fprintf(c.Out, "%s [y/N] ", question)
	if c.In == nil {
		return false
	}
	answer, _ := bufio.NewReader(c.In).ReadString('\n')
	answer = strings.TrimSpace(answer)
	return answer == "y" || answer == "Y"
}

func (c *Commands) initStore(path string) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintln(c.Out, "Store already exists. Use 'clean' first if you want to reinitialize.")
		return nil
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	db, err := openStore(path)
	if err != nil {
		return err
	}
	defer db.Close()
	fmt.Fprintln(c.Out, "Store initialized successfully")
	return nil
}

func (c *Commands) cleanStore(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(c.Out, "Store is already clean (does not exist)")
		return nil
	}
	if !c.confirm("Are you sure you want to clean the store? This cannot be undone.") {
		return ErrCancelled
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to clean store: %w", err)
	}
	fmt.Fprintln(c.Out, "Store cleaned successfully")
	return nil
}

func (c *Commands) backupStore(path, file string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return errors.New("no store exists to backup")
	}
	db, err := openStore(path)
	if err != nil {
		return err
	}
	defer db.Close()

	return c.writeBackup(path, file, func(w io.Writer) error {
		_, err := db.Backup(w, 0)
		return err
	})
}

// writeBackup writes a backup to file, defaulting to a timestamped file in a
// backups directory next to dataPath
func (c *Commands) writeBackup(dataPath, file string, backup func(io.Writer) error) error {
	if file == "" {
		backupDir := filepath.Join(filepath.Dir(filepath.Clean(dataPath)), "backups")
		if err := os.MkdirAll(backupDir, 0755); err != nil {
			return fmt.Errorf("failed to create backup directory: %w", err)
		}
		file = filepath.Join(backupDir, fmt.Sprintf("backup_%d.db", time.Now().Unix()))
	}

	f, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Close()

	if err := backup(f); err != nil {
		return fmt.Errorf("failed to backup: %w", err)
	}
	fmt.Fprintf(c.Out, "Backed up successfully to %s\n", file)
	return nil
}

func (c *Commands) restoreStore(path, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer f.Close()

	if _, err := os.Stat(path); err == nil {
		if !c.confirm("Existing store found. Do you want to replace it?") {
			return ErrCancelled
		}
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove existing store: %w", err)
		}
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := openStore(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Load(f, 4); err != nil {
		return fmt.Errorf("failed to restore store: %w", err)
	}
	fmt.Fprintln(c.Out, "Store restored successfully")
	return nil
}

// Seed is the document file loaded by 'store seed'. Comments embedded in a
// post are stored against it.
type Seed struct {
	Posts    []*models.Post    `json:"posts"`
	Comments []*models.Comment `json:"comments"`
}

func (c *Commands) seedStore(path, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	db, err := openStore(path)
	if err != nil {
		return err
	}
	defer db.Close()

	posts := repositories.NewBadgerPostRepository(db)
	comments := repositories.NewBadgerCommentRepository(db)
	count := 0
	for _, post := range seed.Posts {
		if err := posts.Put(post); err != nil {
			return err
		}
		for _, comment := range post.Comments {
			if comment.Post == nil {
				comment.Post = &models.Reference{Type: "reference", Ref: post.ID}
			}
			seed.Comments = append(seed.Comments, comment)
		}
	}
	for _, comment := range seed.Comments {
		if err := comments.Put(comment); err != nil {
			return err
		}
		count++
	}
	fmt.Fprintf(c.Out, "Seeded %d posts and %d comments\n", len(seed.Posts), count)
	return nil
}

func (c *Commands) approveComment(path, id string) error {
	db, err := openStore(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repositories.NewBadgerCommentRepository(db).Approve(id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("comment %s not found", id)
		}
		return err
	}
	fmt.Fprintf(c.Out, "Comment %s approved\n", id)
	return nil
}
