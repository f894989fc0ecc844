package site

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"techporium/app/config"
	"techporium/app/logging"
	"techporium/app/pagecache"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedJSON = `{
  "posts": [
    {
      "_id": "p1",
      "_createdAt": "2022-05-01T10:00:00Z",
      "title": "Hello Badger",
      "description": "Local posts",
      "slug": {"current": "hello-badger"},
      "author": {"name": "Kyle"},
      "body": [{"_type": "block", "style": "normal", "children": [{"_type": "span", "text": "Stored locally"}]}],
      "comments": [{"_id": "c1", "name": "Ann", "email": "ann@example.com", "comment": "Seeded comment"}]
    }
  ]
}`

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		SanityProjectID:   "proj",
		SanityDataset:     "production",
		SanityAPIVersion:  "2021-10-21",
		StoreDriver:       "badger",
		BadgerPath:        filepath.Join(dir, "badger"),
		CacheDriver:       "badger",
		CachePath:         filepath.Join(dir, "cache"),
		RevalidateSeconds: 60,
		SiteURL:           "https://techporium.example",
		Port:              "0",
		Env:               "test",
	}
}

func newCommands(cfg *config.Config, in string) (*Commands, *bytes.Buffer) {
	out := new(bytes.Buffer)
	return &Commands{Config: cfg, Logger: logging.Discard(), In: strings.NewReader(in), Out: out}, out
}

func writeSeed(t *testing.T) string {
	file := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(file, []byte(seedJSON), 0644))
	return file
}

func serve(app *App, method, path string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(method, path, body))
	return w
}

func TestLocalStoreLifecycle(t *testing.T) {
	cfg := testConfig(t)
	cmds, out := newCommands(cfg, "")
	ctx := context.Background()

	require.NoError(t, cmds.Store([]string{"init"}))
	assert.Contains(t, out.String(), "Store initialized successfully")

	require.NoError(t, cmds.Store([]string{"seed", writeSeed(t)}))
	assert.Contains(t, out.String(), "Seeded 1 posts and 1 comments")

	// unapproved comments stay hidden
	app, err := Build(ctx, cfg, cmds.Logger)
	require.NoError(t, err)
	w := serve(app, "GET", "/post/hello-badger", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Stored locally")
	assert.NotContains(t, w.Body.String(), "Seeded comment")
	require.NoError(t, app.Close())

	require.NoError(t, cmds.Store([]string{"approve", "c1"}))
	assert.Contains(t, out.String(), "Comment c1 approved")
	assert.Error(t, cmds.Store([]string{"approve", "missing"}))

	require.NoError(t, cmds.Cache(ctx, []string{"clean"}))

	app, err = Build(ctx, cfg, cmds.Logger)
	require.NoError(t, err)
	w = serve(app, "GET", "/post/hello-badger", nil)
	assert.Contains(t, w.Body.String(), "Seeded comment")

	payload := `{"_id": "p1", "name": "Kyle Ray", "email": " a@b.com ", "comment": "  Great post!  "}`
	w = serve(app, "POST", "/api/createComment", strings.NewReader(payload))
	assert.Equal(t, http.StatusOK, w.Code)

	// ids are written as given, like the remote store does
	w = serve(app, "POST", "/api/createComment", strings.NewReader(`{"_id": "a:b", "name": "Ann", "email": "a@b.com", "comment": "Hi"}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"_id":"a:b"`)
	require.NoError(t, app.Close())
}

func TestStoreBackupRestore(t *testing.T) {
	cfg := testConfig(t)
	cmds, out := newCommands(cfg, "y\n")

	require.NoError(t, cmds.Store([]string{"seed", writeSeed(t)}))

	backup := filepath.Join(t.TempDir(), "store.bak")
	require.NoError(t, cmds.Store([]string{"backup", backup}))
	assert.Contains(t, out.String(), "Backed up successfully to "+backup)

	require.NoError(t, cmds.Store([]string{"restore", backup}))
	assert.Contains(t, out.String(), "Store restored successfully")

	app, err := Build(context.Background(), cfg, cmds.Logger)
	require.NoError(t, err)
	defer app.Close()
	w := serve(app, "GET", "/", nil)
	assert.Contains(t, w.Body.String(), "Hello Badger")
}

func TestStoreCleanNeedsConfirmation(t *testing.T) {
	cfg := testConfig(t)

	cmds, _ := newCommands(cfg, "n\n")
	require.NoError(t, cmds.Store([]string{"init"}))
	assert.ErrorIs(t, cmds.Store([]string{"clean"}), ErrCancelled)
	assert.DirExists(t, cfg.BadgerPath)

	cmds, out := newCommands(cfg, "y\n")
	require.NoError(t, cmds.Store([]string{"clean"}))
	assert.Contains(t, out.String(), "Store cleaned successfully")
	assert.NoDirExists(t, cfg.BadgerPath)
}

func TestCommandErrors(t *testing.T) {
	cfg := testConfig(t)
	cmds, _ := newCommands(cfg, "")
	ctx := context.Background()

	assert.Error(t, cmds.Store(nil))
	assert.Error(t, cmds.Store([]string{"bogus"}))
	assert.Error(t, cmds.Store([]string{"restore"}))
	assert.Error(t, cmds.Store([]string{"seed"}))
	assert.Error(t, cmds.Store([]string{"approve"}))
	assert.Error(t, cmds.Store([]string{"backup"}))
	assert.Error(t, cmds.Cache(ctx, nil))
	assert.Error(t, cmds.Cache(ctx, []string{"bogus"}))

	cfg.CacheDriver = "redis"
	assert.Error(t, cmds.Cache(ctx, []string{"backup"}))
}

func TestCacheCleanInMemory(t *testing.T) {
	cfg := testConfig(t)
	cfg.CachePath = ""
	cmds, out := newCommands(cfg, "")

	require.NoError(t, cmds.Cache(context.Background(), []string{"clean"}))
	assert.Contains(t, out.String(), "nothing to clean")
	assert.NotContains(t, out.String(), "cleaned successfully")
}

func TestCacheBackupRestore(t *testing.T) {
	cfg := testConfig(t)
	cmds, out := newCommands(cfg, "")
	ctx := context.Background()

	require.NoError(t, cmds.Store([]string{"seed", writeSeed(t)}))
	require.NoError(t, cmds.Prerender(ctx))
	assert.Contains(t, out.String(), "generated /post/hello-badger")

	backup := filepath.Join(t.TempDir(), "cache.bak")
	require.NoError(t, cmds.Cache(ctx, []string{"backup", backup}))

	require.NoError(t, cmds.Cache(ctx, []string{"clean"}))
	require.NoError(t, cmds.Cache(ctx, []string{"restore", backup}))

	cache, err := pagecache.OpenBadger(cfg.CachePath)
	require.NoError(t, err)
	defer cache.Close()
	page, err := cache.Get(ctx, "hello-badger")
	require.NoError(t, err)
	assert.Contains(t, string(page.HTML), "Stored locally")
}

func TestSharedBadgerCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.CachePath = cfg.BadgerPath
	cmds, _ := newCommands(cfg, "")

	require.NoError(t, cmds.Store([]string{"seed", writeSeed(t)}))

	app, err := Build(context.Background(), cfg, cmds.Logger)
	require.NoError(t, err)
	defer app.Close()

	w := serve(app, "GET", "/post/hello-badger", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = serve(app, "GET", "/post/hello-badger", nil)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
}

// contentStoreServer answers the post queries and records mutations
type contentStoreServer struct {
	mu        sync.Mutex
	mutations []map[string]interface{}
}

func (s *contentStoreServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasPrefix(r.URL.Path, "/v2021-10-21/data/mutate/production"):
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		s.mu.Lock()
		s.mutations = append(s.mutations, body)
		s.mu.Unlock()
		io.WriteString(w, `{"transactionId": "tx1", "results": [{"id": "new-comment", "operation": "create"}]}`)
	case strings.HasPrefix(r.URL.Path, "/v2021-10-21/data/query/production"):
		query := r.URL.Query().Get("query")
		switch {
		case strings.Contains(query, "[0]"):
			if r.URL.Query().Get("$slug") != `"remote-post"` {
				io.WriteString(w, `{"result": null}`)
				return
			}
			io.WriteString(w, `{"result": {"_id": "r1", "title": "Remote Post", "slug": {"current": "remote-post"}, "comments": []}}`)
		case !strings.Contains(query, "title"):
			io.WriteString(w, `{"result": [{"_id": "r1", "slug": {"current": "remote-post"}}, {"_id": "r2", "slug": {"current": "gone"}}]}`)
		default:
			io.WriteString(w, `{"result": [{"_id": "r1", "title": "Remote Post", "slug": {"current": "remote-post"}}]}`)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error": {"type": "notFound", "description": "unknown endpoint"}}`)
	}
}

func TestRemoteStoreWithRedisCache(t *testing.T) {
	store := &contentStoreServer{}
	server := httptest.NewServer(store)
	defer server.Close()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := testConfig(t)
	cfg.StoreDriver = "remote"
	cfg.SanityBaseURL = server.URL
	cfg.CacheDriver = "redis"
	cfg.RedisURL = mr.Addr()
	cmds, out := newCommands(cfg, "")
	ctx := context.Background()

	require.NoError(t, cmds.Prerender(ctx))
	assert.Contains(t, out.String(), "generated /post/remote-post")
	assert.Contains(t, out.String(), "not found /post/gone (skipped)")

	app, err := Build(ctx, cfg, cmds.Logger)
	require.NoError(t, err)
	defer app.Close()

	w := serve(app, "GET", "/", nil)
	assert.Contains(t, w.Body.String(), "Remote Post")

	w = serve(app, "GET", "/post/remote-post", nil)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	w = serve(app, "GET", "/post/gone", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(app, "POST", "/api/createComment", strings.NewReader(`{"_id": "r1", "name": "Kyle Ray", "email": "a@b.com", "comment": "Hi"}`))
	assert.Equal(t, http.StatusOK, w.Code)

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.mutations, 1)
	mutation := store.mutations[0]["mutations"].([]interface{})[0].(map[string]interface{})["create"].(map[string]interface{})
	assert.Equal(t, "comment", mutation["_type"])
	assert.Equal(t, "KyleRay", mutation["name"])
	assert.Equal(t, map[string]interface{}{"_type": "reference", "_ref": "r1"}, mutation["post"])
	assert.NotContains(t, mutation, "approved")

	require.NoError(t, cmds.Cache(ctx, []string{"clean"}))
	assert.False(t, mr.Exists("techporium:page:remote-post"))
}
