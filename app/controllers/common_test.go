package controllers

import (
	"net/http"
	"context"
	"testing"
	"time"

	"techporium/app/contentstore"
	"techporium/app/logging"
	"techporium/app/models"
	"techporium/app/pagecache"
	"techporium/app/repositories"
	"techporium/app/repositories/mock"
	"techporium/app/services"
	"techporium/app/views"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router   *mux.Router
	posts    *PostController
	comments *CommentController
	postRepo *mock.PostRepository
	comRepo  *mock.CommentRepository
	cache    *pagecache.BadgerCache
	clock    *time.Time
}

func testPost(slug, title string) *models.Post {
	yes := true
	return &models.Post{
		ID:          "id-" + slug,
		CreatedAt:   time.Date(2022, 5, 1, 10, 0, 0, 0, time.UTC),
		Title:       title,
		Description: "About " + title,
		Slug:        models.Slug{Current: slug},
		Author:      &models.Author{Name: "Kyle"},
		Body: []models.Block{
			{Type: "block", Style: "normal", Children: []models.Span{{Type: "span", Text: "Body of " + title}}},
		},
		Comments: []*models.Comment{
			{ID: "c-" + slug, Name: "Ann", Comment: "Approved comment", Approved: &yes},
			{ID: "u-" + slug, Name: "Bob", Comment: "Pending comment"},
		},
	}
}

// slugRepository lists extra slugs the detail query does not know
type slugRepository struct {
	*mock.PostRepository
	extra []string
}

func (r *slugRepository) ListSlugs(ctx context.Context) ([]string, error) {
	slugs, err := r.PostRepository.ListSlugs(ctx)
	return append(slugs, r.extra...), err
}

func setupTestEnv(t *testing.T, postRepo repositories.PostRepository, mockRepo *mock.PostRepository) *testEnv {
	renderer, err := views.New(contentstore.NewImageBuilder("proj", "production", ""), "https://techporium.example")
	require.NoError(t, err)

	cache, err := pagecache.OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	now := time.Date(2022, 6, 1, 12, 0, 0, 0, time.UTC)
	env := &testEnv{postRepo: mockRepo, comRepo: mock.NewCommentRepository(), cache: cache, clock: &now}

	logger := logging.Discard()
	env.posts = NewPostController(services.NewPostService(postRepo), renderer, cache, time.Minute, logger)
	env.posts.now = func() time.Time { return *env.clock }
	env.comments = NewCommentController(services.NewCommentService(env.comRepo), env.posts, logger)

	router := mux.NewRouter()
	router.HandleFunc("/", env.posts.Index).Methods("GET")
	router.HandleFunc("/post/{slug}", env.posts.Show).Methods("GET")
	router.HandleFunc("/post/{slug}/comment", env.comments.SubmitForm).Methods("POST")
	router.HandleFunc("/api/createComment", env.comments.Create).Methods("POST")
	router.NotFoundHandler = http.HandlerFunc(env.posts.NotFound)
	env.router = router
	return env
}

func setupTestController(t *testing.T, posts ...*models.Post) *testEnv {
	repo := mock.NewPostRepository(posts...)
	return setupTestEnv(t, repo, repo)
}

func (e *testEnv) advance(d time.Duration) {
	*e.clock = e.clock.Add(d)
}
