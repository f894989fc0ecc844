package services

import (
	"context"
	"errors"
	"testing"

	"techporium/app/models"
	"techporium/app/repositories"
	"techporium/app/repositories/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approved(v bool) *bool { return &v }

func TestPostService(t *testing.T) {
	ctx := context.Background()
	repo := mock.NewPostRepository(
		&models.Post{
			ID:    "p1",
			Title: "First",
			Slug:  models.Slug{Current: "first"},
			Body:  []models.Block{{Type: "block"}},
			Comments: []*models.Comment{
				{ID: "c1", Name: "Ann", Approved: approved(true)},
				{ID: "c2", Name: "Bob"},
				{ID: "c3", Name: "Cid", Approved: approved(false)},
			},
		},
		&models.Post{ID: "p2", Title: "Second", Slug: models.Slug{Current: "second"}},
	)
	service := NewPostService(repo)

	t.Run("list posts", func(t *testing.T) {
		posts, err := service.ListPosts(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, "First", posts[0].Title)
		assert.Nil(t, posts[0].Body)
	})

	t.Run("get post with approved comments", func(t *testing.T) {
		post, err := service.GetPost(ctx, "first")
		require.NoError(t, err)
		require.Len(t, post.Comments, 1)
		assert.Equal(t, "c1", post.Comments[0].ID)
	})

	t.Run("get post without comments", func(t *testing.T) {
		post, err := service.GetPost(ctx, "second")
		require.NoError(t, err)
		assert.NotNil(t, post.Comments)
		assert.Empty(t, post.Comments)
	})

	t.Run("get unknown post", func(t *testing.T) {
		_, err := service.GetPost(ctx, "missing")
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		_, err = service.GetPost(ctx, "")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("list slugs", func(t *testing.T) {
		slugs, err := service.ListSlugs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second"}, slugs)
	})

	t.Run("repository failure", func(t *testing.T) {
		boom := errors.New("boom")
		failing := mock.NewPostRepository()
		failing.Err = boom
		service := NewPostService(failing)

		_, err := service.ListPosts(ctx)
		assert.ErrorIs(t, err, boom)
		_, err = service.GetPost(ctx, "first")
		assert.ErrorIs(t, err, boom)
		_, err = service.ListSlugs(ctx)
		assert.ErrorIs(t, err, boom)
	})
}
