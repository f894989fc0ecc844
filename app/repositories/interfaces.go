package repositories

import (
	"context"
	"errors"

	"techporium/app/models"
)

var (
	ErrNotFound = errors.New("record not found")
)

// PostRepository defines the read access to posts
type PostRepository interface {
	// List returns every post without body or comments, in store order.
	List(ctx context.Context) ([]*models.Post, error)
	// GetBySlug returns the post with its body and approved comments.
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	// ListSlugs returns the slug of every post.
	ListSlugs(ctx context.Context) ([]string, error)
}

// CommentRepository defines the write access to comments
type CommentRepository interface {
	Create(ctx context.Context, comment *models.NewComment) (string, error)
}
