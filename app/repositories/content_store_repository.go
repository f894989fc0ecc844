package repositories

import (
	"context"
	"fmt"

	"techporium/app/models"
)

// ContentStore is the subset of the content store client the repositories use.
type ContentStore interface {
	Query(ctx context.Context, query string, params map[string]interface{}, out interface{}) error
	Create(ctx context.Context, doc interface{}) (string, error)
}

// ContentStorePostRepository implements PostRepository with GROQ queries
type ContentStorePostRepository struct {
	store ContentStore
}

// NewContentStorePostRepository creates a new ContentStorePostRepository
func NewContentStorePostRepository(store ContentStore) *ContentStorePostRepository {
	return &ContentStorePostRepository{store: store}
}

// List retrieves all posts
func (r *ContentStorePostRepository) List(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	if err := r.store.Query(ctx, listPostsQuery, nil, &posts); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// GetBySlug retrieves a post and its approved comments
func (r *ContentStorePostRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post *models.Post
	if err := r.store.Query(ctx, postBySlugQuery, map[string]interface{}{"slug": slug}, &post); err != nil {
		return nil, fmt.Errorf("get post %q: %w", slug, err)
	}
	if post == nil {
		return nil, ErrNotFound
	}
	if post.Comments == nil {
		post.Comments = []*models.Comment{}
	}
	return post, nil
}

// ListSlugs retrieves the slug of every post
func (r *ContentStorePostRepository) ListSlugs(ctx context.Context) ([]string, error) {
	var rows []struct {
		ID   string      `json:"_id"`
		Slug models.Slug `json:"slug"`
	}
	if err := r.store.Query(ctx, postSlugsQuery, nil, &rows); err != nil {
		return nil, fmt.Errorf("list post slugs: %w", err)
	}

	slugs := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Slug.Current == "" {
			continue
		}
		slugs = append(slugs, row.Slug.Current)
	}
	return slugs, nil
}

// ContentStoreCommentRepository implements CommentRepository with create-document calls
type ContentStoreCommentRepository struct {
	store ContentStore
}

// NewContentStoreCommentRepository creates a new ContentStoreCommentRepository
func NewContentStoreCommentRepository(store ContentStore) *ContentStoreCommentRepository {
	return &ContentStoreCommentRepository{store: store}
}

// Create writes a new comment document. The store error is returned unwrapped
// so callers can surface it as-is.
func (r *ContentStoreCommentRepository) Create(ctx context.Context, comment *models.NewComment) (string, error) {
	return r.store.Create(ctx, comment)
}
