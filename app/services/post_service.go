package services

import (
	"context"
	"fmt"

	"techporium/app/models"
	"techporium/app/repositories"
)

// PostService handles reading blog posts
type PostService struct {
	postRepo repositories.PostRepository
}

// NewPostService creates a new PostService
func NewPostService(postRepo repositories.PostRepository) *PostService {
	return &PostService{postRepo: postRepo}
}

// ListPosts retrieves every post in store order
func (s *PostService) ListPosts(ctx context.Context) ([]*models.Post, error) {
	posts, err := s.postRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// GetPost retrieves a post by slug with its approved comments. An unknown
// slug returns repositories.ErrNotFound.
func (s *PostService) GetPost(ctx context.Context, slug string) (*models.Post, error) {
	if slug == "" {
		return nil, repositories.ErrNotFound
	}
	post, err := s.postRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get post %q: %w", slug, err)
	}
	if post.Comments == nil {
		post.Comments = []*models.Comment{}
	}
	return post, nil
}

// ListSlugs retrieves the slug of every post
func (s *PostService) ListSlugs(ctx context.Context) ([]string, error) {
	slugs, err := s.postRepo.ListSlugs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list slugs: %w", err)
	}
	return slugs, nil
}
