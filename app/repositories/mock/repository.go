package mock

import (
	"context"
	"fmt"
	"sync"

	"techporium/app/models"
	"techporium/app/repositories"
)

type PostRepository struct {
	posts map[string]*models.Post
	order []string
	mutex sync.RWMutex
	// Err, when set, is returned by every call
	Err error
	// Calls counts GetBySlug invocations
	Calls int
}

type CommentRepository struct {
	Created []*models.NewComment
	nextID  int
	mutex   sync.Mutex
	// Err, when set, is returned by Create
	Err error
}

func NewPostRepository(posts ...*models.Post) *PostRepository {
	m := &PostRepository{posts: make(map[string]*models.Post)}
	for _, post := range posts {
		m.Add(post)
	}
	return m
}

func NewCommentRepository() *CommentRepository {
	return &CommentRepository{nextID: 1}
}

// Add stores a post, keyed by slug
func (m *PostRepository) Add(post *models.Post) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	slug := post.Slug.Current
	if _, exists := m.posts[slug]; !exists {
		m.order = append(m.order, slug)
	}
	m.posts[slug] = post
}

// Remove deletes the post with the given slug
func (m *PostRepository) Remove(slug string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.posts, slug)
	for i, s := range m.order {
		if s == slug {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// PostRepository implementation
func (m *PostRepository) List(ctx context.Context) ([]*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}
	posts := []*models.Post{}
	for _, slug := range m.order {
		post := *m.posts[slug]
		post.Body = nil
		post.Comments = nil
		posts = append(posts, &post)
	}
	return posts, nil
}

func (m *PostRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	post, exists := m.posts[slug]
	if !exists {
		return nil, repositories.ErrNotFound
	}

	found := *post
	found.Comments = []*models.Comment{}
	for _, comment := range post.Comments {
		if comment.IsApproved() {
			found.Comments = append(found.Comments, comment)
		}
	}
	return &found, nil
}

func (m *PostRepository) ListSlugs(ctx context.Context) ([]string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}
	return append([]string{}, m.order...), nil
}

// CommentRepository implementation
func (m *CommentRepository) Create(ctx context.Context, comment *models.NewComment) (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	id := fmt.Sprintf("comment-%d", m.nextID)
	m.nextID++
	m.Created = append(m.Created, comment)
	return id, nil
}
