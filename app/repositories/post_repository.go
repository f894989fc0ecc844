package repositories

import (
	"context"
	"fmt"

	"techporium/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerPostRepository implements PostRepository using BadgerDB. It is the
// local stand-in for the content store in development.
type BadgerPostRepository struct {
	db *badger.DB
}

// NewBadgerPostRepository creates a new BadgerPostRepository
func NewBadgerPostRepository(db *badger.DB) *BadgerPostRepository {
	return &BadgerPostRepository{db: db}
}

// Put stores a post and indexes its slug. Comments on the post are not stored
// here; use BadgerCommentRepository.Put.
func (r *BadgerPostRepository) Put(post *models.Post) error {
	if err := validDocumentID(post.ID); err != nil {
		return err
	}
	if post.Slug.Current == "" {
		return fmt.Errorf("post %s has no slug", post.ID)
	}

	stored := *post
	stored.Comments = nil
	data, err := marshalEntity(&stored)
	if err != nil {
		return err
	}

	return r.db.Update(func(txn *badger.Txn) error {
		// Drop the old slug index entry if the slug changed
		if existing, err := getPost(txn, post.ID); err == nil && existing.Slug.Current != post.Slug.Current {
			if err := txn.Delete(slugKey(existing.Slug.Current)); err != nil {
				return err
			}
		} else if err != nil && err != ErrNotFound {
			return err
		}

		if err := txn.Set(postKey(post.ID), data); err != nil {
			return err
		}
		return txn.Set(slugKey(post.Slug.Current), []byte(post.ID))
	})
}

// List retrieves all posts without body or comments
func (r *BadgerPostRepository) List(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(PostKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var post models.Post
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &post)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal post: %v", err)
			}
			post.Body = nil
			posts = append(posts, &post)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// GetBySlug retrieves a post with its approved comments
func (r *BadgerPostRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post *models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(slugKey(slug))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		post, err = getPost(txn, string(id))
		if err != nil {
			return err
		}
		post.Comments, err = listComments(txn, post.ID, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// ListSlugs retrieves the slug of every post
func (r *BadgerPostRepository) ListSlugs(ctx context.Context) ([]string, error) {
	slugs := []string{}
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(SlugKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			slugs = append(slugs, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return slugs, nil
}
