package repositories

import (
	"context"
	"fmt"
	"time"

	"techporium/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// BadgerCommentRepository implements CommentRepository using BadgerDB
type BadgerCommentRepository struct {
	db  *badger.DB
	now func() time.Time
}

// NewBadgerCommentRepository creates a new BadgerCommentRepository
func NewBadgerCommentRepository(db *badger.DB) *BadgerCommentRepository {
	return &BadgerCommentRepository{db: db, now: time.Now}
}

// Create stores a new, unapproved comment and returns its id. Like the content
// store, it does not check that the referenced post exists.
func (r *BadgerCommentRepository) Create(ctx context.Context, nc *models.NewComment) (string, error) {
	if err := nc.Validate(); err != nil {
		return "", fmt.Errorf("invalid comment: %w", err)
	}
	if err := validDocumentID(nc.Post.Ref); err != nil {
		return "", err
	}

	comment := models.FromNew(uuid.NewString(), r.now().UTC(), nc)
	if err := r.Put(comment); err != nil {
		return "", err
	}
	return comment.ID, nil
}

// Put stores a comment as-is, keyed under its post
func (r *BadgerCommentRepository) Put(comment *models.Comment) error {
	if err := validDocumentID(comment.ID); err != nil {
		return err
	}
	if err := validDocumentID(comment.PostID()); err != nil {
		return fmt.Errorf("comment %s: post reference: %w", comment.ID, err)
	}

	data, err := marshalEntity(comment)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(commentKey(comment.PostID(), comment.ID), data)
	})
}

// ListByPost retrieves all comments of a post, approved or not
func (r *BadgerCommentRepository) ListByPost(postID string) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		comments, err = listComments(txn, postID, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// Approve marks a comment as approved so it shows on its post
func (r *BadgerCommentRepository) Approve(id string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		// Find the comment's key
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(CommentKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var comment models.Comment
			err := item.Value(func(val []byte) error {
				return unmarshalEntity(val, &comment)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal comment: %v", err)
			}
			if comment.ID != id {
				continue
			}

			approved := true
			comment.Approved = &approved
			data, err := marshalEntity(&comment)
			if err != nil {
				return err
			}
			return txn.Set(item.KeyCopy(nil), data)
		}
		return ErrNotFound
	})
}
