package repositories

import (
	"encoding/json"
	"fmt"
	"net/url"

	"techporium/app/models"

	"github.com/dgraph-io/badger/v4"
)

const (
	// Key prefixes for different entity types
	PostKeyPrefix    = "post:"
	SlugKeyPrefix    = "slug:"
	CommentKeyPrefix = "comment:"
)

// keyPart escapes an id so it cannot contain the ':' key separator.
func keyPart(id string) string {
	return url.QueryEscape(id)
}

func postKey(id string) []byte {
	return []byte(PostKeyPrefix + keyPart(id))
}

func slugKey(slug string) []byte {
	return []byte(SlugKeyPrefix + slug)
}

// commentKey embeds the post id so comments of a post share a prefix.
func commentKey(postID, id string) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", CommentKeyPrefix, keyPart(postID), keyPart(id)))
}

func commentPrefix(postID string) []byte {
	return []byte(CommentKeyPrefix + keyPart(postID) + ":")
}

// validDocumentID rejects empty ids. Any other id is escaped into its key.
func validDocumentID(id string) error {
	if id == "" {
		return fmt.Errorf("document id is required")
	}
	return nil
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %v", err)
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %v", err)
	}
	return nil
}

// getPost loads a post by id inside a transaction
func getPost(txn *badger.Txn, id string) (*models.Post, error) {
	item, err := txn.Get(postKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var post models.Post
	if err := item.Value(func(val []byte) error {
		return unmarshalEntity(val, &post)
	}); err != nil {
		return nil, err
	}
	return &post, nil
}

// listComments loads the comments of a post; approvedOnly keeps the ones a
// moderator approved.
func listComments(txn *badger.Txn, postID string, approvedOnly bool) ([]*models.Comment, error) {
	comments := []*models.Comment{}

	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	prefix := commentPrefix(postID)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var comment models.Comment
		err := it.Item().Value(func(val []byte) error {
			return unmarshalEntity(val, &comment)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal comment: %v", err)
		}
		if approvedOnly && !comment.IsApproved() {
			continue
		}
		comments = append(comments, &comment)
	}
	return comments, nil
}
