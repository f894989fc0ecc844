package models

import "time"

// CommentType is the document type of comments in the content store.
const CommentType = "comment"

// CommentSubmission is the payload a reader submits through the comment form.
type CommentSubmission struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Comment string `json:"comment"`
}

// NewComment is the create-document record for a sanitized submission. It has
// no approved field: a new comment starts unmoderated.
type NewComment struct {
	Type    string    `json:"_type" validate:"eq=comment"`
	Post    Reference `json:"post"`
	Name    string    `json:"name" validate:"required"`
	Email   string    `json:"email" validate:"required"`
	Comment string    `json:"comment" validate:"required"`
}

// NewCommentFor builds the create record for a comment on the given post.
func NewCommentFor(postID, name, email, comment string) *NewComment {
	return &NewComment{
		Type:    CommentType,
		Post:    Reference{Type: "reference", Ref: postID},
		Name:    name,
		Email:   email,
		Comment: comment,
	}
}

// Validate checks the record is complete before it is written.
func (c *NewComment) Validate() error {
	return validate.Struct(c)
}

// CommentAck is returned to the client after a comment was accepted.
type CommentAck struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// IsApproved reports whether a moderator approved the comment.
func (c *Comment) IsApproved() bool {
	return c.Approved != nil && *c.Approved
}

// PostID returns the id of the post the comment refers to.
func (c *Comment) PostID() string {
	if c.Post == nil {
		return ""
	}
	return c.Post.Ref
}

// FromNew materialises a stored comment from a create record.
func FromNew(id string, createdAt time.Time, nc *NewComment) *Comment {
	ref := nc.Post
	return &Comment{
		ID:        id,
		CreatedAt: createdAt,
		Post:      &ref,
		Name:      nc.Name,
		Email:     nc.Email,
		Comment:   nc.Comment,
	}
}
