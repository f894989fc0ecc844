package models

import "errors"

// SlugValue returns the current slug of the post.
func (p *Post) SlugValue() string {
	return p.Slug.Current
}

// AuthorName returns the author's name, or an empty string when the post has
// no resolved author.
func (p *Post) AuthorName() string {
	if p.Author == nil {
		return ""
	}
	return p.Author.Name
}

// AddComment attaches an approved comment to the post. Unapproved comments are
// never shown and are rejected.
func (p *Post) AddComment(comment *Comment) error {
	if comment == nil {
		return errors.New("comment cannot be nil")
	}
	if !comment.IsApproved() {
		return errors.New("comment is not approved")
	}
	p.Comments = append(p.Comments, comment)
	return nil
}
