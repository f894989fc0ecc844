package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Slug is the human-readable key of a post, as stored by the content store.
type Slug struct {
	Current string `json:"current"`
}

// Reference points at another document by id.
type Reference struct {
	Type string `json:"_type" validate:"eq=reference"`
	Ref  string `json:"_ref" validate:"required"`
}

// ImageAsset is the asset part of an image field. Ref has the form
// image-<id>-<width>x<height>-<format>.
type ImageAsset struct {
	Ref string `json:"_ref,omitempty"`
	URL string `json:"url,omitempty"`
}

// Image is an image field on a document.
type Image struct {
	Type  string      `json:"_type,omitempty"`
	Asset *ImageAsset `json:"asset,omitempty"`
	Alt   string      `json:"alt,omitempty"`
}

// Author is resolved from the post's author reference.
type Author struct {
	Name  string `json:"name"`
	Image *Image `json:"image,omitempty"`
}

// Post represents a blog post. Posts are authored in the CMS and only read here.
type Post struct {
	ID          string     `json:"_id"`
	CreatedAt   time.Time  `json:"_createdAt"`
	UpdatedAt   time.Time  `json:"_updatedAt"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Slug        Slug       `json:"slug"`
	MainImage   *Image     `json:"mainImage,omitempty"`
	Author      *Author    `json:"author,omitempty"`
	Body        []Block    `json:"body,omitempty"`
	Comments    []*Comment `json:"comments"`
}

// Comment represents a reader comment on a post. Approved is nil until a
// moderator sets it.
type Comment struct {
	ID        string     `json:"_id"`
	CreatedAt time.Time  `json:"_createdAt"`
	Post      *Reference `json:"post,omitempty"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Comment   string     `json:"comment"`
	Approved  *bool      `json:"approved,omitempty"`
}

// Span is a run of text inside a block.
type Span struct {
	Type  string   `json:"_type"`
	Key   string   `json:"_key,omitempty"`
	Text  string   `json:"text"`
	Marks []string `json:"marks,omitempty"`
}

// MarkDef is an annotation referenced by key from a span's marks.
type MarkDef struct {
	Type string `json:"_type"`
	Key  string `json:"_key"`
	Href string `json:"href,omitempty"`
}

// Block is one element of a rich text body. Text blocks have Type "block";
// image blocks have Type "image" and an Asset.
type Block struct {
	Type     string      `json:"_type"`
	Key      string      `json:"_key,omitempty"`
	Style    string      `json:"style,omitempty"`
	ListItem string      `json:"listItem,omitempty"`
	Level    int         `json:"level,omitempty"`
	Children []Span      `json:"children,omitempty"`
	MarkDefs []MarkDef   `json:"markDefs,omitempty"`
	Asset    *ImageAsset `json:"asset,omitempty"`
	Alt      string      `json:"alt,omitempty"`
}
