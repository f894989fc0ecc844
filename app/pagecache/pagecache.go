// Package pagecache stores rendered post pages together with the time they
// were generated, so they can be served until they are due for regeneration.
package pagecache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrMiss is returned when no page is cached for a slug.
var ErrMiss = errors.New("page not cached")

// Page is a rendered detail page.
type Page struct {
	Slug        string    `json:"slug"`
	HTML        []byte    `json:"html"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Stale reports whether the page is older than ttl at now.
func (p *Page) Stale(now time.Time, ttl time.Duration) bool {
	return now.Sub(p.GeneratedAt) >= ttl
}

// Cache is implemented by the page cache drivers. Drivers are safe for
// concurrent use; concurrent writes of the same slug keep the last one.
type Cache interface {
	Get(ctx context.Context, slug string) (*Page, error)
	Set(ctx context.Context, page *Page) error
	Clear(ctx context.Context) error
	Close() error
}

const keyPrefix = "page:"

func pageKey(slug string) string {
	return keyPrefix + slug
}

func encode(page *Page) ([]byte, error) {
	if page.Slug == "" {
		return nil, errors.New("page has no slug")
	}
	return json.Marshal(page)
}

func decode(data []byte) (*Page, error) {
	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
