package pagecache

import (
	"context"
	"fmt"
	"io"

	"github.com/dgraph-io/badger/v4"
)

// BadgerCache keeps pages in a badger database.
type BadgerCache struct {
	db    *badger.DB
	owned bool
}

// OpenBadger opens a page cache at path. An empty path keeps pages in memory.
func OpenBadger(path string) (*BadgerCache, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open page cache: %w", err)
	}
	return &BadgerCache{db: db, owned: true}, nil
}

// NewBadger wraps an open database. Close leaves the database open.
func NewBadger(db *badger.DB) *BadgerCache {
	return &BadgerCache{db: db}
}

func (c *BadgerCache) Get(ctx context.Context, slug string) (*Page, error) {
	var page *Page
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(pageKey(slug)))
		if err == badger.ErrKeyNotFound {
			return ErrMiss
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			page, err = decode(val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (c *BadgerCache) Set(ctx context.Context, page *Page) error {
	data, err := encode(page)
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(pageKey(page.Slug)), data)
	})
}

// Clear drops every cached page
func (c *BadgerCache) Clear(ctx context.Context) error {
	return c.db.DropPrefix([]byte(keyPrefix))
}

// Backup writes a full backup of the cache to w
func (c *BadgerCache) Backup(w io.Writer) error {
	_, err := c.db.Backup(w, 0)
	return err
}

// Restore loads a backup written by Backup
func (c *BadgerCache) Restore(r io.Reader) error {
	return c.db.Load(r, 256)
}

func (c *BadgerCache) Close() error {
	if !c.owned {
		return nil
	}
	return c.db.Close()
}
