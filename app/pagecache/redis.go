package pagecache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"techporium/app/metrics"

	"github.com/redis/go-redis/v9"
)

type metricsHook struct{}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			metrics.PageCacheErrors.WithLabelValues("redis", cmd.Name()).Inc()
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			metrics.PageCacheErrors.WithLabelValues("redis", "pipeline").Inc()
		}
		return err
	}
}

// RedisCache keeps pages in redis. Pages do not expire; regeneration replaces them.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// OpenRedis connects to addr, either a redis:// URL or host:port, and checks
// the connection.
func OpenRedis(ctx context.Context, addr string) (*RedisCache, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url %q: %w", addr, err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedis(client), nil
}

// NewRedis wraps a client. Close closes the client.
func NewRedis(client *redis.Client) *RedisCache {
	client.AddHook(metricsHook{})
	return &RedisCache{client: client, prefix: "techporium:"}
}

func (c *RedisCache) key(slug string) string {
	return c.prefix + pageKey(slug)
}

func (c *RedisCache) Get(ctx context.Context, slug string) (*Page, error) {
	data, err := c.client.Get(ctx, c.key(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return decode(data)
}

func (c *RedisCache) Set(ctx context.Context, page *Page) error {
	data, err := encode(page)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(page.Slug), data, 0).Err()
}

// Clear deletes every cached page
func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
