package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// PageCache stores fetched page bodies by URL.
type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte, ttl time.Duration) error
	Close() error
}

// RedisCache is a PageCache backed by Redis string keys with expiry.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to the Redis server named by cfg.RedisURL.
// Both redis:// URLs and bare host:port addresses are accepted.
func NewRedisCache(cfg config.CacheConfig) (*RedisCache, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		opt = &redis.Options{Addr: cfg.RedisURL}
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return &RedisCache{client: client, prefix: cfg.KeyPrefix}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	body, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+key, body, ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// CachingFetcher serves pages from a PageCache and fills it on misses.
// Cache failures are logged and never fail a fetch.
type CachingFetcher struct {
	next   Fetcher
	cache  PageCache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachingFetcher wraps next with cache.
func NewCachingFetcher(next Fetcher, cache PageCache, ttl time.Duration, logger *slog.Logger) *CachingFetcher {
	return &CachingFetcher{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With("component", "page_cache"),
	}
}

func (f *CachingFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	key := req.URLString()

	body, ok, err := f.cache.Get(ctx, key)
	switch {
	case err != nil:
		f.logger.Warn("cache read failed", "url", key, "error", err)
	case ok:
		f.logger.Debug("cache hit", "url", key, "size", len(body))
		return &types.Response{
			StatusCode:  http.StatusOK,
			Headers:     make(http.Header),
			Body:        body,
			Request:     req,
			ContentType: "text/html",
			FinalURL:    key,
			FetchedAt:   time.Now(),
			Cached:      true,
		}, nil
	}

	resp, err := f.next.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.IsSuccess() {
		if err := f.cache.Set(ctx, key, resp.Body, f.ttl); err != nil {
			f.logger.Warn("cache write failed", "url", key, "error", err)
		}
	}
	return resp, nil
}

func (f *CachingFetcher) Close() error {
	return errors.Join(f.next.Close(), f.cache.Close())
}

func (f *CachingFetcher) Type() string {
	return f.next.Type() + "+cache"
}
