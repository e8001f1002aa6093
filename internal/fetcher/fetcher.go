package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// Fetcher is the interface for all request fetcher implementations.
type Fetcher interface {
	// Fetch retrieves the content at the given request's URL.
	Fetch(ctx context.Context, req *types.Request) (*types.Response, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns the fetcher type identifier.
	Type() string
}

// New builds the fetcher selected by cfg.Fetcher.Type, wrapped in a page
// cache when cfg.Cache.Enabled is set.
func New(cfg *config.Config, logger *slog.Logger) (Fetcher, error) {
	var (
		f   Fetcher
		err error
	)
	switch cfg.Fetcher.Type {
	case "http", "":
		f, err = NewHTTPFetcher(cfg, logger)
	case "browser":
		f, err = NewBrowserFetcher(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown fetcher type %q", cfg.Fetcher.Type)
	}
	if err != nil {
		return nil, err
	}

	if !cfg.Cache.Enabled {
		return f, nil
	}
	cache, err := NewPageCache(cfg.Cache)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return NewCachingFetcher(f, cache, cfg.Cache.TTL, logger), nil
}

// NewPageCache opens the cache backend named by cfg.Backend.
func NewPageCache(cfg config.CacheConfig) (PageCache, error) {
	switch cfg.Backend {
	case config.CacheRedis, "":
		return NewRedisCache(cfg)
	case config.CacheMongo:
		return NewMongoCache(cfg)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
