// Package newsgoat provides a public SDK for embedding NewsGoat as a library.
//
// Example usage:
//
//	client, err := newsgoat.NewClient(
//	    newsgoat.WithMaxPages(5),
//	    newsgoat.WithPrefetch(),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	news, err := client.Search(ctx, "CAEx Mebel", newsgoat.SortByDate)
package newsgoat

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/engine"
	"github.com/IshaanNene/NewsGoat/internal/fetcher"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// News is one extracted search result.
type News = types.News

// SortMode selects the result ordering.
type SortMode = types.SortMode

// Sort modes understood by the search endpoint.
const (
	SortByDate      = types.SortByDate
	SortByRelevance = types.SortByRelevance
)

// Errors callers can match with errors.Is.
var (
	ErrTransport          = types.ErrTransport
	ErrStructuralMismatch = types.ErrStructuralMismatch
	ErrMalformedAttribute = types.ErrMalformedAttribute
	ErrPageOverflow       = types.ErrPageOverflow
	ErrInvalidQuery       = types.ErrInvalidQuery
)

// ParseSortMode converts "date" or "relevance" into a SortMode.
func ParseSortMode(raw string) (SortMode, error) { return types.ParseSortMode(raw) }

// NewNews builds a News record.
func NewNews(title, body, timePublished, imageReference string) News {
	return types.NewNews(title, body, timePublished, imageReference)
}

// Fetcher is a custom page transport.
type Fetcher = fetcher.Fetcher

// Client is the high-level API for using NewsGoat as a library.
type Client struct {
	cfg     *config.Config
	engine  *engine.Engine
	fetcher fetcher.Fetcher
	logger  *slog.Logger
}

type options struct {
	cfg     *config.Config
	logger  *slog.Logger
	fetcher fetcher.Fetcher
}

// Option configures a Client.
type Option func(*options)

// WithBaseURL points the client at another host serving the same layout.
func WithBaseURL(baseURL string) Option {
	return func(o *options) { o.cfg.Site.BaseURL = baseURL }
}

// WithMaxPages caps the number of pages a search walks. 0 means no cap.
func WithMaxPages(n uint64) Option {
	return func(o *options) { o.cfg.Paginator.MaxPages = n }
}

// WithPrefetch fetches the next page while the current one is extracted.
func WithPrefetch() Option {
	return func(o *options) { o.cfg.Paginator.Prefetch = true }
}

// WithTimeout sets the per-page fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.cfg.Fetcher.RequestTimeout = d }
}

// WithUserAgent sets a custom User-Agent.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.cfg.Fetcher.UserAgents = []string{ua} }
}

// WithProxy routes page fetches through a proxy.
func WithProxy(proxyURL string) Option {
	return func(o *options) { o.cfg.Fetcher.ProxyURL = proxyURL }
}

// WithBrowser renders pages in headless Chromium instead of plain HTTP.
func WithBrowser(stealth bool) Option {
	return func(o *options) {
		o.cfg.Fetcher.Type = "browser"
		o.cfg.Fetcher.Stealth = stealth
	}
}

// WithRedisCache caches fetched pages in Redis.
func WithRedisCache(redisURL string, ttl time.Duration) Option {
	return func(o *options) {
		o.cfg.Cache.Enabled = true
		o.cfg.Cache.Backend = config.CacheRedis
		o.cfg.Cache.RedisURL = redisURL
		o.cfg.Cache.TTL = ttl
	}
}

// WithMongoCache caches fetched pages in a MongoDB collection with a TTL index.
func WithMongoCache(mongoURI string, ttl time.Duration) Option {
	return func(o *options) {
		o.cfg.Cache.Enabled = true
		o.cfg.Cache.Backend = config.CacheMongo
		o.cfg.Cache.MongoURI = mongoURI
		o.cfg.Cache.TTL = ttl
	}
}

// WithXPath switches to the XPath rendition of the listing layout.
func WithXPath() Option {
	return func(o *options) { o.cfg.Layout = config.XPathLayout() }
}

// WithFetcher replaces the built-in transport. The client closes it.
func WithFetcher(f Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithLogger sets the logger. The default logs warnings to stderr.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithVerbose enables debug logging on the default logger.
func WithVerbose() Option {
	return func(o *options) { o.cfg.Logging.Level = "debug" }
}

// WithConfig starts from a full configuration instead of the defaults.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// NewClient creates a search client.
func NewClient(opts ...Option) (*Client, error) {
	o := &options{cfg: config.DefaultConfig()}
	o.cfg.Logging.Level = "warn"
	for _, opt := range opts {
		opt(o)
	}

	if err := config.Validate(o.cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := o.logger
	if logger == nil {
		level := slog.LevelWarn
		if o.cfg.Logging.Level == "debug" {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}

	eng, err := engine.New(o.cfg, logger)
	if err != nil {
		return nil, err
	}

	f := o.fetcher
	if f == nil {
		f, err = fetcher.New(o.cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("create fetcher: %w", err)
		}
	}
	eng.SetFetcher(f)

	return &Client{cfg: o.cfg, engine: eng, fetcher: f, logger: logger}, nil
}

// Search returns every record of query across all result pages.
func (c *Client) Search(ctx context.Context, query string, sort SortMode) ([]News, error) {
	return c.engine.Search(ctx, query, sort)
}

// Page returns the records of a single result page, numbered from 1.
func (c *Client) Page(ctx context.Context, query string, sort SortMode, page uint64) ([]News, error) {
	return c.engine.Page(ctx, query, sort, page)
}

// Walk streams each non-empty result page to fn. Returning ErrStopWalk
// from fn ends the walk early without error.
func (c *Client) Walk(ctx context.Context, query string, sort SortMode, fn func(page uint64, news []News) error) error {
	return c.engine.Walk(ctx, query, sort, fn)
}

// ErrStopWalk stops a Walk cleanly.
var ErrStopWalk = engine.ErrStopWalk

// Stats returns the client's search statistics.
func (c *Client) Stats() map[string]any {
	return c.engine.Stats().Snapshot()
}

// Close releases the transport.
func (c *Client) Close() error {
	return c.fetcher.Close()
}
