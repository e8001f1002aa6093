package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for NewsGoat.
type Config struct {
	Site      SiteConfig      `mapstructure:"site"      yaml:"site"`
	Layout    LayoutConfig    `mapstructure:"layout"    yaml:"layout"`
	Fetcher   FetcherConfig   `mapstructure:"fetcher"   yaml:"fetcher"`
	Paginator PaginatorConfig `mapstructure:"paginator" yaml:"paginator"`
	Cache     CacheConfig     `mapstructure:"cache"     yaml:"cache"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   yaml:"metrics"`
}

// SiteConfig locates the search endpoint.
type SiteConfig struct {
	BaseURL     string `mapstructure:"base_url"     yaml:"base_url"`
	SearchPath  string `mapstructure:"search_path"  yaml:"search_path"`
	DefaultSort string `mapstructure:"default_sort" yaml:"default_sort"`
}

// Selector engines understood by LayoutConfig.Engine.
const (
	EngineCSS   = "css"
	EngineXPath = "xpath"
)

// LayoutConfig is the structural contract with the site's result markup.
// Listing is evaluated against the whole page, the other paths against the
// inner markup of one result fragment.
type LayoutConfig struct {
	Engine    string `mapstructure:"engine"     yaml:"engine"`
	Listing   string `mapstructure:"listing"    yaml:"listing"`
	Title     string `mapstructure:"title"      yaml:"title"`
	Time      string `mapstructure:"time"       yaml:"time"`
	Body      string `mapstructure:"body"       yaml:"body"`
	Image     string `mapstructure:"image"      yaml:"image"`
	ImageAttr string `mapstructure:"image_attr" yaml:"image_attr"`
}

// FetcherConfig controls the page fetcher.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"              yaml:"type"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"   yaml:"request_timeout"`
	UserAgents      []string      `mapstructure:"user_agents"       yaml:"user_agents"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	ProxyURL        string        `mapstructure:"proxy_url"         yaml:"proxy_url"`
	Stealth         bool          `mapstructure:"stealth"           yaml:"stealth"`
}

// PaginatorConfig controls the page walk.
type PaginatorConfig struct {
	// MaxPages caps the walk; 0 walks until the first empty page.
	MaxPages uint64 `mapstructure:"max_pages" yaml:"max_pages"`
	Prefetch bool   `mapstructure:"prefetch"  yaml:"prefetch"`
}

// Page cache backends understood by CacheConfig.Backend.
const (
	CacheRedis = "redis"
	CacheMongo = "mongo"
)

// CacheConfig controls the page cache. Only fetched page bodies are cached,
// never extracted records.
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"          yaml:"enabled"`
	Backend         string        `mapstructure:"backend"          yaml:"backend"`
	RedisURL        string        `mapstructure:"redis_url"        yaml:"redis_url"`
	MongoURI        string        `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string        `mapstructure:"mongo_database"   yaml:"mongo_database"`
	MongoCollection string        `mapstructure:"mongo_collection" yaml:"mongo_collection"`
	TTL             time.Duration `mapstructure:"ttl"              yaml:"ttl"`
	KeyPrefix       string        `mapstructure:"key_prefix"       yaml:"key_prefix"`
}

// APIConfig controls the HTTP API served by "newsgoat serve".
type APIConfig struct {
	Addr         string        `mapstructure:"addr"          yaml:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"  yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultLayout returns the CSS layout of the gazeta.uz search listing.
func DefaultLayout() LayoutConfig {
	return LayoutConfig{
		Engine:    EngineCSS,
		Listing:   "body>div>div.lenta>div.leftContainer>div>div.nblock",
		Title:     "div>h3>a",
		Time:      "div>div.ndt",
		Body:      "div>p",
		Image:     "a>img",
		ImageAttr: "data-src",
	}
}

// XPathLayout returns DefaultLayout expressed as XPath.
func XPathLayout() LayoutConfig {
	return LayoutConfig{
		Engine:    EngineXPath,
		Listing:   "/html/body/div/div[contains(concat(' ', normalize-space(@class), ' '), ' lenta ')]/div[contains(concat(' ', normalize-space(@class), ' '), ' leftContainer ')]/div/div[contains(concat(' ', normalize-space(@class), ' '), ' nblock ')]",
		Title:     "//div/h3/a",
		Time:      "//div/div[contains(concat(' ', normalize-space(@class), ' '), ' ndt ')]",
		Body:      "//div/p",
		Image:     "//a/img",
		ImageAttr: "data-src",
	}
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:     "https://www.gazeta.uz",
			SearchPath:  "/ru/search",
			DefaultSort: "date",
		},
		Layout: DefaultLayout(),
		Fetcher: FetcherConfig{
			Type:           "http",
			RequestTimeout: 30 * time.Second,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    16,
		},
		Paginator: PaginatorConfig{
			MaxPages: 0,
			Prefetch: false,
		},
		Cache: CacheConfig{
			Enabled:         false,
			Backend:         CacheRedis,
			RedisURL:        "redis://localhost:6379/0",
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   "newsgoat",
			MongoCollection: "page_cache",
			TTL:             10 * time.Minute,
			KeyPrefix:       "newsgoat:page:",
		},
		API: APIConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}
