package config

import (
	"fmt"
	"net/url"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/xpath"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Site.BaseURL); err != nil {
		return fmt.Errorf("site.base_url: %w", err)
	}
	if cfg.Site.DefaultSort != "date" && cfg.Site.DefaultSort != "relevance" {
		return fmt.Errorf("site.default_sort must be 'date' or 'relevance', got %q", cfg.Site.DefaultSort)
	}

	if err := ValidateLayout(cfg.Layout); err != nil {
		return err
	}

	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}
	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}
	if cfg.Fetcher.ProxyURL != "" {
		if err := ValidateURL(cfg.Fetcher.ProxyURL); err != nil {
			return fmt.Errorf("fetcher.proxy_url: %w", err)
		}
	}

	if cfg.Cache.Enabled {
		if err := validateCache(cfg.Cache); err != nil {
			return err
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

func validateCache(c CacheConfig) error {
	switch c.Backend {
	case CacheRedis, "":
		if _, err := url.Parse(c.RedisURL); err != nil {
			return fmt.Errorf("cache.redis_url: %w", err)
		}
	case CacheMongo:
		u, err := url.Parse(c.MongoURI)
		if err != nil {
			return fmt.Errorf("cache.mongo_uri: %w", err)
		}
		if u.Scheme != "mongodb" && u.Scheme != "mongodb+srv" {
			return fmt.Errorf("cache.mongo_uri scheme must be mongodb or mongodb+srv, got %q", u.Scheme)
		}
		if c.MongoDatabase == "" || c.MongoCollection == "" {
			return fmt.Errorf("cache.mongo_database and cache.mongo_collection must be set")
		}
	default:
		return fmt.Errorf("cache.backend must be 'redis' or 'mongo', got %q", c.Backend)
	}
	if c.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be > 0")
	}
	return nil
}

// ValidateLayout compiles every selector of the layout with its engine.
func ValidateLayout(l LayoutConfig) error {
	var compile func(string) error
	switch l.Engine {
	case EngineCSS, "":
		compile = func(expr string) error {
			_, err := cascadia.Compile(expr)
			return err
		}
	case EngineXPath:
		compile = func(expr string) error {
			_, err := xpath.Compile(expr)
			return err
		}
	default:
		return fmt.Errorf("layout.engine must be 'css' or 'xpath', got %q", l.Engine)
	}

	fields := []struct {
		name string
		expr string
	}{
		{"layout.listing", l.Listing},
		{"layout.title", l.Title},
		{"layout.time", l.Time},
		{"layout.body", l.Body},
		{"layout.image", l.Image},
	}
	for _, f := range fields {
		if f.expr == "" {
			return fmt.Errorf("%s must not be empty", f.name)
		}
		if err := compile(f.expr); err != nil {
			return fmt.Errorf("%s: invalid selector %q: %w", f.name, f.expr, err)
		}
	}
	if l.ImageAttr == "" {
		return fmt.Errorf("layout.image_attr must not be empty")
	}
	return nil
}

// ValidateURL checks that rawURL is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
