package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, "https://www.gazeta.uz", cfg.Site.BaseURL)
	assert.Equal(t, "/ru/search", cfg.Site.SearchPath)
	assert.Equal(t, "body>div>div.lenta>div.leftContainer>div>div.nblock", cfg.Layout.Listing)
	assert.Equal(t, "data-src", cfg.Layout.ImageAttr)
	assert.Zero(t, cfg.Paginator.MaxPages)
	assert.False(t, cfg.Cache.Enabled)
}

func TestXPathLayoutIsValid(t *testing.T) {
	require.NoError(t, ValidateLayout(XPathLayout()))
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name  string
		tweak func(*Config)
	}{
		{"relative base url", func(c *Config) { c.Site.BaseURL = "/ru/search" }},
		{"unknown sort", func(c *Config) { c.Site.DefaultSort = "newest" }},
		{"broken css", func(c *Config) { c.Layout.Body = "div>" }},
		{"broken xpath", func(c *Config) { c.Layout = XPathLayout(); c.Layout.Title = "//div[" }},
		{"empty image attr", func(c *Config) { c.Layout.ImageAttr = "" }},
		{"unknown engine", func(c *Config) { c.Layout.Engine = "regex" }},
		{"unknown fetcher", func(c *Config) { c.Fetcher.Type = "ftp" }},
		{"zero timeout", func(c *Config) { c.Fetcher.RequestTimeout = 0 }},
		{"bad proxy", func(c *Config) { c.Fetcher.ProxyURL = "socks" }},
		{"cache without ttl", func(c *Config) { c.Cache.Enabled = true; c.Cache.TTL = 0 }},
		{"unknown cache backend", func(c *Config) { c.Cache.Enabled = true; c.Cache.Backend = "memcached" }},
		{"bad mongo scheme", func(c *Config) {
			c.Cache.Enabled = true
			c.Cache.Backend = CacheMongo
			c.Cache.MongoURI = "http://db:27017"
		}},
		{"mongo without collection", func(c *Config) {
			c.Cache.Enabled = true
			c.Cache.Backend = CacheMongo
			c.Cache.MongoCollection = ""
		}},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.tweak(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "newsgoat.yaml")
	content := `
site:
  default_sort: relevance
paginator:
  max_pages: 3
  prefetch: true
fetcher:
  request_timeout: 5s
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("NEWSGOAT_PAGINATOR_MAX_PAGES", "7")
	t.Setenv("NEWSGOAT_SITE_BASE_URL", "https://mirror.test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "relevance", cfg.Site.DefaultSort)
	assert.Equal(t, "https://mirror.test", cfg.Site.BaseURL)
	assert.Equal(t, uint64(7), cfg.Paginator.MaxPages)
	assert.True(t, cfg.Paginator.Prefetch)
	assert.Equal(t, 5*time.Second, cfg.Fetcher.RequestTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, DefaultLayout(), cfg.Layout)
	require.NoError(t, Validate(cfg))
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
