package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/IshaanNene/NewsGoat/internal/config"
)

var (
	cfgFile string
	verbose bool

	sortFlag    string
	outputType  string
	fetcherType string
	userAgent   string
	timeout     time.Duration
	maxPages    uint64
	pageNumber  uint64
	prefetch    bool
	plainText   bool
	dedupe      bool
	isoTime     bool
	useXPath    bool
	listenAddr  string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd assembles the command tree. Building it also resets every
// flag variable to its default.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "newsgoat",
		Short: "NewsGoat: gazeta.uz search scraper",
		Long: `NewsGoat collects the results of a gazeta.uz search as structured records.

Every result page is requested in turn until the site returns a page
without results. Each result carries its title, publication time, body
teaser and lazy-loaded image reference, with markup kept as published.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(pageCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	return rootCmd
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "NewsGoat %s\n", config.Version)
		},
	}
}

// configCmd prints the effective configuration as YAML.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
}

// loadConfig loads, overrides and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setupLogger creates a structured logger on stderr.
func setupLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if sortFlag != "" {
		cfg.Site.DefaultSort = strings.ToLower(sortFlag)
	}
	if fetcherType != "" {
		cfg.Fetcher.Type = fetcherType
	}
	if userAgent != "" {
		cfg.Fetcher.UserAgents = []string{userAgent}
	}
	if timeout > 0 {
		cfg.Fetcher.RequestTimeout = timeout
	}
	if maxPages > 0 {
		cfg.Paginator.MaxPages = maxPages
	}
	if prefetch {
		cfg.Paginator.Prefetch = true
	}
	if useXPath {
		cfg.Layout = config.XPathLayout()
	}
	if listenAddr != "" {
		cfg.API.Addr = listenAddr
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
}
