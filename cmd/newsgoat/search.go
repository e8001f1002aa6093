package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/engine"
	"github.com/IshaanNene/NewsGoat/internal/export"
	"github.com/IshaanNene/NewsGoat/internal/fetcher"
	"github.com/IshaanNene/NewsGoat/internal/pipeline"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// addOutputFlags registers the flags shared by search and page.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&sortFlag, "sort", "s", "", "result order: date, relevance (default from config)")
	cmd.Flags().StringVarP(&outputType, "format", "f", "json", "output format: "+strings.Join(export.Formats, ", "))
	cmd.Flags().StringVar(&fetcherType, "fetcher", "", "page transport: http, browser")
	cmd.Flags().StringVar(&userAgent, "user-agent", "", "custom User-Agent string")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-page fetch timeout")
	cmd.Flags().BoolVar(&plainText, "plain", false, "strip markup and decode entities in text fields")
	cmd.Flags().BoolVar(&dedupe, "dedupe", false, "drop records identical to an earlier one")
	cmd.Flags().BoolVar(&isoTime, "iso-time", false, "rewrite publication times as RFC 3339")
	cmd.Flags().BoolVar(&useXPath, "xpath", false, "use the XPath rendition of the listing layout")
}

// searchCmd creates the "search" subcommand.
func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Collect every result of a search",
		Long: `Search requests result pages 1, 2, 3, ... and stops at the first page
without results. Records are written to stdout in page order once the
last page has been read; a failing page produces no output at all.`,
		Example: `  newsgoat search CAEx Mebel
  newsgoat search --sort relevance --format csv --plain Ташкент`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}

	addOutputFlags(cmd)
	cmd.Flags().Uint64VarP(&maxPages, "max-pages", "m", 0, "stop after this many pages (0 = until exhausted)")
	cmd.Flags().BoolVar(&prefetch, "prefetch", false, "fetch the next page while extracting the current one")

	return cmd
}

// pageCmd creates the "page" subcommand.
func pageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "page [query...]",
		Short: "Fetch a single result page",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runPage,
	}

	addOutputFlags(cmd)
	cmd.Flags().Uint64VarP(&pageNumber, "page", "p", 1, "page number, starting at 1")

	return cmd
}

// session bundles what search and page share.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	engine  *engine.Engine
	fetcher fetcher.Fetcher
	pipe    *pipeline.Pipeline
	encoder export.Encoder
	sort    types.SortMode
}

func newSession(out io.Writer) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := setupLogger(cfg)

	sort, err := types.ParseSortMode(cfg.Site.DefaultSort)
	if err != nil {
		return nil, err
	}

	enc, err := export.NewEncoder(strings.ToLower(outputType), out, logger)
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	f, err := fetcher.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}
	eng.SetFetcher(f)

	pipe := pipeline.New(logger)
	if dedupe {
		pipe.Use(pipeline.NewDedupMiddleware())
	}
	if isoTime {
		pipe.Use(pipeline.NewTimeNormalizeMiddleware(pipeline.Tashkent))
	}
	if plainText {
		pipe.Use(pipeline.NewPlainTextMiddleware())
		pipe.Use(pipeline.NewRequiredFieldsMiddleware())
	}

	return &session{
		cfg:     cfg,
		logger:  logger,
		engine:  eng,
		fetcher: f,
		pipe:    pipe,
		encoder: enc,
		sort:    sort,
	}, nil
}

func (s *session) write(news []types.News) error {
	processed, err := s.pipe.ProcessAll(news)
	if err != nil {
		return err
	}
	return s.encoder.Encode(processed)
}

func (s *session) close() {
	if err := s.fetcher.Close(); err != nil {
		s.logger.Warn("failed to close fetcher", "error", err)
	}
}

// runSearch executes the search command.
func runSearch(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer s.close()

	query := strings.Join(args, " ")
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Pages are held back until the walk ends: a failing page discards the
	// whole listing, an interrupt keeps what was gathered.
	start := time.Now()
	var collected []types.News
	walkErr := s.engine.Walk(ctx, query, s.sort, func(_ uint64, news []types.News) error {
		collected = append(collected, news...)
		return nil
	})

	interrupted := walkErr != nil && errors.Is(walkErr, context.Canceled) && ctx.Err() != nil
	if walkErr != nil && !interrupted {
		return walkErr
	}
	if err := s.write(collected); err != nil {
		return err
	}
	if err := s.encoder.Close(); err != nil {
		return err
	}

	stats := s.engine.Stats().Snapshot()
	if interrupted {
		s.logger.Warn("search interrupted, output is partial",
			"pages", stats["pages_fetched"],
			"records", stats["records_extracted"],
		)
		return walkErr
	}

	s.logger.Info("search complete",
		"query", query,
		"elapsed", time.Since(start).Round(time.Millisecond),
		"pages", stats["pages_fetched"],
		"records", stats["records_extracted"],
	)
	return nil
}

// runPage executes the page command.
func runPage(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer s.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	news, err := s.engine.Page(ctx, strings.Join(args, " "), s.sort, pageNumber)
	if err != nil {
		return err
	}
	if err := s.write(news); err != nil {
		return err
	}
	return s.encoder.Close()
}
