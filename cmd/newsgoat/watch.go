package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/NewsGoat/internal/engine"
	"github.com/IshaanNene/NewsGoat/internal/fetcher"
	"github.com/IshaanNene/NewsGoat/internal/monitor"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

var (
	watchInterval time.Duration
	watchPages    uint64
	webhookURL    string
	reportInitial bool
)

// watchCmd creates the "watch" subcommand.
func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [query...]",
		Short: "Poll a search and report new or edited results",
		Long: `Watch re-reads the first pages of a search on an interval and prints one
JSON line per added or modified result. The first poll only records a
baseline unless --initial is given.`,
		Example: `  newsgoat watch --interval 10m --pages 2 Ташкент
  newsgoat watch --webhook https://hooks.example.com/news CAEx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runWatch,
	}

	cmd.Flags().StringVarP(&sortFlag, "sort", "s", "date", "result order: date, relevance")
	cmd.Flags().StringVar(&fetcherType, "fetcher", "", "page transport: http, browser")
	cmd.Flags().DurationVar(&watchInterval, "interval", 5*time.Minute, "time between polls")
	cmd.Flags().Uint64Var(&watchPages, "pages", 1, "result pages read per poll")
	cmd.Flags().StringVar(&webhookURL, "webhook", "", "POST each batch of changes to this URL")
	cmd.Flags().BoolVar(&reportInitial, "initial", false, "report the results of the first poll as added")

	return cmd
}

// runWatch executes the watch command.
func runWatch(cmd *cobra.Command, args []string) error {
	if watchInterval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)

	sort, err := types.ParseSortMode(cfg.Site.DefaultSort)
	if err != nil {
		return err
	}

	eng, err := engine.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	f, err := fetcher.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer f.Close()
	eng.SetFetcher(f)

	notifier := monitor.NewNotifier(logger)
	if webhookURL != "" {
		notifier.AddChannel(&monitor.WebhookChannel{URL: webhookURL})
	}

	w := monitor.NewWatcher(eng, monitor.Watch{
		Query:    strings.Join(args, " "),
		Sort:     sort,
		Pages:    watchPages,
		Interval: watchInterval,
		Baseline: !reportInitial,
	}, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := json.NewEncoder(os.Stdout)
	out.SetEscapeHTML(false)

	err = w.Run(ctx, func(changes []monitor.Change) error {
		for _, c := range changes {
			if err := out.Encode(c); err != nil {
				return err
			}
		}
		notifier.Notify(ctx, changes)
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
