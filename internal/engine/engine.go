package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/observability"
	"github.com/IshaanNene/NewsGoat/internal/parser"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// State represents the position of a search run in its page loop.
type State int32

const (
	StateIdle       State = 0
	StateFetching   State = 1
	StateExtracting State = 2
	StateDeciding   State = 3
	StateDone       State = 4
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateExtracting:
		return "extracting"
	case StateDeciding:
		return "deciding"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Stats tracks search statistics across runs.
type Stats struct {
	Runs                atomic.Int64
	PagesFetched        atomic.Int64
	RecordsExtracted    atomic.Int64
	PrefetchesDiscarded atomic.Int64
	BytesDownloaded     atomic.Int64
	StartTime           time.Time
}

// Snapshot returns a copy of stats safe for reading.
func (s *Stats) Snapshot() map[string]any {
	return map[string]any{
		"runs":                 s.Runs.Load(),
		"pages_fetched":        s.PagesFetched.Load(),
		"records_extracted":    s.RecordsExtracted.Load(),
		"prefetches_discarded": s.PrefetchesDiscarded.Load(),
		"bytes_downloaded":     s.BytesDownloaded.Load(),
		"elapsed":              time.Since(s.StartTime).String(),
	}
}

// Fetcher is the transport the engine pulls listing pages through.
type Fetcher interface {
	Fetch(ctx context.Context, req *types.Request) (*types.Response, error)
	Close() error
}

// PageFunc receives the records of one non-empty page, in page order.
type PageFunc func(page uint64, news []types.News) error

// ErrStopWalk may be returned by a PageFunc to end a walk without error.
var ErrStopWalk = errors.New("stop walk")

// Engine drives paginated searches: it requests listing pages one after
// another and stops at the first page without results.
type Engine struct {
	site      config.SiteConfig
	paginator config.PaginatorConfig
	extractor *parser.Extractor
	logger    *slog.Logger

	fetcher Fetcher
	metrics *observability.Metrics

	state atomic.Int32 // last transition of any run
	stats *Stats
	mu    sync.RWMutex
}

// New creates a new Engine with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	extractor, err := parser.NewExtractor(cfg.Layout, logger)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	return &Engine{
		site:      cfg.Site,
		paginator: cfg.Paginator,
		extractor: extractor,
		logger:    logger.With("component", "engine"),
		stats:     &Stats{StartTime: time.Now()},
	}, nil
}

// SetFetcher sets the page transport.
func (e *Engine) SetFetcher(f Fetcher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fetcher = f
}

// SetMetrics attaches a metrics recorder. A nil recorder disables metrics.
func (e *Engine) SetMetrics(m *observability.Metrics) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = m
}

// State returns the state most recently entered by a page loop. Concurrent
// runs share this value, so with more than one search in flight it reports
// whichever run moved last; Stats is the per-engine view that stays exact.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Stats returns the engine statistics.
func (e *Engine) Stats() *Stats {
	return e.stats
}

// Search collects every record of a query, page after page, until a page
// comes back empty. Records keep page order, then fragment order.
//
// On cancellation the records gathered so far are returned together with
// the context error. Any other failure discards them.
func (e *Engine) Search(ctx context.Context, query string, sort types.SortMode) ([]types.News, error) {
	all := []types.News{}
	err := e.Walk(ctx, query, sort, func(_ uint64, news []types.News) error {
		all = append(all, news...)
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return all, err
		}
		return nil, err
	}
	return all, nil
}

// Walk runs the page loop of Search and hands each non-empty page to fn.
func (e *Engine) Walk(ctx context.Context, query string, sort types.SortMode, fn PageFunc) error {
	if fn == nil {
		return fmt.Errorf("walk: nil page func")
	}
	fetcher, metrics := e.collaborators()
	if fetcher == nil {
		return types.ErrNoFetcher
	}

	logger := e.logger.With("run_id", uuid.NewString(), "query", query, "sort", sort.String())
	e.stats.Runs.Add(1)
	start := time.Now()
	logger.Info("search started", "max_pages", e.paginator.MaxPages, "prefetch", e.paginator.Prefetch)

	var (
		pending *prefetch
		records int
	)
	defer func() {
		if pending != nil {
			pending.discard()
			e.stats.PrefetchesDiscarded.Add(1)
			logger.Debug("discarded prefetched page", "page", pending.page)
		}
	}()

	page := uint64(1)
	for {
		if err := ctx.Err(); err != nil {
			logger.Warn("search cancelled", "page", page, "records", records, "error", err)
			return err
		}
		if limit := e.paginator.MaxPages; limit > 0 && page > limit {
			logger.Info("page limit reached", "max_pages", limit, "records", records)
			e.setState(logger, StateDone)
			return nil
		}

		e.setState(logger, StateFetching)
		var (
			resp     *types.Response
			duration time.Duration
			err      error
		)
		if pending != nil && pending.page == page {
			resp, duration, err = pending.wait()
			pending = nil
		} else {
			resp, duration, err = e.fetchPage(ctx, fetcher, query, sort, page)
		}
		// A fetch cut short by cancellation is not counted as a failure.
		if err == nil || ctx.Err() == nil {
			e.observeFetch(metrics, resp, duration, err)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				logger.Warn("search cancelled", "page", page, "records", records, "error", ctxErr)
				return ctxErr
			}
			logger.Error("page fetch failed", "page", page, "error", err)
			return err
		}

		if e.shouldPrefetch(page) {
			pending = e.startPrefetch(ctx, fetcher, query, sort, page+1)
		}

		e.setState(logger, StateExtracting)
		news, err := e.extractPage(resp, page, metrics)
		if err != nil {
			logger.Error("page extraction failed", "page", page, "error", err)
			return err
		}

		e.setState(logger, StateDeciding)
		if len(news) == 0 {
			if page == 1 {
				logger.Warn("first page has no results, the query matched nothing or the listing layout changed")
			}
			e.setState(logger, StateDone)
			logger.Info("search complete", "pages", page-1, "records", records, "duration", time.Since(start))
			return nil
		}

		records += len(news)
		logger.Debug("page extracted", "page", page, "records", len(news))
		if err := fn(page, news); err != nil {
			if errors.Is(err, ErrStopWalk) {
				e.setState(logger, StateDone)
				logger.Info("search stopped by consumer", "page", page, "records", records)
				return nil
			}
			return err
		}

		page, err = nextPage(page)
		if err != nil {
			return err
		}
	}
}

// Page fetches and extracts a single listing page. An empty result is not
// an error.
func (e *Engine) Page(ctx context.Context, query string, sort types.SortMode, page uint64) ([]types.News, error) {
	if page == 0 {
		return nil, fmt.Errorf("%w: page numbers start at 1", types.ErrInvalidQuery)
	}
	fetcher, metrics := e.collaborators()
	if fetcher == nil {
		return nil, types.ErrNoFetcher
	}

	resp, duration, err := e.fetchPage(ctx, fetcher, query, sort, page)
	e.observeFetch(metrics, resp, duration, err)
	if err != nil {
		return nil, err
	}
	return e.extractPage(resp, page, metrics)
}

func (e *Engine) collaborators() (Fetcher, *observability.Metrics) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.fetcher, e.metrics
}

func (e *Engine) setState(logger *slog.Logger, s State) {
	e.state.Store(int32(s))
	logger.Debug("state transition", "state", s.String())
}

func (e *Engine) shouldPrefetch(page uint64) bool {
	if !e.paginator.Prefetch || page == math.MaxUint64 {
		return false
	}
	return e.paginator.MaxPages == 0 || page < e.paginator.MaxPages
}

// fetchPage requests one listing page and normalizes transport failures
// into *types.FetchError. It records nothing; callers pass pages they
// actually use to observeFetch.
func (e *Engine) fetchPage(ctx context.Context, f Fetcher, query string, sort types.SortMode, page uint64) (*types.Response, time.Duration, error) {
	target := BuildSearchURL(e.site.BaseURL, e.site.SearchPath, query, sort, page)
	req, err := types.NewRequest(target)
	if err != nil {
		return nil, 0, err
	}
	req.Page = page

	start := time.Now()
	resp, err := f.Fetch(ctx, req)
	duration := time.Since(start)

	switch {
	case err != nil && !errors.Is(err, types.ErrTransport):
		err = &types.FetchError{URL: target, Err: err, Duration: duration}
	case err == nil && resp == nil:
		err = &types.FetchError{URL: target, Err: types.ErrEmptyResponse, Duration: duration}
	case err == nil && !resp.IsSuccess():
		err = &types.FetchError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status"),
			Duration:   duration,
		}
	}
	if err != nil {
		return nil, duration, err
	}
	return resp, duration, nil
}

// observeFetch counts one fetch result in stats and metrics.
func (e *Engine) observeFetch(m *observability.Metrics, resp *types.Response, d time.Duration, err error) {
	m.ObserveFetch(d, err)
	if err != nil {
		return
	}
	e.stats.PagesFetched.Add(1)
	e.stats.BytesDownloaded.Add(int64(len(resp.Body)))
}

// extractPage runs the listing extractor and tags failures with the page.
func (e *Engine) extractPage(resp *types.Response, page uint64, m *observability.Metrics) ([]types.News, error) {
	news, err := e.extractor.ExtractListing(resp.Text())
	if err != nil {
		var extractErr *types.ExtractError
		if errors.As(err, &extractErr) {
			extractErr.Page = page
			m.ObserveExtractError(extractErr.Kind)
		}
		return nil, err
	}
	m.AddRecords(len(news))
	e.stats.RecordsExtracted.Add(int64(len(news)))
	return news, nil
}

// nextPage advances the page cursor, refusing to wrap around.
func nextPage(page uint64) (uint64, error) {
	if page == math.MaxUint64 {
		return 0, fmt.Errorf("%w after page %d", types.ErrPageOverflow, page)
	}
	return page + 1, nil
}
