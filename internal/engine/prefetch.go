package engine

import (
	"context"
	"time"

	"github.com/IshaanNene/NewsGoat/internal/types"
)

// prefetch is a speculative fetch of the page after the one being extracted.
// Its body is only handed out once the previous page proved non-empty, and
// it is only counted in stats and metrics when handed out.
type prefetch struct {
	page   uint64
	cancel context.CancelFunc
	done   chan prefetchResult
}

type prefetchResult struct {
	resp     *types.Response
	duration time.Duration
	err      error
}

func (e *Engine) startPrefetch(ctx context.Context, f Fetcher, query string, sort types.SortMode, page uint64) *prefetch {
	pctx, cancel := context.WithCancel(ctx)
	p := &prefetch{
		page:   page,
		cancel: cancel,
		done:   make(chan prefetchResult, 1),
	}
	go func() {
		resp, d, err := e.fetchPage(pctx, f, query, sort, page)
		p.done <- prefetchResult{resp: resp, duration: d, err: err}
	}()
	return p
}

func (p *prefetch) wait() (*types.Response, time.Duration, error) {
	defer p.cancel()
	r := <-p.done
	return r.resp, r.duration, r.err
}

// discard abandons the fetch. The goroutine finishes on its own into the
// buffered channel.
func (p *prefetch) discard() {
	p.cancel()
}
