package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/NewsGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type fakeSource struct {
	mu    sync.Mutex
	pages map[uint64][]types.News
	err   error
	calls []uint64
}

func (f *fakeSource) Page(_ context.Context, _ string, _ types.SortMode, page uint64) ([]types.News, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, page)
	if f.err != nil {
		return nil, f.err
	}
	return f.pages[page], nil
}

func (f *fakeSource) set(page uint64, news ...types.News) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[page] = news
}

func TestChangeDetector(t *testing.T) {
	cd := NewChangeDetector(testLogger)
	a := types.NewNews("A", "body", "10:00", "a.jpg")
	b := types.NewNews("B", "body", "11:00", "b.jpg")

	changes := cd.Detect([]types.News{a, b})
	require.Len(t, changes, 2)
	assert.Equal(t, ChangeAdded, changes[0].Type)
	assert.Equal(t, Fingerprint(a), changes[0].Key)

	assert.Empty(t, cd.Detect([]types.News{a, b}))

	edited := types.NewNews("A", "corrected body", "10:00", "a.jpg")
	changes = cd.Detect([]types.News{edited})
	require.Len(t, changes, 1)
	assert.Equal(t, ChangeModified, changes[0].Type)
	assert.Equal(t, "body", changes[0].Field)
	assert.Equal(t, "body", changes[0].OldValue)
	assert.Equal(t, "corrected body", changes[0].NewValue)
	assert.Equal(t, 2, cd.Len())
}

func TestWatcherPollStopsAtEmptyPage(t *testing.T) {
	src := &fakeSource{pages: map[uint64][]types.News{}}
	src.set(1, types.NewNews("A", "b", "t", "a.jpg"))
	w := NewWatcher(src, Watch{Query: "q", Pages: 5, Interval: time.Hour}, testLogger)

	changes, err := w.Poll(context.Background())
	require.NoError(t, err)
	assert.Len(t, changes, 1)
	assert.Equal(t, []uint64{1, 2}, src.calls)
}

func TestWatcherPollError(t *testing.T) {
	src := &fakeSource{pages: map[uint64][]types.News{}, err: types.ErrTransport}
	w := NewWatcher(src, Watch{Query: "q", Interval: time.Hour}, testLogger)

	_, err := w.Poll(context.Background())
	assert.ErrorIs(t, err, types.ErrTransport)
}

func TestWatcherRunAfterBaseline(t *testing.T) {
	src := &fakeSource{pages: map[uint64][]types.News{}}
	src.set(1, types.NewNews("old", "b", "t", "old.jpg"))

	w := NewWatcher(src, Watch{Query: "q", Interval: 10 * time.Millisecond, Baseline: true}, testLogger)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stop := errors.New("stop")
	var got []Change
	go func() {
		time.Sleep(30 * time.Millisecond)
		src.set(1, types.NewNews("fresh", "b", "t", "fresh.jpg"), types.NewNews("old", "b", "t", "old.jpg"))
	}()

	err := w.Run(ctx, func(changes []Change) error {
		got = changes
		return stop
	})
	require.ErrorIs(t, err, stop)
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].News.Title())
	assert.Equal(t, ChangeAdded, got[0].Type)
}

func TestWebhookChannel(t *testing.T) {
	var payload struct {
		Count   int      `json:"count"`
		Changes []Change `json:"changes"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewNotifier(testLogger)
	n.AddChannel(&WebhookChannel{URL: srv.URL})
	n.Notify(context.Background(), []Change{{Key: "k", Type: ChangeAdded, News: types.NewNews("A", "b", "t", "i")}})

	assert.Equal(t, 1, payload.Count)
	require.Len(t, payload.Changes, 1)
	assert.Equal(t, "A", payload.Changes[0].News.Title())
}

func TestWebhookChannelRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := (&WebhookChannel{URL: srv.URL}).Send(context.Background(), []Change{{Key: "k"}})
	assert.ErrorIs(t, err, types.ErrTransport)
}
