package monitor

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/IshaanNene/NewsGoat/internal/types"
)

// ChangeType identifies what kind of change occurred.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
)

// Change represents a record that appeared or changed between two polls.
type Change struct {
	Key       string     `json:"key"`
	Type      ChangeType `json:"type"`
	Field     string     `json:"field,omitempty"`
	OldValue  string     `json:"old_value,omitempty"`
	NewValue  string     `json:"new_value,omitempty"`
	News      types.News `json:"news"`
	Timestamp time.Time  `json:"timestamp"`
}

// Fingerprint identifies a result across polls by its title and image,
// so an edited body or time shows up as a modification.
func Fingerprint(n types.News) string {
	hash := sha256.Sum256([]byte(n.Title() + "\x00" + n.ImageReference()))
	return hex.EncodeToString(hash[:])
}

// ChangeDetector compares poll results against the records it has seen.
// Snapshots live in memory for the lifetime of the detector.
type ChangeDetector struct {
	snapshots map[string]types.News
	logger    *slog.Logger
	mu        sync.Mutex
}

// NewChangeDetector creates a new change detector.
func NewChangeDetector(logger *slog.Logger) *ChangeDetector {
	return &ChangeDetector{
		snapshots: make(map[string]types.News),
		logger:    logger.With("component", "change_detector"),
	}
}

// Detect records news and returns what differs from the previous snapshots.
func (cd *ChangeDetector) Detect(news []types.News) []Change {
	cd.mu.Lock()
	defer cd.mu.Unlock()

	now := time.Now()
	var changes []Change
	for _, n := range news {
		key := Fingerprint(n)
		old, ok := cd.snapshots[key]
		cd.snapshots[key] = n
		if !ok {
			changes = append(changes, Change{Key: key, Type: ChangeAdded, News: n, Timestamp: now})
			continue
		}

		fields := []struct {
			name          string
			before, after string
		}{
			{"body", old.Body(), n.Body()},
			{"time_published", old.TimePublished(), n.TimePublished()},
		}
		for _, f := range fields {
			if f.before != f.after {
				changes = append(changes, Change{
					Key:       key,
					Type:      ChangeModified,
					Field:     f.name,
					OldValue:  truncateStr(f.before, 200),
					NewValue:  truncateStr(f.after, 200),
					News:      n,
					Timestamp: now,
				})
			}
		}
	}

	cd.logger.Debug("snapshots compared", "records", len(news), "changes", len(changes), "known", len(cd.snapshots))
	return changes
}

// Len returns the number of records the detector has seen.
func (cd *ChangeDetector) Len() int {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	return len(cd.snapshots)
}

// --- Scheduled Polling ---

// PageSource fetches one result page of a query.
type PageSource interface {
	Page(ctx context.Context, query string, sort types.SortMode, page uint64) ([]types.News, error)
}

// Watch describes a recurring poll of the first pages of a query.
type Watch struct {
	Query    string
	Sort     types.SortMode
	Pages    uint64
	Interval time.Duration
	// Baseline suppresses the changes of the first poll.
	Baseline bool
}

// Watcher polls a query and reports new or changed records.
type Watcher struct {
	source   PageSource
	watch    Watch
	detector *ChangeDetector
	logger   *slog.Logger
}

// NewWatcher creates a new Watcher.
func NewWatcher(source PageSource, watch Watch, logger *slog.Logger) *Watcher {
	if watch.Pages == 0 {
		watch.Pages = 1
	}
	return &Watcher{
		source:   source,
		watch:    watch,
		detector: NewChangeDetector(logger),
		logger:   logger.With("component", "watcher", "query", watch.Query),
	}
}

// Poll reads up to Pages pages, stopping early at an empty one, and
// returns the changes against earlier polls.
func (w *Watcher) Poll(ctx context.Context) ([]Change, error) {
	var all []types.News
	for page := uint64(1); page <= w.watch.Pages; page++ {
		news, err := w.source.Page(ctx, w.watch.Query, w.watch.Sort, page)
		if err != nil {
			return nil, fmt.Errorf("poll page %d: %w", page, err)
		}
		if len(news) == 0 {
			break
		}
		all = append(all, news...)
	}
	return w.detector.Detect(all), nil
}

// Run polls immediately and then on every interval until ctx ends. A
// failed poll is logged and retried on the next tick.
func (w *Watcher) Run(ctx context.Context, onChange func([]Change) error) error {
	ticker := time.NewTicker(w.watch.Interval)
	defer ticker.Stop()

	first := true
	for {
		changes, err := w.Poll(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			w.logger.Error("poll failed", "error", err)
		case first && w.watch.Baseline:
			w.logger.Info("baseline recorded", "records", w.detector.Len())
		case len(changes) > 0:
			w.logger.Info("changes detected", "count", len(changes))
			if err := onChange(changes); err != nil {
				return err
			}
		}
		if err == nil {
			first = false
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// --- Notification System ---

// NotificationChannel is an interface for notification delivery.
type NotificationChannel interface {
	Send(ctx context.Context, changes []Change) error
	Type() string
}

// Notifier fans changes out to its channels.
type Notifier struct {
	channels []NotificationChannel
	logger   *slog.Logger
}

// NewNotifier creates a new change notifier.
func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{
		logger: logger.With("component", "notifier"),
	}
}

// AddChannel registers a notification channel.
func (n *Notifier) AddChannel(ch NotificationChannel) {
	n.channels = append(n.channels, ch)
}

// Notify sends changes to all registered channels. Channel failures are
// logged, not returned.
func (n *Notifier) Notify(ctx context.Context, changes []Change) {
	if len(changes) == 0 {
		return
	}
	for _, ch := range n.channels {
		if err := ch.Send(ctx, changes); err != nil {
			n.logger.Error("notification failed", "channel", ch.Type(), "error", err)
		}
	}
}

// WebhookChannel posts changes as JSON to a URL.
type WebhookChannel struct {
	URL    string
	Client *http.Client
}

func (w *WebhookChannel) Type() string { return "webhook" }

func (w *WebhookChannel) Send(ctx context.Context, changes []Change) error {
	data, err := json.Marshal(map[string]any{
		"changes":   changes,
		"count":     len(changes),
		"timestamp": time.Now(),
	})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return &types.FetchError{URL: w.URL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &types.FetchError{URL: w.URL, StatusCode: resp.StatusCode, Err: fmt.Errorf("webhook rejected")}
	}
	return nil
}

func truncateStr(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
