package observability

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/NewsGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestMetricsRecorders(t *testing.T) {
	m := NewMetrics(testLogger)

	m.ObserveFetch(10*time.Millisecond, nil)
	m.ObserveFetch(20*time.Millisecond, nil)
	m.ObserveFetch(5*time.Millisecond, errors.New("boom"))
	m.AddRecords(19)
	m.AddRecords(0)
	m.ObserveExtractError(types.StructuralMismatch)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.pagesFetched))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchErrors))
	assert.Equal(t, 19.0, testutil.ToFloat64(m.recordsExtracted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.extractErrors.WithLabelValues("structural_mismatch")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.extractErrors.WithLabelValues("malformed_attribute")))
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveFetch(time.Second, nil)
		m.AddRecords(3)
		m.ObserveExtractError(types.MalformedAttribute)
	})
	assert.Nil(t, m.Registry())
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics(testLogger)
	m.ObserveFetch(time.Millisecond, nil)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "newsgoat_pages_fetched_total 1")
	assert.Contains(t, string(body), "newsgoat_fetch_duration_seconds_count 1")
}
