package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/engine"
	"github.com/IshaanNene/NewsGoat/internal/observability"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// Searcher is what the API needs from the search engine.
type Searcher interface {
	Search(ctx context.Context, query string, sort types.SortMode) ([]types.News, error)
	Page(ctx context.Context, query string, sort types.SortMode, page uint64) ([]types.News, error)
}

// Server exposes searches over HTTP.
type Server struct {
	router      chi.Router
	cfg         config.APIConfig
	defaultSort types.SortMode
	searcher    Searcher
	logger      *slog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

type searchResponse struct {
	Query string         `json:"query"`
	Sort  types.SortMode `json:"sort"`
	Page  uint64         `json:"page,omitempty"`
	Count int            `json:"count"`
	News  []types.News   `json:"news"`
}

// NewServer creates a new API server. metrics may be nil.
func NewServer(cfg *config.Config, searcher Searcher, metrics *observability.Metrics, logger *slog.Logger) (*Server, error) {
	defaultSort, err := types.ParseSortMode(cfg.Site.DefaultSort)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:      chi.NewRouter(),
		cfg:         cfg.API,
		defaultSort: defaultSort,
		searcher:    searcher,
		logger:      logger.With("component", "api_server"),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/search", s.handleSearch)
	s.router.Get("/api/stats", s.handleStats)
	if cfg.Metrics.Enabled && metrics != nil {
		s.router.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	return s, nil
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server starting", "addr", s.cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": config.Version,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	provider, ok := s.searcher.(interface{ Stats() *engine.Stats })
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "stats not available"})
		return
	}
	writeJSON(w, http.StatusOK, provider.Stats().Snapshot())
}

// handleSearch serves GET /api/search?q=&sort=&page=. Without page the
// whole result sequence is collected.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	query := strings.TrimSpace(params.Get("q"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing query parameter q"})
		return
	}

	sort := s.defaultSort
	if raw := params.Get("sort"); raw != "" {
		parsed, err := types.ParseSortMode(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		sort = parsed
	}

	var (
		page uint64
		news []types.News
		err  error
	)
	if raw := params.Get("page"); raw != "" {
		page, err = strconv.ParseUint(raw, 10, 64)
		if err != nil || page == 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "page must be a positive integer"})
			return
		}
		news, err = s.searcher.Page(r.Context(), query, sort, page)
	} else {
		news, err = s.searcher.Search(r.Context(), query, sort)
	}
	if err != nil {
		status := statusFor(err)
		s.logger.Warn("search failed",
			"request_id", middleware.GetReqID(r.Context()),
			"query", query,
			"status", status,
			"error", err,
		)
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query: query,
		Sort:  sort,
		Page:  page,
		Count: len(news),
		News:  news,
	})
}

// statusFor maps search errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrStructuralMismatch),
		errors.Is(err, types.ErrMalformedAttribute),
		errors.Is(err, types.ErrTransport):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
