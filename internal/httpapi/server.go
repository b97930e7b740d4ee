// Package httpapi exposes the trade journal and grid analysis over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"trade-grid-lab/internal/domain"
	"trade-grid-lab/internal/observability"
)

// Journal is the subset of journal.Service the API serves.
type Journal interface {
	AddMarket(ctx context.Context, name string) (*domain.Market, error)
	ListMarkets(ctx context.Context) ([]*domain.Market, error)
	RecordTrade(ctx context.Context, in domain.TradeInput) (*domain.TradeRecord, error)
	ListTrades(ctx context.Context, market string) ([]*domain.TradeRecord, error)
	Analyze(ctx context.Context, market string) (*domain.AnalysisRun, error)
	GetRun(ctx context.Context, runID string) (*domain.AnalysisRun, error)
	LatestRun(ctx context.Context, market string) (*domain.AnalysisRun, error)
}

// Config holds HTTP server settings.
type Config struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

// DefaultConfig returns default server settings.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		RequestTimeout: 5 * time.Second,
	}
}

// Server routes requests to the journal.
type Server struct {
	router  *mux.Router
	server  *http.Server
	journal Journal
	config  Config
	log     zerolog.Logger
	now     func() time.Time
}

// NewServer creates a server with all routes registered.
func NewServer(j Journal, cfg Config, logger zerolog.Logger) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		journal: j,
		config:  cfg,
		log:     logger.With().Str("component", "httpapi").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(s.timeoutMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)

	s.router.HandleFunc("/trades", s.handleListTrades).Methods(http.MethodGet)
	s.router.HandleFunc("/trades", s.handleRecordTrade).Methods(http.MethodPost)

	s.router.HandleFunc("/markets", s.handleListMarkets).Methods(http.MethodGet)
	s.router.HandleFunc("/markets", s.handleAddMarket).Methods(http.MethodPost)

	s.router.HandleFunc("/analysis", s.handleAnalyze).Methods(http.MethodPost)
	s.router.HandleFunc("/analysis/latest", s.handleLatestRun).Methods(http.MethodGet)
	s.router.HandleFunc("/analysis/{runID}", s.handleGetRun).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not_found", "no route for "+r.URL.Path)
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" not allowed")
	})
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.config.Addr).Msg("starting HTTP server")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.log.Info().Msg("shutting down HTTP server")
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
