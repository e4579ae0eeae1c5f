// Package server exposes the engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"procintel/internal/config"
	"procintel/internal/core"
	"procintel/internal/logging"
	"procintel/internal/store"
	"procintel/internal/types"
)

// SnapshotSource supplies the records a query runs against.
type SnapshotSource interface {
	LoadSnapshot(ctx context.Context) (types.Snapshot, error)
}

// QueryLog records answered questions. *store.LocalStore implements it.
type QueryLog interface {
	LogQuery(ctx context.Context, query, intent, rule string) error
	RecentQueries(ctx context.Context, n int) ([]store.QueryLogEntry, error)
}

// RecordStore edits single stored records. *store.LocalStore implements it.
type RecordStore interface {
	UpsertProcess(ctx context.Context, p types.ProcessRecord) error
	GetProcess(ctx context.Context, key string) (types.ProcessRecord, error)
	CompleteByKey(ctx context.Context, key string, exit time.Time) (types.ProcessRecord, error)
	DeleteProcess(ctx context.Context, id string) error
	GetBidding(ctx context.Context, key string) (types.BiddingRecord, error)
	SetBiddingStatus(ctx context.Context, key, status string) (types.BiddingRecord, error)
	DeleteBidding(ctx context.Context, id string) error
}

// StaticSource serves a fixed snapshot.
type StaticSource types.Snapshot

// LoadSnapshot returns the fixed snapshot.
func (s StaticSource) LoadSnapshot(context.Context) (types.Snapshot, error) {
	return types.Snapshot(s), nil
}

// Server is the HTTP surface.
type Server struct {
	engine  *core.Engine
	source  SnapshotSource
	history QueryLog
	records RecordStore
	cfg     config.ServerConfig
	router  *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithQueryLog records every answered question.
func WithQueryLog(q QueryLog) Option {
	return func(s *Server) { s.history = q }
}

// WithRecords enables the record editing endpoints.
func WithRecords(r RecordStore) Option {
	return func(s *Server) { s.records = r }
}

// WithConfig sets listen address and shutdown timeout.
func WithConfig(cfg config.ServerConfig) Option {
	return func(s *Server) { s.cfg = cfg }
}

// New builds a server answering from source.
func New(engine *core.Engine, source SnapshotSource, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		source: source,
		cfg:    config.DefaultConfig().Server,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	r.Use(Recovery())
	r.Use(AccessLog())

	r.GET("/healthz", s.healthz)

	api := r.Group("/api")
	{
		api.POST("/ask", s.ask)
		api.GET("/summary", s.summary)
		api.GET("/history", s.recent)

		api.PUT("/processes/:key", s.putProcess)
		api.POST("/processes/:key/complete", s.completeProcess)
		api.DELETE("/processes/:key", s.deleteProcess)
		api.PUT("/biddings/:key/status", s.putBiddingStatus)
		api.DELETE("/biddings/:key", s.deleteBidding)
	}
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Server("Listening on %s", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := config.DefaultConfig().GetShutdownTimeout()
	if d, err := time.ParseDuration(s.cfg.ShutdownTimeout); err == nil && d > 0 {
		timeout = d
	}
	logging.Server("Shutting down (timeout %v)", timeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	<-errCh
	return nil
}
