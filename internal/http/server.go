// Package http serves the dashboard API as JSON.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"spendboard/internal/dashboard"
	"spendboard/internal/log"
	"spendboard/internal/middleware/ratelimit"
	"spendboard/internal/middleware/security"
	"spendboard/internal/middleware/trace"
	"spendboard/internal/storage"
)

// ImportLog is the import history of a backend that stores snapshots.
type ImportLog interface {
	LatestImport(ctx context.Context) (storage.Import, error)
	Imports(ctx context.Context, limit int) ([]storage.Import, error)
}

// Options tune a Server.
type Options struct {
	Logger *log.Logger
	// ReloadLimit caps POST /api/reload per client IP and minute.
	ReloadLimit int
	// Imports enables GET /api/imports and the import check of /readyz.
	Imports ImportLog
}

type Server struct {
	http.Server
	svc       *dashboard.Service
	imports   ImportLog
	logger    *log.Logger
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracer    *trace.Middleware
	startedAt time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc *dashboard.Service, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if opts.ReloadLimit <= 0 {
		opts.ReloadLimit = 6
	}

	detector := security.NewDetector()
	s := &Server{
		svc:       svc,
		imports:   opts.Imports,
		logger:    logger.WithComponent(log.ComponentHTTP),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{Requests: opts.ReloadLimit, Window: time.Minute}),
		detector:  detector,
		tracer:    trace.NewMiddleware(logger, detector.ExtractClientIP),
		startedAt: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/records", s.handleRecords)
	mux.HandleFunc("GET /api/facets", s.handleFacets)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/views/treemap", s.handleTreemap)
	mux.HandleFunc("GET /api/views/sunburst", s.handleSunburst)
	mux.HandleFunc("GET /api/views/geo", s.handleGeo)
	mux.HandleFunc("GET /api/views/temporal", s.handleTemporal)
	mux.HandleFunc("GET /api/views/heatmap", s.handleHeatmap)
	mux.HandleFunc("GET /api/imports", s.handleImports)

	limitReload := s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
	})
	mux.Handle("POST /api/reload", limitReload(http.HandlerFunc(s.handleReload)))

	var handler http.Handler = mux
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = detector.Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
