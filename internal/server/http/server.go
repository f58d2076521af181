package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/and161185/activities/internal/service"
)

// Config holds HTTP server settings.
type Config struct {
	Addr            string
	CORSOrigin      string
	ShutdownTimeout time.Duration
	Gatherer        prometheus.Gatherer // serves /metrics when set
}

// Server owns the HTTP listener.
type Server struct {
	cfg Config
	srv *http.Server
	log *zap.Logger
}

// NewMux builds the full handler tree with middleware applied.
func NewMux(p *service.Pipeline, log *zap.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()
	NewHandler(p, log).RegisterRoutes(mux)
	if cfg.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	return Chain(mux, Recover(log), Logging(log), CORS(cfg.CORSOrigin))
}

// New constructs a Server.
func New(p *service.Pipeline, log *zap.Logger, cfg Config) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	return &Server{
		cfg: cfg,
		log: log,
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewMux(p, log, cfg),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", lis.Addr().String()))
		errCh <- s.srv.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			_ = s.srv.Close()
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
