package live

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/liveui/internal/config"
	"github.com/vango-dev/liveui/pkg/metrics"
)

// Server serves list sessions, health and metrics.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Recorder
	upgrader websocket.Upgrader
	sessions atomic.Int64
	seq      atomic.Int64
}

// New creates a server.
func New(cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	reg := prometheus.NewRegistry()
	return &Server{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		metrics: metrics.New(
			metrics.WithRegistry(reg),
			metrics.WithNamespace(cfg.Metrics.Namespace),
		),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Sessions returns the number of open sessions.
func (s *Server) Sessions() int64 {
	return s.sessions.Load()
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if s.cfg.Metrics.Enabled {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	r.Get("/ws", s.handleWS)
	return r
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	id := s.seq.Add(1)
	logger := s.logger.With("session", id)
	s.sessions.Add(1)
	defer s.sessions.Add(-1)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The client never sends anything we act on; reading detects close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseNormalClosure) {
					logger.Debug("read error", "error", err)
				}
				return
			}
		}
	}()

	logger.Info("session started")
	sess := NewSession(conn, SessionConfig{
		Items:           s.cfg.Serve.Items,
		Tick:            s.cfg.TickInterval(),
		MaxRetained:     s.cfg.List.MaxRetained,
		MaxPollsPerTick: s.cfg.Executor.MaxPollsPerTick,
		JSON:            r.URL.Query().Get("format") == "json",
		Seed:            id,
		Logger:          logger,
		Metrics:         s.metrics,
	})
	err = sess.Run(ctx)
	if err != nil && !stderrors.Is(err, context.Canceled) {
		logger.Warn("session ended", "error", err)
		return
	}
	logger.Info("session ended")
}

// ListenAndServe serves on cfg.Serve.Addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Serve.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Serve.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
