package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/metta/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHandler routes /metrics and /healthz.
func NewHandler(c *Collector) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(c.Registry(), promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok\n"))
	})
	return r
}

// Server serves the metrics handler in the background.
type Server struct {
	srv    *http.Server
	ln     net.Listener
	logger *slog.Logger
	done   chan struct{}
}

// Start listens on addr and serves until Shutdown.
func Start(addr string, c *Collector, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen on %s: %w", addr, err)
	}
	s := &Server{
		srv: &http.Server{
			Handler:           NewHandler(c),
			ReadHeaderTimeout: 5 * time.Second,
		},
		ln:     ln,
		logger: logger,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	logger.Info("metrics server started", "addr", s.Addr())
	return s, nil
}

// Addr returns the address actually listened on.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Shutdown stops the server and waits for it to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	<-s.done
	s.logger.Debug("metrics server stopped")
	return err
}
