package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/mydotainfo/core/logger"
)

// Server serves Registry over HTTP.
type Server struct {
	server *http.Server
	ln     net.Listener
}

// NewServer prepares a scrape server on listen serving path.
func NewServer(listen, path string) *Server {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
	return &Server{
		server: &http.Server{
			Addr:              listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.METRICS.Error("metrics server failed",
				slog.String("event", "metrics.serve"),
				slog.String("err", err.Error()),
			)
		}
	}()
	logger.METRICS.Info("metrics server started",
		slog.String("event", "metrics.start"),
		slog.String("listen", ln.Addr().String()),
	)
	return nil
}

// Addr returns the bound address once Start succeeded.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.server.Addr
	}
	return s.ln.Addr().String()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.ln == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
