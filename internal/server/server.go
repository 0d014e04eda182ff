package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"sigs.k8s.io/controller-runtime/pkg/healthz"

	"selfscan/internal/config"
	"selfscan/pkg/logging"
)

const shutdownTimeout = 5 * time.Second

// HealthSource reports whether the controller is healthy.
type HealthSource interface {
	Healthy() bool
}

// Server serves metrics and probes.
type Server struct {
	metricsAddr string
	healthAddr  string
	gatherer    prometheus.Gatherer
	health      HealthSource
	ready       func() bool
}

// New creates a Server. ready reports whether the controller has loaded its
// application definitions and only feeds the /readyz applications check; a
// nil ready is always ready. /health and /ready answer 200 while the process
// serves.
func New(cfg config.ServerConfig, gatherer prometheus.Gatherer, health HealthSource, ready func() bool) *Server {
	if ready == nil {
		ready = func() bool { return true }
	}
	return &Server{
		metricsAddr: cfg.MetricsAddr,
		healthAddr:  cfg.HealthAddr,
		gatherer:    gatherer,
		health:      health,
		ready:       ready,
	}
}

// MetricsHandler returns the handler of the metrics listener.
func (s *Server) MetricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return mux
}

// HealthHandler returns the handler of the health listener.
func (s *Server) HealthHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writePlain(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, _ *http.Request) {
		writePlain(w, http.StatusOK, "ready")
	})

	healthzHandler := &healthz.Handler{Checks: map[string]healthz.Checker{
		"ping":       healthz.Ping,
		"controller": s.controllerCheck,
	}}
	readyzHandler := &healthz.Handler{Checks: map[string]healthz.Checker{
		"ping":         healthz.Ping,
		"applications": s.applicationsCheck,
	}}
	mux.Handle("/healthz", http.StripPrefix("/healthz", healthzHandler))
	mux.Handle("/healthz/", http.StripPrefix("/healthz", healthzHandler))
	mux.Handle("/readyz", http.StripPrefix("/readyz", readyzHandler))
	mux.Handle("/readyz/", http.StripPrefix("/readyz", readyzHandler))

	return mux
}

func (s *Server) controllerCheck(_ *http.Request) error {
	if s.health != nil && !s.health.Healthy() {
		return errors.New("controller is unhealthy")
	}
	return nil
}

func (s *Server) applicationsCheck(_ *http.Request) error {
	if !s.ready() {
		return errors.New("application definitions not loaded")
	}
	return nil
}

func writePlain(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// Start serves both listeners until ctx is cancelled, then shuts them down.
// It returns an error if either listener cannot be bound or fails.
func (s *Server) Start(ctx context.Context) error {
	metricsLn, err := net.Listen("tcp", s.metricsAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on metrics address %s: %w", s.metricsAddr, err)
	}
	healthLn, err := net.Listen("tcp", s.healthAddr)
	if err != nil {
		_ = metricsLn.Close()
		return fmt.Errorf("failed to listen on health address %s: %w", s.healthAddr, err)
	}

	return s.Serve(ctx, metricsLn, healthLn)
}

// Serve is Start on already bound listeners.
func (s *Server) Serve(ctx context.Context, metricsLn, healthLn net.Listener) error {
	metricsSrv := &http.Server{Handler: s.MetricsHandler(), ReadHeaderTimeout: 10 * time.Second}
	healthSrv := &http.Server{Handler: s.HealthHandler(), ReadHeaderTimeout: 10 * time.Second}

	logging.Info("Server", "Prometheus metrics server started on %s", metricsLn.Addr())
	logging.Info("Server", "Health check server started on %s", healthLn.Addr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return serve(metricsSrv, metricsLn) })
	g.Go(func() error { return serve(healthSrv, healthLn) })
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logging.Warn("Server", "Error shutting down metrics server: %v", err)
		}
		if err := healthSrv.Shutdown(shutdownCtx); err != nil {
			logging.Warn("Server", "Error shutting down health server: %v", err)
		}
		return nil
	})

	return g.Wait()
}

func serve(srv *http.Server, ln net.Listener) error {
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server on %s failed: %w", ln.Addr(), err)
	}
	return nil
}
