package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sauk2/rmf-ros2/fleetctl"
	"github.com/sauk2/rmf-ros2/logging"
)

// requestID tags every diagnostics request with a fresh identifier, both
// echoed back to the caller and included in the access log line, so a
// single curl against /robots can be correlated with its log entry.
func requestID(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			id := uuid.New().String()
			w.Header().Set("X-Request-Id", id)
			logger.Debugw("diagnostics request", "request_id", id, "path", req.URL.Path)
			next.ServeHTTP(w, req)
		})
	}
}

// prometheusRegistererOrNoop returns the default Prometheus registerer.
// It always returns prometheus.DefaultRegisterer, never a no-op or
// throwaway registry.
func prometheusRegistererOrNoop() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}

// newDiagnosticsServer builds the read-only HTTP surface cmd/fleetshell
// talks to: robot status snapshots and Prometheus metrics.
func newDiagnosticsServer(coordinator *fleetctl.Coordinator, logger *logging.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(requestID(logger))
	r.Get("/robots", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(coordinator.Snapshot()); err != nil {
			logger.Warnw("encoding robot snapshot", "error", err)
		}
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// serveDiagnostics runs the diagnostics HTTP server on addr until ctx is
// canceled.
func serveDiagnostics(ctx context.Context, handler http.Handler, addr string, logger *logging.Logger) {
	srv := &http.Server{Addr: addr, Handler: handler}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Errorw("diagnostics server exited", "error", err)
	}
}
