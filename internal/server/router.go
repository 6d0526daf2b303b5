// Package server exposes the optional HTTP surface of the probe.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Proton-105/liveness-probe/internal/health"
	"github.com/Proton-105/liveness-probe/internal/lifecycle"
	"github.com/Proton-105/liveness-probe/internal/middleware"
	"github.com/Proton-105/liveness-probe/internal/probe"
	"github.com/Proton-105/liveness-probe/pkg/logger"
	"github.com/Proton-105/liveness-probe/pkg/metrics"
)

const checkTimeout = 2 * time.Second

// Deps groups what the router reads from.
type Deps struct {
	Log     *slog.Logger
	Probes  lifecycle.HealthChecker
	Checker *health.Checker
	Loop    health.SnapshotSource
}

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

type statusResponse struct {
	Phase        string `json:"phase"`
	Alive        bool   `json:"alive"`
	Counter      int    `json:"counter"`
	RandomNumber int    `json:"random_number"`
	Content      string `json:"content"`
}

// NewRouter wires the probe endpoints and wraps them in the request middleware chain.
func NewRouter(deps Deps) http.Handler {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("GET /livez", probeHandler(deps.Probes.Liveness))
	mux.Handle("GET /readyz", probeHandler(deps.Probes.Readiness))
	mux.Handle("GET /healthz", healthHandler(deps.Checker))
	mux.Handle("GET /status", statusHandler(deps.Loop))
	mux.Handle("GET /metrics", metrics.Handler())

	return logger.Middleware(middleware.Logging(log)(middleware.Metrics(mux)))
}

func probeHandler(check func(ctx context.Context) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := check(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(err.Error()))
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
}

func healthHandler(checker *health.Checker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()

		results := checker.Check(ctx)
		resp := healthResponse{Status: "ok", Components: results}
		code := http.StatusOK
		if !health.Healthy(results) {
			resp.Status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, resp)
	})
}

func statusHandler(loop health.SnapshotSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := loop.Snapshot()
		writeJSON(w, http.StatusOK, statusFromSnapshot(snap))
	})
}

func statusFromSnapshot(snap probe.Snapshot) statusResponse {
	return statusResponse{
		Phase:        string(snap.Phase),
		Alive:        snap.Alive,
		Counter:      snap.Status.Counter,
		RandomNumber: snap.Status.RandomNumber,
		Content:      snap.Status.Text,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
