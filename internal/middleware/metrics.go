package middleware

import (
	"net/http"
	"time"

	"github.com/Proton-105/liveness-probe/pkg/metrics"
)

// Metrics measures execution time and status for HTTP handlers, reporting them to Prometheus.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		metrics.RecordHTTPRequest(routeLabel(r), rec.code(), time.Since(start))
	})
}

// routeLabel keeps label cardinality bounded to the routes the server knows.
func routeLabel(r *http.Request) string {
	switch r.URL.Path {
	case "/livez", "/readyz", "/healthz", "/metrics", "/status":
		return r.URL.Path
	default:
		return "other"
	}
}
