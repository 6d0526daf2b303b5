package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/Proton-105/liveness-probe/pkg/logger"
	"github.com/Proton-105/liveness-probe/pkg/metrics"
)

func TestLogging_RecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	handler := logger.Middleware(Logging(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/livez", nil))

	out := buf.String()
	assert.Contains(t, out, "path=/livez")
	assert.Contains(t, out, "status=503")
	assert.Contains(t, out, "correlation_id=")
	assert.NotContains(t, out, `correlation_id=""`)
}

func TestMetrics_CountsRequests(t *testing.T) {
	handler := Metrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	before := testutil.CollectAndCount(metrics.Registry, "liveness_probe_http_requests_total")
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/some/unknown/path", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", nil))

	after := testutil.CollectAndCount(metrics.Registry, "liveness_probe_http_requests_total")
	assert.GreaterOrEqual(t, after, before)
	assert.LessOrEqual(t, after-before, 2)
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/livez", routeLabel(httptest.NewRequest(http.MethodGet, "/livez", nil)))
	assert.Equal(t, "other", routeLabel(httptest.NewRequest(http.MethodGet, "/x/y", nil)))
}
