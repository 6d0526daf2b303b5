// Package metrics exposes Prometheus collectors for the probe.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Proton-105/liveness-probe/internal/state"
)

const namespace = "liveness_probe"

var (
	// Registry is a dedicated registry so tests and the HTTP handler see only probe metrics.
	Registry = prometheus.NewRegistry()

	statusWritesTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_writes_total",
			Help:      "Status file writes labeled by outcome",
		},
		[]string{"outcome"},
	)
	statusRemovalsTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_removals_total",
			Help:      "Status file removal attempts",
		},
	)
	checksTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Check cycles labeled by result (passed, triggered, missing)",
		},
		[]string{"result"},
	)
	randomDrawsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "random_draws_total",
			Help:      "Random numbers drawn by check cycles labeled by value",
		},
		[]string{"value"},
	)
	counterValue = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "counter",
			Help:      "Current value of the probe counter",
		},
	)
	alive = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alive",
			Help:      "1 while the probe keeps its status file, 0 after the simulated failure",
		},
	)
	stateTransitionsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Total number of lifecycle transitions",
		},
		[]string{"from", "to"},
	)
	fileEventsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_file_events_total",
			Help:      "Filesystem events observed on the status file",
		},
		[]string{"op"},
	)
	errorsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of errors split by code and severity",
		},
		[]string{"code", "severity"},
	)
	httpRequestsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests labeled by path and status code",
		},
		[]string{"path", "status"},
	)
	httpRequestDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	state.RegisterTransitionRecorder(RecordStateTransition)
}

// Handler serves the dedicated registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// RecordStatusWrite counts one status file write.
func RecordStatusWrite(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	statusWritesTotal.WithLabelValues(outcome).Inc()
}

func RecordStatusRemoval() {
	statusRemovalsTotal.Inc()
}

// RecordCheck counts a check cycle and the random number it drew.
func RecordCheck(result string, drawn int) {
	if result == "" {
		result = "unknown"
	}

	checksTotal.WithLabelValues(result).Inc()
	randomDrawsTotal.WithLabelValues(strconv.Itoa(drawn)).Inc()
}

func SetCounter(value int) {
	counterValue.Set(float64(value))
}

func SetAlive(isAlive bool) {
	if isAlive {
		alive.Set(1)
		return
	}
	alive.Set(0)
}

// RecordStateTransition tracks lifecycle transitions.
func RecordStateTransition(from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}

	stateTransitionsTotal.WithLabelValues(from, to).Inc()
}

func RecordFileEvent(op string) {
	fileEventsTotal.WithLabelValues(op).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(code, severity string) {
	if code == "" {
		code = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(code, severity).Inc()
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(path).Observe(duration.Seconds())
}
