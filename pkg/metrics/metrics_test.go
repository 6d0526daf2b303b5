package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/liveness-probe/internal/state"
)

func TestRecordCheck(t *testing.T) {
	before := testutil.ToFloat64(checksTotal.WithLabelValues("passed"))
	drawsBefore := testutil.ToFloat64(randomDrawsTotal.WithLabelValues("3"))

	RecordCheck("passed", 3)

	assert.Equal(t, before+1, testutil.ToFloat64(checksTotal.WithLabelValues("passed")))
	assert.Equal(t, drawsBefore+1, testutil.ToFloat64(randomDrawsTotal.WithLabelValues("3")))
}

func TestRecordStatusWrite(t *testing.T) {
	ok := testutil.ToFloat64(statusWritesTotal.WithLabelValues("ok"))
	failed := testutil.ToFloat64(statusWritesTotal.WithLabelValues("error"))

	RecordStatusWrite(nil)
	RecordStatusWrite(errors.New("disk full"))

	assert.Equal(t, ok+1, testutil.ToFloat64(statusWritesTotal.WithLabelValues("ok")))
	assert.Equal(t, failed+1, testutil.ToFloat64(statusWritesTotal.WithLabelValues("error")))
}

func TestGauges(t *testing.T) {
	SetCounter(12)
	SetAlive(false)

	assert.Equal(t, 12.0, testutil.ToFloat64(counterValue))
	assert.Equal(t, 0.0, testutil.ToFloat64(alive))

	SetAlive(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(alive))
}

func TestStateTransitionsAreRecorded(t *testing.T) {
	before := testutil.ToFloat64(stateTransitionsTotal.WithLabelValues("init", "alive"))

	m := state.NewMachine(nil)
	require.NoError(t, m.TransitionTo(state.StateAlive))

	assert.Equal(t, before+1, testutil.ToFloat64(stateTransitionsTotal.WithLabelValues("init", "alive")))
}

func TestHandlerServesRegistry(t *testing.T) {
	RecordHTTPRequest("/livez", http.StatusOK, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "liveness_probe_http_requests_total")
}
