package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveWorkflow(t *testing.T) {
	m := New()

	m.ObserveWorkflow("register", "ok", 20*time.Millisecond)
	m.ObserveWorkflow("register", "ok", 30*time.Millisecond)
	m.ObserveWorkflow("authenticate", "no-match", 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.WorkflowsTotal.WithLabelValues("register", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WorkflowsTotal.WithLabelValues("authenticate", "no-match")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.WorkflowDuration))
}

func TestMetrics_CacheAndUpstream(t *testing.T) {
	m := New()

	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)
	m.UpstreamFailure("search", "UPSTREAM_TIMEOUT")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamFailures.WithLabelValues("search", "UPSTREAM_TIMEOUT")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveWorkflow("list", "ok", time.Millisecond)
		m.CacheLookup(true)
		m.UpstreamFailure("get", "UPSTREAM_ERROR")
		m.ObserveHTTP("GET", "/health", 200, time.Millisecond)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveHTTP("GET", "/registered_faces", 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `facegate_http_request_duration_seconds_count{method="GET",route="/registered_faces",status="200"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
