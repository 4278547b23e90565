package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "facegate"

// Metrics holds the collectors exported on /metrics. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	WorkflowsTotal   *prometheus.CounterVec
	WorkflowDuration *prometheus.HistogramVec
	UpstreamFailures *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// New registers every collector on a private registry together with the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		WorkflowsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflows_total",
			Help:      "Workflow invocations by workflow and result status",
		}, []string{"workflow", "status"}),
		WorkflowDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_duration_seconds",
			Help:      "Workflow latency",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		}, []string{"workflow"}),
		UpstreamFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_failures_total",
			Help:      "Failed external calls by operation and error code",
		}, []string{"operation", "code"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attributes_cache_lookups_total",
			Help:      "Attribute cache lookups by result",
		}, []string{"result"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) ObserveWorkflow(workflow, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.WorkflowsTotal.WithLabelValues(workflow, status).Inc()
	m.WorkflowDuration.WithLabelValues(workflow).Observe(elapsed.Seconds())
}

func (m *Metrics) UpstreamFailure(operation, code string) {
	if m == nil {
		return
	}
	m.UpstreamFailures.WithLabelValues(operation, code).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
