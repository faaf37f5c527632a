// Package metrics exposes optional Prometheus instrumentation for an
// install run. It is nil-safe throughout: every method works on a nil
// *Metrics (no-op), so callers that never opt into --metrics-addr pay no
// registration cost. Grounded on vjache-cie/cmd/cie's --metrics-addr
// opt-in pattern (an HTTP-exposed /metrics endpoint only started when a
// flag names an address).
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the install engine's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	tasksTotal      *prometheus.CounterVec
	taskDuration    *prometheus.HistogramVec
	resolutions     *prometheus.CounterVec
	skipOracleHits  prometheus.Counter
	installDuration prometheus.Histogram
}

// New registers a fresh set of collectors against their own registry
// (never the global default), so tests can construct many independent
// Metrics instances without collector-already-registered panics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		tasksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pantry",
			Name:      "install_tasks_total",
			Help:      "Total install tasks processed, by outcome.",
		}, []string{"outcome"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pantry",
			Name:      "install_task_duration_seconds",
			Help:      "Per-dependency install task duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pantry",
			Name:      "resolutions_total",
			Help:      "Resolver lookups, by source.",
		}, []string{"source"}),
		skipOracleHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pantry",
			Name:      "skip_oracle_hits_total",
			Help:      "Dependencies skipped by the Skip Oracle fast path.",
		}),
		installDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pantry",
			Name:      "install_run_duration_seconds",
			Help:      "Total wall-clock duration of one install invocation.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.tasksTotal, m.taskDuration, m.resolutions, m.skipOracleHits, m.installDuration)
	return m
}

// ObserveTask records one completed install task's outcome and duration.
func (m *Metrics) ObserveTask(success bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.tasksTotal.WithLabelValues(outcome).Inc()
	m.taskDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveResolution records one resolver lookup against the source it was
// satisfied from. The orchestrator passes the resolved pkgspec.Source string
// ("builtin_registry", "pantry_s3", "npm", "ziglang", "github", ...) and
// calls it only for successful resolutions.
func (m *Metrics) ObserveResolution(source string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(source).Inc()
}

// IncSkipOracleHit records one dependency bypassed by the Skip Oracle.
func (m *Metrics) IncSkipOracleHit() {
	if m == nil {
		return
	}
	m.skipOracleHits.Inc()
}

// ObserveInstallRun records the total duration of one install invocation.
func (m *Metrics) ObserveInstallRun(d time.Duration) {
	if m == nil {
		return
	}
	m.installDuration.Observe(d.Seconds())
}

// ServeHTTP starts a /metrics HTTP server at addr in a background goroutine
// and returns immediately. A nil Metrics or empty addr disables it
// entirely, matching the --metrics-addr opt-in convention.
func (m *Metrics) ServeHTTP(addr string, onError func(error)) {
	if m == nil || addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if onError != nil {
				onError(err)
			}
		}
	}()
}
