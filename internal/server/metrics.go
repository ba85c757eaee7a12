package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/choirstage/pkg/cache"
	"github.com/matzehuels/choirstage/pkg/observability"
)

const namespace = "choirstage"

// Metrics collects Prometheus metrics for HTTP requests, commands and the
// store, layout and cache hooks. Each Metrics owns its registry.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	commands        *prometheus.CounterVec

	storeOps        *prometheus.CounterVec
	storeDuration   *prometheus.HistogramVec
	snapshotCount   prometheus.Histogram
	integrityIssues prometheus.Counter

	layoutDuration   *prometheus.HistogramVec
	layoutPlacements *prometheus.HistogramVec

	cacheEvents *prometheus.CounterVec
	cacheBytes  prometheus.Counter
}

// NewMetrics creates metrics on a fresh registry that also carries the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Editor commands by route and outcome.",
		}, []string{"route", "applied"}),
		storeOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Session store operations by kind and result.",
		}, []string{"op", "result"}),
		storeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Session store latency.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"op"}),
		snapshotCount: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_snapshots",
			Help:      "Snapshot count of a session after each snapshot.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 200},
		}),
		integrityIssues: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "integrity_findings_total",
			Help:      "Dangling references reported on load.",
		}),
		layoutDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Layout computation latency by model generation.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}, []string{"generation"}),
		layoutPlacements: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_placements",
			Help:      "Placements per computed layout.",
			Buckets:   prometheus.ExponentialBuckets(8, 2, 8),
		}, []string{"generation"}),
		cacheEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_total",
			Help:      "Cache hits, misses, writes and errors by key type.",
		}, []string{"key_type", "event"}),
		cacheBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache.",
		}),
	}
}

// Registry returns the registry metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Install registers m as the store, layout and cache hooks.
func (m *Metrics) Install() {
	observability.SetStoreHooks(m)
	observability.SetLayoutHooks(m)
	observability.SetCacheHooks(m)
}

// Middleware records request counts and latency by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := routePattern(r)
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// routePattern keeps label cardinality bounded: session codes and ids
// stay in their {placeholders}.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func (m *Metrics) command(r *http.Request, applied bool) {
	m.commands.WithLabelValues(routePattern(r), strconv.FormatBool(applied)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// OnLoad implements observability.StoreHooks.
func (m *Metrics) OnLoad(ctx context.Context, code string, d time.Duration, err error) {
	m.storeOps.WithLabelValues("load", result(err)).Inc()
	m.storeDuration.WithLabelValues("load").Observe(d.Seconds())
}

// OnSave implements observability.StoreHooks.
func (m *Metrics) OnSave(ctx context.Context, code string, d time.Duration, err error) {
	m.storeOps.WithLabelValues("save", result(err)).Inc()
	m.storeDuration.WithLabelValues("save").Observe(d.Seconds())
}

// OnSnapshot implements observability.StoreHooks.
func (m *Metrics) OnSnapshot(ctx context.Context, code string, count int) {
	m.storeOps.WithLabelValues("snapshot", "ok").Inc()
	m.snapshotCount.Observe(float64(count))
}

// OnIntegrity implements observability.StoreHooks.
func (m *Metrics) OnIntegrity(ctx context.Context, code string, findings int) {
	m.integrityIssues.Add(float64(findings))
}

// OnLayout implements observability.LayoutHooks.
func (m *Metrics) OnLayout(ctx context.Context, generation string, placements int, d time.Duration) {
	m.layoutDuration.WithLabelValues(generation).Observe(d.Seconds())
	m.layoutPlacements.WithLabelValues(generation).Observe(float64(placements))
}

// OnCacheHit implements observability.CacheHooks.
func (m *Metrics) OnCacheHit(ctx context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements observability.CacheHooks.
func (m *Metrics) OnCacheMiss(ctx context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheError implements observability.CacheHooks.
func (m *Metrics) OnCacheError(ctx context.Context, keyType string, err error) {
	event := "error"
	if stderrors.Is(err, cache.ErrCorrupt) {
		event = "corrupt"
	}
	m.cacheEvents.WithLabelValues(keyType, event).Inc()
}

// OnCacheSet implements observability.CacheHooks.
func (m *Metrics) OnCacheSet(ctx context.Context, keyType string, size int) {
	m.cacheEvents.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.Add(float64(size))
}

var (
	_ observability.StoreHooks  = (*Metrics)(nil)
	_ observability.LayoutHooks = (*Metrics)(nil)
	_ observability.CacheHooks  = (*Metrics)(nil)
)
