// Package metrics exposes Prometheus metrics for the HTTP API, the AI gateway
// and the record store.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hyperjump/aether/internal/models"
)

// Collector holds all Prometheus metrics for one process. Each collector has
// its own registry, so tests can create as many as they like.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// AI gateway metrics
	ModelCalls    *prometheus.CounterVec
	ModelDuration *prometheus.HistogramVec

	// Record store metrics
	PersistWarnings *prometheus.CounterVec
	Patients        *prometheus.GaugeVec
}

// NewCollector creates a collector whose metric names are prefixed with namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ModelCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_calls_total",
				Help:      "Total number of generative model calls by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		ModelDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_call_duration_seconds",
				Help:      "Generative model call duration in seconds",
				Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
			},
			[]string{"op"},
		),
		PersistWarnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persist_warnings_total",
				Help:      "Writes rejected by storage while the change stayed in memory",
			},
			[]string{"key"},
		),
		Patients: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "patients",
				Help:      "Current number of patient records by status",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.ModelCalls,
		c.ModelDuration,
		c.PersistWarnings,
		c.Patients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the Prometheus registry for this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveModelCall records one AI gateway call.
func (c *Collector) ObserveModelCall(op, outcome string, d time.Duration) {
	c.ModelCalls.WithLabelValues(op, outcome).Inc()
	c.ModelDuration.WithLabelValues(op).Observe(d.Seconds())
}

// PersistWarning counts a rejected write of key.
func (c *Collector) PersistWarning(key string) {
	c.PersistWarnings.WithLabelValues(key).Inc()
}

// ObservePatients sets the census gauge from the current record list. It
// matches the record store's change hook signature.
func (c *Collector) ObservePatients(patients []models.Patient) {
	counts := map[models.Status]int{}
	for _, s := range models.Statuses {
		counts[s] = 0
	}
	for _, p := range patients {
		counts[p.Status]++
	}
	for s, n := range counts {
		c.Patients.WithLabelValues(string(s)).Set(float64(n))
	}
}

// Middleware records request counts and latency per chi route pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		route := "unknown"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		c.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(ww.status)).Inc()
		c.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
