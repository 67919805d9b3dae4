// Package metrics holds the Prometheus collectors sitepipe records while it
// runs tasks, writes output and talks to browsers.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "sitepipe").
	Namespace string

	// Buckets are the histogram buckets for task duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry receives the collectors. Default: a fresh registry.
	Registry *prometheus.Registry
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// Metrics holds the collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	taskRuns     *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
	filesWritten *prometheus.CounterVec
	bytesWritten *prometheus.CounterVec
	reloads      *prometheus.CounterVec
	clients      prometheus.Gauge
}

// New creates and registers the collectors.
func New(opts ...Option) *Metrics {
	cfg := Config{
		Namespace: "sitepipe",
		Buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	factory := promauto.With(cfg.Registry)
	return &Metrics{
		registry: cfg.Registry,

		taskRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "task_runs_total",
			Help:      "Total number of leaf task runs",
		}, []string{"task", "status"}),

		taskDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "task_duration_seconds",
			Help:      "Leaf task duration in seconds",
			Buckets:   cfg.Buckets,
		}, []string{"task"}),

		filesWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "files_written_total",
			Help:      "Total number of output files written",
		}, []string{"category"}),

		bytesWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "bytes_written_total",
			Help:      "Total number of output bytes written",
		}, []string{"category"}),

		reloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "reload_broadcasts_total",
			Help:      "Total number of reload messages broadcast to browsers",
		}, []string{"type"}),

		clients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "reload_clients",
			Help:      "Number of connected reload clients",
		}),
	}
}

// ObserveTask records one finished leaf task.
func (m *Metrics) ObserveTask(task string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.taskRuns.WithLabelValues(task, status).Inc()
	m.taskDuration.WithLabelValues(task).Observe(d.Seconds())
}

// ObserveWrite records files written by a category.
func (m *Metrics) ObserveWrite(category string, files int, bytes int64) {
	if m == nil {
		return
	}
	m.filesWritten.WithLabelValues(category).Add(float64(files))
	m.bytesWritten.WithLabelValues(category).Add(float64(bytes))
}

// ObserveReload records one reload broadcast.
func (m *Metrics) ObserveReload(kind string) {
	if m == nil {
		return
	}
	m.reloads.WithLabelValues(kind).Inc()
}

// SetClients records the number of connected reload clients.
func (m *Metrics) SetClients(n int) {
	if m == nil {
		return
	}
	m.clients.Set(float64(n))
}

// Handler serves the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
