// Package metrics records router outcomes with Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config configures the collector.
type Config struct {
	// Namespace prefixes every metric name (default: "devrouter").
	Namespace string

	// Buckets for the handle duration histogram.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry receives the metrics. Default: a fresh registry, so two
	// servers in one process never collide.
	Registry *prometheus.Registry
}

// Option configures the collector.
type Option func(*Config)

// WithNamespace sets the metric namespace.
func WithNamespace(ns string) Option {
	return func(c *Config) {
		c.Namespace = ns
	}
}

// WithBuckets sets the duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "devrouter",
		Buckets:   prometheus.DefBuckets,
	}
}

// Collector holds the router metrics.
type Collector struct {
	registry       *prometheus.Registry
	outcomesTotal  *prometheus.CounterVec
	handleDuration *prometheus.HistogramVec
	listedEntries  prometheus.Histogram
	reloadClients  prometheus.Gauge
}

// New creates a Collector and registers its metrics.
func New(opts ...Option) *Collector {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	factory := promauto.With(cfg.Registry)

	return &Collector{
		registry: cfg.Registry,

		outcomesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "outcomes_total",
			Help:      "Requests handled by the router, by outcome",
		}, []string{"outcome"}),

		handleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "handle_duration_seconds",
			Help:      "Time spent deciding and rendering, by outcome",
			Buckets:   cfg.Buckets,
		}, []string{"outcome"}),

		listedEntries: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "listed_entries",
			Help:      "Entries shown per rendered listing",
			Buckets:   []float64{0, 5, 10, 25, 50, 100, 250, 1000},
		}),

		reloadClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "reload_clients",
			Help:      "Connected live reload websocket clients",
		}),
	}
}

// ObserveOutcome records one router decision. Safe on a nil Collector.
func (c *Collector) ObserveOutcome(outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.outcomesTotal.WithLabelValues(outcome).Inc()
	c.handleDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveListing records the size of a rendered listing. Safe on a nil Collector.
func (c *Collector) ObserveListing(entries int) {
	if c == nil {
		return
	}
	c.listedEntries.Observe(float64(entries))
}

// SetReloadClients sets the live reload client gauge. Safe on a nil Collector.
func (c *Collector) SetReloadClients(n int) {
	if c == nil {
		return
	}
	c.reloadClients.Set(float64(n))
}

// Handler exposes the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
