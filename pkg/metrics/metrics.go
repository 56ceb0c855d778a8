// Package metrics collects Prometheus metrics for storage changes and the
// cross-window hub.
//
// Metrics collected (with the default namespace):
//   - composables_storage_changes_total: changes by area, operation and origin
//   - composables_hub_clients: connected hub clients
//   - composables_hub_messages_total: hub messages by direction
//   - composables_hub_relay_duration_seconds: time to fan a change out
//   - composables_hub_errors_total: hub errors by type
//   - composables_http_requests_total: REST requests by route and status
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(metrics.WithRegistry(reg))
//	defer m.InstrumentWindow(win)()
//	http.Handle("/metrics", m.Handler())
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/composables/pkg/storage"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "composables").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for relay duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registerer receives the collectors.
	// Default: prometheus.DefaultRegisterer
	Registerer prometheus.Registerer

	// Gatherer is served by Handler.
	// Default: prometheus.DefaultGatherer
	Gatherer prometheus.Gatherer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry registers the collectors with reg and serves it.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(c *Config) {
		c.Registerer = reg
		c.Gatherer = reg
	}
}

func defaultConfig() Config {
	return Config{
		Namespace:  "composables",
		Buckets:    prometheus.DefBuckets,
		Registerer: prometheus.DefaultRegisterer,
		Gatherer:   prometheus.DefaultGatherer,
	}
}

// Metrics holds the collectors. A nil *Metrics records nothing, so
// components can take one optionally.
type Metrics struct {
	gatherer prometheus.Gatherer

	storageChanges *prometheus.CounterVec
	hubClients     prometheus.Gauge
	hubMessages    *prometheus.CounterVec
	relayDuration  prometheus.Histogram
	hubErrors      *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
}

// New creates and registers the collectors. Like promauto it panics if
// they are already registered with the same registerer.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registerer)

	return &Metrics{
		gatherer: config.Gatherer,

		storageChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   "storage",
			Name:        "changes_total",
			Help:        "Total number of storage changes",
			ConstLabels: config.ConstLabels,
		}, []string{"area", "op", "origin"}),

		hubClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   "hub",
			Name:        "clients",
			Help:        "Number of connected hub clients",
			ConstLabels: config.ConstLabels,
		}),

		hubMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   "hub",
			Name:        "messages_total",
			Help:        "Total hub messages by direction",
			ConstLabels: config.ConstLabels,
		}, []string{"direction"}),

		relayDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   "hub",
			Name:        "relay_duration_seconds",
			Help:        "Time to relay one change to every other client",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		hubErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   "hub",
			Name:        "errors_total",
			Help:        "Total hub errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   "http",
			Name:        "requests_total",
			Help:        "Total REST requests by route and status",
			ConstLabels: config.ConstLabels,
		}, []string{"method", "route", "status"}),
	}
}

// Handler serves the gatherer in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// InstrumentWindow counts every change published on win until the
// returned function is called.
func (m *Metrics) InstrumentWindow(win *storage.Window) (stop func()) {
	if m == nil {
		return func() {}
	}
	return storage.Listen(win.Events, m.RecordChange)
}

// RecordChange counts one storage change.
func (m *Metrics) RecordChange(ev storage.ChangeEvent) {
	if m == nil {
		return
	}
	op := "set"
	switch {
	case ev.AllKeys:
		op = "clear"
	case !ev.NewValue.IsPresent():
		op = "remove"
	}
	origin := "local"
	if ev.Remote {
		origin = "remote"
	}
	m.storageChanges.WithLabelValues(ev.Area, op, origin).Inc()
}

// ClientConnected records a hub client joining.
func (m *Metrics) ClientConnected() {
	if m != nil {
		m.hubClients.Inc()
	}
}

// ClientDisconnected records a hub client leaving.
func (m *Metrics) ClientDisconnected() {
	if m != nil {
		m.hubClients.Dec()
	}
}

// MessageReceived records a message read from a client.
func (m *Metrics) MessageReceived() {
	if m != nil {
		m.hubMessages.WithLabelValues("in").Inc()
	}
}

// MessageSent records a message written to a client.
func (m *Metrics) MessageSent() {
	if m != nil {
		m.hubMessages.WithLabelValues("out").Inc()
	}
}

// ObserveRelay records how long relaying one change took.
func (m *Metrics) ObserveRelay(d time.Duration) {
	if m != nil {
		m.relayDuration.Observe(d.Seconds())
	}
}

// HubError records a hub error. typ must be low-cardinality, e.g. "decode".
func (m *Metrics) HubError(typ string) {
	if m != nil {
		m.hubErrors.WithLabelValues(typ).Inc()
	}
}

// Request records a REST request. route is the route pattern, not the path.
func (m *Metrics) Request(method, route string, status int) {
	if m != nil {
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	}
}
