// Package metrics provides Prometheus metrics collection for lifeguard.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/artpar/lifeguard/core/executor"
)

// Collector holds all Prometheus metrics for lifeguard. It implements
// executor.Metrics and can be handed to pool.WithMetrics.
type Collector struct {
	// Query metrics
	QueriesTotal  prometheus.Counter
	QueryErrors   *prometheus.CounterVec
	QueryDuration prometheus.Histogram

	// Pool metrics
	ConnectionWait prometheus.Histogram
	QueueDepth     prometheus.Gauge
	PoolSize       prometheus.Gauge

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
}

var _ executor.Metrics = (*Collector)(nil)

// New creates a collector registered with the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a collector registered with reg.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		QueriesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "lifeguard",
				Name:      "queries_total",
				Help:      "Total number of statements executed",
			},
		),
		QueryErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lifeguard",
				Name:      "query_errors_total",
				Help:      "Total number of failed statements",
			},
			[]string{"kind"},
		),
		QueryDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "lifeguard",
				Name:      "query_duration_seconds",
				Help:      "Statement duration in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),
		ConnectionWait: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "lifeguard",
				Name:      "connection_wait_seconds",
				Help:      "Time spent waiting for a connection or a worker",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
		),
		QueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "lifeguard",
				Name:      "pool_queue_depth",
				Help:      "Jobs waiting across all worker queues",
			},
		),
		PoolSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "lifeguard",
				Name:      "pool_size",
				Help:      "Number of pool workers",
			},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "lifeguard",
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "lifeguard",
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
	}
}

func (c *Collector) ObserveQuery(d time.Duration, err error) {
	c.QueriesTotal.Inc()
	c.QueryDuration.Observe(d.Seconds())
	if err != nil {
		c.QueryErrors.WithLabelValues(errorLabel(err)).Inc()
	}
}

func (c *Collector) ObserveConnectionWait(d time.Duration) {
	c.ConnectionWait.Observe(d.Seconds())
}

func (c *Collector) SetQueueDepth(n int) { c.QueueDepth.Set(float64(n)) }
func (c *Collector) SetPoolSize(n int)   { c.PoolSize.Set(float64(n)) }

// errorLabel keeps the kind label bounded.
func errorLabel(err error) string {
	kind, ok := executor.KindOf(err)
	if !ok {
		return "other"
	}
	switch kind {
	case executor.DriverError:
		return "driver"
	case executor.QueryError:
		return "query"
	case executor.ParseError:
		return "parse"
	default:
		return "other"
	}
}
