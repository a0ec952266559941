package ninep

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the prometheus collectors a Server updates over its
// lifetime. The zero value is not usable; construct one with
// NewMetrics, which registers every collector with reg.
type Metrics struct {
	Connections    prometheus.Gauge
	InFlight       prometheus.Gauge
	BytesRead      prometheus.Counter
	BytesWritten   prometheus.Counter
	Errors         *prometheus.CounterVec
	RequestLatency *prometheus.HistogramVec
}

// NewMetrics creates a Metrics and registers its collectors with reg.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ninep",
			Name:      "connections_open",
			Help:      "Number of currently open 9P connections.",
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ninep",
			Name:      "requests_in_flight",
			Help:      "Number of requests currently dispatched to the backend.",
		}),
		BytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ninep",
			Name:      "bytes_read_total",
			Help:      "Total data bytes returned to clients in Rread replies.",
		}),
		BytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ninep",
			Name:      "bytes_written_total",
			Help:      "Total data bytes accepted from clients in Twrite requests.",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ninep",
			Name:      "errors_total",
			Help:      "Errors encountered, by kind.",
		}, []string{"kind"}),
		RequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ninep",
			Name:      "request_duration_seconds",
			Help:      "Time to service a request, by message type.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
	}
	reg.MustRegister(m.Connections, m.InFlight, m.BytesRead, m.BytesWritten, m.Errors, m.RequestLatency)
	return m
}

// noopMetrics builds a Metrics whose collectors are not registered
// with any Registerer. Nothing in this package calls it; NewConfig
// fills a missing Metrics with one registered on a fresh
// prometheus.Registry instead.
func noopMetrics() *Metrics {
	return &Metrics{
		Connections:    prometheus.NewGauge(prometheus.GaugeOpts{Name: "ninep_noop_connections"}),
		InFlight:       prometheus.NewGauge(prometheus.GaugeOpts{Name: "ninep_noop_inflight"}),
		BytesRead:      prometheus.NewCounter(prometheus.CounterOpts{Name: "ninep_noop_bytes_read"}),
		BytesWritten:   prometheus.NewCounter(prometheus.CounterOpts{Name: "ninep_noop_bytes_written"}),
		Errors:         prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ninep_noop_errors"}, []string{"kind"}),
		RequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "ninep_noop_latency"}, []string{"type"}),
	}
}
