package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments shared across services. A single
// instance is created at startup and injected where needed.
type Metrics struct {
	CommandsTotal       *prometheus.CounterVec
	CoordinateFallbacks prometheus.Counter
	RouteOptimizations  *prometheus.CounterVec
	OracleLatency       *prometheus.HistogramVec
}

// NewMetrics registers all instruments on the default registry.
func NewMetrics() *Metrics {
	return NewMetricsOn(prometheus.DefaultRegisterer)
}

// NewMetricsOn registers all instruments on the given registry. Tests pass a
// fresh registry so instruments can be registered more than once per process.
func NewMetricsOn(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CommandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_commands_total",
			Help: "Processed assistant instructions by command and outcome.",
		}, []string{"command", "outcome"}),
		CoordinateFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "place_coordinate_fallback_total",
			Help: "Stored places whose coordinate was malformed or missing and degraded to (0,0).",
		}),
		RouteOptimizations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "route_optimizations_total",
			Help: "Route optimization requests by status.",
		}, []string{"status"}),
		OracleLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "oracle_request_duration_seconds",
			Help:    "Latency of external oracle calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"oracle"}),
	}
}
