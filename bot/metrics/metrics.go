package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for provider queries and chat updates.
// All methods are safe on a nil receiver.
type Metrics struct {
	// Provider call latencies by provider and report kind
	ProviderLatency *prometheus.HistogramVec

	// Provider outcomes by provider and outcome
	ProviderOutcome *prometheus.CounterVec

	// Full fan-out latency including formatting
	QueryLatency prometheus.Histogram

	// Inbound chat updates by kind and handling result
	Updates *prometheus.CounterVec
}

// New registers all bot metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ProviderLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "autocheck_provider_request_duration_seconds",
			Help:    "Duration of provider requests by provider and report kind",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		}, []string{"provider", "report"}),

		ProviderOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "autocheck_provider_outcomes_total",
			Help: "Total provider results by provider and outcome",
		}, []string{"provider", "outcome"}),

		QueryLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "autocheck_query_duration_seconds",
			Help:    "Duration of a full orchestrated query",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		}),

		Updates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "autocheck_chat_updates_total",
			Help: "Total inbound chat updates by kind and result",
		}, []string{"kind", "result"}),
	}
}

// ObserveProvider records one provider call.
func (m *Metrics) ObserveProvider(provider, report, outcome string, d time.Duration) {
	if m != nil {
		m.ProviderLatency.WithLabelValues(provider, report).Observe(d.Seconds())
		m.ProviderOutcome.WithLabelValues(provider, outcome).Inc()
	}
}

func (m *Metrics) ObserveQuery(d time.Duration) {
	if m != nil {
		m.QueryLatency.Observe(d.Seconds())
	}
}

// IncrementUpdate records an inbound update; kind is "message" or "callback".
func (m *Metrics) IncrementUpdate(kind, result string) {
	if m != nil {
		m.Updates.WithLabelValues(kind, result).Inc()
	}
}
