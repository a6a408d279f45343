package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cacheLookups  *prometheus.CounterVec
	providerCalls *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder { return NewWithRegistry(prometheus.DefaultRegisterer) }

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairlab_cache_lookups_total",
				Help: "Series cache lookups by backend and result",
			},
			[]string{"backend", "result"},
		),
		providerCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairlab_provider_fetches_total",
				Help: "Market data provider fetches by result",
			},
			[]string{"provider", "result"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairlab_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pairlab_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),
	}
}

// RecordCacheLookup counts a cache lookup (hit, miss, corrupt).
func (r *Recorder) RecordCacheLookup(backend, result string) {
	r.cacheLookups.WithLabelValues(backend, result).Inc()
}

// RecordProviderFetch counts a provider fetch (ok, empty, error).
func (r *Recorder) RecordProviderFetch(provider, result string) {
	r.providerCalls.WithLabelValues(provider, result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards all measurements. The CLI uses it.
type Nop struct{}

func (Nop) RecordCacheLookup(string, string)   {}
func (Nop) RecordProviderFetch(string, string) {}
func (Nop) RecordError(string)                 {}
func (Nop) RecordLatency(string, float64)      {}
