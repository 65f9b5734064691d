package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	studiesTotal     *prometheus.CounterVec
	carDistribution  prometheus.Histogram
	providerRequests *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	resultsSent      *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		studiesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capitolshill_studies_total",
				Help: "Total number of per-trade event studies by terminal status",
			},
			[]string{"status"},
		),
		carDistribution: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "capitolshill_car",
				Help:    "Distribution of computed cumulative abnormal returns",
				Buckets: []float64{-0.5, -0.2, -0.1, -0.05, -0.01, 0, 0.01, 0.05, 0.1, 0.2, 0.5},
			},
		),
		providerRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capitolshill_provider_requests_total",
				Help: "Outbound requests to the price/metadata provider",
			},
			[]string{"endpoint"},
		),
		cacheLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capitolshill_cache_lookups_total",
				Help: "Cache lookups by cache name and outcome",
			},
			[]string{"cache", "outcome"},
		),
		resultsSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capitolshill_results_sent_total",
				Help: "Study results delivered to a backend",
			},
			[]string{"backend"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capitolshill_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "capitolshill_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordStudy records a completed per-trade study with its terminal status.
func (r *Recorder) RecordStudy(status string) {
	r.studiesTotal.WithLabelValues(status).Inc()
}

// RecordCAR records a computed cumulative abnormal return.
func (r *Recorder) RecordCAR(car float64) {
	r.carDistribution.Observe(car)
}

// RecordProviderRequest records an outbound provider call.
func (r *Recorder) RecordProviderRequest(endpoint string) {
	r.providerRequests.WithLabelValues(endpoint).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func (r *Recorder) RecordCacheLookup(name string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.cacheLookups.WithLabelValues(name, outcome).Inc()
}

// RecordResultSent records a result delivered to a backend.
func (r *Recorder) RecordResultSent(backend string) {
	r.resultsSent.WithLabelValues(backend).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
