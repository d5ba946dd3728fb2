package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the resolver service.
// Metrics are organized by subsystem: resolutions, matching, and
// external source requests. All counters and histograms are registered
// via promauto with the default Prometheus registry. A nil *Metrics is
// valid and turns every Record method into a no-op, so components can
// run without metrics wired in (tests, the one-shot CLI).
type Metrics struct {
	// ResolutionsStarted counts the total number of resolution attempts.
	ResolutionsStarted prometheus.Counter

	// ResolutionsByOutcome counts finished resolutions, labeled by
	// terminal status and, for found outcomes, the stage that produced
	// the link.
	ResolutionsByOutcome *prometheus.CounterVec

	// ResolutionDuration observes end-to-end resolution duration in seconds.
	ResolutionDuration prometheus.Histogram

	// CandidatesScored observes the number of article candidates scored
	// per fallback-matching run.
	CandidatesScored prometheus.Histogram

	// MatchSimilarity observes the abstract similarity of the best
	// candidate per fallback-matching run, whether accepted or not.
	MatchSimilarity prometheus.Histogram

	// SourceRequestsTotal counts requests to external sources, labeled
	// by source and endpoint.
	SourceRequestsTotal *prometheus.CounterVec

	// SourceRequestsFailed counts failed requests to external sources,
	// labeled by source, endpoint, and error type.
	SourceRequestsFailed *prometheus.CounterVec

	// SourceRequestDuration observes external request duration in seconds.
	SourceRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ResolutionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_started_total",
			Help:      "Total number of resolution attempts started",
		}),
		ResolutionsByOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Total number of finished resolutions by status and stage",
		}, []string{"status", "via"}),
		ResolutionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolution_duration_seconds",
			Help:      "Duration of resolution attempts in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		CandidatesScored: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "candidates_scored",
			Help:      "Number of article candidates scored per matching run",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
		}),
		MatchSimilarity: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_similarity",
			Help:      "Best abstract similarity per matching run",
			Buckets:   []float64{0.1, 0.3, 0.5, 0.7, 0.8, 0.85, 0.9, 0.95, 0.99},
		}),
		SourceRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Total number of requests to external sources",
		}, []string{"source", "endpoint"}),
		SourceRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_failed_total",
			Help:      "Total number of failed requests to external sources",
		}, []string{"source", "endpoint", "error_type"}),
		SourceRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "Duration of requests to external sources in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source", "endpoint"}),
	}
}

// RecordResolutionStarted records that a resolution attempt has started.
func (m *Metrics) RecordResolutionStarted() {
	if m == nil {
		return
	}
	m.ResolutionsStarted.Inc()
}

// RecordResolutionFinished records a finished resolution with its
// terminal status, producing stage (empty for non-found outcomes), and
// duration.
func (m *Metrics) RecordResolutionFinished(status, via string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.ResolutionsByOutcome.WithLabelValues(status, via).Inc()
	m.ResolutionDuration.Observe(durationSeconds)
}

// RecordMatchingRun records the candidate count and best similarity of
// one fallback-matching run.
func (m *Metrics) RecordMatchingRun(candidates int, bestSimilarity float64) {
	if m == nil {
		return
	}
	m.CandidatesScored.Observe(float64(candidates))
	m.MatchSimilarity.Observe(bestSimilarity)
}

// RecordSourceRequest records a request to an external source.
func (m *Metrics) RecordSourceRequest(source, endpoint string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.SourceRequestsTotal.WithLabelValues(source, endpoint).Inc()
	m.SourceRequestDuration.WithLabelValues(source, endpoint).Observe(durationSeconds)
}

// RecordSourceRequestFailed records a failed request to an external source.
func (m *Metrics) RecordSourceRequestFailed(source, endpoint, errorType string) {
	if m == nil {
		return
	}
	m.SourceRequestsFailed.WithLabelValues(source, endpoint, errorType).Inc()
}
