// Package metrics provides Prometheus metrics for the insights dashboard.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"insights-dashboard/internal/dashboard"
	apperrors "insights-dashboard/internal/errors"
)

const namespace = "insights"

// Error kinds used as the "kind" label of FeedErrorsTotal.
const (
	KindSubscription = "subscription"
	KindMapping      = "mapping"
)

var (
	// SnapshotsTotal counts snapshots received from the live query.
	SnapshotsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_total",
			Help:      "Total number of snapshots received",
		},
	)

	// FeedErrorsTotal counts feed failures by kind.
	FeedErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_errors_total",
			Help:      "Total number of feed failures",
		},
		[]string{"kind"},
	)

	// RecordsShown is the number of insights currently displayed.
	RecordsShown = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_shown",
			Help:      "Number of insights currently displayed",
		},
	)

	// Viewers is the number of connected live viewers.
	Viewers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sse_viewers",
			Help:      "Number of connected live viewers",
		},
	)

	// RequestDuration measures HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "status"},
	)
)

// RecordState updates the feed metrics from a newly published state.
func RecordState(state dashboard.State) {
	switch state.Phase {
	case dashboard.PhaseReady:
		SnapshotsTotal.Inc()
		RecordsShown.Set(float64(len(state.Records)))
	case dashboard.PhaseError:
		RecordsShown.Set(0)
		var mapErr *apperrors.MappingError
		if apperrors.As(state.Err, &mapErr) {
			SnapshotsTotal.Inc()
			FeedErrorsTotal.WithLabelValues(KindMapping).Inc()
			return
		}
		FeedErrorsTotal.WithLabelValues(KindSubscription).Inc()
	}
}

// ViewerConnected increments the viewer gauge.
func ViewerConnected() {
	Viewers.Inc()
}

// ViewerDisconnected decrements the viewer gauge.
func ViewerDisconnected() {
	Viewers.Dec()
}

// RecordRequest records a served HTTP request.
func RecordRequest(route, status string, seconds float64) {
	RequestDuration.WithLabelValues(route, status).Observe(seconds)
}
