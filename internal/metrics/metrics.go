// Package metrics exposes prometheus instrumentation for the review
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReviewsTotal counts reviews by kind and outcome.
	ReviewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewbridge_reviews_total",
		Help: "The total number of reviews handled",
	}, []string{"kind", "outcome"}) // outcome: success, error

	// ReviewDuration measures end-to-end review handling time.
	ReviewDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reviewbridge_review_duration_seconds",
		Help:    "Time taken to complete a review",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	// ChunksReviewed observes how many chunks each diff review needed.
	ChunksReviewed = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reviewbridge_chunks_reviewed",
		Help:    "Number of chunks per diff review",
		Buckets: []float64{1, 2, 3, 4, 6, 8, 12, 16},
	})

	// TurnsTotal counts reviewer model turns by status.
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewbridge_codex_turns_total",
		Help: "The total number of reviewer model turns issued",
	}, []string{"status"}) // status: ok, invalid, timeout, error
)
