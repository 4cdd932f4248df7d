package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RemoteAttempts counts every invocation of a retryable remote operation
	RemoteAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postergen_remote_attempts_total",
			Help: "Total number of remote operation attempts",
		},
		[]string{"operation", "outcome"},
	)

	// ClassifiedFailures counts failures by classified kind
	ClassifiedFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postergen_classified_failures_total",
			Help: "Total number of classified remote failures",
		},
		[]string{"operation", "kind"},
	)

	// RetryWait tracks backoff waits issued by the retry executor
	RetryWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postergen_retry_wait_seconds",
			Help:    "Backoff wait before a retried attempt",
			Buckets: []float64{1, 3, 7, 15, 31, 63},
		},
		[]string{"operation"},
	)

	// VideoPolls counts video job polls by outcome
	VideoPolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postergen_video_polls_total",
			Help: "Total number of video job polls",
		},
		[]string{"outcome"},
	)

	// ImageFallbacks counts sessions that continued without a generated image
	ImageFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "postergen_image_fallbacks_total",
			Help: "Total number of sessions that proceeded without a generated background image",
		},
	)

	// GenerationDuration tracks end-to-end pipeline latency
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postergen_generation_duration_seconds",
			Help:    "Wall-clock duration of a generation pipeline",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 900},
		},
		[]string{"pipeline", "outcome"},
	)
)
