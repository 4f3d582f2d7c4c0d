// internal/common/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	ConciergeResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_resolutions_total",
			Help: "Resolved queries by winning stage and action",
		},
		[]string{"stage", "action"},
	)

	ConciergeStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "concierge_stage_duration_seconds",
			Help:    "Time spent in each resolution stage",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 2.5, 5, 10},
		},
		[]string{"stage"},
	)

	ConciergeBridgeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_bridge_failures_total",
			Help: "LLM bridge calls that produced no result",
		},
		[]string{"bridge", "reason"},
	)

	ConciergeContextTopicFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_context_topic_fetch_total",
			Help: "App context topic fetches by result (cache_hit, fetched, failed)",
		},
		[]string{"topic", "result"},
	)
)

func ObserveStage(stage string, started time.Time) {
	ConciergeStageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
}

func RecordResolution(stage, action string) {
	ConciergeResolutions.WithLabelValues(stage, action).Inc()
}

func RecordBridgeFailure(bridge, reason string) {
	ConciergeBridgeFailures.WithLabelValues(bridge, reason).Inc()
}

func RecordTopicFetch(topic, result string) {
	ConciergeContextTopicFetches.WithLabelValues(topic, result).Inc()
}
