package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsTotal processed jobs by result (live, failed, retried, parked, duplicate, malformed)
	JobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clip",
		Subsystem: "pipeline",
		Name:      "jobs_total",
		Help:      "Processing jobs handled by result.",
	}, []string{"result"})

	// JobDuration whole job wall time
	JobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "clip",
		Subsystem: "pipeline",
		Name:      "job_duration_seconds",
		Help:      "Wall time of one processing attempt.",
		Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
	})

	// StepDuration per pipeline step wall time
	StepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "clip",
		Subsystem: "pipeline",
		Name:      "step_duration_seconds",
		Help:      "Wall time of each pipeline step.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 13),
	}, []string{"step", "result"})

	// ThumbnailSource which source produced the thumbnail ("none" when every source failed)
	ThumbnailSource = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clip",
		Subsystem: "pipeline",
		Name:      "thumbnail_source_total",
		Help:      "Thumbnails produced per source.",
	}, []string{"source"})

	// TrendingRuns trending engine runs by result (success, failed, skipped)
	TrendingRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clip",
		Subsystem: "trending",
		Name:      "runs_total",
		Help:      "Trending recompute runs by result.",
	}, []string{"result"})

	// TrendingItems items ranked by the last successful run
	TrendingItems = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "clip",
		Subsystem: "trending",
		Name:      "ranked_items",
		Help:      "Items ranked by the last successful run.",
	})

	// TrendingDuration trending run wall time
	TrendingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "clip",
		Subsystem: "trending",
		Name:      "run_duration_seconds",
		Help:      "Wall time of one trending recompute.",
		Buckets:   prometheus.DefBuckets,
	})
)
