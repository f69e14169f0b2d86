package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sceneseg_jobs_processed_total",
		Help: "Total number of segmentation jobs processed, by status",
	}, []string{"status"})

	JobProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sceneseg_job_processing_duration_seconds",
		Help:    "Duration of the scene segmentation pipeline",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
	}, []string{"stage"})

	FramesEnrichedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sceneseg_frames_enriched_total",
		Help: "Total number of frames enriched with similarity scores",
	})

	ScenesDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sceneseg_scenes_detected_total",
		Help: "Total number of scene boundaries detected across all jobs",
	})

	SkipFramesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sceneseg_skip_frames_total",
		Help: "Total number of frames with undefined adjacent similarity",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sceneseg_active_workers",
		Help: "Number of currently active workers processing jobs",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sceneseg_retry_total",
		Help: "Total number of retries",
	}, []string{"attempt"})
)
