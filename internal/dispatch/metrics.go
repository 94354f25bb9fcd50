package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sendAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exreport_send_attempts_total",
			Help: "Total number of report send attempts by method and result",
		},
		[]string{"method", "result"},
	)
	reportBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "exreport_build_duration_seconds",
			Help:    "Duration of report assembly in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
	)
	tempFilesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "exreport_temp_files_removed_total",
			Help: "Total number of temporary report files removed on close",
		},
	)
)
