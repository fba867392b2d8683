package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Provisioning pipeline metrics, incremented by the job runner.
var (
	JobsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "provisioner_jobs_started_total",
		Help: "Total provisioning jobs started",
	})

	JobsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "provisioner_jobs_completed_total",
		Help: "Total provisioning jobs that reached completed",
	})

	JobsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "provisioner_jobs_failed_total",
		Help: "Total provisioning jobs that reached failed, by failing step",
	}, []string{"step"})

	JobsInflight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "provisioner_jobs_inflight",
		Help: "Provisioning jobs currently running",
	})

	StepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "provisioner_step_duration_seconds",
		Help:    "Duration of individual pipeline steps",
		Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"step", "status"})
)
