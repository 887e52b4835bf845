package retention

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sweepRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retention_sweep_runs_total",
			Help: "Scheduled retention sweeps by status",
		},
		[]string{"status"},
	)

	messagesDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "retention_messages_deleted_total",
			Help: "Messages removed by the retention sweeper",
		},
	)

	failedContainersTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "retention_failed_containers_total",
			Help: "Conversations whose sweep failed",
		},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "retention_sweep_duration_seconds",
			Help:    "Wall time of one retention sweep",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
	)
)

func recordSweep(res SweepResult, err error) {
	status := "success"
	switch {
	case err != nil:
		status = "error"
	case res.FailedContainers > 0:
		status = "partial"
	}
	sweepRunsTotal.WithLabelValues(status).Inc()
	messagesDeletedTotal.Add(float64(res.Deleted))
	failedContainersTotal.Add(float64(res.FailedContainers))
	sweepDuration.Observe(res.Duration.Seconds())
}
