package dispatch

import (
	"github.com/go-chat-push/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_dispatch_total",
			Help: "Dispatches by kind and terminal state",
		},
		[]string{"kind", "state"},
	)

	outcomeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_transport_outcome_total",
			Help: "Per-target transport outcomes by dispatch kind and failure kind",
		},
		[]string{"kind", "failure"},
	)

	tokensClearedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "push_tokens_cleared_total",
			Help: "Delivery tokens removed after an invalid-target outcome",
		},
	)

	broadcastBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "push_broadcast_batch_tokens",
			Help:    "Tokens per multicast batch",
			Buckets: []float64{1, 10, 50, 100, 250, 500, 1000},
		},
	)
)

func recordDispatch(kind string, state domain.DispatchState) {
	dispatchTotal.WithLabelValues(kind, string(state)).Inc()
}

func recordOutcome(kind string, out domain.Outcome) {
	outcomeTotal.WithLabelValues(kind, string(out.Failure)).Inc()
}

func recordTokenCleared() {
	tokensClearedTotal.Inc()
}

func recordBroadcastRecipients(n int) {
	broadcastBatchSize.Observe(float64(n))
}
