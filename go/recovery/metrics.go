package recovery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var processedCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "recall_recovery_orders_processed_total",
	Help: "counter of orders examined by the recovery pass",
})

var actionCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "recall_recovery_actions_total",
	Help: "counter of recovery actions applied, by action",
}, []string{"action"})

var erroredCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "recall_recovery_orders_errored_total",
	Help: "counter of orders whose recovery failed and was skipped",
})

var discardedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "recall_recovery_entries_discarded_total",
	Help: "counter of log entries discarded for falling after the replay bookmark, by stream",
}, []string{"stream"})

var dfdPublishedCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "recall_recovery_dfd_requests_total",
	Help: "counter of compensating done-for-day requests published",
})
