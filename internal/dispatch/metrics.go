package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type dispatchMetrics struct {
	notificationReceivedCounter prometheus.Counter
	notificationDroppedCounter  prometheus.Counter
	debounceSuppressedCounter   prometheus.Counter
	targetSkippedCounter        *prometheus.CounterVec
	reconcileOutcomeCounter     *prometheus.CounterVec
}

func newDispatchMetrics() *dispatchMetrics {
	metrics := new(dispatchMetrics)

	metrics.notificationReceivedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scim_connector_notification_received_count",
		Help: "The number of lifecycle notifications received",
	})

	metrics.notificationDroppedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scim_connector_notification_dropped_count",
		Help: "The number of lifecycle notifications dropped as unclassifiable or uninteresting",
	})

	metrics.debounceSuppressedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scim_connector_debounce_suppressed_count",
		Help: "The number of notifications suppressed by the debounce window",
	})

	metrics.targetSkippedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scim_connector_target_skipped_count",
		Help: "The number of per-target dispatches skipped, per reason",
	}, []string{"reason"})

	metrics.reconcileOutcomeCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scim_connector_reconcile_outcome_count",
		Help: "The number of reconciliation passes, per outcome",
	}, []string{"outcome"})

	return metrics
}

var (
	metrics = newDispatchMetrics()
)
