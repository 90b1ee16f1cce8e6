package scim

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type scimMetrics struct {
	requestCounter       *prometheus.CounterVec
	retryCounter         prometheus.Counter
	transportFailCounter prometheus.Counter
}

func newScimMetrics() *scimMetrics {
	metrics := new(scimMetrics)

	metrics.requestCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scim_connector_scim_request_count",
		Help: "The number of SCIM requests sent, per operation and status code",
	}, []string{"operation", "status"})

	metrics.retryCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scim_connector_scim_request_retry_count",
		Help: "The number of SCIM request attempts that were retried",
	})

	metrics.transportFailCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scim_connector_scim_transport_failure_count",
		Help: "The number of SCIM requests that exhausted their retries on network failures",
	})

	return metrics
}

var (
	metrics = newScimMetrics()
)
