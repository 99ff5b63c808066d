// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 订单服务的业务指标。routing 之类的标签值来自静态拓扑表，基数是有界的。
var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_service_orders_created_total",
		Help: "Number of orders successfully created.",
	})

	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_service_status_transitions_total",
		Help: "Number of accepted order status transitions.",
	}, []string{"from", "to"})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_service_events_published_total",
		Help: "Number of order events handed to the message bus.",
	}, []string{"type"})

	EventPublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_service_event_publish_failures_total",
		Help: "Number of order events that could not be published.",
	}, []string{"type"})

	GatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_service_gateway_request_duration_seconds",
		Help:    "Latency of synchronous calls to the product and user services.",
		Buckets: prometheus.DefBuckets,
	}, []string{"gateway", "operation"})
)
