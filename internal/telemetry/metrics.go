// Package telemetry defines the Prometheus metrics exposed by the storefront
// client core. It is the single source of truth for metric names, labels, and
// help strings. Metrics register with the default registry at package init;
// embedding applications expose them however they expose the rest of their
// metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

// StreamEventsAppliedTotal counts status-update events merged into the order
// list.
var StreamEventsAppliedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stream_events_applied_total",
		Help:      "Total number of order status events applied to the local list.",
	},
)

// StreamEventsDroppedTotal counts events discarded without touching state.
// Label:
//   - reason: "unknown_order", "inactive", or "malformed"
var StreamEventsDroppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stream_events_dropped_total",
		Help:      "Total number of order status events dropped, by reason.",
	},
	[]string{"reason"},
)

// OrderFetchesTotal counts order list fetch attempts.
// Label:
//   - result: "success", "error", or "stale" (completed after deactivation)
var OrderFetchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_fetches_total",
		Help:      "Total number of order list fetches, by result.",
	},
	[]string{"result"},
)

// SignInsTotal counts authentication attempts that reached the gateway.
// Label:
//   - result: "success" or "failure"
var SignInsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sign_ins_total",
		Help:      "Total number of gateway authentication attempts, by result.",
	},
	[]string{"result"},
)
