package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Order engine metrics, exposed on /metrics via promhttp.
var (
	OrdersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "verdant_orders_placed_total",
		Help: "Orders committed successfully.",
	})

	OrdersCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "verdant_orders_cancelled_total",
		Help: "Orders cancelled with inventory restored.",
	})

	PlacementRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "verdant_placement_rejected_total",
		Help: "Placements rejected before commit, by reason.",
	}, []string{"reason"})

	TxConflictRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "verdant_tx_conflict_retries_total",
		Help: "Store transaction conflicts retried.",
	})

	PartialCompensations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "verdant_partial_compensations_total",
		Help: "Cancellations whose sub-order pass was deferred to the reconciler.",
	})

	ReconciledSubOrders = promauto.NewCounter(prometheus.CounterOpts{
		Name: "verdant_reconciled_suborders_total",
		Help: "Sub-order rows cancelled by the reconciliation sweep.",
	})

	PlaceOrderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "verdant_place_order_duration_seconds",
		Help:    "End-to-end PlaceOrder latency including retries.",
		Buckets: prometheus.DefBuckets,
	})
)
