package application

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"verdant/internal/pkg/logger"
	"verdant/internal/pkg/metrics"
	"verdant/internal/service/order/domain"
)

// Reconciler re-drives the non-atomic half of cancellation: it finds
// CANCELLED main orders whose vendor sub-orders were left behind by a failed
// phase-2 pass and applies the idempotent batch cancel again. One instance
// runs at a time, guarded by a zookeeper lock in cmd/reconciler.
type Reconciler struct {
	store     domain.Store
	tracer    trace.Tracer
	batchSize int
	parallel  int
}

// NewReconciler builds a sweep over batches of batchSize stale orders.
func NewReconciler(store domain.Store, tracer trace.Tracer, batchSize int) *Reconciler {
	if batchSize < 1 {
		batchSize = 100
	}
	return &Reconciler{store: store, tracer: tracer, batchSize: batchSize, parallel: 8}
}

// Sweep performs one reconciliation pass and reports how many sub-order rows
// it cancelled. A sweep that finds nothing is the steady state.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	ctx, span := r.tracer.Start(ctx, "reconciler.Sweep")
	defer span.End()

	orderIDs, err := r.store.FindOrdersWithStaleSubOrders(ctx, r.batchSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stale sub-order query failed")
		return 0, err
	}
	span.SetAttributes(attribute.Int("stale.orders", len(orderIDs)))
	if len(orderIDs) == 0 {
		return 0, nil
	}

	var total int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallel)
	results := make([]int, len(orderIDs))
	for i, orderID := range orderIDs {
		i, orderID := i, orderID
		g.Go(func() error {
			n, err := r.store.CancelSubOrders(gctx, orderID)
			if err != nil {
				logger.Ctx(gctx).Error().Err(err).Str("order_id", orderID).Msg("reconcile failed for order")
				return err
			}
			results[i] = n
			return nil
		})
	}
	err = g.Wait()
	for _, n := range results {
		total += int64(n)
	}
	if total > 0 {
		metrics.ReconciledSubOrders.Add(float64(total))
		logger.Ctx(ctx).Info().Int64("suborders", total).Int("orders", len(orderIDs)).Msg("reconciled stale sub-orders")
	}
	return int(total), err
}
