package application

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"verdant/internal/pkg/logger"
	"verdant/internal/pkg/metrics"
	"verdant/internal/service/order/domain"
	"verdant/internal/service/order/port"
)

// OrderApplicationService orchestrates the order/inventory transaction
// engine. It holds no mutable state of its own; everything shared lives in
// the store, so one instance serves all request goroutines.
type OrderApplicationService struct {
	store  domain.Store
	events port.OrderEventProducer
	cache  port.OrderListCache
	tracer trace.Tracer

	maxAttempts  int
	retryBackoff time.Duration
}

// NewOrderApplicationService wires the engine. events and cache may be nil in
// tests; maxAttempts bounds conflict retries per operation.
func NewOrderApplicationService(store domain.Store, events port.OrderEventProducer, cache port.OrderListCache, tracer trace.Tracer, maxAttempts int) *OrderApplicationService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &OrderApplicationService{
		store:        store,
		events:       events,
		cache:        cache,
		tracer:       tracer,
		maxAttempts:  maxAttempts,
		retryBackoff: 50 * time.Millisecond,
	}
}

// PlaceOrder turns a cart into a committed order plus vendor sub-orders in
// one store transaction: every line's stock is read and decremented under a
// row lock, lines are priced from the live record, and the order with its
// sub-orders lands in the same commit. Any validation failure aborts the
// whole transaction with no partial effect.
func (s *OrderApplicationService) PlaceOrder(ctx context.Context, customerID string, req *PlaceOrderRequest) (*PlaceOrderResponse, error) {
	ctx, span := s.tracer.Start(ctx, "app.PlaceOrder")
	defer span.End()
	start := time.Now()

	if customerID == "" {
		return nil, domain.ErrUnauthenticated
	}
	lines := make([]domain.CartLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, l.toDomain())
	}
	if err := domain.ValidateCart(lines); err != nil {
		span.SetStatus(codes.Error, "cart validation failed")
		metrics.PlacementRejected.WithLabelValues("validation").Inc()
		return nil, err
	}

	span.SetAttributes(
		attribute.String("customer.id", customerID),
		attribute.Int("cart.lines", len(lines)),
	)

	// Lock products in a stable order so two carts sharing products cannot
	// deadlock each other.
	locked := make([]int, len(lines))
	for i := range lines {
		locked[i] = i
	}
	sort.Slice(locked, func(a, b int) bool {
		return lines[locked[a]].ProductID < lines[locked[b]].ProductID
	})

	var order *domain.Order
	err := s.inTxWithRetry(ctx, func(tx domain.Tx) error {
		items := make([]domain.OrderLineItem, len(lines))
		for _, idx := range locked {
			line := lines[idx]
			product, err := tx.ProductForUpdate(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if product.Stock < line.Quantity {
				return &domain.InsufficientStockError{ProductID: product.ID, Available: product.Stock}
			}
			if err := tx.UpdateProductStock(ctx, product.ID, product.Stock-line.Quantity); err != nil {
				return err
			}
			items[idx] = domain.BuildLineItem(line, product)
		}

		var subOrders []*domain.VendorSubOrder
		order, subOrders = domain.BuildOrder(customerID, items, req.Address.toDomain(), req.PaymentMethod)
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		return tx.CreateSubOrders(ctx, subOrders)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "placement failed")
		s.countRejection(err)
		return nil, err
	}

	metrics.OrdersPlaced.Inc()
	metrics.PlaceOrderDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.String("order.id", order.ID))
	span.AddEvent("order committed")
	logger.Ctx(ctx).Info().
		Str("order_id", order.ID).
		Str("customer_id", customerID).
		Str("total", order.Total.StringFixed(2)).
		Msg("order placed")

	s.invalidateCache(ctx, customerID)
	if s.events != nil {
		if err := s.events.OrderPlaced(ctx, order); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("order_id", order.ID).Msg("failed to publish OrderPlaced")
		}
	}

	return &PlaceOrderResponse{OrderID: order.ID, Status: order.Status, Total: order.Total.StringFixed(2)}, nil
}

// CancelOrder reverses a PENDING order. Phase 1 is one transaction: the order
// row is locked, its status re-checked and set to CANCELLED, and every line's
// quantity is added back to stock. Phase 2 cancels the vendor sub-orders
// outside that transaction; if it fails the operation still counts as a
// cancellation and the reconciler finishes the sub-order side later.
func (s *OrderApplicationService) CancelOrder(ctx context.Context, customerID, orderID string) error {
	ctx, span := s.tracer.Start(ctx, "app.CancelOrder")
	defer span.End()

	if customerID == "" {
		return domain.ErrUnauthenticated
	}
	span.SetAttributes(
		attribute.String("customer.id", customerID),
		attribute.String("order.id", orderID),
	)

	var cancelled *domain.Order
	err := s.inTxWithRetry(ctx, func(tx domain.Tx) error {
		order, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.OwnedBy(customerID) {
			return domain.ErrUnauthorized
		}
		if err := order.Cancel(); err != nil {
			return err
		}
		if err := tx.UpdateOrderStatus(ctx, order.ID, order.Status, order.PaymentStatus); err != nil {
			return err
		}

		// Same stable lock order as placement.
		items := make([]domain.OrderLineItem, len(order.Items))
		copy(items, order.Items)
		sort.Slice(items, func(a, b int) bool { return items[a].ProductID < items[b].ProductID })
		for _, item := range items {
			product, err := tx.ProductForUpdate(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if err := tx.UpdateProductStock(ctx, product.ID, product.Stock+item.Quantity); err != nil {
				return err
			}
		}
		cancelled = order
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancellation failed")
		return err
	}

	metrics.OrdersCancelled.Inc()
	span.AddEvent("inventory restored, order cancelled")
	s.invalidateCache(ctx, customerID)
	if s.events != nil {
		if err := s.events.OrderCancelled(ctx, cancelled); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("order_id", orderID).Msg("failed to publish OrderCancelled")
		}
	}

	// Phase 2: derived sub-order projection, explicitly outside phase 1's
	// transaction. Stock and the main order are already the source of truth.
	if _, err := s.store.CancelSubOrders(ctx, orderID); err != nil {
		metrics.PartialCompensations.Inc()
		span.AddEvent("sub-order cancellation deferred to reconciler")
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", orderID).Msg("sub-order cancellation deferred")
		return &domain.PartialCompensationError{OrderID: orderID, Cause: err}
	}

	logger.Ctx(ctx).Info().Str("order_id", orderID).Msg("order cancelled")
	return nil
}

// ListOrders returns the caller's orders, newest first. The filter runs in
// the store, never client-side, so a partial read can't leak someone else's
// orders.
func (s *OrderApplicationService) ListOrders(ctx context.Context, customerID string) ([]OrderView, error) {
	ctx, span := s.tracer.Start(ctx, "app.ListOrders")
	defer span.End()

	if customerID == "" {
		return nil, domain.ErrUnauthenticated
	}

	var orders []*domain.Order
	if s.cache != nil {
		if cached, ok := s.cache.GetOrders(ctx, customerID); ok {
			span.AddEvent("order list served from cache")
			orders = cached
		}
	}
	if orders == nil {
		var err error
		orders, err = s.store.ListOrdersByCustomer(ctx, customerID)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if s.cache != nil {
			s.cache.SetOrders(ctx, customerID, orders)
		}
	}

	views := make([]OrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, ToOrderView(order))
	}
	return views, nil
}

// GetOrder returns one order after an ownership check that fails closed: a
// foreign order id yields Unauthorized, never the order's contents.
func (s *OrderApplicationService) GetOrder(ctx context.Context, customerID, orderID string) (*OrderView, error) {
	ctx, span := s.tracer.Start(ctx, "app.GetOrder")
	defer span.End()

	if customerID == "" {
		return nil, domain.ErrUnauthenticated
	}
	order, err := s.store.FindOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(customerID) {
		return nil, domain.ErrUnauthorized
	}
	view := ToOrderView(order)
	return &view, nil
}

// inTxWithRetry runs fn in a store transaction, retrying only on the
// retryable conflict class with linear backoff. Validation and authorization
// failures surface immediately.
func (s *OrderApplicationService) inTxWithRetry(ctx context.Context, fn func(tx domain.Tx) error) error {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = s.store.InTx(ctx, fn)
		if err == nil || !errors.Is(err, domain.ErrTxConflict) {
			return err
		}
		metrics.TxConflictRetries.Inc()
		logger.Ctx(ctx).Warn().Int("attempt", attempt).Msg("transaction conflict, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * s.retryBackoff):
		}
	}
	return err
}

func (s *OrderApplicationService) invalidateCache(ctx context.Context, customerID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, customerID)
	}
}

func (s *OrderApplicationService) countRejection(err error) {
	var insufficient *domain.InsufficientStockError
	var notFound *domain.ProductNotFoundError
	switch {
	case errors.As(err, &insufficient):
		metrics.PlacementRejected.WithLabelValues("insufficient_stock").Inc()
	case errors.As(err, &notFound):
		metrics.PlacementRejected.WithLabelValues("product_not_found").Inc()
	case errors.Is(err, domain.ErrTxConflict):
		metrics.PlacementRejected.WithLabelValues("conflict").Inc()
	}
}
