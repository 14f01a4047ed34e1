package port

import (
	"context"

	"verdant/internal/service/order/domain"
)

// OrderListCache is a short-TTL read cache for a customer's order list. The
// store stays authoritative; writes invalidate the customer's entry.
type OrderListCache interface {
	GetOrders(ctx context.Context, customerID string) ([]*domain.Order, bool)
	SetOrders(ctx context.Context, customerID string, orders []*domain.Order)
	Invalidate(ctx context.Context, customerID string)
}
