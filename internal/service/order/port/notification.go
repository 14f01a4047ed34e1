package port

import (
	"context"

	"verdant/internal/service/order/domain"
)

// OrderEventProducer publishes lifecycle events after a transaction commits.
// Publishing is best-effort: a failed publish never fails the operation that
// already committed.
type OrderEventProducer interface {
	OrderPlaced(ctx context.Context, order *domain.Order) error
	OrderCancelled(ctx context.Context, order *domain.Order) error
}
