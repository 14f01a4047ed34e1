package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	"verdant/internal/pkg/logger"
	"verdant/internal/pkg/redis"
	"verdant/internal/service/order/domain"
)

const orderListTTL = 30 * time.Second

// OrderListCacheAdapter caches a customer's order list in redis for a short
// TTL. Cache failures degrade to store reads, never to errors.
type OrderListCacheAdapter struct {
	client *redis.Client
}

func NewOrderListCacheAdapter(client *redis.Client) *OrderListCacheAdapter {
	return &OrderListCacheAdapter{client: client}
}

func orderListKey(customerID string) string {
	return "orders:customer:" + customerID
}

func (a *OrderListCacheAdapter) GetOrders(ctx context.Context, customerID string) ([]*domain.Order, bool) {
	raw, ok, err := a.client.Get(ctx, orderListKey(customerID))
	if err != nil || !ok {
		return nil, false
	}
	var orders []*domain.Order
	if err := json.Unmarshal([]byte(raw), &orders); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("corrupt order list cache entry, dropping")
		_ = a.client.Del(ctx, orderListKey(customerID))
		return nil, false
	}
	return orders, true
}

func (a *OrderListCacheAdapter) SetOrders(ctx context.Context, customerID string, orders []*domain.Order) {
	payload, err := json.Marshal(orders)
	if err != nil {
		return
	}
	if err := a.client.Set(ctx, orderListKey(customerID), string(payload), orderListTTL); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("order list cache write failed")
	}
}

func (a *OrderListCacheAdapter) Invalidate(ctx context.Context, customerID string) {
	if err := a.client.Del(ctx, orderListKey(customerID)); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("order list cache invalidation failed")
	}
}
