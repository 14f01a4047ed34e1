package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"verdant/internal/pkg/mq"
	"verdant/internal/service/order/domain"
)

// Event types carried on the order events topic.
const (
	EventOrderPlaced    = "ORDER_PLACED"
	EventOrderCancelled = "ORDER_CANCELLED"
)

// OrderEvent is the wire shape consumed by the push gateway and any vendor
// fulfillment listener.
type OrderEvent struct {
	Type       string        `json:"type"`
	OrderID    string        `json:"orderId"`
	CustomerID string        `json:"customerId"`
	Status     domain.Status `json:"status"`
	Total      string        `json:"total"`
	OccurredAt time.Time     `json:"occurredAt"`
}

// OrderEventAdapter publishes order lifecycle events to kafka, keyed by
// customer id so one customer's events stay in partition order.
type OrderEventAdapter struct {
	writer *kafka.Writer
}

func NewOrderEventAdapter(writer *kafka.Writer) *OrderEventAdapter {
	return &OrderEventAdapter{writer: writer}
}

func (a *OrderEventAdapter) OrderPlaced(ctx context.Context, order *domain.Order) error {
	return a.publish(ctx, EventOrderPlaced, order)
}

func (a *OrderEventAdapter) OrderCancelled(ctx context.Context, order *domain.Order) error {
	return a.publish(ctx, EventOrderCancelled, order)
}

func (a *OrderEventAdapter) publish(ctx context.Context, eventType string, order *domain.Order) error {
	event := OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Status:     order.Status,
		Total:      order.Total.StringFixed(2),
		OccurredAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return mq.ProduceMessage(ctx, a.writer, []byte(order.CustomerID), payload)
}
