package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		ok   bool
	}{
		{"pending to confirmed", StatusPending, StatusConfirmed, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"confirmed to processing", StatusConfirmed, StatusProcessing, true},
		{"processing to shipped", StatusProcessing, StatusShipped, true},
		{"shipped to out for delivery", StatusShipped, StatusOutForDelivery, true},
		{"out for delivery to delivered", StatusOutForDelivery, StatusDelivered, true},
		{"delivered to returned", StatusDelivered, StatusReturned, true},
		{"confirmed to cancelled rejected", StatusConfirmed, StatusCancelled, false},
		{"shipped to cancelled rejected", StatusShipped, StatusCancelled, false},
		{"delivered to cancelled rejected", StatusDelivered, StatusCancelled, false},
		{"pending skipping to shipped rejected", StatusPending, StatusShipped, false},
		{"delivered back to pending rejected", StatusDelivered, StatusPending, false},
		{"cancelled is terminal", StatusCancelled, StatusConfirmed, false},
		{"returned is terminal", StatusReturned, StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusReturned.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusDelivered.Terminal())
}

func TestOrderCancelGuard(t *testing.T) {
	order := &Order{Status: StatusPending, PaymentStatus: PaymentPending}
	assert.NoError(t, order.Cancel())
	assert.Equal(t, StatusCancelled, order.Status)
	assert.Equal(t, PaymentRefunded, order.PaymentStatus)

	shipped := &Order{Status: StatusShipped, PaymentStatus: PaymentPending}
	assert.ErrorIs(t, shipped.Cancel(), ErrInvalidStateTransition)
	assert.Equal(t, StatusShipped, shipped.Status)
	assert.Equal(t, PaymentPending, shipped.PaymentStatus)
}
