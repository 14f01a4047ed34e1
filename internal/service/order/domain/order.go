package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus tracks the opaque payment reconciliation state. Capture and
// settlement live outside this service; we only record the method string.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// ShippingAddress is an opaque value object copied from the address
// collaborator onto the order.
type ShippingAddress struct {
	Line1      string
	Line2      string
	City       string
	PostalCode string
	Country    string
}

// OrderLineItem is one priced line of a committed order. Immutable after
// creation; UnitPrice is always the live inventory price read inside the
// placement transaction, never a client-supplied figure.
type OrderLineItem struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	LineTotal decimal.Decimal
	VendorID  string
}

// Order is the customer-facing aggregate root and the single source of truth
// for status and totals. Vendor sub-orders are a derived projection.
type Order struct {
	ID              string
	CustomerID      string
	Items           []OrderLineItem
	Status          Status
	Total           decimal.Decimal
	ShippingAddress ShippingAddress
	PaymentMethod   string
	PaymentStatus   PaymentStatus
	CreatedAt       time.Time
}

// Cancel moves the order to CANCELLED. Only a PENDING order may be cancelled;
// anything further along belongs to fulfillment and is rejected, not ignored.
func (o *Order) Cancel() error {
	if !o.Status.CanTransitionTo(StatusCancelled) {
		return ErrInvalidStateTransition
	}
	o.Status = StatusCancelled
	o.PaymentStatus = PaymentRefunded
	return nil
}

// OwnedBy reports whether customerID is the order's owner.
func (o *Order) OwnedBy(customerID string) bool {
	return o.CustomerID == customerID
}

// VendorSubOrder is the vendor-scoped partition of an order used for
// fulfillment routing. MainOrderID is a lookup reference, not an ownership
// edge; status here may transiently lag the main order after a cancellation.
type VendorSubOrder struct {
	ID          string
	MainOrderID string
	VendorID    string
	Items       []OrderLineItem
	Total       decimal.Decimal
	Status      Status
}
