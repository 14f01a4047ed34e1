package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that carry no extra data. Callers classify
// with errors.Is; the HTTP layer maps each to a stable error code.
var (
	ErrUnauthenticated        = errors.New("caller is not authenticated")
	ErrUnauthorized           = errors.New("caller does not own this resource")
	ErrOrderNotFound          = errors.New("order not found")
	ErrInvalidStateTransition = errors.New("illegal order status transition")

	// ErrTxConflict marks a store-level locking conflict. It is the only
	// retryable error in the taxonomy.
	ErrTxConflict = errors.New("transaction conflict")
)

// ValidationError rejects malformed input before any store access.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + e.Reason
}

// ProductNotFoundError aborts a placement when a cart line references an
// unknown product.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InsufficientStockError aborts a placement when live stock cannot cover the
// requested quantity. Available is the stock observed inside the transaction.
type InsufficientStockError struct {
	ProductID string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: %d available", e.ProductID, e.Available)
}

// PartialCompensationError reports a cancellation whose inventory restore and
// main-order update committed but whose vendor sub-order pass did not. The
// customer-visible invariant held, so callers treat this as a warning; the
// reconciler sweep finishes the sub-order side.
type PartialCompensationError struct {
	OrderID string
	Cause   error
}

func (e *PartialCompensationError) Error() string {
	return fmt.Sprintf("order %s cancelled, sub-order update pending: %v", e.OrderID, e.Cause)
}

func (e *PartialCompensationError) Unwrap() error { return e.Cause }
