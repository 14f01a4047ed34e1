package domain

import "context"

// Tx is the set of operations available inside one store transaction. Either
// every write issued through a Tx commits or none does. Product and order
// reads acquire row locks, so stock observed through ProductForUpdate cannot
// be changed by a concurrent writer before this transaction finishes.
type Tx interface {
	// ProductForUpdate reads and locks one inventory record. Returns
	// *ProductNotFoundError when the id is unknown.
	ProductForUpdate(ctx context.Context, productID string) (*Product, error)

	// UpdateProductStock writes an absolute stock value for a product already
	// locked in this transaction.
	UpdateProductStock(ctx context.Context, productID string, stock int) error

	// OrderForUpdate reads and locks one order row. Returns ErrOrderNotFound
	// when the id is unknown.
	OrderForUpdate(ctx context.Context, orderID string) (*Order, error)

	CreateOrder(ctx context.Context, order *Order) error
	CreateSubOrders(ctx context.Context, subOrders []*VendorSubOrder) error
	UpdateOrderStatus(ctx context.Context, orderID string, status Status, paymentStatus PaymentStatus) error
}

// Store is the persistence port of the order engine, implemented by the gorm
// repository. InTx runs fn inside a single transaction; a retryable store
// conflict surfaces as an error matching ErrTxConflict.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error

	FindOrderByID(ctx context.Context, orderID string) (*Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID string) ([]*Order, error)
	FindSubOrdersByMainOrder(ctx context.Context, mainOrderID string) ([]*VendorSubOrder, error)

	// CancelSubOrders batch-updates every sub-order of mainOrderID to
	// CANCELLED outside any transaction. Idempotent: already-cancelled rows
	// are untouched. Returns the number of rows changed.
	CancelSubOrders(ctx context.Context, mainOrderID string) (int, error)

	// FindOrdersWithStaleSubOrders lists CANCELLED main orders that still
	// have at least one non-cancelled sub-order, oldest first. The
	// reconciliation sweep drives CancelSubOrders from this set.
	FindOrdersWithStaleSubOrders(ctx context.Context, limit int) ([]string, error)
}
