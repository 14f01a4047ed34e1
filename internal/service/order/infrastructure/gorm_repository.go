package infrastructure

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"verdant/internal/service/order/domain"
)

// MySQL error numbers that mean "retry the whole transaction".
const (
	mysqlDeadlock        = 1213
	mysqlLockWaitTimeout = 1205
)

// GormStore implements domain.Store on gorm/MySQL. Row locks via
// SELECT ... FOR UPDATE supply the per-record serializability the engine
// relies on; deadlocks and lock-wait timeouts surface as the retryable
// conflict error.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// InTx runs fn inside one gorm transaction. All writes issued through the Tx
// commit together or not at all.
func (s *GormStore) InTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
	return classifyStoreError(err)
}

// classifyStoreError maps driver-level concurrency failures onto
// domain.ErrTxConflict and leaves domain errors untouched.
func classifyStoreError(err error) error {
	if err == nil {
		return nil
	}
	var mysqlErr *mysql.MySQLError
	if stderrors.As(err, &mysqlErr) {
		if mysqlErr.Number == mysqlDeadlock || mysqlErr.Number == mysqlLockWaitTimeout {
			return fmt.Errorf("%w: %v", domain.ErrTxConflict, err)
		}
	}
	return err
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) ProductForUpdate(ctx context.Context, productID string) (*domain.Product, error) {
	var model ProductModel
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", productID).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.ProductNotFoundError{ProductID: productID}
		}
		return nil, errors.Wrapf(err, "lock product %s", productID)
	}
	return toProductDomain(&model), nil
}

func (t *gormTx) UpdateProductStock(ctx context.Context, productID string, stock int) error {
	if stock < 0 {
		// The service validates before writing; this is the last line of
		// defense for the stock >= 0 invariant.
		return errors.Errorf("refusing to write negative stock %d for product %s", stock, productID)
	}
	res := t.db.WithContext(ctx).
		Model(&ProductModel{}).
		Where("id = ?", productID).
		Update("stock", stock)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "update stock for product %s", productID)
	}
	if res.RowsAffected == 0 {
		return &domain.ProductNotFoundError{ProductID: productID}
	}
	return nil
}

func (t *gormTx) OrderForUpdate(ctx context.Context, orderID string) (*domain.Order, error) {
	var model OrderModel
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", orderID).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, errors.Wrapf(err, "lock order %s", orderID)
	}
	items, err := t.loadItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return toOrderDomain(&model, items), nil
}

func (t *gormTx) CreateOrder(ctx context.Context, order *domain.Order) error {
	if err := t.db.WithContext(ctx).Create(toOrderModel(order)).Error; err != nil {
		return errors.Wrapf(err, "insert order %s", order.ID)
	}
	items := toItemModels(order)
	if len(items) == 0 {
		return nil
	}
	if err := t.db.WithContext(ctx).Create(items).Error; err != nil {
		return errors.Wrapf(err, "insert items for order %s", order.ID)
	}
	return nil
}

func (t *gormTx) CreateSubOrders(ctx context.Context, subOrders []*domain.VendorSubOrder) error {
	if len(subOrders) == 0 {
		return nil
	}
	models := make([]*VendorOrderModel, 0, len(subOrders))
	for _, sub := range subOrders {
		models = append(models, toVendorOrderModel(sub))
	}
	if err := t.db.WithContext(ctx).Create(models).Error; err != nil {
		return errors.Wrap(err, "insert vendor sub-orders")
	}
	return nil
}

func (t *gormTx) UpdateOrderStatus(ctx context.Context, orderID string, status domain.Status, paymentStatus domain.PaymentStatus) error {
	res := t.db.WithContext(ctx).
		Model(&OrderModel{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"status":         string(status),
			"payment_status": string(paymentStatus),
		})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "update status for order %s", orderID)
	}
	if res.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (t *gormTx) loadItems(ctx context.Context, orderID string) ([]*OrderItemModel, error) {
	var items []*OrderItemModel
	if err := t.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id").Find(&items).Error; err != nil {
		return nil, errors.Wrapf(err, "load items for order %s", orderID)
	}
	return items, nil
}

func (s *GormStore) FindOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	var model OrderModel
	err := s.db.WithContext(ctx).First(&model, "id = ?", orderID).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, errors.Wrapf(err, "find order %s", orderID)
	}
	var items []*OrderItemModel
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id").Find(&items).Error; err != nil {
		return nil, errors.Wrapf(err, "load items for order %s", orderID)
	}
	return toOrderDomain(&model, items), nil
}

func (s *GormStore) ListOrdersByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	var models []*OrderModel
	err := s.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list orders for customer %s", customerID)
	}
	if len(models) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	var items []*OrderItemModel
	if err := s.db.WithContext(ctx).Where("order_id IN ?", ids).Order("id").Find(&items).Error; err != nil {
		return nil, errors.Wrap(err, "load items for order list")
	}
	byOrder := make(map[string][]*OrderItemModel)
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}

	orders := make([]*domain.Order, 0, len(models))
	for _, m := range models {
		orders = append(orders, toOrderDomain(m, byOrder[m.ID]))
	}
	return orders, nil
}

func (s *GormStore) FindSubOrdersByMainOrder(ctx context.Context, mainOrderID string) ([]*domain.VendorSubOrder, error) {
	var models []*VendorOrderModel
	err := s.db.WithContext(ctx).
		Where("main_order_id = ?", mainOrderID).
		Order("vendor_id").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrapf(err, "find sub-orders of %s", mainOrderID)
	}
	var items []*OrderItemModel
	if err := s.db.WithContext(ctx).Where("order_id = ?", mainOrderID).Order("id").Find(&items).Error; err != nil {
		return nil, errors.Wrapf(err, "load items for order %s", mainOrderID)
	}
	subs := make([]*domain.VendorSubOrder, 0, len(models))
	for _, m := range models {
		subs = append(subs, toSubOrderDomain(m, items))
	}
	return subs, nil
}

// CancelSubOrders is the phase-2 batch write. Deliberately outside any
// transaction and idempotent: rows already CANCELLED are skipped, so the
// reconciler can re-run it safely.
func (s *GormStore) CancelSubOrders(ctx context.Context, mainOrderID string) (int, error) {
	res := s.db.WithContext(ctx).
		Model(&VendorOrderModel{}).
		Where("main_order_id = ? AND status <> ?", mainOrderID, string(domain.StatusCancelled)).
		Update("status", string(domain.StatusCancelled))
	if res.Error != nil {
		return 0, errors.Wrapf(res.Error, "cancel sub-orders of %s", mainOrderID)
	}
	return int(res.RowsAffected), nil
}

func (s *GormStore) FindOrdersWithStaleSubOrders(ctx context.Context, limit int) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Raw(`
		SELECT DISTINCT o.id
		FROM orders o
		JOIN vendor_orders v ON v.main_order_id = o.id
		WHERE o.status = ? AND v.status <> ?
		ORDER BY o.id
		LIMIT ?`,
		string(domain.StatusCancelled), string(domain.StatusCancelled), limit,
	).Scan(&ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "query stale sub-orders")
	}
	return ids, nil
}
