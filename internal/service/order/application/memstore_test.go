package application_test

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"verdant/internal/service/order/domain"
)

// memStore is an in-memory domain.Store with real transaction semantics:
// each InTx stages a deep copy of the state and commits it only when the
// callback succeeds, so aborted transactions leave no trace. A mutex
// serializes transactions the way row locks would.
type memStore struct {
	mu    sync.Mutex
	state memState
	seq   int

	// conflictsLeft makes the next N transactions fail with the retryable
	// conflict error before touching state.
	conflictsLeft int
	// failCancelSubOrders simulates a phase-2 outage.
	failCancelSubOrders bool
}

type memState struct {
	products  map[string]domain.Product
	orders    map[string]domain.Order
	orderSeq  map[string]int
	subOrders map[string]domain.VendorSubOrder
}

func newMemStore(products ...domain.Product) *memStore {
	s := &memStore{state: memState{
		products:  make(map[string]domain.Product),
		orders:    make(map[string]domain.Order),
		orderSeq:  make(map[string]int),
		subOrders: make(map[string]domain.VendorSubOrder),
	}}
	for _, p := range products {
		s.state.products[p.ID] = p
	}
	return s
}

func (st memState) clone() memState {
	next := memState{
		products:  make(map[string]domain.Product, len(st.products)),
		orders:    make(map[string]domain.Order, len(st.orders)),
		orderSeq:  make(map[string]int, len(st.orderSeq)),
		subOrders: make(map[string]domain.VendorSubOrder, len(st.subOrders)),
	}
	for k, v := range st.products {
		next.products[k] = v
	}
	for k, v := range st.orders {
		v.Items = append([]domain.OrderLineItem(nil), v.Items...)
		next.orders[k] = v
	}
	for k, v := range st.orderSeq {
		next.orderSeq[k] = v
	}
	for k, v := range st.subOrders {
		v.Items = append([]domain.OrderLineItem(nil), v.Items...)
		next.subOrders[k] = v
	}
	return next
}

func (s *memStore) InTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conflictsLeft > 0 {
		s.conflictsLeft--
		return fmt.Errorf("%w: simulated deadlock", domain.ErrTxConflict)
	}
	staged := s.state.clone()
	tx := &memTx{state: &staged, store: s}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = staged
	return nil
}

type memTx struct {
	state *memState
	store *memStore
}

func (t *memTx) ProductForUpdate(ctx context.Context, productID string) (*domain.Product, error) {
	p, ok := t.state.products[productID]
	if !ok {
		return nil, &domain.ProductNotFoundError{ProductID: productID}
	}
	return &p, nil
}

func (t *memTx) UpdateProductStock(ctx context.Context, productID string, stock int) error {
	p, ok := t.state.products[productID]
	if !ok {
		return &domain.ProductNotFoundError{ProductID: productID}
	}
	p.Stock = stock
	t.state.products[productID] = p
	return nil
}

func (t *memTx) OrderForUpdate(ctx context.Context, orderID string) (*domain.Order, error) {
	o, ok := t.state.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return &o, nil
}

func (t *memTx) CreateOrder(ctx context.Context, order *domain.Order) error {
	t.state.orders[order.ID] = *order
	t.store.seq++
	t.state.orderSeq[order.ID] = t.store.seq
	return nil
}

func (t *memTx) CreateSubOrders(ctx context.Context, subOrders []*domain.VendorSubOrder) error {
	for _, sub := range subOrders {
		t.state.subOrders[sub.ID] = *sub
	}
	return nil
}

func (t *memTx) UpdateOrderStatus(ctx context.Context, orderID string, status domain.Status, paymentStatus domain.PaymentStatus) error {
	o, ok := t.state.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	o.PaymentStatus = paymentStatus
	t.state.orders[orderID] = o
	return nil
}

func (s *memStore) FindOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.state.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return &o, nil
}

func (s *memStore) ListOrdersByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var orders []*domain.Order
	for id := range s.state.orders {
		o := s.state.orders[id]
		if o.CustomerID == customerID {
			orders = append(orders, &o)
		}
	}
	// Newest first; insertion sequence breaks same-timestamp ties.
	sort.Slice(orders, func(a, b int) bool {
		if orders[a].CreatedAt.Equal(orders[b].CreatedAt) {
			return s.state.orderSeq[orders[a].ID] > s.state.orderSeq[orders[b].ID]
		}
		return orders[a].CreatedAt.After(orders[b].CreatedAt)
	})
	return orders, nil
}

func (s *memStore) FindSubOrdersByMainOrder(ctx context.Context, mainOrderID string) ([]*domain.VendorSubOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var subs []*domain.VendorSubOrder
	for id := range s.state.subOrders {
		sub := s.state.subOrders[id]
		if sub.MainOrderID == mainOrderID {
			subs = append(subs, &sub)
		}
	}
	sort.Slice(subs, func(a, b int) bool { return subs[a].VendorID < subs[b].VendorID })
	return subs, nil
}

func (s *memStore) CancelSubOrders(ctx context.Context, mainOrderID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCancelSubOrders {
		return 0, fmt.Errorf("simulated vendor_orders outage")
	}
	changed := 0
	for id, sub := range s.state.subOrders {
		if sub.MainOrderID == mainOrderID && sub.Status != domain.StatusCancelled {
			sub.Status = domain.StatusCancelled
			s.state.subOrders[id] = sub
			changed++
		}
	}
	return changed, nil
}

func (s *memStore) FindOrdersWithStaleSubOrders(ctx context.Context, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stale := make(map[string]bool)
	for _, sub := range s.state.subOrders {
		if sub.Status == domain.StatusCancelled {
			continue
		}
		if o, ok := s.state.orders[sub.MainOrderID]; ok && o.Status == domain.StatusCancelled {
			stale[sub.MainOrderID] = true
		}
	}
	ids := make([]string, 0, len(stale))
	for id := range stale {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// Test-side accessors.

func (s *memStore) stock(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.products[productID].Stock
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.orders)
}

func (s *memStore) subOrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.subOrders)
}
