package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BuildLineItem prices one validated cart line against the live inventory
// record read inside the placement transaction.
func BuildLineItem(line CartLine, product *Product) OrderLineItem {
	qty := decimal.NewFromInt(int64(line.Quantity))
	return OrderLineItem{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Quantity:  line.Quantity,
		LineTotal: product.Price.Mul(qty),
		VendorID:  product.VendorID,
	}
}

// BuildOrder assembles the main order and one sub-order per distinct vendor
// from already-priced line items. Pure computation, no I/O: given the same
// items it always produces the same partition, and the decimal sub-order
// totals add up to the order total exactly.
func BuildOrder(customerID string, items []OrderLineItem, addr ShippingAddress, paymentMethod string) (*Order, []*VendorSubOrder) {
	order := &Order{
		ID:              uuid.New().String(),
		CustomerID:      customerID,
		Items:           items,
		Status:          StatusPending,
		Total:           decimal.Zero,
		ShippingAddress: addr,
		PaymentMethod:   paymentMethod,
		PaymentStatus:   PaymentPending,
		CreatedAt:       time.Now().UTC(),
	}

	byVendor := make(map[string][]OrderLineItem)
	for _, item := range items {
		order.Total = order.Total.Add(item.LineTotal)
		byVendor[item.VendorID] = append(byVendor[item.VendorID], item)
	}

	// Deterministic sub-order ordering keeps writes and tests stable.
	vendors := make([]string, 0, len(byVendor))
	for vendorID := range byVendor {
		vendors = append(vendors, vendorID)
	}
	sort.Strings(vendors)

	subOrders := make([]*VendorSubOrder, 0, len(vendors))
	for _, vendorID := range vendors {
		sub := &VendorSubOrder{
			ID:          uuid.New().String(),
			MainOrderID: order.ID,
			VendorID:    vendorID,
			Items:       byVendor[vendorID],
			Total:       decimal.Zero,
			Status:      StatusPending,
		}
		for _, item := range sub.Items {
			sub.Total = sub.Total.Add(item.LineTotal)
		}
		subOrders = append(subOrders, sub)
	}
	return order, subOrders
}
