package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBuildLineItemPricesFromLiveRecord(t *testing.T) {
	product := &Product{ID: "lavender", Name: "Lavender", Price: price("9.99"), Stock: 10, VendorID: "v1"}
	item := BuildLineItem(CartLine{ProductID: "lavender", Quantity: 2, VendorID: "v1"}, product)

	assert.Equal(t, "lavender", item.ProductID)
	assert.Equal(t, "Lavender", item.Name)
	assert.True(t, item.UnitPrice.Equal(price("9.99")))
	assert.True(t, item.LineTotal.Equal(price("19.98")))
	assert.Equal(t, "v1", item.VendorID)
}

func TestBuildOrderSingleVendor(t *testing.T) {
	items := []OrderLineItem{
		{ProductID: "lavender", Name: "Lavender", UnitPrice: price("9.99"), Quantity: 2, LineTotal: price("19.98"), VendorID: "v1"},
		{ProductID: "basil", Name: "Basil", UnitPrice: price("4.99"), Quantity: 1, LineTotal: price("4.99"), VendorID: "v1"},
	}
	order, subOrders := BuildOrder("cust-1", items, ShippingAddress{City: "Portland"}, "card")

	assert.True(t, order.Total.Equal(price("24.97")), "got %s", order.Total)
	assert.Equal(t, StatusPending, order.Status)
	assert.Equal(t, PaymentPending, order.PaymentStatus)
	assert.Equal(t, "cust-1", order.CustomerID)

	require.Len(t, subOrders, 1)
	sub := subOrders[0]
	assert.Equal(t, order.ID, sub.MainOrderID)
	assert.Equal(t, "v1", sub.VendorID)
	assert.True(t, sub.Total.Equal(price("24.97")))
	assert.Equal(t, StatusPending, sub.Status)
	assert.Len(t, sub.Items, 2)
}

func TestBuildOrderPartitionsByVendor(t *testing.T) {
	items := []OrderLineItem{
		{ProductID: "p1", UnitPrice: price("10.00"), Quantity: 1, LineTotal: price("10.00"), VendorID: "v2"},
		{ProductID: "p2", UnitPrice: price("0.10"), Quantity: 3, LineTotal: price("0.30"), VendorID: "v1"},
		{ProductID: "p3", UnitPrice: price("5.25"), Quantity: 2, LineTotal: price("10.50"), VendorID: "v2"},
	}
	order, subOrders := BuildOrder("cust-1", items, ShippingAddress{}, "card")

	require.Len(t, subOrders, 2)
	// Vendors come back sorted.
	assert.Equal(t, "v1", subOrders[0].VendorID)
	assert.Equal(t, "v2", subOrders[1].VendorID)
	assert.Len(t, subOrders[0].Items, 1)
	assert.Len(t, subOrders[1].Items, 2)

	// Sub-order totals must sum exactly to the main total.
	sum := decimal.Zero
	for _, sub := range subOrders {
		sum = sum.Add(sub.Total)
	}
	assert.True(t, sum.Equal(order.Total), "sub totals %s vs order total %s", sum, order.Total)
	assert.True(t, order.Total.Equal(price("20.80")))
}

func TestBuildOrderNoFloatDrift(t *testing.T) {
	// 0.10 * 3 in binary floating point is not 0.30; decimals must not care.
	items := []OrderLineItem{
		{ProductID: "p1", UnitPrice: price("0.10"), Quantity: 3, LineTotal: price("0.10").Mul(decimal.NewFromInt(3)), VendorID: "v1"},
		{ProductID: "p2", UnitPrice: price("0.20"), Quantity: 1, LineTotal: price("0.20"), VendorID: "v1"},
	}
	order, subOrders := BuildOrder("cust-1", items, ShippingAddress{}, "card")
	require.Len(t, subOrders, 1)
	assert.Equal(t, "0.50", order.Total.StringFixed(2))
	assert.True(t, subOrders[0].Total.Equal(order.Total))
}

func TestValidateCart(t *testing.T) {
	valid := []CartLine{{ProductID: "p1", Quantity: 1, VendorID: "v1"}}
	assert.NoError(t, ValidateCart(valid))

	var vErr *ValidationError
	assert.ErrorAs(t, ValidateCart(nil), &vErr)
	assert.ErrorAs(t, ValidateCart([]CartLine{{ProductID: "p1", Quantity: 0, VendorID: "v1"}}), &vErr)
	assert.ErrorAs(t, ValidateCart([]CartLine{{ProductID: "p1", Quantity: -2, VendorID: "v1"}}), &vErr)
	assert.ErrorAs(t, ValidateCart([]CartLine{{ProductID: "", Quantity: 1, VendorID: "v1"}}), &vErr)
	// A line without a vendor would be invisible to fulfillment; rejected.
	assert.ErrorAs(t, ValidateCart([]CartLine{{ProductID: "p1", Quantity: 1}}), &vErr)
}
