package application

import (
	"time"

	"verdant/internal/service/order/domain"
)

// CartLineRequest mirrors one cart line as sent by the cart collaborator.
// A client-supplied price is deliberately absent from the wire shape.
type CartLineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	VendorID  string `json:"vendorId"`
}

// AddressRequest is the shipping address value object from the checkout form.
type AddressRequest struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// PlaceOrderRequest is the full placement payload.
type PlaceOrderRequest struct {
	Lines         []CartLineRequest `json:"lines"`
	Address       AddressRequest    `json:"address"`
	PaymentMethod string            `json:"paymentMethod"`
}

// PlaceOrderResponse acknowledges a committed order.
type PlaceOrderResponse struct {
	OrderID string        `json:"orderId"`
	Status  domain.Status `json:"status"`
	Total   string        `json:"total"`
}

// OrderItemView is one line of an order as returned to the caller.
type OrderItemView struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitPrice string `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"lineTotal"`
	VendorID  string `json:"vendorId"`
}

// OrderView is the read model for a single order.
type OrderView struct {
	ID            string          `json:"id"`
	Status        domain.Status   `json:"status"`
	Total         string          `json:"total"`
	PaymentMethod string          `json:"paymentMethod"`
	PaymentStatus string          `json:"paymentStatus"`
	CreatedAt     time.Time       `json:"createdAt"`
	Items         []OrderItemView `json:"items"`
}

func (r CartLineRequest) toDomain() domain.CartLine {
	return domain.CartLine{ProductID: r.ProductID, Quantity: r.Quantity, VendorID: r.VendorID}
}

func (r AddressRequest) toDomain() domain.ShippingAddress {
	return domain.ShippingAddress{
		Line1:      r.Line1,
		Line2:      r.Line2,
		City:       r.City,
		PostalCode: r.PostalCode,
		Country:    r.Country,
	}
}

// ToOrderView flattens an order aggregate into the read model.
func ToOrderView(order *domain.Order) OrderView {
	view := OrderView{
		ID:            order.ID,
		Status:        order.Status,
		Total:         order.Total.StringFixed(2),
		PaymentMethod: order.PaymentMethod,
		PaymentStatus: string(order.PaymentStatus),
		CreatedAt:     order.CreatedAt,
	}
	for _, item := range order.Items {
		view.Items = append(view.Items, OrderItemView{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal.StringFixed(2),
			VendorID:  item.VendorID,
		})
	}
	return view
}
