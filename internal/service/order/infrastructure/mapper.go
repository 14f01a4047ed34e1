package infrastructure

import (
	"verdant/internal/service/order/domain"
)

func toProductDomain(m *ProductModel) *domain.Product {
	return &domain.Product{
		ID:       m.ID,
		Name:     m.Name,
		Price:    m.Price,
		Stock:    m.Stock,
		VendorID: m.VendorID,
	}
}

func toOrderModel(o *domain.Order) *OrderModel {
	return &OrderModel{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		Status:        string(o.Status),
		Total:         o.Total,
		AddrLine1:     o.ShippingAddress.Line1,
		AddrLine2:     o.ShippingAddress.Line2,
		AddrCity:      o.ShippingAddress.City,
		AddrPostal:    o.ShippingAddress.PostalCode,
		AddrCountry:   o.ShippingAddress.Country,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: string(o.PaymentStatus),
		CreatedAt:     o.CreatedAt,
	}
}

func toItemModels(o *domain.Order) []*OrderItemModel {
	models := make([]*OrderItemModel, 0, len(o.Items))
	for _, item := range o.Items {
		models = append(models, &OrderItemModel{
			OrderID:   o.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
			VendorID:  item.VendorID,
		})
	}
	return models
}

func toItemDomain(m *OrderItemModel) domain.OrderLineItem {
	return domain.OrderLineItem{
		ProductID: m.ProductID,
		Name:      m.Name,
		UnitPrice: m.UnitPrice,
		Quantity:  m.Quantity,
		LineTotal: m.LineTotal,
		VendorID:  m.VendorID,
	}
}

func toOrderDomain(m *OrderModel, items []*OrderItemModel) *domain.Order {
	order := &domain.Order{
		ID:         m.ID,
		CustomerID: m.CustomerID,
		Status:     domain.Status(m.Status),
		Total:      m.Total,
		ShippingAddress: domain.ShippingAddress{
			Line1:      m.AddrLine1,
			Line2:      m.AddrLine2,
			City:       m.AddrCity,
			PostalCode: m.AddrPostal,
			Country:    m.AddrCountry,
		},
		PaymentMethod: m.PaymentMethod,
		PaymentStatus: domain.PaymentStatus(m.PaymentStatus),
		CreatedAt:     m.CreatedAt,
	}
	for _, item := range items {
		order.Items = append(order.Items, toItemDomain(item))
	}
	return order
}

func toVendorOrderModel(s *domain.VendorSubOrder) *VendorOrderModel {
	return &VendorOrderModel{
		ID:          s.ID,
		MainOrderID: s.MainOrderID,
		VendorID:    s.VendorID,
		Total:       s.Total,
		Status:      string(s.Status),
	}
}

// toSubOrderDomain rebuilds a sub-order's item list from the main order's
// items sharing its vendor.
func toSubOrderDomain(m *VendorOrderModel, items []*OrderItemModel) *domain.VendorSubOrder {
	sub := &domain.VendorSubOrder{
		ID:          m.ID,
		MainOrderID: m.MainOrderID,
		VendorID:    m.VendorID,
		Total:       m.Total,
		Status:      domain.Status(m.Status),
	}
	for _, item := range items {
		if item.VendorID == m.VendorID {
			sub.Items = append(sub.Items, toItemDomain(item))
		}
	}
	return sub
}
