package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductModel is the inventory ledger row. Stock is only ever written inside
// a transaction that has locked and re-read the row.
type ProductModel struct {
	ID       string          `gorm:"column:id;primaryKey;size:64"`
	Name     string          `gorm:"column:name;size:255;not null"`
	Price    decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null"`
	Stock    int             `gorm:"column:stock;not null"`
	VendorID string          `gorm:"column:vendor_id;size:64;not null;index"`
}

func (ProductModel) TableName() string { return "products" }

// OrderModel is the main aggregate row; its line items live in order_items.
type OrderModel struct {
	ID            string          `gorm:"column:id;primaryKey;size:64"`
	CustomerID    string          `gorm:"column:customer_id;size:64;not null;index"`
	Status        string          `gorm:"column:status;size:32;not null;index"`
	Total         decimal.Decimal `gorm:"column:total;type:decimal(10,2);not null"`
	AddrLine1     string          `gorm:"column:addr_line1;size:255"`
	AddrLine2     string          `gorm:"column:addr_line2;size:255"`
	AddrCity      string          `gorm:"column:addr_city;size:128"`
	AddrPostal    string          `gorm:"column:addr_postal;size:32"`
	AddrCountry   string          `gorm:"column:addr_country;size:64"`
	PaymentMethod string          `gorm:"column:payment_method;size:64"`
	PaymentStatus string          `gorm:"column:payment_status;size:32;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;not null;index"`
}

func (OrderModel) TableName() string { return "orders" }

// OrderItemModel stores each priced line once; a vendor sub-order's items are
// the order's items filtered by vendor_id, so the money figures are never
// duplicated across tables.
type OrderItemModel struct {
	ID        uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID   string          `gorm:"column:order_id;size:64;not null;index"`
	ProductID string          `gorm:"column:product_id;size:64;not null"`
	Name      string          `gorm:"column:name;size:255;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:decimal(10,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	LineTotal decimal.Decimal `gorm:"column:line_total;type:decimal(10,2);not null"`
	VendorID  string          `gorm:"column:vendor_id;size:64;not null"`
}

func (OrderItemModel) TableName() string { return "order_items" }

// VendorOrderModel is the per-vendor fulfillment projection.
type VendorOrderModel struct {
	ID          string          `gorm:"column:id;primaryKey;size:64"`
	MainOrderID string          `gorm:"column:main_order_id;size:64;not null;index"`
	VendorID    string          `gorm:"column:vendor_id;size:64;not null;index"`
	Total       decimal.Decimal `gorm:"column:total;type:decimal(10,2);not null"`
	Status      string          `gorm:"column:status;size:32;not null;index"`
}

func (VendorOrderModel) TableName() string { return "vendor_orders" }

// Migrate creates or updates the four tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&ProductModel{}, &OrderModel{}, &OrderItemModel{}, &VendorOrderModel{})
}
