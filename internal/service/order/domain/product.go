package domain

import "github.com/shopspring/decimal"

// Product is the authoritative inventory record for one listing. Stock is the
// only contended field in the system; it may be read and written exclusively
// inside a store transaction that re-validates `stock >= quantity` first.
type Product struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Stock    int
	VendorID string
}

// CartLine is one requested line of a placement attempt, supplied fresh by
// the cart collaborator on every call. Client-side prices are never accepted;
// the line carries only id, quantity and the vendor hint.
type CartLine struct {
	ProductID string
	Quantity  int
	VendorID  string
}

// ValidateCart rejects malformed input before any store round-trip. Every
// line must name a vendor: a line without one would be counted in the main
// order total yet be invisible to vendor fulfillment, so the whole cart is
// refused.
func ValidateCart(lines []CartLine) error {
	if len(lines) == 0 {
		return &ValidationError{Reason: "cart is empty"}
	}
	for _, line := range lines {
		if line.ProductID == "" {
			return &ValidationError{Reason: "cart line without product id"}
		}
		if line.Quantity <= 0 {
			return &ValidationError{Reason: "quantity must be positive for product " + line.ProductID}
		}
		if line.VendorID == "" {
			return &ValidationError{Reason: "no vendor for product " + line.ProductID}
		}
	}
	return nil
}
