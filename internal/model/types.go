// Package model defines domain types used by the service.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog entry a line item can be created from.
type Product struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url,omitempty"`
	Sizes     []string        `json:"sizes,omitempty"`
	Colors    []string        `json:"colors,omitempty"`
}

// LineItem is one product-variant entry in a cart. UnitPrice is snapshotted
// from the catalog when the item is first added and never re-fetched.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// VariantKey identifies the size/color combination of a line item. Two line
// items with the same product ID but different variant keys are distinct.
func (li LineItem) VariantKey() string {
	return li.Size + "/" + li.Color
}

// SameVariant reports whether two line items refer to the same
// (product, size, color) configuration.
func (li LineItem) SameVariant(other LineItem) bool {
	return li.ProductID == other.ProductID && li.Size == other.Size && li.Color == other.Color
}

// LineTotal is always derived from unit price and quantity, never stored.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// OrderSummary holds the derived totals for a cart's current contents.
type OrderSummary struct {
	ItemCount    int             `json:"item_count"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
}

// Rounded returns a copy with all amounts rounded to currency precision.
// Rounding is applied only at display/serialization time so recomputation
// never compounds rounding error.
func (s OrderSummary) Rounded() OrderSummary {
	return OrderSummary{
		ItemCount:    s.ItemCount,
		Subtotal:     s.Subtotal.Round(2),
		ShippingCost: s.ShippingCost.Round(2),
		Tax:          s.Tax.Round(2),
		Total:        s.Total.Round(2),
	}
}

// Order is the final snapshot handed over at checkout. Payment processing
// and order persistence belong to the downstream order service.
type Order struct {
	OrderID  string       `json:"order_id"`
	CartID   string       `json:"cart_id"`
	Items    []LineItem   `json:"items"`
	Summary  OrderSummary `json:"summary"`
	PlacedAt time.Time    `json:"placed_at"`
}
