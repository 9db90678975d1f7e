// Package pricing computes shipping, tax, and order summaries from cart
// contents. Everything in this package is pure: same input, same output,
// no I/O and no hidden state.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/cart-service-simulator/internal/config"
	"github.com/fairyhunter13/cart-service-simulator/internal/model"
)

// Policy holds the pricing constants. The same policy applies to every
// screen; per-page constants are exactly the drift this package exists to
// remove.
type Policy struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	StandardShippingFee   decimal.Decimal
}

// NewPolicy builds a Policy from configuration.
func NewPolicy(cfg config.Config) Policy {
	return Policy{
		TaxRate:               cfg.TaxRate,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		StandardShippingFee:   cfg.StandardShippingFee,
	}
}

// ShippingCost returns the flat shipping fee, waived at or above the
// free-shipping threshold.
func (p Policy) ShippingCost(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
		return decimal.Zero
	}
	return p.StandardShippingFee
}

// TaxAmount returns subtotal * tax rate, exact. No rounding here; rounding
// to currency precision happens only at display or serialization time.
func (p Policy) TaxAmount(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(p.TaxRate)
}

// Summarize derives an order summary from the given line items. An empty
// cart yields an all-zero summary; in particular shipping is never charged
// when there is nothing to ship.
func (p Policy) Summarize(items []model.LineItem) model.OrderSummary {
	if len(items) == 0 {
		return model.OrderSummary{
			Subtotal:     decimal.Zero,
			ShippingCost: decimal.Zero,
			Tax:          decimal.Zero,
			Total:        decimal.Zero,
		}
	}
	var count int
	subtotal := decimal.Zero
	for _, it := range items {
		count += it.Quantity
		subtotal = subtotal.Add(it.LineTotal())
	}
	shipping := p.ShippingCost(subtotal)
	tax := p.TaxAmount(subtotal)
	return model.OrderSummary{
		ItemCount:    count,
		Subtotal:     subtotal,
		ShippingCost: shipping,
		Tax:          tax,
		Total:        subtotal.Add(shipping).Add(tax),
	}
}
