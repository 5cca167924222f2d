// Package pricing computes cart and order totals.
//
// Amounts are summed at full precision and rounded to cents once, at the
// final sum. Rounding is half away from zero, which is half-up for the
// non-negative amounts the store deals in.
package pricing

import "github.com/shopspring/decimal"

// Line is one priced quantity.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Subtotal is unitPrice × quantity, unrounded.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Total returns Σ unitPrice × quantity rounded to two decimal places.
func Total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return Round(sum)
}

func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Policy holds the checkout charges applied on top of the item subtotal.
type Policy struct {
	TaxRate      decimal.Decimal
	ShippingFlat decimal.Decimal
}

// DefaultPolicy charges 10% tax and free shipping.
func DefaultPolicy() Policy {
	return Policy{
		TaxRate:      decimal.RequireFromString("0.10"),
		ShippingFlat: decimal.Zero,
	}
}

type Breakdown struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// Quote prices lines under the policy. Tax is rounded on its own so that
// Subtotal + Tax + Shipping equals Total to the cent.
func (p Policy) Quote(lines []Line) Breakdown {
	sub := Total(lines)
	tax := Round(sub.Mul(p.TaxRate))
	ship := Round(p.ShippingFlat)
	return Breakdown{
		Subtotal: sub,
		Tax:      tax,
		Shipping: ship,
		Total:    sub.Add(tax).Add(ship),
	}
}
