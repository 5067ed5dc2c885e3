package valueobject

import "github.com/shopspring/decimal"

// DefaultTaxRate is the combined sales tax percentage applied when none is given
var DefaultTaxRate = decimal.RequireFromString("14.975")

// ComparePlaces is the precision at which stored and recomputed amounts are compared
const ComparePlaces int32 = 6

var hundred = decimal.NewFromInt(100)

// PricedLine is anything that contributes quantity × unit price to a subtotal
type PricedLine interface {
	LineQuantity() decimal.Decimal
	LineUnitPrice() decimal.Decimal
}

// Totals is the full breakdown derived from a set of lines
type Totals struct {
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	TaxableBase decimal.Decimal
	TaxRate     decimal.Decimal
	TaxAmount   decimal.Decimal
	Total       decimal.Decimal
}

// Subtotal sums quantity × unitPrice over all lines. Empty input yields 0.
func Subtotal[L PricedLine](lines []L) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.LineQuantity().Mul(l.LineUnitPrice()))
	}
	return sum
}

// TaxableBase returns max(0, subtotal - discount)
func TaxableBase(subtotal, discount decimal.Decimal) decimal.Decimal {
	base := subtotal.Sub(discount)
	if base.IsNegative() {
		return decimal.Zero
	}
	return base
}

// TaxAmount returns max(0, subtotal - discount) × taxRate / 100
func TaxAmount(subtotal, discount, taxRate decimal.Decimal) decimal.Decimal {
	return TaxableBase(subtotal, discount).Mul(taxRate).Div(hundred)
}

// Total returns subtotal - discount + tax, floored at 0
func Total[L PricedLine](lines []L, discount, taxRate decimal.Decimal) decimal.Decimal {
	return ComputeTotals(lines, discount, taxRate).Total
}

// ComputeTotals derives the whole breakdown in one pass. No rounding is applied.
func ComputeTotals[L PricedLine](lines []L, discount, taxRate decimal.Decimal) Totals {
	subtotal := Subtotal(lines)
	base := TaxableBase(subtotal, discount)
	tax := base.Mul(taxRate).Div(hundred)
	return Totals{
		Subtotal:    subtotal,
		Discount:    discount,
		TaxableBase: base,
		TaxRate:     taxRate,
		TaxAmount:   tax,
		Total:       base.Add(tax),
	}
}

// Matches reports whether stored amounts agree with this breakdown
func (t Totals) Matches(subtotal, taxAmount, total decimal.Decimal) bool {
	return sameAmount(t.Subtotal, subtotal) &&
		sameAmount(t.TaxAmount, taxAmount) &&
		sameAmount(t.Total, total)
}

func sameAmount(a, b decimal.Decimal) bool {
	return a.Round(ComparePlaces).Equal(b.Round(ComparePlaces))
}
