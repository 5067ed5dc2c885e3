package valueobject

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is the ledger currency code (ISO 4217). The ledger is single-currency,
// so the code is never carried on the wire.
const Currency = "CAD"

// DisplayPlaces is the number of fraction digits used at presentation boundaries
const DisplayPlaces int32 = 2

// Money is an immutable CAD amount. Arithmetic keeps full decimal precision;
// rounding happens only when the value is rendered.
type Money struct {
	amount decimal.Decimal
}

// NewMoney creates Money from a decimal amount
func NewMoney(amount decimal.Decimal) Money {
	return Money{amount: amount}
}

// NewMoneyFromString parses an amount such as "103.4775"
func NewMoneyFromString(amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return Money{amount: d}, nil
}

// Zero returns a zero amount
func Zero() Money {
	return Money{amount: decimal.Zero}
}

// Amount returns the full-precision amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

func (m Money) IsZero() bool     { return m.amount.IsZero() }
func (m Money) IsNegative() bool { return m.amount.IsNegative() }
func (m Money) IsPositive() bool { return m.amount.IsPositive() }

// Add returns m + other
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Subtract returns m - other
func (m Money) Subtract(other Money) Money {
	return Money{amount: m.amount.Sub(other.amount)}
}

// Multiply returns m * factor
func (m Money) Multiply(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor)}
}

// Equals compares full-precision amounts
func (m Money) Equals(other Money) bool {
	return m.amount.Equal(other.amount)
}

// Rounded returns the presentation value (half away from zero, 2 digits)
func (m Money) Rounded() decimal.Decimal {
	return m.amount.Round(DisplayPlaces)
}

// String renders the presentation value, e.g. "103.48"
func (m Money) String() string {
	return m.amount.StringFixed(DisplayPlaces)
}

// MarshalJSON renders the amount as a JSON number rounded for presentation
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.amount.StringFixed(DisplayPlaces)), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw json.Number
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = json.Number(s)
	} else {
		raw = json.Number(data)
	}
	d, err := decimal.NewFromString(raw.String())
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	m.amount = d
	return nil
}
