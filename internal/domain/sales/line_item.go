package sales

import (
	"strings"

	"github.com/btp-erp/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is one ordered product line
type LineItem struct {
	ID          uuid.UUID
	ProductRef  string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// NewLineItem creates a line, rejecting quantity <= 0 and unit price < 0
func NewLineItem(productRef, description string, quantity, unitPrice decimal.Decimal) (LineItem, error) {
	productRef = strings.TrimSpace(productRef)
	if productRef == "" {
		return LineItem{}, shared.NewValidationError("Line item product reference is required")
	}
	if !quantity.IsPositive() {
		return LineItem{}, shared.NewValidationError("Line item quantity must be greater than 0 (product %s)", productRef)
	}
	if unitPrice.IsNegative() {
		return LineItem{}, shared.NewValidationError("Line item unit price cannot be negative (product %s)", productRef)
	}
	return LineItem{
		ID:          uuid.New(),
		ProductRef:  productRef,
		Description: strings.TrimSpace(description),
		Quantity:    quantity,
		UnitPrice:   unitPrice,
	}, nil
}

func (li LineItem) LineQuantity() decimal.Decimal  { return li.Quantity }
func (li LineItem) LineUnitPrice() decimal.Decimal { return li.UnitPrice }

// Amount returns quantity × unit price
func (li LineItem) Amount() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}
