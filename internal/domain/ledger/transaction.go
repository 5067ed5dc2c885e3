package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/btp-erp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Type is the direction of a money movement
type Type string

const (
	TypeIncome  Type = "entrée"
	TypeExpense Type = "sortie"
)

// IsValid checks if the type is known
func (t Type) IsValid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Category is a fixed business category
type Category string

const (
	CategorySale        Category = "Vente"
	CategoryPurchase    Category = "Achat"
	CategorySalary      Category = "Salaire"
	CategoryEquipment   Category = "Équipement"
	CategoryFuel        Category = "Carburant"
	CategoryMaintenance Category = "Maintenance"
	CategoryRental      Category = "Location"
	CategorySubcontract Category = "Sous-traitance"
	CategoryTaxes       Category = "Taxes"
	CategoryOther       Category = "Autre"
)

// AllCategories lists the accepted categories
var AllCategories = []Category{
	CategorySale, CategoryPurchase, CategorySalary, CategoryEquipment, CategoryFuel,
	CategoryMaintenance, CategoryRental, CategorySubcontract, CategoryTaxes, CategoryOther,
}

// IsValid checks if the category is known
func (c Category) IsValid() bool {
	for _, v := range AllCategories {
		if v == c {
			return true
		}
	}
	return false
}

// Status of a ledger entry
type Status string

const (
	StatusValidated Status = "validée"
	StatusPending   Status = "en attente"
	StatusCancelled Status = "annulée"
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	return s == StatusValidated || s == StatusPending || s == StatusCancelled
}

// Origin tells manual entries from those produced by invoice settlement
type Origin string

const (
	OriginManual Origin = "manual"
	OriginSystem Origin = "system"
)

// Transaction is one money movement. Amount is always positive; direction is
// carried by Type.
type Transaction struct {
	shared.BaseAggregateRoot
	Type         Type
	Description  string
	Amount       decimal.Decimal
	Date         time.Time
	Category     Category
	Status       Status
	Origin       Origin
	Reference    *string
	Counterparty string
}

// TransactionParams carries the fields of a manual entry
type TransactionParams struct {
	Type         Type
	Description  string
	Amount       decimal.Decimal
	Date         time.Time
	Category     Category
	Status       Status
	Reference    *string
	Counterparty string
}

// NewTransaction creates a manual ledger entry. Status defaults to validée.
func NewTransaction(p TransactionParams) (*Transaction, error) {
	if p.Status == "" {
		p.Status = StatusValidated
	}
	tx := &Transaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Type:              p.Type,
		Description:       strings.TrimSpace(p.Description),
		Amount:            p.Amount,
		Date:              p.Date,
		Category:          p.Category,
		Status:            p.Status,
		Origin:            OriginManual,
		Reference:         normalizeReference(p.Reference),
		Counterparty:      strings.TrimSpace(p.Counterparty),
	}
	if err := tx.validate(); err != nil {
		return nil, err
	}
	tx.AddDomainEvent(NewTransactionRecordedEvent(tx))
	return tx, nil
}

// NewSettlementTransaction creates the system entry that mirrors a paid invoice
func NewSettlementTransaction(sequenceNumber, clientID string, amount decimal.Decimal, paidAt time.Time) (*Transaction, error) {
	if sequenceNumber == "" {
		return nil, shared.NewValidationError("Settlement reference is required")
	}
	ref := sequenceNumber
	tx := &Transaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Type:              TypeIncome,
		Description:       fmt.Sprintf("Paiement facture %s", sequenceNumber),
		Amount:            amount,
		Date:              paidAt,
		Category:          CategorySale,
		Status:            StatusValidated,
		Origin:            OriginSystem,
		Reference:         &ref,
		Counterparty:      clientID,
	}
	if err := tx.validate(); err != nil {
		return nil, err
	}
	tx.AddDomainEvent(NewTransactionRecordedEvent(tx))
	return tx, nil
}

func normalizeReference(ref *string) *string {
	if ref == nil {
		return nil
	}
	v := strings.TrimSpace(*ref)
	if v == "" {
		return nil
	}
	return &v
}

func (t *Transaction) validate() error {
	if !t.Type.IsValid() {
		return shared.NewValidationError("Invalid transaction type '%s'", t.Type)
	}
	if t.Description == "" {
		return shared.NewValidationError("Transaction description is required")
	}
	// a fully discounted invoice still settles, with a zero entry
	if t.Amount.IsNegative() || (t.Amount.IsZero() && t.Origin != OriginSystem) {
		return shared.NewValidationError("Transaction amount must be greater than 0")
	}
	if t.Date.IsZero() {
		return shared.NewValidationError("Transaction date is required")
	}
	if !t.Category.IsValid() {
		return shared.NewValidationError("Invalid transaction category '%s'", t.Category)
	}
	if !t.Status.IsValid() {
		return shared.NewValidationError("Invalid transaction status '%s'", t.Status)
	}
	return nil
}

// TransactionUpdate is a partial edit; nil fields are left untouched
type TransactionUpdate struct {
	Type         *Type
	Description  *string
	Amount       *decimal.Decimal
	Date         *time.Time
	Category     *Category
	Status       *Status
	Counterparty *string
}

// Update applies a partial edit. The entry is left unchanged if the result
// would be invalid.
func (t *Transaction) Update(u TransactionUpdate) error {
	next := *t
	if u.Type != nil {
		next.Type = *u.Type
	}
	if u.Description != nil {
		next.Description = strings.TrimSpace(*u.Description)
	}
	if u.Amount != nil {
		next.Amount = *u.Amount
	}
	if u.Date != nil {
		next.Date = *u.Date
	}
	if u.Category != nil {
		next.Category = *u.Category
	}
	if u.Status != nil {
		next.Status = *u.Status
	}
	if u.Counterparty != nil {
		next.Counterparty = strings.TrimSpace(*u.Counterparty)
	}
	if err := next.validate(); err != nil {
		return err
	}

	t.Type = next.Type
	t.Description = next.Description
	t.Amount = next.Amount
	t.Date = next.Date
	t.Category = next.Category
	t.Status = next.Status
	t.Counterparty = next.Counterparty
	t.Touch()
	t.AddDomainEvent(NewTransactionUpdatedEvent(t))
	return nil
}

// SignedAmount returns +amount for entrée and -amount for sortie
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// IsSettlement reports whether the entry was produced by invoice settlement
func (t *Transaction) IsSettlement() bool {
	return t.Origin == OriginSystem
}

// DeletionWarning returns a warning when removing the entry breaks the
// invoice/ledger pairing. Deletion itself is still allowed.
func (t *Transaction) DeletionWarning() *shared.Warning {
	if t.Reference == nil {
		return nil
	}
	w := shared.NewWarning(shared.WarnReferentialGap, fmt.Sprintf(
		"Deleting transaction %s removes the ledger entry of sales record %s", t.ID, *t.Reference))
	return &w
}
