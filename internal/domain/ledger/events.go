package ledger

import (
	"github.com/btp-erp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeTransaction is the aggregate type name used in events
const AggregateTypeTransaction = "Transaction"

const (
	EventTypeTransactionRecorded = "TransactionRecorded"
	EventTypeTransactionUpdated  = "TransactionUpdated"
	EventTypeTransactionDeleted  = "TransactionDeleted"
)

// TransactionRecorded is raised when an entry is appended
type TransactionRecorded struct {
	shared.BaseDomainEvent
	Type      Type            `json:"type"`
	Category  Category        `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Origin    Origin          `json:"origin"`
	Reference *string         `json:"reference,omitempty"`
}

func (e *TransactionRecorded) EventType() string { return EventTypeTransactionRecorded }

func NewTransactionRecordedEvent(t *Transaction) *TransactionRecorded {
	return &TransactionRecorded{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionRecorded, AggregateTypeTransaction, t.ID),
		Type:            t.Type,
		Category:        t.Category,
		Amount:          t.Amount,
		Origin:          t.Origin,
		Reference:       t.Reference,
	}
}

// TransactionUpdated is raised after an edit
type TransactionUpdated struct {
	shared.BaseDomainEvent
	Amount decimal.Decimal `json:"amount"`
	Status Status          `json:"status"`
}

func (e *TransactionUpdated) EventType() string { return EventTypeTransactionUpdated }

func NewTransactionUpdatedEvent(t *Transaction) *TransactionUpdated {
	return &TransactionUpdated{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionUpdated, AggregateTypeTransaction, t.ID),
		Amount:          t.Amount,
		Status:          t.Status,
	}
}

// TransactionDeleted is raised after removal. ReferentialGap is set when the
// entry was paired with an invoice.
type TransactionDeleted struct {
	shared.BaseDomainEvent
	Reference      *string `json:"reference,omitempty"`
	ReferentialGap bool    `json:"referential_gap"`
}

func (e *TransactionDeleted) EventType() string { return EventTypeTransactionDeleted }

func NewTransactionDeletedEvent(t *Transaction) *TransactionDeleted {
	return &TransactionDeleted{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionDeleted, AggregateTypeTransaction, t.ID),
		Reference:       t.Reference,
		ReferentialGap:  t.Reference != nil,
	}
}
