package sales

import (
	"time"

	"github.com/btp-erp/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeSalesRecord is the aggregate type name used in events
const AggregateTypeSalesRecord = "SalesRecord"

// Event type constants
const (
	EventTypeSalesRecordCreated   = "SalesRecordCreated"
	EventTypeSalesRecordUpdated   = "SalesRecordUpdated"
	EventTypeSalesRecordDeleted   = "SalesRecordDeleted"
	EventTypeSalesRecordValidated = "SalesRecordValidated"
	EventTypeSalesRecordDelivered = "SalesRecordDelivered"
	EventTypeSalesRecordCancelled = "SalesRecordCancelled"
	EventTypeInvoiceGenerated     = "InvoiceGenerated"
	EventTypeInvoiceSettled       = "InvoiceSettled"
)

// SalesRecordCreated is raised when an order is opened
type SalesRecordCreated struct {
	shared.BaseDomainEvent
	SequenceNumber string          `json:"sequence_number"`
	ClientID       string          `json:"client_id"`
	Total          decimal.Decimal `json:"total"`
}

// EventType returns the event type name
func (e *SalesRecordCreated) EventType() string { return EventTypeSalesRecordCreated }

// NewSalesRecordCreatedEvent creates a SalesRecordCreated event
func NewSalesRecordCreatedEvent(r *SalesRecord) *SalesRecordCreated {
	return &SalesRecordCreated{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesRecordCreated, AggregateTypeSalesRecord, r.ID),
		SequenceNumber:  r.SequenceNumber,
		ClientID:        r.ClientID,
		Total:           r.Total,
	}
}

// SalesRecordUpdated is raised when lines, pricing or notes are edited
type SalesRecordUpdated struct {
	shared.BaseDomainEvent
	SequenceNumber string          `json:"sequence_number"`
	Total          decimal.Decimal `json:"total"`
	Fields         []string        `json:"fields"`
}

// EventType returns the event type name
func (e *SalesRecordUpdated) EventType() string { return EventTypeSalesRecordUpdated }

// NewSalesRecordUpdatedEvent creates a SalesRecordUpdated event
func NewSalesRecordUpdatedEvent(r *SalesRecord, fields []string) *SalesRecordUpdated {
	return &SalesRecordUpdated{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesRecordUpdated, AggregateTypeSalesRecord, r.ID),
		SequenceNumber:  r.SequenceNumber,
		Total:           r.Total,
		Fields:          fields,
	}
}

// SalesRecordDeleted is raised after a record is removed
type SalesRecordDeleted struct {
	shared.BaseDomainEvent
	SequenceNumber string `json:"sequence_number"`
	Status         Status `json:"status"`
}

// EventType returns the event type name
func (e *SalesRecordDeleted) EventType() string { return EventTypeSalesRecordDeleted }

// NewSalesRecordDeletedEvent creates a SalesRecordDeleted event
func NewSalesRecordDeletedEvent(r *SalesRecord) *SalesRecordDeleted {
	return &SalesRecordDeleted{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesRecordDeleted, AggregateTypeSalesRecord, r.ID),
		SequenceNumber:  r.SequenceNumber,
		Status:          r.Status(),
	}
}

// LineSnapshot is the line data carried by SalesRecordValidated
type LineSnapshot struct {
	ProductRef string          `json:"product_ref"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// SalesRecordValidated is raised when an order is confirmed. Stock deduction
// belongs to the inventory context and is driven by this event.
type SalesRecordValidated struct {
	shared.BaseDomainEvent
	SequenceNumber string         `json:"sequence_number"`
	ClientID       string         `json:"client_id"`
	Lines          []LineSnapshot `json:"lines"`
}

// EventType returns the event type name
func (e *SalesRecordValidated) EventType() string { return EventTypeSalesRecordValidated }

// NewSalesRecordValidatedEvent creates a SalesRecordValidated event
func NewSalesRecordValidatedEvent(r *SalesRecord) *SalesRecordValidated {
	lines := make([]LineSnapshot, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = LineSnapshot{ProductRef: l.ProductRef, Quantity: l.Quantity}
	}
	return &SalesRecordValidated{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesRecordValidated, AggregateTypeSalesRecord, r.ID),
		SequenceNumber:  r.SequenceNumber,
		ClientID:        r.ClientID,
		Lines:           lines,
	}
}

// SalesRecordDelivered is raised when an order is delivered
type SalesRecordDelivered struct {
	shared.BaseDomainEvent
	SequenceNumber string    `json:"sequence_number"`
	DeliveredAt    time.Time `json:"delivered_at"`
}

// EventType returns the event type name
func (e *SalesRecordDelivered) EventType() string { return EventTypeSalesRecordDelivered }

// NewSalesRecordDeliveredEvent creates a SalesRecordDelivered event
func NewSalesRecordDeliveredEvent(r *SalesRecord) *SalesRecordDelivered {
	return &SalesRecordDelivered{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesRecordDelivered, AggregateTypeSalesRecord, r.ID),
		SequenceNumber:  r.SequenceNumber,
		DeliveredAt:     derefTime(r.DeliveredAt),
	}
}

// SalesRecordCancelled is raised when an order or invoice is cancelled
type SalesRecordCancelled struct {
	shared.BaseDomainEvent
	SequenceNumber string `json:"sequence_number"`
	Phase          Phase  `json:"phase"`
	Reason         string `json:"reason,omitempty"`
}

// EventType returns the event type name
func (e *SalesRecordCancelled) EventType() string { return EventTypeSalesRecordCancelled }

// NewSalesRecordCancelledEvent creates a SalesRecordCancelled event
func NewSalesRecordCancelledEvent(r *SalesRecord) *SalesRecordCancelled {
	return &SalesRecordCancelled{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesRecordCancelled, AggregateTypeSalesRecord, r.ID),
		SequenceNumber:  r.SequenceNumber,
		Phase:           r.Phase(),
		Reason:          r.CancelReason,
	}
}

// InvoiceGenerated is raised when a validated or delivered order becomes an invoice
type InvoiceGenerated struct {
	shared.BaseDomainEvent
	SequenceNumber string          `json:"sequence_number"`
	InvoiceDate    time.Time       `json:"invoice_date"`
	Total          decimal.Decimal `json:"total"`
}

// EventType returns the event type name
func (e *InvoiceGenerated) EventType() string { return EventTypeInvoiceGenerated }

// NewInvoiceGeneratedEvent creates an InvoiceGenerated event
func NewInvoiceGeneratedEvent(r *SalesRecord) *InvoiceGenerated {
	return &InvoiceGenerated{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceGenerated, AggregateTypeSalesRecord, r.ID),
		SequenceNumber:  r.SequenceNumber,
		InvoiceDate:     derefTime(r.InvoiceDate),
		Total:           r.Total,
	}
}

// InvoiceSettled is raised when an invoice is paid. Its handler writes the
// matching ledger entry inside the same transaction as the status change.
type InvoiceSettled struct {
	shared.BaseDomainEvent
	InvoiceID      uuid.UUID       `json:"invoice_id"`
	SequenceNumber string          `json:"sequence_number"`
	ClientID       string          `json:"client_id"`
	Amount         decimal.Decimal `json:"amount"`
	SettledAt      time.Time       `json:"settled_at"`
}

// EventType returns the event type name
func (e *InvoiceSettled) EventType() string { return EventTypeInvoiceSettled }

// NewInvoiceSettledEvent creates an InvoiceSettled event
func NewInvoiceSettledEvent(r *SalesRecord) *InvoiceSettled {
	return &InvoiceSettled{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceSettled, AggregateTypeSalesRecord, r.ID),
		InvoiceID:       r.ID,
		SequenceNumber:  r.SequenceNumber,
		ClientID:        r.ClientID,
		Amount:          r.Total,
		SettledAt:       derefTime(r.PaidAt),
	}
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
