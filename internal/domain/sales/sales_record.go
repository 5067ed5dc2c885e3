package sales

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/btp-erp/backend/internal/domain/shared"
	"github.com/btp-erp/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SalesRecord is a client order that may evolve into an invoice.
// Totals are derived from the lines and recomputed on every mutation.
type SalesRecord struct {
	shared.BaseAggregateRoot
	SequenceNumber string
	ClientID       string
	Lines          []LineItem
	Discount       decimal.Decimal
	TaxRate        decimal.Decimal
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
	Notes          string
	CancelReason   string
	ValidatedAt    *time.Time
	DeliveredAt    *time.Time
	CancelledAt    *time.Time
	InvoiceDate    *time.Time
	PaidAt         *time.Time

	stage Stage
}

// NewSalesRecord creates an order in status en cours. A nil taxRate selects
// valueobject.DefaultTaxRate.
func NewSalesRecord(sequenceNumber, clientID string, lines []LineItem, discount decimal.Decimal, taxRate *decimal.Decimal, notes string) (*SalesRecord, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, shared.NewValidationError("Client reference is required")
	}
	if sequenceNumber == "" {
		return nil, shared.NewValidationError("Sequence number is required")
	}
	if err := validateLines(lines); err != nil {
		return nil, err
	}
	rate := valueobject.DefaultTaxRate
	if taxRate != nil {
		rate = *taxRate
	}
	if err := validatePricing(discount, rate); err != nil {
		return nil, err
	}

	r := &SalesRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SequenceNumber:    sequenceNumber,
		ClientID:          clientID,
		Lines:             append([]LineItem(nil), lines...),
		Discount:          discount,
		TaxRate:           rate,
		Notes:             notes,
		stage:             OrderStage{State: OrderInProgress},
	}
	r.recalculate()
	r.AddDomainEvent(NewSalesRecordCreatedEvent(r))
	return r, nil
}

func validateLines(lines []LineItem) error {
	if len(lines) == 0 {
		return shared.NewValidationError("At least one line item is required")
	}
	for i, l := range lines {
		if strings.TrimSpace(l.ProductRef) == "" {
			return shared.NewValidationError("Line %d: product reference is required", i+1)
		}
		if !l.Quantity.IsPositive() {
			return shared.NewValidationError("Line %d: quantity must be greater than 0", i+1)
		}
		if l.UnitPrice.IsNegative() {
			return shared.NewValidationError("Line %d: unit price cannot be negative", i+1)
		}
	}
	return nil
}

func validatePricing(discount, taxRate decimal.Decimal) error {
	if discount.IsNegative() {
		return shared.NewValidationError("Discount cannot be negative")
	}
	if taxRate.IsNegative() {
		return shared.NewValidationError("Tax rate cannot be negative")
	}
	return nil
}

// Stage returns the lifecycle position
func (r *SalesRecord) Stage() Stage { return r.stage }

// Phase returns order or invoice
func (r *SalesRecord) Phase() Phase { return r.stage.Phase() }

// Status returns the persisted status label
func (r *SalesRecord) Status() Status { return r.stage.Status() }

// RestoreStage sets the stage of a record loaded from storage
func (r *SalesRecord) RestoreStage(st Stage) { r.stage = st }

// IsEditable reports whether lines and pricing may still change
func (r *SalesRecord) IsEditable() bool {
	os, ok := r.stage.(OrderStage)
	return ok && os.State == OrderInProgress
}

// ComputedTotals recomputes the breakdown from the current lines
func (r *SalesRecord) ComputedTotals() valueobject.Totals {
	return valueobject.ComputeTotals(r.Lines, r.Discount, r.TaxRate)
}

// TaxableBase returns max(0, subtotal - discount)
func (r *SalesRecord) TaxableBase() decimal.Decimal {
	return valueobject.TaxableBase(r.Subtotal, r.Discount)
}

func (r *SalesRecord) recalculate() {
	t := r.ComputedTotals()
	r.Subtotal = t.Subtotal
	r.TaxAmount = t.TaxAmount
	r.Total = t.Total
}

// UpdateLines replaces the line items. Only allowed while en cours.
func (r *SalesRecord) UpdateLines(lines []LineItem) error {
	if !r.IsEditable() {
		return shared.NewImmutableStateError(r.Status().String())
	}
	if err := validateLines(lines); err != nil {
		return err
	}
	r.Lines = append([]LineItem(nil), lines...)
	r.recalculate()
	r.Touch()
	return nil
}

// UpdatePricing changes discount and/or tax rate. Only allowed while en cours.
func (r *SalesRecord) UpdatePricing(discount, taxRate *decimal.Decimal) error {
	if discount == nil && taxRate == nil {
		return nil
	}
	if !r.IsEditable() {
		return shared.NewImmutableStateError(r.Status().String())
	}
	newDiscount, newRate := r.Discount, r.TaxRate
	if discount != nil {
		newDiscount = *discount
	}
	if taxRate != nil {
		newRate = *taxRate
	}
	if err := validatePricing(newDiscount, newRate); err != nil {
		return err
	}
	r.Discount = newDiscount
	r.TaxRate = newRate
	r.recalculate()
	r.Touch()
	return nil
}

// UpdateNotes changes the free-text notes in any status
func (r *SalesRecord) UpdateNotes(notes string) {
	r.Notes = notes
	r.Touch()
}

// Validate confirms the order: en cours → validée
func (r *SalesRecord) Validate() error {
	os, ok := r.stage.(OrderStage)
	if !ok {
		return shared.NewIllegalTransitionError("validate", r.Status().String())
	}
	next, err := os.validate()
	if err != nil {
		return err
	}
	now := time.Now()
	r.stage = next
	r.ValidatedAt = &now
	r.Touch()
	r.AddDomainEvent(NewSalesRecordValidatedEvent(r))
	return nil
}

// Deliver marks the order delivered: validée → livrée
func (r *SalesRecord) Deliver() error {
	os, ok := r.stage.(OrderStage)
	if !ok {
		return shared.NewIllegalTransitionError("deliver", r.Status().String())
	}
	next, err := os.deliver()
	if err != nil {
		return err
	}
	now := time.Now()
	r.stage = next
	r.DeliveredAt = &now
	r.Touch()
	r.AddDomainEvent(NewSalesRecordDeliveredEvent(r))
	return nil
}

// Cancel moves the record to annulée. Cancelling an already cancelled record
// is a no-op and reports changed=false.
func (r *SalesRecord) Cancel(reason string) (changed bool, err error) {
	if r.Status() == StatusCancelled {
		return false, nil
	}
	next, err := r.stage.cancel()
	if err != nil {
		return false, err
	}
	now := time.Now()
	r.stage = next
	r.CancelledAt = &now
	r.CancelReason = strings.TrimSpace(reason)
	r.Touch()
	r.AddDomainEvent(NewSalesRecordCancelledEvent(r))
	return true, nil
}

// GenerateInvoice bridges a validated or delivered order into the invoice
// phase. Optional discount and tax rate override the order values before
// totals are recomputed.
func (r *SalesRecord) GenerateInvoice(invoiceDate time.Time, discount, taxRate *decimal.Decimal) error {
	os, ok := r.stage.(OrderStage)
	if !ok {
		return shared.NewIllegalTransitionError("invoice", r.Status().String())
	}
	next, err := os.invoice()
	if err != nil {
		return err
	}
	newDiscount, newRate := r.Discount, r.TaxRate
	if discount != nil {
		newDiscount = *discount
	}
	if taxRate != nil {
		newRate = *taxRate
	}
	if err := validatePricing(newDiscount, newRate); err != nil {
		return err
	}
	if invoiceDate.IsZero() {
		invoiceDate = time.Now()
	}

	r.Discount = newDiscount
	r.TaxRate = newRate
	r.recalculate()
	r.stage = next
	r.InvoiceDate = &invoiceDate
	r.Touch()
	r.AddDomainEvent(NewInvoiceGeneratedEvent(r))
	return nil
}

// MarkPaid settles the invoice: facture → payé. The InvoiceSettled event it
// raises must be handled in the same transaction as the status change.
func (r *SalesRecord) MarkPaid(paidAt time.Time) error {
	is, ok := r.stage.(InvoiceStage)
	if !ok {
		return shared.NewIllegalTransitionError("mark as paid", r.Status().String())
	}
	next, err := is.pay()
	if err != nil {
		return err
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}
	r.stage = next
	r.PaidAt = &paidAt
	r.Touch()
	r.AddDomainEvent(NewInvoiceSettledEvent(r))
	return nil
}

// EnsureDeletable rejects deletion outside en cours and annulée
func (r *SalesRecord) EnsureDeletable() error {
	if slices.Contains(DeletableStatuses, r.Status()) {
		return nil
	}
	return shared.NewProtectedRecordError(r.Status().String())
}

// CheckConsistency compares stored totals with a fresh computation. It never
// mutates the record.
func (r *SalesRecord) CheckConsistency() *shared.Warning {
	t := r.ComputedTotals()
	if t.Matches(r.Subtotal, r.TaxAmount, r.Total) {
		return nil
	}
	w := shared.NewWarning(shared.WarnConsistency, fmt.Sprintf(
		"Stored totals of %s do not match its line items (stored total %s, computed %s)",
		r.SequenceNumber, valueobject.NewMoney(r.Total), valueobject.NewMoney(t.Total)))
	return &w
}
