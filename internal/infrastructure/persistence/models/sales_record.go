package models

import (
	"fmt"
	"time"

	"github.com/btp-erp/backend/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesRecordModel is the persistence model for the SalesRecord aggregate.
// The lifecycle stage is stored as a (phase, status) pair.
type SalesRecordModel struct {
	AggregateModel
	SequenceNumber string                 `gorm:"type:varchar(50);not null;uniqueIndex"`
	ClientID       string                 `gorm:"type:varchar(100);not null;index"`
	Phase          string                 `gorm:"type:varchar(10);not null"`
	Status         string                 `gorm:"type:varchar(20);not null;index"`
	Lines          []SalesRecordLineModel `gorm:"foreignKey:RecordID;references:ID"`
	Discount       decimal.Decimal        `gorm:"type:decimal(18,6);not null;default:0"`
	TaxRate        decimal.Decimal        `gorm:"type:decimal(9,4);not null"`
	Subtotal       decimal.Decimal        `gorm:"type:decimal(18,6);not null;default:0"`
	TaxAmount      decimal.Decimal        `gorm:"type:decimal(18,6);not null;default:0"`
	Total          decimal.Decimal        `gorm:"type:decimal(18,6);not null;default:0"`
	Notes          string                 `gorm:"type:text"`
	CancelReason   string                 `gorm:"type:varchar(500)"`
	ValidatedAt    *time.Time
	DeliveredAt    *time.Time
	CancelledAt    *time.Time
	InvoiceDate    *time.Time `gorm:"index"`
	PaidAt         *time.Time
}

// TableName returns the table name for GORM
func (SalesRecordModel) TableName() string {
	return "sales_records"
}

// ToDomain converts the persistence model to a domain SalesRecord
func (m *SalesRecordModel) ToDomain() (*sales.SalesRecord, error) {
	stage, err := sales.ParseStage(sales.Phase(m.Phase), sales.Status(m.Status))
	if err != nil {
		return nil, fmt.Errorf("sales record %s: %w", m.ID, err)
	}
	r := &sales.SalesRecord{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		SequenceNumber:    m.SequenceNumber,
		ClientID:          m.ClientID,
		Lines:             make([]sales.LineItem, len(m.Lines)),
		Discount:          m.Discount,
		TaxRate:           m.TaxRate,
		Subtotal:          m.Subtotal,
		TaxAmount:         m.TaxAmount,
		Total:             m.Total,
		Notes:             m.Notes,
		CancelReason:      m.CancelReason,
		ValidatedAt:       m.ValidatedAt,
		DeliveredAt:       m.DeliveredAt,
		CancelledAt:       m.CancelledAt,
		InvoiceDate:       m.InvoiceDate,
		PaidAt:            m.PaidAt,
	}
	for i := range m.Lines {
		r.Lines[i] = m.Lines[i].ToDomain()
	}
	r.RestoreStage(stage)
	return r, nil
}

// FromDomain populates the persistence model from a domain SalesRecord
func (m *SalesRecordModel) FromDomain(r *sales.SalesRecord) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.SequenceNumber = r.SequenceNumber
	m.ClientID = r.ClientID
	m.Phase = string(r.Phase())
	m.Status = string(r.Status())
	m.Discount = r.Discount
	m.TaxRate = r.TaxRate
	m.Subtotal = r.Subtotal
	m.TaxAmount = r.TaxAmount
	m.Total = r.Total
	m.Notes = r.Notes
	m.CancelReason = r.CancelReason
	m.ValidatedAt = r.ValidatedAt
	m.DeliveredAt = r.DeliveredAt
	m.CancelledAt = r.CancelledAt
	m.InvoiceDate = r.InvoiceDate
	m.PaidAt = r.PaidAt
	m.Lines = SalesRecordLineModelsFromDomain(r.ID, r.Lines)
}

// SalesRecordModelFromDomain creates a new persistence model from a domain SalesRecord
func SalesRecordModelFromDomain(r *sales.SalesRecord) *SalesRecordModel {
	m := &SalesRecordModel{}
	m.FromDomain(r)
	return m
}

// SalesRecordLineModel is one stored line item. Position keeps input order.
type SalesRecordLineModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	RecordID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position    int             `gorm:"not null"`
	ProductRef  string          `gorm:"type:varchar(100);not null;index"`
	Description string          `gorm:"type:varchar(500)"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,6);not null"`
}

// TableName returns the table name for GORM
func (SalesRecordLineModel) TableName() string {
	return "sales_record_lines"
}

// ToDomain converts the line model to a domain LineItem
func (m *SalesRecordLineModel) ToDomain() sales.LineItem {
	return sales.LineItem{
		ID:          m.ID,
		ProductRef:  m.ProductRef,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
	}
}

// SalesRecordLineModelsFromDomain converts lines, numbering them in order
func SalesRecordLineModelsFromDomain(recordID uuid.UUID, lines []sales.LineItem) []SalesRecordLineModel {
	out := make([]SalesRecordLineModel, len(lines))
	for i, l := range lines {
		id := l.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		out[i] = SalesRecordLineModel{
			ID:          id,
			RecordID:    recordID,
			Position:    i,
			ProductRef:  l.ProductRef,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		}
	}
	return out
}
