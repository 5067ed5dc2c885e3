package models

import (
	"time"

	"github.com/btp-erp/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// TransactionModel is the persistence model for ledger entries
type TransactionModel struct {
	AggregateModel
	Type         string          `gorm:"type:varchar(10);not null;index"`
	Description  string          `gorm:"type:varchar(500);not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	Date         time.Time       `gorm:"not null;index"`
	Category     string          `gorm:"type:varchar(30);not null;index"`
	Status       string          `gorm:"type:varchar(20);not null;default:'validée'"`
	Origin       string          `gorm:"type:varchar(10);not null;default:'manual'"`
	Reference    *string         `gorm:"type:varchar(100);index"`
	Counterparty string          `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction
func (m *TransactionModel) ToDomain() *ledger.Transaction {
	return &ledger.Transaction{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Type:              ledger.Type(m.Type),
		Description:       m.Description,
		Amount:            m.Amount,
		Date:              m.Date,
		Category:          ledger.Category(m.Category),
		Status:            ledger.Status(m.Status),
		Origin:            ledger.Origin(m.Origin),
		Reference:         m.Reference,
		Counterparty:      m.Counterparty,
	}
}

// FromDomain populates the persistence model from a domain Transaction
func (m *TransactionModel) FromDomain(t *ledger.Transaction) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.Type = string(t.Type)
	m.Description = t.Description
	m.Amount = t.Amount
	m.Date = t.Date
	m.Category = string(t.Category)
	m.Status = string(t.Status)
	m.Origin = string(t.Origin)
	m.Reference = t.Reference
	m.Counterparty = t.Counterparty
}

// TransactionModelFromDomain creates a new persistence model from a domain Transaction
func TransactionModelFromDomain(t *ledger.Transaction) *TransactionModel {
	m := &TransactionModel{}
	m.FromDomain(t)
	return m
}
