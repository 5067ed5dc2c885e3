package ledger

import (
	"time"

	"github.com/btp-erp/backend/internal/domain/ledger"
	"github.com/btp-erp/backend/internal/domain/shared"
	"github.com/btp-erp/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest appends a manual entry
type CreateTransactionRequest struct {
	Type         string          `json:"type" binding:"required,oneof=entrée sortie"`
	Description  string          `json:"description" binding:"required,min=1,max=500"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date" binding:"required"`
	Category     string          `json:"category" binding:"required"`
	Status       string          `json:"status"`
	Reference    *string         `json:"reference" binding:"omitempty,max=100"`
	Counterparty string          `json:"counterparty" binding:"max=200"`
}

// UpdateTransactionRequest is a partial edit
type UpdateTransactionRequest struct {
	Type         *string          `json:"type" binding:"omitempty,oneof=entrée sortie"`
	Description  *string          `json:"description" binding:"omitempty,min=1,max=500"`
	Amount       *decimal.Decimal `json:"amount"`
	Date         *time.Time       `json:"date"`
	Category     *string          `json:"category"`
	Status       *string          `json:"status"`
	Counterparty *string          `json:"counterparty" binding:"omitempty,max=200"`
	Version      *int             `json:"version"`
}

// TransactionListFilter holds list query parameters
type TransactionListFilter struct {
	Type     string     `form:"type"`
	Category string     `form:"category"`
	Status   string     `form:"status"`
	Origin   string     `form:"origin" binding:"omitempty,oneof=manual system"`
	DateFrom *time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo   *time.Time `form:"date_to" time_format:"2006-01-02"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string     `form:"order_by"`
	OrderDir string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// TransactionResponse is a ledger entry in API responses
type TransactionResponse struct {
	ID           uuid.UUID         `json:"id"`
	Type         string            `json:"type"`
	Description  string            `json:"description"`
	Amount       valueobject.Money `json:"amount"`
	Date         time.Time         `json:"date"`
	Category     string            `json:"category"`
	Status       string            `json:"status"`
	Origin       string            `json:"origin"`
	Reference    *string           `json:"reference,omitempty"`
	Counterparty string            `json:"counterparty,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Version      int               `json:"version"`
}

// DeleteTransactionResult reports a completed deletion with any warnings
type DeleteTransactionResult struct {
	ID       uuid.UUID        `json:"id"`
	Warnings []shared.Warning `json:"warnings,omitempty"`
}

// ToTransactionResponse converts a domain entry to its response form
func ToTransactionResponse(t *ledger.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:           t.ID,
		Type:         string(t.Type),
		Description:  t.Description,
		Amount:       valueobject.NewMoney(t.Amount),
		Date:         t.Date,
		Category:     string(t.Category),
		Status:       string(t.Status),
		Origin:       string(t.Origin),
		Reference:    t.Reference,
		Counterparty: t.Counterparty,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		Version:      t.Version,
	}
}
