package sales

import (
	"time"

	"github.com/btp-erp/backend/internal/domain/sales"
	"github.com/btp-erp/backend/internal/domain/shared"
	"github.com/btp-erp/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Requests ====================

// LineItemInput is one line of a create or update request
type LineItemInput struct {
	ProductRef  string          `json:"product_ref" binding:"required,min=1,max=100"`
	Description string          `json:"description" binding:"max=500"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreateSalesRecordRequest opens a new order
type CreateSalesRecordRequest struct {
	ClientID string           `json:"client_id" binding:"required,min=1,max=100"`
	Lines    []LineItemInput  `json:"lines" binding:"required,min=1,dive"`
	Discount *decimal.Decimal `json:"discount"`
	TaxRate  *decimal.Decimal `json:"tax_rate"`
	Notes    string           `json:"notes" binding:"max=2000"`
}

// UpdateSalesRecordRequest is a partial update. Status requests a transition;
// lines, discount and tax rate are edits allowed only while en cours. The two
// kinds cannot be combined in one request.
type UpdateSalesRecordRequest struct {
	Status       *string          `json:"status"`
	Lines        []LineItemInput  `json:"lines" binding:"omitempty,dive"`
	Discount     *decimal.Decimal `json:"discount"`
	TaxRate      *decimal.Decimal `json:"tax_rate"`
	Notes        *string          `json:"notes" binding:"omitempty,max=2000"`
	Version      *int             `json:"version"`
	InvoiceDate  *time.Time       `json:"invoice_date"`
	PaidAt       *time.Time       `json:"paid_at"`
	CancelReason string           `json:"cancel_reason" binding:"max=500"`
}

func (r UpdateSalesRecordRequest) hasEdits() bool {
	return r.Lines != nil || r.Discount != nil || r.TaxRate != nil
}

// editedFields names the fields the request touches, in a stable order
func (r UpdateSalesRecordRequest) editedFields() []string {
	var fields []string
	if r.Lines != nil {
		fields = append(fields, "lines")
	}
	if r.Discount != nil {
		fields = append(fields, "discount")
	}
	if r.TaxRate != nil {
		fields = append(fields, "tax_rate")
	}
	if r.Notes != nil {
		fields = append(fields, "notes")
	}
	return fields
}

// CancelRequest cancels an order or invoice
type CancelRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// GenerateInvoiceRequest turns a validated or delivered order into an invoice
type GenerateInvoiceRequest struct {
	InvoiceDate *time.Time       `json:"invoice_date"`
	Discount    *decimal.Decimal `json:"discount"`
	TaxRate     *decimal.Decimal `json:"tax_rate"`
}

// MarkPaidRequest settles an invoice
type MarkPaidRequest struct {
	PaidAt *time.Time `json:"paid_at"`
}

// SalesRecordListFilter holds list query parameters
type SalesRecordListFilter struct {
	ClientID string     `form:"client_id"`
	Status   string     `form:"status"`
	DateFrom *time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo   *time.Time `form:"date_to" time_format:"2006-01-02"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string     `form:"order_by"`
	OrderDir string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ==================== Responses ====================

// LineItemResponse is one line in API responses
type LineItemResponse struct {
	ID          uuid.UUID         `json:"id"`
	ProductRef  string            `json:"product_ref"`
	Description string            `json:"description,omitempty"`
	Quantity    decimal.Decimal   `json:"quantity"`
	UnitPrice   valueobject.Money `json:"unit_price"`
	Amount      valueobject.Money `json:"amount"`
}

// SalesRecordResponse is a sales record in API responses
type SalesRecordResponse struct {
	ID             uuid.UUID          `json:"id"`
	SequenceNumber string             `json:"sequence_number"`
	ClientID       string             `json:"client_id"`
	Phase          string             `json:"phase"`
	Status         string             `json:"status"`
	Lines          []LineItemResponse `json:"lines"`
	Subtotal       valueobject.Money  `json:"subtotal"`
	Discount       valueobject.Money  `json:"discount"`
	TaxableBase    valueobject.Money  `json:"taxable_base"`
	TaxRate        decimal.Decimal    `json:"tax_rate"`
	TaxAmount      valueobject.Money  `json:"tax_amount"`
	Total          valueobject.Money  `json:"total"`
	Notes          string             `json:"notes,omitempty"`
	CancelReason   string             `json:"cancel_reason,omitempty"`
	ValidatedAt    *time.Time         `json:"validated_at,omitempty"`
	DeliveredAt    *time.Time         `json:"delivered_at,omitempty"`
	CancelledAt    *time.Time         `json:"cancelled_at,omitempty"`
	InvoiceDate    *time.Time         `json:"invoice_date,omitempty"`
	PaidAt         *time.Time         `json:"paid_at,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	Version        int                `json:"version"`
	Warnings       []shared.Warning   `json:"warnings,omitempty"`
}

// ToSalesRecordResponse converts a domain record to its response form
func ToSalesRecordResponse(r *sales.SalesRecord) SalesRecordResponse {
	lines := make([]LineItemResponse, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = LineItemResponse{
			ID:          l.ID,
			ProductRef:  l.ProductRef,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   valueobject.NewMoney(l.UnitPrice),
			Amount:      valueobject.NewMoney(l.Amount()),
		}
	}
	return SalesRecordResponse{
		ID:             r.ID,
		SequenceNumber: r.SequenceNumber,
		ClientID:       r.ClientID,
		Phase:          string(r.Phase()),
		Status:         r.Status().String(),
		Lines:          lines,
		Subtotal:       valueobject.NewMoney(r.Subtotal),
		Discount:       valueobject.NewMoney(r.Discount),
		TaxableBase:    valueobject.NewMoney(r.TaxableBase()),
		TaxRate:        r.TaxRate,
		TaxAmount:      valueobject.NewMoney(r.TaxAmount),
		Total:          valueobject.NewMoney(r.Total),
		Notes:          r.Notes,
		CancelReason:   r.CancelReason,
		ValidatedAt:    r.ValidatedAt,
		DeliveredAt:    r.DeliveredAt,
		CancelledAt:    r.CancelledAt,
		InvoiceDate:    r.InvoiceDate,
		PaidAt:         r.PaidAt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		Version:        r.Version,
	}
}

func toLineItems(inputs []LineItemInput) ([]sales.LineItem, error) {
	lines := make([]sales.LineItem, 0, len(inputs))
	for i, in := range inputs {
		li, err := sales.NewLineItem(in.ProductRef, in.Description, in.Quantity, in.UnitPrice)
		if err != nil {
			return nil, shared.NewValidationError("Line %d: %s", i+1, err.Error())
		}
		lines = append(lines, li)
	}
	return lines, nil
}

func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
