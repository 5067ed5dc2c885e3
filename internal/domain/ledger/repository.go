package ledger

import (
	"context"

	"github.com/btp-erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter keys understood by TransactionRepository.FindAll and Count
const (
	FilterType      = "type"
	FilterCategory  = "category"
	FilterStatus    = "status"
	FilterOrigin    = "origin"
	FilterReference = "reference"
	FilterDateFrom  = "date_from"
	FilterDateTo    = "date_to"
)

// TransactionRepository defines the interface for ledger persistence
type TransactionRepository interface {
	// FindByID finds an entry by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// FindAll lists entries matching type, category, status and date predicates
	FindAll(ctx context.Context, filter shared.Filter) ([]Transaction, error)

	// Count counts entries matching the same predicates as FindAll
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// FindByReference lists entries linked to a sales record sequence number
	FindByReference(ctx context.Context, reference string) ([]Transaction, error)

	// ExistsReference reports whether any entry already carries reference
	ExistsReference(ctx context.Context, reference string) (bool, error)

	// Create appends an entry
	Create(ctx context.Context, tx *Transaction) error

	// SaveWithLock saves an edit with optimistic locking
	SaveWithLock(ctx context.Context, tx *Transaction) error

	// Delete removes an entry
	Delete(ctx context.Context, id uuid.UUID) error
}
