package sales

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/btp-erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter keys understood by SalesRecordRepository.FindAll and Count
const (
	FilterClientID = "client_id"
	FilterStatus   = "status"
	FilterDateFrom = "date_from"
	FilterDateTo   = "date_to"
)

// DefaultSequencePrefix is the prefix of generated sequence numbers
const DefaultSequencePrefix = "FACT"

// FormatSequenceNumber renders PREFIX-YYYYMM-NNNNNN
func FormatSequenceNumber(prefix string, at time.Time, n int64) string {
	return fmt.Sprintf("%s-%04d%02d-%06d", prefix, at.Year(), int(at.Month()), n)
}

var sequencePattern = regexp.MustCompile(`^[^\s-]+-\d{6}-\d{6}$`)

// IsSequenceNumber reports whether s has the PREFIX-YYYYMM-NNNNNN shape of a
// generated sequence number, whatever the prefix
func IsSequenceNumber(s string) bool {
	return sequencePattern.MatchString(s)
}

// SalesRecordRepository defines the interface for sales record persistence
type SalesRecordRepository interface {
	// FindByID finds a record by ID
	FindByID(ctx context.Context, id uuid.UUID) (*SalesRecord, error)

	// FindBySequenceNumber finds a record by its human-readable number
	FindBySequenceNumber(ctx context.Context, sequenceNumber string) (*SalesRecord, error)

	// FindAll lists records matching client, status and date range predicates
	FindAll(ctx context.Context, filter shared.Filter) ([]SalesRecord, error)

	// Count counts records matching the same predicates as FindAll
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Create inserts a new record with its lines
	Create(ctx context.Context, record *SalesRecord) error

	// SaveWithLock persists line and pricing edits. It fails with
	// ErrConcurrencyConflict if the version moved or the record left en cours.
	SaveWithLock(ctx context.Context, record *SalesRecord) error

	// SaveNotes persists a notes change in any status. It fails with
	// ErrConcurrencyConflict if the version moved.
	SaveNotes(ctx context.Context, record *SalesRecord) error

	// SaveTransition persists a status change only if the stored stage still
	// equals from. It fails with ErrStaleStatus otherwise.
	SaveTransition(ctx context.Context, record *SalesRecord, from Stage) error

	// Delete removes a record and its lines if its stored status is one of
	// DeletableStatuses. It fails with ErrStaleStatus otherwise.
	Delete(ctx context.Context, id uuid.UUID) error

	// NextSequenceNumber reserves the next number for the month of at
	NextSequenceNumber(ctx context.Context, at time.Time) (string, error)
}
