package analytics

import (
	"time"

	"github.com/btp-erp/backend/internal/domain/ledger"
	"github.com/btp-erp/backend/internal/domain/sales"
	"github.com/btp-erp/backend/internal/domain/shared"
)

// Window scopes an aggregation. Zero From/To leave that side open.
// To is exclusive.
type Window struct {
	From     time.Time
	To       time.Time
	ClientID string
	Category ledger.Category
}

// Validate rejects inverted ranges and unknown categories
func (w Window) Validate() error {
	if !w.From.IsZero() && !w.To.IsZero() && !w.From.Before(w.To) {
		return shared.NewValidationError("Window start must be before its end")
	}
	if w.Category != "" && !w.Category.IsValid() {
		return shared.NewValidationError("Invalid transaction category '%s'", w.Category)
	}
	return nil
}

// Contains reports whether t falls inside the window
func (w Window) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && !t.Before(w.To) {
		return false
	}
	return true
}

// MonthsBack returns a window covering the n calendar months ending with the
// month of now
func MonthsBack(now time.Time, n int) Window {
	if n < 1 {
		n = 1
	}
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return Window{
		From: start.AddDate(0, -(n - 1), 0),
		To:   start.AddDate(0, 1, 0),
	}
}

// Snapshot is the data an aggregation runs over. Both slices are ordered by
// date then insertion, which top-N rankings rely on for tie breaking.
type Snapshot struct {
	Transactions []ledger.Transaction
	SalesRecords []sales.SalesRecord
}
