package ledger

import (
	"context"

	"github.com/btp-erp/backend/internal/domain/ledger"
	"github.com/btp-erp/backend/internal/domain/sales"
	"github.com/btp-erp/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SettlementRecorder is the only producer of system ledger entries. It runs
// inside the payment transaction, writing through the repository it is given.
type SettlementRecorder struct {
	logger *zap.Logger
}

// NewSettlementRecorder creates a new SettlementRecorder
func NewSettlementRecorder(logger *zap.Logger) *SettlementRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettlementRecorder{logger: logger}
}

// RecordSettlement appends the entrée/Vente entry of a paid invoice. It fails
// if an entry with the same reference already exists.
func (r *SettlementRecorder) RecordSettlement(ctx context.Context, txRepo ledger.TransactionRepository, event *sales.InvoiceSettled) (*ledger.Transaction, error) {
	exists, err := txRepo.ExistsReference(ctx, event.SequenceNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		r.logger.Warn("settlement already recorded",
			zap.String("invoice_id", event.InvoiceID.String()),
			zap.String("sequence_number", event.SequenceNumber),
		)
		return nil, shared.NewDomainError(shared.CodeIllegalTransition,
			"Invoice "+event.SequenceNumber+" already has a ledger entry")
	}

	entry, err := ledger.NewSettlementTransaction(event.SequenceNumber, event.ClientID, event.Amount, event.SettledAt)
	if err != nil {
		return nil, err
	}
	if err := txRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	r.logger.Info("settlement recorded",
		zap.String("transaction_id", entry.ID.String()),
		zap.String("sequence_number", event.SequenceNumber),
		zap.String("amount", entry.Amount.String()),
	)
	return entry, nil
}
