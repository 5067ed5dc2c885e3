package sales

import (
	"context"

	"github.com/btp-erp/backend/internal/domain/ledger"
	"github.com/btp-erp/backend/internal/domain/sales"
	"github.com/btp-erp/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditLogHandler writes one structured log line per lifecycle and ledger
// event, after commit
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("audit")}
}

// EventTypes returns the event types this handler is interested in
func (h *AuditLogHandler) EventTypes() []string {
	return []string{
		sales.EventTypeSalesRecordCreated,
		sales.EventTypeSalesRecordUpdated,
		sales.EventTypeSalesRecordDeleted,
		sales.EventTypeSalesRecordValidated,
		sales.EventTypeSalesRecordDelivered,
		sales.EventTypeSalesRecordCancelled,
		sales.EventTypeInvoiceGenerated,
		sales.EventTypeInvoiceSettled,
		ledger.EventTypeTransactionRecorded,
		ledger.EventTypeTransactionDeleted,
	}
}

// Handle logs the event
func (h *AuditLogHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	switch e := event.(type) {
	case *sales.SalesRecordCreated:
		fields = append(fields, zap.String("sequence_number", e.SequenceNumber), zap.String("total", e.Total.String()))
	case *sales.SalesRecordUpdated:
		fields = append(fields, zap.String("sequence_number", e.SequenceNumber), zap.Strings("fields", e.Fields))
	case *sales.SalesRecordDeleted:
		fields = append(fields, zap.String("sequence_number", e.SequenceNumber), zap.String("status", string(e.Status)))
	case *sales.SalesRecordValidated:
		fields = append(fields, zap.String("sequence_number", e.SequenceNumber), zap.Int("lines", len(e.Lines)))
	case *sales.SalesRecordDelivered:
		fields = append(fields, zap.String("sequence_number", e.SequenceNumber))
	case *sales.SalesRecordCancelled:
		fields = append(fields, zap.String("sequence_number", e.SequenceNumber),
			zap.String("phase", string(e.Phase)), zap.String("reason", e.Reason))
	case *sales.InvoiceGenerated:
		fields = append(fields, zap.String("sequence_number", e.SequenceNumber), zap.String("total", e.Total.String()))
	case *sales.InvoiceSettled:
		fields = append(fields, zap.String("sequence_number", e.SequenceNumber), zap.String("amount", e.Amount.String()))
	case *ledger.TransactionRecorded:
		fields = append(fields, zap.String("type", string(e.Type)), zap.String("origin", string(e.Origin)),
			zap.String("amount", e.Amount.String()))
	case *ledger.TransactionDeleted:
		fields = append(fields, zap.Bool("referential_gap", e.ReferentialGap))
		if e.Reference != nil {
			fields = append(fields, zap.String("reference", *e.Reference))
		}
	}

	h.logger.Info("domain event", fields...)
	return nil
}
