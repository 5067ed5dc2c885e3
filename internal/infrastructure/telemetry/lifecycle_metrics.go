package telemetry

import (
	"context"

	"github.com/btp-erp/backend/internal/domain/ledger"
	"github.com/btp-erp/backend/internal/domain/sales"
	"github.com/btp-erp/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// LifecycleMetrics turns committed domain events into business counters:
// lifecycle transitions by event, settled invoice count and amount, and
// ledger entries by type and origin.
type LifecycleMetrics struct {
	transitions    metric.Int64Counter
	settled        metric.Int64Counter
	settledAmount  metric.Float64Counter
	ledgerEntries  metric.Int64Counter
	ledgerRemovals metric.Int64Counter
}

// NewLifecycleMetrics creates the instruments on meter
func NewLifecycleMetrics(meter metric.Meter) (*LifecycleMetrics, error) {
	m := &LifecycleMetrics{}
	var err error
	if m.transitions, err = meter.Int64Counter("btp.sales.transitions",
		metric.WithDescription("Sales record lifecycle events by type"),
		metric.WithUnit("{event}")); err != nil {
		return nil, err
	}
	if m.settled, err = meter.Int64Counter("btp.invoices.settled",
		metric.WithDescription("Invoices marked as paid"),
		metric.WithUnit("{invoice}")); err != nil {
		return nil, err
	}
	if m.settledAmount, err = meter.Float64Counter("btp.invoices.settled_amount",
		metric.WithDescription("Sum of settled invoice totals"),
		metric.WithUnit("{currency}")); err != nil {
		return nil, err
	}
	if m.ledgerEntries, err = meter.Int64Counter("btp.ledger.entries",
		metric.WithDescription("Ledger entries recorded by type and origin"),
		metric.WithUnit("{entry}")); err != nil {
		return nil, err
	}
	if m.ledgerRemovals, err = meter.Int64Counter("btp.ledger.deletions",
		metric.WithDescription("Ledger entries deleted"),
		metric.WithUnit("{entry}")); err != nil {
		return nil, err
	}
	return m, nil
}

// EventTypes returns the event types this handler is interested in
func (m *LifecycleMetrics) EventTypes() []string {
	return []string{
		sales.EventTypeSalesRecordCreated,
		sales.EventTypeSalesRecordValidated,
		sales.EventTypeSalesRecordDelivered,
		sales.EventTypeSalesRecordCancelled,
		sales.EventTypeInvoiceGenerated,
		sales.EventTypeInvoiceSettled,
		ledger.EventTypeTransactionRecorded,
		ledger.EventTypeTransactionDeleted,
	}
}

// Handle records the event
func (m *LifecycleMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *ledger.TransactionRecorded:
		m.ledgerEntries.Add(ctx, 1, metric.WithAttributes(
			attribute.String("type", string(e.Type)),
			attribute.String("origin", string(e.Origin)),
		))
	case *ledger.TransactionDeleted:
		m.ledgerRemovals.Add(ctx, 1)
	case *sales.InvoiceSettled:
		m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("event", e.EventType())))
		m.settled.Add(ctx, 1)
		m.settledAmount.Add(ctx, e.Amount.InexactFloat64())
	default:
		m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event.EventType())))
	}
	return nil
}

var _ shared.EventHandler = (*LifecycleMetrics)(nil)
