package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/btp-erp/backend/internal/domain/sales"
	"github.com/btp-erp/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LifecycleService drives sales records through the order and invoice phases
type LifecycleService struct {
	repo           sales.SalesRecordRepository
	txScope        TransactionScope
	settlement     SettlementHandler
	eventPublisher shared.EventPublisher
	defaultTaxRate *decimal.Decimal
	logger         *zap.Logger
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(
	repo sales.SalesRecordRepository,
	txScope TransactionScope,
	settlement SettlementHandler,
	logger *zap.Logger,
) *LifecycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{
		repo:       repo,
		txScope:    txScope,
		settlement: settlement,
		logger:     logger,
	}
}

// SetEventPublisher sets the publisher that receives events after commit
func (s *LifecycleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetDefaultTaxRate overrides the rate applied when a create request carries none
func (s *LifecycleService) SetDefaultTaxRate(rate decimal.Decimal) {
	s.defaultTaxRate = &rate
}

// Create opens a new order in status en cours
func (s *LifecycleService) Create(ctx context.Context, req CreateSalesRecordRequest) (*SalesRecordResponse, error) {
	lines, err := toLineItems(req.Lines)
	if err != nil {
		return nil, err
	}
	discount := decimalOrZero(req.Discount)
	taxRate := req.TaxRate
	if taxRate == nil {
		taxRate = s.defaultTaxRate
	}

	var record *sales.SalesRecord
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		seq, err := repos.SalesRecords().NextSequenceNumber(ctx, time.Now())
		if err != nil {
			return err
		}
		rec, err := sales.NewSalesRecord(seq, req.ClientID, lines, discount, taxRate, req.Notes)
		if err != nil {
			return err
		}
		if err := repos.SalesRecords().Create(ctx, rec); err != nil {
			return err
		}
		record = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sales record created",
		zap.String("record_id", record.ID.String()),
		zap.String("sequence_number", record.SequenceNumber),
		zap.String("client_id", record.ClientID),
		zap.String("total", record.Total.String()),
	)
	s.publish(ctx, record.GetDomainEvents()...)
	record.ClearDomainEvents()

	response := ToSalesRecordResponse(record)
	return &response, nil
}

// GetByID returns a record. Stored totals that disagree with the lines are
// reported as a warning, never corrected.
func (s *LifecycleService) GetByID(ctx context.Context, id uuid.UUID) (*SalesRecordResponse, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := s.toCheckedResponse(record)
	return &response, nil
}

// List returns records matching the filter with the total match count
func (s *LifecycleService) List(ctx context.Context, filter SalesRecordListFilter) ([]SalesRecordResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  make(map[string]interface{}),
	}
	if filter.ClientID != "" {
		domainFilter = domainFilter.With(sales.FilterClientID, filter.ClientID)
	}
	if filter.Status != "" {
		status := sales.Status(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewValidationError("Unknown status '%s'", filter.Status)
		}
		domainFilter = domainFilter.With(sales.FilterStatus, status)
	}
	if filter.DateFrom != nil {
		domainFilter = domainFilter.With(sales.FilterDateFrom, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		// date_to is inclusive of the whole day
		domainFilter = domainFilter.With(sales.FilterDateTo, filter.DateTo.AddDate(0, 0, 1))
	}

	records, err := s.repo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]SalesRecordResponse, len(records))
	for i := range records {
		responses[i] = s.toCheckedResponse(&records[i])
	}
	return responses, total, nil
}

// Update applies a partial update: either a status transition or edits
func (s *LifecycleService) Update(ctx context.Context, id uuid.UUID, req UpdateSalesRecordRequest) (*SalesRecordResponse, error) {
	if req.Status != nil {
		if req.hasEdits() {
			return nil, shared.NewValidationError("A status change cannot be combined with line, discount or tax rate edits")
		}
		return s.transitionTo(ctx, id, sales.Status(*req.Status), req)
	}

	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Version != nil && *req.Version != record.Version {
		return nil, shared.ErrConcurrencyConflict
	}
	fields := req.editedFields()
	if len(fields) == 0 {
		response := ToSalesRecordResponse(record)
		return &response, nil
	}
	if req.Lines != nil {
		lines, err := toLineItems(req.Lines)
		if err != nil {
			return nil, err
		}
		if err := record.UpdateLines(lines); err != nil {
			return nil, err
		}
	}
	if err := record.UpdatePricing(req.Discount, req.TaxRate); err != nil {
		return nil, err
	}
	if req.Notes != nil {
		record.UpdateNotes(*req.Notes)
	}

	// Notes stay editable after en cours, so a notes-only change skips the
	// status guard of SaveWithLock.
	save := s.repo.SaveWithLock
	if !req.hasEdits() {
		save = s.repo.SaveNotes
	}
	if err := save(ctx, record); err != nil {
		return nil, err
	}
	s.publish(ctx, sales.NewSalesRecordUpdatedEvent(record, fields))

	response := ToSalesRecordResponse(record)
	return &response, nil
}

func (s *LifecycleService) transitionTo(ctx context.Context, id uuid.UUID, target sales.Status, req UpdateSalesRecordRequest) (*SalesRecordResponse, error) {
	switch target {
	case sales.StatusValidated:
		return s.Validate(ctx, id)
	case sales.StatusDelivered:
		return s.Deliver(ctx, id)
	case sales.StatusCancelled:
		return s.Cancel(ctx, id, CancelRequest{Reason: req.CancelReason})
	case sales.StatusInvoiced:
		return s.GenerateInvoice(ctx, id, GenerateInvoiceRequest{InvoiceDate: req.InvoiceDate})
	case sales.StatusPaid:
		return s.MarkPaid(ctx, id, MarkPaidRequest{PaidAt: req.PaidAt})
	case sales.StatusInProgress:
		record, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, shared.NewIllegalTransitionError("reopen", record.Status().String())
	default:
		return nil, shared.NewValidationError("Unknown status '%s'", target)
	}
}

// Validate confirms an order: en cours → validée
func (s *LifecycleService) Validate(ctx context.Context, id uuid.UUID) (*SalesRecordResponse, error) {
	return s.transition(ctx, id, "validate", func(r *sales.SalesRecord) (bool, error) {
		return true, r.Validate()
	})
}

// Deliver marks an order delivered: validée → livrée
func (s *LifecycleService) Deliver(ctx context.Context, id uuid.UUID) (*SalesRecordResponse, error) {
	return s.transition(ctx, id, "deliver", func(r *sales.SalesRecord) (bool, error) {
		return true, r.Deliver()
	})
}

// Cancel moves an order or invoice to annulée. Cancelling twice is a no-op.
func (s *LifecycleService) Cancel(ctx context.Context, id uuid.UUID, req CancelRequest) (*SalesRecordResponse, error) {
	return s.transition(ctx, id, "cancel", func(r *sales.SalesRecord) (bool, error) {
		return r.Cancel(req.Reason)
	})
}

// GenerateInvoice turns a validée or livrée order into an invoice
func (s *LifecycleService) GenerateInvoice(ctx context.Context, id uuid.UUID, req GenerateInvoiceRequest) (*SalesRecordResponse, error) {
	invoiceDate := time.Now()
	if req.InvoiceDate != nil {
		invoiceDate = *req.InvoiceDate
	}
	return s.transition(ctx, id, "invoice", func(r *sales.SalesRecord) (bool, error) {
		return true, r.GenerateInvoice(invoiceDate, req.Discount, req.TaxRate)
	})
}

// MarkPaid settles an invoice: facture → payé. The ledger entry is written in
// the same transaction; a concurrent payment of the same invoice fails with an
// illegal transition error and writes nothing.
func (s *LifecycleService) MarkPaid(ctx context.Context, id uuid.UUID, req MarkPaidRequest) (*SalesRecordResponse, error) {
	paidAt := time.Now()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}
	return s.transition(ctx, id, "mark as paid", func(r *sales.SalesRecord) (bool, error) {
		return true, r.MarkPaid(paidAt)
	})
}

// transition loads the record, applies op and persists it with a status
// compare-and-swap inside one transaction. Settlement events are handled
// before commit; every other event is published after.
func (s *LifecycleService) transition(
	ctx context.Context,
	id uuid.UUID,
	operation string,
	apply func(r *sales.SalesRecord) (changed bool, err error),
) (*SalesRecordResponse, error) {
	var (
		record  *sales.SalesRecord
		pending []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		rec, err := repos.SalesRecords().FindByID(ctx, id)
		if err != nil {
			return err
		}
		from := rec.Stage()
		changed, err := apply(rec)
		if err != nil {
			return err
		}
		record = rec
		if !changed {
			return nil
		}

		if err := repos.SalesRecords().SaveTransition(ctx, rec, from); err != nil {
			if errors.Is(err, shared.ErrStaleStatus) {
				return shared.NewIllegalTransitionError(operation, from.Status().String())
			}
			return err
		}

		pending = append(pending, rec.GetDomainEvents()...)
		for _, evt := range rec.GetDomainEvents() {
			settled, ok := evt.(*sales.InvoiceSettled)
			if !ok {
				continue
			}
			if s.settlement == nil {
				return fmt.Errorf("no settlement handler configured for invoice %s", settled.SequenceNumber)
			}
			entry, err := s.settlement.RecordSettlement(ctx, repos.Transactions(), settled)
			if err != nil {
				return err
			}
			pending = append(pending, entry.GetDomainEvents()...)
			entry.ClearDomainEvents()
		}
		return nil
	})
	if err != nil {
		if shared.IsCode(err, shared.CodeIllegalTransition) {
			s.logger.Info("sales record transition rejected",
				zap.String("record_id", id.String()),
				zap.String("operation", operation),
				zap.String("reason", err.Error()),
			)
		}
		return nil, err
	}

	if len(pending) > 0 {
		s.logger.Info("sales record transitioned",
			zap.String("record_id", record.ID.String()),
			zap.String("sequence_number", record.SequenceNumber),
			zap.String("operation", operation),
			zap.String("status", record.Status().String()),
		)
	}
	record.ClearDomainEvents()
	s.publish(ctx, pending...)

	response := ToSalesRecordResponse(record)
	return &response, nil
}

// Delete removes a record in status en cours or annulée
func (s *LifecycleService) Delete(ctx context.Context, id uuid.UUID) error {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := record.EnsureDeletable(); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, shared.ErrStaleStatus) {
			return s.protectedOrMissing(ctx, id)
		}
		return err
	}
	s.logger.Info("sales record deleted",
		zap.String("record_id", id.String()),
		zap.String("sequence_number", record.SequenceNumber),
	)
	s.publish(ctx, sales.NewSalesRecordDeletedEvent(record))
	return nil
}

// protectedOrMissing reports why a guarded delete matched no row: the record
// left the deletable statuses after it was read.
func (s *LifecycleService) protectedOrMissing(ctx context.Context, id uuid.UUID) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	s.logger.Warn("sales record changed status before delete",
		zap.String("record_id", id.String()),
		zap.String("status", current.Status().String()),
	)
	if err := current.EnsureDeletable(); err != nil {
		return err
	}
	return shared.ErrConcurrencyConflict
}

func (s *LifecycleService) toCheckedResponse(record *sales.SalesRecord) SalesRecordResponse {
	response := ToSalesRecordResponse(record)
	if w := record.CheckConsistency(); w != nil {
		s.logger.Warn("sales record totals inconsistent",
			zap.String("record_id", record.ID.String()),
			zap.String("sequence_number", record.SequenceNumber),
			zap.String("code", w.Code),
		)
		response.Warnings = append(response.Warnings, *w)
	}
	return response
}

// publish hands events to the bus after commit. Failures are logged only:
// the state change is already durable.
func (s *LifecycleService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		types := make([]string, len(events))
		for i, e := range events {
			types[i] = e.EventType()
		}
		s.logger.Error("failed to publish sales events",
			zap.String("event_types", strings.Join(types, ",")),
			zap.Error(err),
		)
	}
}
