package ledger

import (
	"context"

	"github.com/btp-erp/backend/internal/domain/ledger"
	"github.com/btp-erp/backend/internal/domain/sales"
	"github.com/btp-erp/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransactionService handles manual ledger operations
type TransactionService struct {
	repo           ledger.TransactionRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(repo ledger.TransactionRepository, logger *zap.Logger) *TransactionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionService{repo: repo, logger: logger}
}

// SetEventPublisher sets the event publisher
func (s *TransactionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create appends a manual entry. References shaped like an invoice sequence
// number are reserved for settlement entries.
func (s *TransactionService) Create(ctx context.Context, req CreateTransactionRequest) (*TransactionResponse, error) {
	tx, err := ledger.NewTransaction(ledger.TransactionParams{
		Type:         ledger.Type(req.Type),
		Description:  req.Description,
		Amount:       req.Amount,
		Date:         req.Date,
		Category:     ledger.Category(req.Category),
		Status:       ledger.Status(req.Status),
		Reference:    req.Reference,
		Counterparty: req.Counterparty,
	})
	if err != nil {
		return nil, err
	}
	if tx.Reference != nil && sales.IsSequenceNumber(*tx.Reference) {
		return nil, shared.NewValidationError("Reference '%s' is reserved for invoice settlements", *tx.Reference)
	}
	if err := s.repo.Create(ctx, tx); err != nil {
		return nil, err
	}
	s.publish(ctx, tx)

	response := ToTransactionResponse(tx)
	return &response, nil
}

// GetByID returns one entry
func (s *TransactionService) GetByID(ctx context.Context, id uuid.UUID) (*TransactionResponse, error) {
	tx, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToTransactionResponse(tx)
	return &response, nil
}

// List returns entries matching the filter with the total match count
func (s *TransactionService) List(ctx context.Context, filter TransactionListFilter) ([]TransactionResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "date"
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
	if filter.Type != "" {
		t := ledger.Type(filter.Type)
		if !t.IsValid() {
			return nil, 0, shared.NewValidationError("Invalid transaction type '%s'", filter.Type)
		}
		domainFilter = domainFilter.With(ledger.FilterType, t)
	}
	if filter.Category != "" {
		c := ledger.Category(filter.Category)
		if !c.IsValid() {
			return nil, 0, shared.NewValidationError("Invalid transaction category '%s'", filter.Category)
		}
		domainFilter = domainFilter.With(ledger.FilterCategory, c)
	}
	if filter.Status != "" {
		st := ledger.Status(filter.Status)
		if !st.IsValid() {
			return nil, 0, shared.NewValidationError("Invalid transaction status '%s'", filter.Status)
		}
		domainFilter = domainFilter.With(ledger.FilterStatus, st)
	}
	if filter.Origin != "" {
		domainFilter = domainFilter.With(ledger.FilterOrigin, ledger.Origin(filter.Origin))
	}
	if filter.DateFrom != nil {
		domainFilter = domainFilter.With(ledger.FilterDateFrom, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		domainFilter = domainFilter.With(ledger.FilterDateTo, filter.DateTo.AddDate(0, 0, 1))
	}

	txs, err := s.repo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]TransactionResponse, len(txs))
	for i := range txs {
		responses[i] = ToTransactionResponse(&txs[i])
	}
	return responses, total, nil
}

// Update edits an entry, settlement entries included
func (s *TransactionService) Update(ctx context.Context, id uuid.UUID, req UpdateTransactionRequest) (*TransactionResponse, error) {
	tx, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Version != nil && *req.Version != tx.Version {
		return nil, shared.ErrConcurrencyConflict
	}

	u := ledger.TransactionUpdate{
		Description:  req.Description,
		Amount:       req.Amount,
		Date:         req.Date,
		Counterparty: req.Counterparty,
	}
	if req.Type != nil {
		t := ledger.Type(*req.Type)
		u.Type = &t
	}
	if req.Category != nil {
		c := ledger.Category(*req.Category)
		u.Category = &c
	}
	if req.Status != nil {
		st := ledger.Status(*req.Status)
		u.Status = &st
	}
	if err := tx.Update(u); err != nil {
		return nil, err
	}
	if err := s.repo.SaveWithLock(ctx, tx); err != nil {
		return nil, err
	}
	s.publish(ctx, tx)

	response := ToTransactionResponse(tx)
	return &response, nil
}

// Delete removes an entry. Removing an entry paired with an invoice succeeds
// but carries a referential gap warning.
func (s *TransactionService) Delete(ctx context.Context, id uuid.UUID) (*DeleteTransactionResult, error) {
	tx, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}

	result := &DeleteTransactionResult{ID: id}
	if w := tx.DeletionWarning(); w != nil {
		s.logger.Warn("ledger entry paired with an invoice deleted",
			zap.String("transaction_id", id.String()),
			zap.String("reference", *tx.Reference),
			zap.String("origin", string(tx.Origin)),
		)
		result.Warnings = append(result.Warnings, *w)
	}
	tx.AddDomainEvent(ledger.NewTransactionDeletedEvent(tx))
	s.publish(ctx, tx)
	return result, nil
}

func (s *TransactionService) publish(ctx context.Context, tx *ledger.Transaction) {
	defer tx.ClearDomainEvents()
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, tx.GetDomainEvents()...); err != nil {
		s.logger.Error("failed to publish ledger events",
			zap.String("transaction_id", tx.ID.String()),
			zap.Error(err),
		)
	}
}
