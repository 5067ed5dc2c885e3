package sales

import (
	"context"
	"time"

	"github.com/btp-erp/backend/internal/domain/ledger"
	"github.com/btp-erp/backend/internal/domain/sales"
	"github.com/btp-erp/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockSalesRecordRepository is a mock implementation of SalesRecordRepository
type MockSalesRecordRepository struct {
	mock.Mock
}

func (m *MockSalesRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.SalesRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.SalesRecord), args.Error(1)
}

func (m *MockSalesRecordRepository) FindBySequenceNumber(ctx context.Context, seq string) (*sales.SalesRecord, error) {
	args := m.Called(ctx, seq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.SalesRecord), args.Error(1)
}

func (m *MockSalesRecordRepository) FindAll(ctx context.Context, filter shared.Filter) ([]sales.SalesRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sales.SalesRecord), args.Error(1)
}

func (m *MockSalesRecordRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSalesRecordRepository) Create(ctx context.Context, record *sales.SalesRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockSalesRecordRepository) SaveWithLock(ctx context.Context, record *sales.SalesRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockSalesRecordRepository) SaveTransition(ctx context.Context, record *sales.SalesRecord, from sales.Stage) error {
	return m.Called(ctx, record, from).Error(0)
}

func (m *MockSalesRecordRepository) SaveNotes(ctx context.Context, record *sales.SalesRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockSalesRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSalesRecordRepository) NextSequenceNumber(ctx context.Context, at time.Time) (string, error) {
	args := m.Called(ctx, at)
	return args.String(0), args.Error(1)
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]ledger.Transaction, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) FindByReference(ctx context.Context, reference string) ([]ledger.Transaction, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ExistsReference(ctx context.Context, reference string) (bool, error) {
	args := m.Called(ctx, reference)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *ledger.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockTransactionRepository) SaveWithLock(ctx context.Context, tx *ledger.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockSettlementHandler is a mock implementation of SettlementHandler
type MockSettlementHandler struct {
	mock.Mock
}

func (m *MockSettlementHandler) RecordSettlement(ctx context.Context, txRepo ledger.TransactionRepository, event *sales.InvoiceSettled) (*ledger.Transaction, error) {
	args := m.Called(ctx, txRepo, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}
