package sales

import (
	"context"

	"github.com/btp-erp/backend/internal/domain/ledger"
	"github.com/btp-erp/backend/internal/domain/sales"
)

// TransactionScope runs a unit of work atomically. If fn returns an error,
// every write made through repos is rolled back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to the repositories bound to the
// current transaction. Settlement writes the ledger through Transactions so
// that the status change and the ledger entry commit together.
type TransactionalRepositories interface {
	SalesRecords() sales.SalesRecordRepository
	Transactions() ledger.TransactionRepository
}

// NoOpTransactionScope runs fn without a transaction. Only suitable for tests
// and single-writer setups.
type NoOpTransactionScope struct {
	salesRepo  sales.SalesRecordRepository
	ledgerRepo ledger.TransactionRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(salesRepo sales.SalesRecordRepository, ledgerRepo ledger.TransactionRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{salesRepo: salesRepo, ledgerRepo: ledgerRepo}
}

// Execute calls fn directly
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) SalesRecords() sales.SalesRecordRepository  { return s.salesRepo }
func (s *NoOpTransactionScope) Transactions() ledger.TransactionRepository { return s.ledgerRepo }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)

// SettlementHandler writes the ledger entry of a paid invoice. It is invoked
// inside the payment transaction with the transaction-bound ledger repository.
type SettlementHandler interface {
	RecordSettlement(ctx context.Context, txRepo ledger.TransactionRepository, event *sales.InvoiceSettled) (*ledger.Transaction, error)
}
