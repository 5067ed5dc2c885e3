package persistence

import (
	"context"

	appsales "github.com/btp-erp/backend/internal/application/sales"
	"github.com/btp-erp/backend/internal/domain/ledger"
	"github.com/btp-erp/backend/internal/domain/sales"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Sales record and ledger writes made through the scope commit together.
type GormTransactionScope struct {
	db     *gorm.DB
	prefix string
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB, sequencePrefix string) *GormTransactionScope {
	return &GormTransactionScope{db: db, prefix: sequencePrefix}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appsales.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, prefix: s.prefix})
	})
}

type gormTransactionalRepositories struct {
	tx     *gorm.DB
	prefix string
}

// SalesRecords returns the sales record repository bound to the transaction.
func (r *gormTransactionalRepositories) SalesRecords() sales.SalesRecordRepository {
	return NewGormSalesRecordRepository(r.tx, r.prefix)
}

// Transactions returns the ledger repository bound to the transaction.
func (r *gormTransactionalRepositories) Transactions() ledger.TransactionRepository {
	return NewGormTransactionRepository(r.tx)
}

var _ appsales.TransactionScope = (*GormTransactionScope)(nil)
var _ appsales.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
