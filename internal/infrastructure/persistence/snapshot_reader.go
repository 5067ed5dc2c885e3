package persistence

import (
	"context"

	"github.com/btp-erp/backend/internal/domain/analytics"
	"github.com/btp-erp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSnapshotReader loads analytics snapshots. Both queries run without
// locks; an aggregation sees whatever was committed when it ran.
type GormSnapshotReader struct {
	db *gorm.DB
}

// NewGormSnapshotReader creates a new GormSnapshotReader
func NewGormSnapshotReader(db *gorm.DB) *GormSnapshotReader {
	return &GormSnapshotReader{db: db}
}

// Snapshot returns ledger entries dated inside w and sales records created
// inside w. ClientID narrows records by client and entries by counterparty.
// Category narrows entries only.
func (r *GormSnapshotReader) Snapshot(ctx context.Context, w analytics.Window) (*analytics.Snapshot, error) {
	txQuery := r.db.WithContext(ctx).Model(&models.TransactionModel{})
	if !w.From.IsZero() {
		txQuery = txQuery.Where("date >= ?", w.From)
	}
	if !w.To.IsZero() {
		txQuery = txQuery.Where("date < ?", w.To)
	}
	if w.Category != "" {
		txQuery = txQuery.Where("category = ?", string(w.Category))
	}
	if w.ClientID != "" {
		txQuery = txQuery.Where("counterparty = ?", w.ClientID)
	}
	var txRows []models.TransactionModel
	if err := txQuery.Order("date ASC, created_at ASC, id ASC").Find(&txRows).Error; err != nil {
		return nil, err
	}

	recQuery := r.db.WithContext(ctx).Model(&models.SalesRecordModel{}).Preload("Lines", preloadLines)
	if !w.From.IsZero() {
		recQuery = recQuery.Where("created_at >= ?", w.From)
	}
	if !w.To.IsZero() {
		recQuery = recQuery.Where("created_at < ?", w.To)
	}
	if w.ClientID != "" {
		recQuery = recQuery.Where("client_id = ?", w.ClientID)
	}
	var recRows []models.SalesRecordModel
	if err := recQuery.Order("created_at ASC, id ASC").Find(&recRows).Error; err != nil {
		return nil, err
	}

	records, err := toSalesRecords(recRows)
	if err != nil {
		return nil, err
	}
	return &analytics.Snapshot{
		Transactions: toTransactions(txRows),
		SalesRecords: records,
	}, nil
}

var _ analytics.SnapshotReader = (*GormSnapshotReader)(nil)
