package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/btp-erp/backend/internal/domain/ledger"
	"github.com/btp-erp/backend/internal/domain/shared"
	"github.com/btp-erp/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTransactionRepository implements TransactionRepository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindByID finds a ledger entry by its ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	var model models.TransactionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists ledger entries matching the filter
func (r *GormTransactionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]ledger.Transaction, error) {
	var rows []models.TransactionModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.TransactionModel{}), filter)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toTransactions(rows), nil
}

// Count counts ledger entries matching the filter
func (r *GormTransactionRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.TransactionModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindByReference lists entries carrying the given reference, oldest first
func (r *GormTransactionRepository) FindByReference(ctx context.Context, reference string) ([]ledger.Transaction, error) {
	var rows []models.TransactionModel
	if err := r.db.WithContext(ctx).
		Where("reference = ?", reference).
		Order("date ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toTransactions(rows), nil
}

// ExistsReference reports whether any entry, manual or system, carries reference
func (r *GormTransactionRepository) ExistsReference(ctx context.Context, reference string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.TransactionModel{}).
		Where("reference = ?", reference).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create appends a ledger entry
func (r *GormTransactionRepository) Create(ctx context.Context, tx *ledger.Transaction) error {
	model := models.TransactionModelFromDomain(tx)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// SaveWithLock saves an edited entry if its version did not move
func (r *GormTransactionRepository) SaveWithLock(ctx context.Context, tx *ledger.Transaction) error {
	model := models.TransactionModelFromDomain(tx)
	next := tx.Version + 1
	now := time.Now()

	result := r.db.WithContext(ctx).Model(&models.TransactionModel{}).
		Where("id = ? AND version = ?", tx.ID, tx.Version).
		Updates(map[string]any{
			"type":         model.Type,
			"description":  model.Description,
			"amount":       model.Amount,
			"date":         model.Date,
			"category":     model.Category,
			"status":       model.Status,
			"reference":    model.Reference,
			"counterparty": model.Counterparty,
			"version":      next,
			"updated_at":   now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.TransactionModel{}).Where("id = ?", tx.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrConcurrencyConflict
	}
	tx.Version = next
	tx.UpdatedAt = now
	return nil
}

// Delete removes a ledger entry
func (r *GormTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.TransactionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormTransactionRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	sortField := ValidateSortField(filter.OrderBy, TransactionSortFields, "date")
	query = query.Order(sortField + " " + ValidateSortOrder(filter.OrderDir)).Order("created_at DESC")

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	return query
}

func (r *GormTransactionRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if v, ok := filter.Filters[ledger.FilterType].(ledger.Type); ok && v != "" {
		query = query.Where("type = ?", string(v))
	}
	if v, ok := filter.Filters[ledger.FilterCategory].(ledger.Category); ok && v != "" {
		query = query.Where("category = ?", string(v))
	}
	if v, ok := filter.Filters[ledger.FilterStatus].(ledger.Status); ok && v != "" {
		query = query.Where("status = ?", string(v))
	}
	if v, ok := filter.Filters[ledger.FilterOrigin].(ledger.Origin); ok && v != "" {
		query = query.Where("origin = ?", string(v))
	}
	if v, ok := filter.Filters[ledger.FilterReference].(string); ok && v != "" {
		query = query.Where("reference = ?", v)
	}
	if v, ok := filter.Filters[ledger.FilterDateFrom].(time.Time); ok {
		query = query.Where("date >= ?", v)
	}
	if v, ok := filter.Filters[ledger.FilterDateTo].(time.Time); ok {
		query = query.Where("date < ?", v)
	}
	return query
}

func toTransactions(rows []models.TransactionModel) []ledger.Transaction {
	out := make([]ledger.Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out
}

var _ ledger.TransactionRepository = (*GormTransactionRepository)(nil)
