package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/btp-erp/backend/internal/domain/sales"
	"github.com/btp-erp/backend/internal/domain/shared"
	"github.com/btp-erp/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSalesRecordRepository implements SalesRecordRepository using GORM
type GormSalesRecordRepository struct {
	db     *gorm.DB
	prefix string
}

// NewGormSalesRecordRepository creates a new GormSalesRecordRepository.
// An empty prefix selects sales.DefaultSequencePrefix.
func NewGormSalesRecordRepository(db *gorm.DB, prefix string) *GormSalesRecordRepository {
	if prefix == "" {
		prefix = sales.DefaultSequencePrefix
	}
	return &GormSalesRecordRepository{db: db, prefix: prefix}
}

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// FindByID finds a sales record by its ID
func (r *GormSalesRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.SalesRecord, error) {
	var model models.SalesRecordModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", preloadLines).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindBySequenceNumber finds a sales record by its sequence number
func (r *GormSalesRecordRepository) FindBySequenceNumber(ctx context.Context, sequenceNumber string) (*sales.SalesRecord, error) {
	var model models.SalesRecordModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", preloadLines).
		Where("sequence_number = ?", sequenceNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindAll lists sales records matching the filter
func (r *GormSalesRecordRepository) FindAll(ctx context.Context, filter shared.Filter) ([]sales.SalesRecord, error) {
	var rows []models.SalesRecordModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.SalesRecordModel{}).Preload("Lines", preloadLines),
		filter,
	)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toSalesRecords(rows)
}

// Count counts sales records matching the filter
func (r *GormSalesRecordRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.SalesRecordModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts the record and its lines
func (r *GormSalesRecordRepository) Create(ctx context.Context, record *sales.SalesRecord) error {
	model := models.SalesRecordModelFromDomain(record)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create sales record %s: %w", record.SequenceNumber, err)
	}
	for i := range record.Lines {
		record.Lines[i].ID = model.Lines[i].ID
	}
	return nil
}

// SaveWithLock persists edits of an en cours record with a version check
func (r *GormSalesRecordRepository) SaveWithLock(ctx context.Context, record *sales.SalesRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.SalesRecordModelFromDomain(record)
		next := record.Version + 1
		now := time.Now()

		result := tx.Model(&models.SalesRecordModel{}).
			Where("id = ? AND version = ? AND phase = ? AND status = ?",
				record.ID, record.Version, sales.PhaseOrder, sales.StatusInProgress).
			Updates(map[string]any{
				"discount":   model.Discount,
				"tax_rate":   model.TaxRate,
				"subtotal":   model.Subtotal,
				"tax_amount": model.TaxAmount,
				"total":      model.Total,
				"notes":      model.Notes,
				"version":    next,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return r.missingOr(tx, record.ID, shared.ErrConcurrencyConflict)
		}

		if err := tx.Where("record_id = ?", record.ID).Delete(&models.SalesRecordLineModel{}).Error; err != nil {
			return err
		}
		if len(model.Lines) > 0 {
			if err := tx.Create(&model.Lines).Error; err != nil {
				return err
			}
		}

		for i := range record.Lines {
			record.Lines[i].ID = model.Lines[i].ID
		}
		record.Version = next
		record.UpdatedAt = now
		return nil
	})
}

// SaveNotes writes the notes of a record in any status, guarded by version only
func (r *GormSalesRecordRepository) SaveNotes(ctx context.Context, record *sales.SalesRecord) error {
	next := record.Version + 1
	now := time.Now()

	db := r.db.WithContext(ctx)
	result := db.Model(&models.SalesRecordModel{}).
		Where("id = ? AND version = ?", record.ID, record.Version).
		Updates(map[string]any{
			"notes":      record.Notes,
			"version":    next,
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missingOr(db, record.ID, shared.ErrConcurrencyConflict)
	}
	record.Version = next
	record.UpdatedAt = now
	return nil
}

// SaveTransition writes a stage change only if the stored stage still equals
// from. Two callers racing from the same stage cannot both succeed.
func (r *GormSalesRecordRepository) SaveTransition(ctx context.Context, record *sales.SalesRecord, from sales.Stage) error {
	model := models.SalesRecordModelFromDomain(record)
	next := record.Version + 1

	result := r.db.WithContext(ctx).Model(&models.SalesRecordModel{}).
		Where("id = ? AND phase = ? AND status = ?", record.ID, string(from.Phase()), string(from.Status())).
		Updates(map[string]any{
			"phase":         model.Phase,
			"status":        model.Status,
			"discount":      model.Discount,
			"tax_rate":      model.TaxRate,
			"subtotal":      model.Subtotal,
			"tax_amount":    model.TaxAmount,
			"total":         model.Total,
			"cancel_reason": model.CancelReason,
			"validated_at":  model.ValidatedAt,
			"delivered_at":  model.DeliveredAt,
			"cancelled_at":  model.CancelledAt,
			"invoice_date":  model.InvoiceDate,
			"paid_at":       model.PaidAt,
			"version":       gorm.Expr("version + 1"),
			"updated_at":    model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missingOr(r.db.WithContext(ctx), record.ID, shared.ErrStaleStatus)
	}
	record.Version = next
	return nil
}

// Delete removes a record and its lines, provided the stored status is still
// deletable. A record that moved on in the meantime yields ErrStaleStatus.
func (r *GormSalesRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	deletable := make([]string, 0, len(sales.DeletableStatuses))
	for _, st := range sales.DeletableStatuses {
		deletable = append(deletable, st.String())
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("record_id = ?", id).Delete(&models.SalesRecordLineModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ? AND status IN ?", id, deletable).Delete(&models.SalesRecordModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return r.missingOr(tx, id, shared.ErrStaleStatus)
		}
		return nil
	})
}

// NextSequenceNumber atomically increments the counter of the month of at.
// The upsert takes a row lock, so concurrent callers get distinct values.
func (r *GormSalesRecordRepository) NextSequenceNumber(ctx context.Context, at time.Time) (string, error) {
	period := fmt.Sprintf("%04d%02d", at.Year(), int(at.Month()))
	var value int64
	err := r.db.WithContext(ctx).Raw(
		`INSERT INTO sequence_counters (prefix, period, value) VALUES (?, ?, 1)
		 ON CONFLICT (prefix, period) DO UPDATE SET value = sequence_counters.value + 1
		 RETURNING value`,
		r.prefix, period,
	).Scan(&value).Error
	if err != nil {
		return "", fmt.Errorf("failed to reserve sequence number for %s: %w", period, err)
	}
	return sales.FormatSequenceNumber(r.prefix, at, value), nil
}

// missingOr distinguishes a vanished record from a lost compare-and-swap
func (r *GormSalesRecordRepository) missingOr(db *gorm.DB, id uuid.UUID, conflict error) error {
	var count int64
	if err := db.Model(&models.SalesRecordModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return conflict
}

func (r *GormSalesRecordRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	sortField := ValidateSortField(filter.OrderBy, SalesRecordSortFields, "created_at")
	query = query.Order(sortField + " " + ValidateSortOrder(filter.OrderDir))

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	return query
}

func (r *GormSalesRecordRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if v, ok := filter.Filters[sales.FilterClientID].(string); ok && v != "" {
		query = query.Where("client_id = ?", v)
	}
	if v, ok := filter.Filters[sales.FilterStatus].(sales.Status); ok && v != "" {
		query = query.Where("status = ?", string(v))
	}
	if v, ok := filter.Filters[sales.FilterDateFrom].(time.Time); ok {
		query = query.Where("created_at >= ?", v)
	}
	if v, ok := filter.Filters[sales.FilterDateTo].(time.Time); ok {
		query = query.Where("created_at < ?", v)
	}
	return query
}

func toSalesRecords(rows []models.SalesRecordModel) ([]sales.SalesRecord, error) {
	out := make([]sales.SalesRecord, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

var _ sales.SalesRecordRepository = (*GormSalesRecordRepository)(nil)
