package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/btp-erp/backend/internal/domain/sales"
	"github.com/btp-erp/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestGormSalesRecordRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSalesRecordRepository(newTestDB(t), "")

	a, err := sales.NewLineItem("P-002", "Acier", decimal.NewFromInt(1), decimal.RequireFromString("12.5"))
	require.NoError(t, err)
	b, err := sales.NewLineItem("P-001", "Béton", decimal.NewFromInt(3), decimal.NewFromInt(10))
	require.NoError(t, err)
	rec := newTestRecord(t, "FACT-202403-000001", "client-1", a, b)
	require.NoError(t, repo.Create(ctx, rec))

	found, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.SequenceNumber, found.SequenceNumber)
	assert.Equal(t, sales.StatusInProgress, found.Status())
	assert.Equal(t, sales.PhaseOrder, found.Phase())
	require.Len(t, found.Lines, 2)
	assert.Equal(t, "P-002", found.Lines[0].ProductRef, "lines keep input order")
	assert.Equal(t, "P-001", found.Lines[1].ProductRef)
	assert.True(t, rec.Total.Equal(found.Total))
	assert.Nil(t, found.CheckConsistency())

	bySeq, err := repo.FindBySequenceNumber(ctx, "FACT-202403-000001")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, bySeq.ID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = repo.FindBySequenceNumber(ctx, "FACT-000000-000000")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormSalesRecordRepository_DuplicateSequenceNumber(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSalesRecordRepository(newTestDB(t), "")

	require.NoError(t, repo.Create(ctx, newTestRecord(t, "FACT-202403-000001", "client-1")))
	assert.Error(t, repo.Create(ctx, newTestRecord(t, "FACT-202403-000001", "client-2")))
}

func TestGormSalesRecordRepository_SaveWithLock(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSalesRecordRepository(newTestDB(t), "")
	rec := newTestRecord(t, "FACT-202403-000001", "client-1")
	require.NoError(t, repo.Create(ctx, rec))

	li, err := sales.NewLineItem("P-009", "Gravier", decimal.NewFromInt(4), decimal.NewFromInt(25))
	require.NoError(t, err)
	require.NoError(t, rec.UpdateLines([]sales.LineItem{li}))
	require.NoError(t, repo.SaveWithLock(ctx, rec))
	assert.Equal(t, 2, rec.Version)

	found, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, found.Lines, 1)
	assert.Equal(t, "P-009", found.Lines[0].ProductRef)
	assert.Equal(t, 2, found.Version)

	t.Run("stale version conflicts", func(t *testing.T) {
		stale := *found
		stale.Version = 1
		assert.ErrorIs(t, repo.SaveWithLock(ctx, &stale), shared.ErrConcurrencyConflict)
	})

	t.Run("record that left en cours conflicts", func(t *testing.T) {
		current, err := repo.FindByID(ctx, rec.ID)
		require.NoError(t, err)
		from := current.Stage()
		require.NoError(t, current.Validate())
		require.NoError(t, repo.SaveTransition(ctx, current, from))

		edit := *found
		edit.Version = current.Version
		assert.ErrorIs(t, repo.SaveWithLock(ctx, &edit), shared.ErrConcurrencyConflict)
	})

	t.Run("missing record", func(t *testing.T) {
		ghost := newTestRecord(t, "FACT-202403-000099", "client-1")
		assert.ErrorIs(t, repo.SaveWithLock(ctx, ghost), shared.ErrNotFound)
	})
}

func TestGormSalesRecordRepository_SaveTransition(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSalesRecordRepository(newTestDB(t), "")
	rec := newTestRecord(t, "FACT-202403-000001", "client-1")
	require.NoError(t, repo.Create(ctx, rec))

	first, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)

	from := first.Stage()
	require.NoError(t, first.Validate())
	require.NoError(t, repo.SaveTransition(ctx, first, from))

	_, err = second.Cancel("client changed mind")
	require.NoError(t, err)
	assert.ErrorIs(t, repo.SaveTransition(ctx, second, from), shared.ErrStaleStatus)

	stored, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.StatusValidated, stored.Status())
	assert.NotNil(t, stored.ValidatedAt)
	assert.Empty(t, stored.CancelReason)

	t.Run("invoice stage round trips", func(t *testing.T) {
		from := stored.Stage()
		require.NoError(t, stored.GenerateInvoice(day(2024, 3, 20), nil, nil))
		require.NoError(t, repo.SaveTransition(ctx, stored, from))

		inv, err := repo.FindByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, sales.PhaseInvoice, inv.Phase())
		assert.Equal(t, sales.StatusInvoiced, inv.Status())
		require.NotNil(t, inv.InvoiceDate)
	})

	t.Run("missing record", func(t *testing.T) {
		ghost := newTestRecord(t, "FACT-202403-000099", "client-1")
		assert.ErrorIs(t, repo.SaveTransition(ctx, ghost, ghost.Stage()), shared.ErrNotFound)
	})
}

func TestGormSalesRecordRepository_Delete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormSalesRecordRepository(db, "")
	rec := newTestRecord(t, "FACT-202403-000001", "client-1")
	require.NoError(t, repo.Create(ctx, rec))

	require.NoError(t, repo.Delete(ctx, rec.ID))
	_, err := repo.FindByID(ctx, rec.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	var lines int64
	require.NoError(t, db.Table("sales_record_lines").Where("record_id = ?", rec.ID).Count(&lines).Error)
	assert.Zero(t, lines)

	assert.ErrorIs(t, repo.Delete(ctx, rec.ID), shared.ErrNotFound)
}

func TestGormSalesRecordRepository_DeleteGuardedByStatus(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormSalesRecordRepository(db, "")
	rec := newTestRecord(t, "FACT-202403-000001", "client-1")
	require.NoError(t, repo.Create(ctx, rec))

	from := rec.Stage()
	require.NoError(t, rec.Validate())
	require.NoError(t, repo.SaveTransition(ctx, rec, from))

	assert.ErrorIs(t, repo.Delete(ctx, rec.ID), shared.ErrStaleStatus)

	stored, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.StatusValidated, stored.Status())
	assert.Len(t, stored.Lines, len(rec.Lines), "lines survive the rejected delete")

	from = stored.Stage()
	_, err = stored.Cancel("duplicate")
	require.NoError(t, err)
	require.NoError(t, repo.SaveTransition(ctx, stored, from))
	assert.NoError(t, repo.Delete(ctx, rec.ID), "annulée is deletable")
}

func TestGormSalesRecordRepository_SaveNotes(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSalesRecordRepository(newTestDB(t), "")
	rec := newTestRecord(t, "FACT-202403-000001", "client-1")
	require.NoError(t, repo.Create(ctx, rec))

	from := rec.Stage()
	require.NoError(t, rec.Validate())
	require.NoError(t, repo.SaveTransition(ctx, rec, from))

	stored, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	stale := *stored
	version := stored.Version

	stored.UpdateNotes("appeler le conducteur de travaux")
	require.NoError(t, repo.SaveNotes(ctx, stored))
	assert.Equal(t, version+1, stored.Version)

	reloaded, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "appeler le conducteur de travaux", reloaded.Notes)
	assert.Equal(t, sales.StatusValidated, reloaded.Status())
	assert.Equal(t, stored.Version, reloaded.Version)

	t.Run("stale version", func(t *testing.T) {
		stale.UpdateNotes("older edit")
		assert.ErrorIs(t, repo.SaveNotes(ctx, &stale), shared.ErrConcurrencyConflict)
	})

	t.Run("missing record", func(t *testing.T) {
		ghost := newTestRecord(t, "FACT-202403-000099", "client-1")
		assert.ErrorIs(t, repo.SaveNotes(ctx, ghost), shared.ErrNotFound)
	})
}

func TestGormSalesRecordRepository_NextSequenceNumber(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSalesRecordRepository(newTestDB(t), "")
	march := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	first, err := repo.NextSequenceNumber(ctx, march)
	require.NoError(t, err)
	second, err := repo.NextSequenceNumber(ctx, march)
	require.NoError(t, err)
	april, err := repo.NextSequenceNumber(ctx, march.AddDate(0, 1, 0))
	require.NoError(t, err)

	assert.Equal(t, "FACT-202403-000001", first)
	assert.Equal(t, "FACT-202403-000002", second)
	assert.Equal(t, "FACT-202404-000001", april, "counter restarts each month")

	t.Run("concurrent callers get distinct numbers", func(t *testing.T) {
		const n = 20
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			seen = map[string]bool{}
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				seq, err := repo.NextSequenceNumber(ctx, march)
				assert.NoError(t, err)
				mu.Lock()
				seen[seq] = true
				mu.Unlock()
			}()
		}
		wg.Wait()
		assert.Len(t, seen, n)
	})
}

func TestGormSalesRecordRepository_FindAll(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormSalesRecordRepository(db, "")

	for i, client := range []string{"client-1", "client-2", "client-1"} {
		rec := newTestRecord(t, sales.FormatSequenceNumber("FACT", day(2024, 3, 1), int64(i+1)), client)
		rec.CreatedAt = day(2024, 3, 1+i*10)
		require.NoError(t, repo.Create(ctx, rec))
	}

	byClient := shared.DefaultFilter().With(sales.FilterClientID, "client-1")
	records, err := repo.FindAll(ctx, byClient)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	count, err := repo.Count(ctx, byClient)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	window := shared.DefaultFilter().
		With(sales.FilterDateFrom, day(2024, 3, 5)).
		With(sales.FilterDateTo, day(2024, 3, 21))
	window.OrderBy = "created_at"
	window.OrderDir = "asc"
	records, err = repo.FindAll(ctx, window)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "FACT-202403-000002", records[0].SequenceNumber)

	byStatus := shared.DefaultFilter().With(sales.FilterStatus, sales.StatusPaid)
	count, err = repo.Count(ctx, byStatus)
	require.NoError(t, err)
	assert.Zero(t, count)

	paged := shared.DefaultFilter()
	paged.PageSize = 2
	paged.Page = 2
	records, err = repo.FindAll(ctx, paged)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

// TestGormSalesRecordRepository_SaveTransitionSQL pins the compare-and-swap
// predicate against the postgres dialect
func TestGormSalesRecordRepository_SaveTransitionSQL(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}),
		&gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	repo := NewGormSalesRecordRepository(gormDB, "")

	rec := newTestRecord(t, "FACT-202403-000001", "client-1")
	from := rec.Stage()
	require.NoError(t, rec.Validate())

	mock.ExpectExec(`UPDATE "sales_records" SET .* WHERE id = \$\d+ AND phase = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "sales_records" WHERE id = \$1`).
		WithArgs(rec.ID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err = repo.SaveTransition(context.Background(), rec, from)
	assert.ErrorIs(t, err, shared.ErrStaleStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}
