package persistence

import (
	"testing"
	"time"

	"github.com/btp-erp/backend/internal/domain/sales"
	"github.com/btp-erp/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory sqlite database with the schema applied
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func newTestRecord(t *testing.T, seq, client string, lines ...sales.LineItem) *sales.SalesRecord {
	t.Helper()
	if len(lines) == 0 {
		li, err := sales.NewLineItem("P-001", "Béton 30 MPa", decimal.NewFromInt(2), decimal.NewFromInt(50))
		require.NoError(t, err)
		lines = []sales.LineItem{li}
	}
	rec, err := sales.NewSalesRecord(seq, client, lines, decimal.NewFromInt(10), nil, "")
	require.NoError(t, err)
	return rec
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptrDay(y int, m time.Month, d int) *time.Time {
	t := day(y, m, d)
	return &t
}
