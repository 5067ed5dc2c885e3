package models

// SequenceCounterModel holds the last issued sequence number per prefix and
// month (period YYYYMM)
type SequenceCounterModel struct {
	Prefix string `gorm:"type:varchar(20);primaryKey"`
	Period string `gorm:"type:varchar(6);primaryKey"`
	Value  int64  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (SequenceCounterModel) TableName() string {
	return "sequence_counters"
}

// AllModels lists every model, in dependency order, for AutoMigrate in
// sqlite mode and tests
func AllModels() []any {
	return []any{
		&SalesRecordModel{},
		&SalesRecordLineModel{},
		&TransactionModel{},
		&SequenceCounterModel{},
	}
}
