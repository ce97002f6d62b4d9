package sink

import (
	"context"
	"time"

	"github.com/MtnBiker/convert-apple-health-export/pkg/common/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const readingsTable = "blood_pressure_readings"

// ReadingRow is the stored form of a UnifiedRecord. Values stay text, as in
// the CSV.
type ReadingRow struct {
	ID         string            `gorm:"primaryKey;column:id"`
	Time       string            `gorm:"column:time;uniqueIndex"`
	Systolic   string            `gorm:"column:systolic"`
	Diastolic  *string           `gorm:"column:diastolic"`
	HeartRate  *string           `gorm:"column:heart_rate"`
	RunID      string            `gorm:"column:run_id"`
	Attributes datatypes.JSONMap `gorm:"column:attributes"`
	CreatedAt  time.Time         `gorm:"column:created_at"`
}

func (ReadingRow) TableName() string {
	return readingsTable
}

type PostgresSink struct {
	db        *gorm.DB
	batchSize int
}

func NewPostgresSink(db *gorm.DB) *PostgresSink {
	return &PostgresSink{db: db, batchSize: 500}
}

func (s *PostgresSink) AutoMigrate() error {
	return s.db.AutoMigrate(&ReadingRow{})
}

func (s *PostgresSink) Name() string {
	return NamePostgres
}

// Write upserts by time so re-importing an export refreshes existing rows.
func (s *PostgresSink) Write(ctx context.Context, records []models.UnifiedRecord) error {
	rows := toRows(records, RunIDFrom(ctx), time.Now().UTC())
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "time"}},
			DoUpdates: clause.AssignmentColumns([]string{"systolic", "diastolic", "heart_rate", "run_id", "attributes"}),
		}).
		CreateInBatches(rows, s.batchSize).Error
}

func (s *PostgresSink) Close() error {
	return nil
}

func toRows(records []models.UnifiedRecord, runID string, now time.Time) []ReadingRow {
	rows := make([]ReadingRow, 0, len(records))
	for _, rec := range records {
		attrs := make(datatypes.JSONMap, len(rec.Attributes))
		for k, v := range rec.Attributes {
			attrs[k] = v
		}
		rows = append(rows, ReadingRow{
			ID:         uuid.New().String(),
			Time:       rec.Time,
			Systolic:   rec.Systolic,
			Diastolic:  optional(rec.Diastolic),
			HeartRate:  optional(rec.HeartRate),
			RunID:      runID,
			Attributes: attrs,
			CreatedAt:  now,
		})
	}
	return rows
}

func optional(r models.Reading) *string {
	if !r.Present {
		return nil
	}
	v := r.Value
	return &v
}
