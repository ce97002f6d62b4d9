package sink

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/MtnBiker/convert-apple-health-export/pkg/common/models"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS blood_pressure_readings (
	id TEXT PRIMARY KEY,
	time TEXT NOT NULL UNIQUE,
	systolic TEXT NOT NULL,
	diastolic TEXT,
	heart_rate TEXT,
	run_id TEXT,
	created_at TEXT NOT NULL
);`

const sqliteUpsert = `
INSERT INTO blood_pressure_readings (id, time, systolic, diastolic, heart_rate, run_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(time) DO UPDATE SET
	systolic = excluded.systolic,
	diastolic = excluded.diastolic,
	heart_rate = excluded.heart_rate,
	run_id = excluded.run_id`

// SQLiteSink keeps a local database file next to the CSV.
type SQLiteSink struct {
	db *sql.DB
}

func OpenSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("error opening SQLite database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating tables: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Name() string {
	return NameSQLite
}

func (s *SQLiteSink) Write(ctx context.Context, records []models.UnifiedRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, sqliteUpsert)
	if err != nil {
		return fmt.Errorf("error preparing insert: %w", err)
	}
	defer stmt.Close()

	runID := RunIDFrom(ctx)
	now := time.Now().UTC().Format(time.RFC3339)
	for _, rec := range records {
		_, err := stmt.ExecContext(ctx,
			uuid.New().String(),
			rec.Time,
			rec.Systolic,
			nullable(rec.Diastolic),
			nullable(rec.HeartRate),
			runID,
			now,
		)
		if err != nil {
			return fmt.Errorf("error inserting %s: %w", rec.Time, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func nullable(r models.Reading) sql.NullString {
	return sql.NullString{String: r.Value, Valid: r.Present}
}
