// Package sqlite implements the sample store on a single-file SQLite
// database.  It is the portable backend: an analysis laptop away from the
// lab network gets the same ingest-and-query surface as the shared
// TimescaleDB server.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/chrissnell/cryo107/internal/log"
	"github.com/chrissnell/cryo107/internal/types"
)

// timeKey is the TEXT key layout for the time column.  It sorts
// lexicographically in timestamp order, which the BETWEEN range scan
// depends on.
const timeKey = "2006-01-02 15:04:05"

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS samples (
    time         TEXT NOT NULL,
    hours        REAL,
    temp_50mk    REAL,
    temp_he3     REAL,
    temp_3k      REAL,
    magnet_diode REAL,
    temp_50k     REAL,
    setpoint     REAL,
    current      REAL,
    voltage      REAL,
    notes        TEXT NOT NULL DEFAULT '',
    filepath     TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS samples_time_idx ON samples (time);

CREATE TABLE IF NOT EXISTS ingests (
    id          TEXT PRIMARY KEY,
    filepath    TEXT NOT NULL,
    row_count   INTEGER NOT NULL,
    ingested_at TEXT NOT NULL
);
`

const insertSampleSQL = `
INSERT INTO samples (time, hours, temp_50mk, temp_he3, temp_3k, magnet_diode,
                     temp_50k, setpoint, current, voltage, notes, filepath)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertIngestSQL = `
INSERT INTO ingests (id, filepath, row_count, ingested_at) VALUES (?, ?, ?, ?)`

const selectRangeSQL = `
SELECT time, hours, temp_50mk, temp_he3, temp_3k, magnet_diode,
       temp_50k, setpoint, current, voltage, notes, filepath
FROM samples WHERE time BETWEEN ? AND ? ORDER BY time`

const selectIngestsSQL = `
SELECT id, filepath, row_count, ingested_at FROM ingests ORDER BY ingested_at DESC`

// Store is a sample store backed by a single SQLite file.
type Store struct {
	db   *sql.DB
	path string
}

// New opens or creates the database at path and ensures the schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Debug("SQLite store ready at ", path)
	return &Store{db: db, path: path}, nil
}

// Append bulk-inserts the table in one transaction, stamping every row
// with sourceID, and records the batch in the ingests table.
func (s *Store) Append(ctx context.Context, table types.Table, sourceID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin ingest transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSampleSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare sample insert: %w", err)
	}
	defer stmt.Close()

	for i := range table {
		smp := &table[i]
		_, err := stmt.ExecContext(ctx,
			smp.Timestamp.UTC().Format(timeKey),
			smp.Hours, smp.Temp50mK, smp.TempHe3, smp.Temp3K,
			smp.MagnetDiode, smp.Temp50K, smp.Setpoint,
			smp.Current, smp.Voltage, smp.Notes, sourceID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert sample %d: %w", i, err)
		}
	}

	ingest := types.Ingest{
		ID:         uuid.New().String(),
		Filepath:   sourceID,
		Rows:       len(table),
		IngestedAt: time.Now().UTC(),
	}
	if _, err := tx.ExecContext(ctx, insertIngestSQL,
		ingest.ID, ingest.Filepath, ingest.Rows, ingest.IngestedAt.Format(timeKey)); err != nil {
		return fmt.Errorf("failed to record ingest: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ingest: %w", err)
	}

	log.Infof("ingested %d rows from %s as %s", len(table), sourceID, ingest.ID)
	return nil
}

// FetchRange returns rows with start <= time <= end ordered by time.
func (s *Store) FetchRange(ctx context.Context, start, end time.Time) (types.Table, error) {
	rows, err := s.db.QueryContext(ctx, selectRangeSQL,
		start.UTC().Format(timeKey), end.UTC().Format(timeKey))
	if err != nil {
		return nil, fmt.Errorf("failed to query sample range: %w", err)
	}
	defer rows.Close()

	var table types.Table
	for rows.Next() {
		var smp types.Sample
		var key string
		if err := rows.Scan(&key, &smp.Hours, &smp.Temp50mK, &smp.TempHe3, &smp.Temp3K,
			&smp.MagnetDiode, &smp.Temp50K, &smp.Setpoint, &smp.Current, &smp.Voltage,
			&smp.Notes, &smp.SourcePath); err != nil {
			return nil, fmt.Errorf("failed to scan sample row: %w", err)
		}
		ts, err := time.ParseInLocation(timeKey, key, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored timestamp %q: %w", key, err)
		}
		smp.Timestamp = ts
		table = append(table, smp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sample rows: %w", err)
	}
	return table, nil
}

// Ingests returns the audit records of past appends, newest first.
func (s *Store) Ingests(ctx context.Context) ([]types.Ingest, error) {
	rows, err := s.db.QueryContext(ctx, selectIngestsSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingests: %w", err)
	}
	defer rows.Close()

	var ingests []types.Ingest
	for rows.Next() {
		var ing types.Ingest
		var at string
		if err := rows.Scan(&ing.ID, &ing.Filepath, &ing.Rows, &at); err != nil {
			return nil, fmt.Errorf("failed to scan ingest row: %w", err)
		}
		ts, err := time.ParseInLocation(timeKey, at, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ingest timestamp %q: %w", at, err)
		}
		ing.IngestedAt = ts
		ingests = append(ingests, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ingest rows: %w", err)
	}
	return ingests, nil
}

// Close closes the database file.
func (s *Store) Close() error {
	return s.db.Close()
}
