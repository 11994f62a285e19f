// Package timescaledb implements the sample store on TimescaleDB, the
// lab's shared long-term backend.
package timescaledb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chrissnell/cryo107/internal/database"
	"github.com/chrissnell/cryo107/internal/log"
	"github.com/chrissnell/cryo107/internal/types"
)

// insertBatchSize bounds one INSERT statement during bulk appends.
const insertBatchSize = 1000

// Storage is a sample store backed by TimescaleDB.
type Storage struct {
	db *gorm.DB
}

// New connects to TimescaleDB and ensures the schema exists.  The
// extension and hypertable steps are best-effort: against a plain
// PostgreSQL server the store still works, it just loses the time
// partitioning.
func New(ctx context.Context, connectionString string) (*Storage, error) {
	db, err := database.CreateConnection(connectionString)
	if err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).Exec(createTableSQL).Error; err != nil {
		return nil, fmt.Errorf("failed to create samples table: %w", err)
	}
	if err := db.WithContext(ctx).Exec(createIngestsSQL).Error; err != nil {
		return nil, fmt.Errorf("failed to create ingests table: %w", err)
	}
	if err := db.WithContext(ctx).Exec(createExtensionSQL).Error; err != nil {
		log.Warn("could not create TimescaleDB extension: ", err)
	}
	if err := db.WithContext(ctx).Exec(createHypertableSQL).Error; err != nil {
		log.Warn("could not convert samples to a hypertable: ", err)
	}

	return &Storage{db: db}, nil
}

// Append bulk-inserts the table inside one transaction, stamping every
// row with sourceID, then records the ingest audit row.
func (s *Storage) Append(ctx context.Context, table types.Table, sourceID string) error {
	rows := table.Clone()
	for i := range rows {
		rows[i].SourcePath = sourceID
	}

	ingest := types.Ingest{
		ID:         uuid.New().String(),
		Filepath:   sourceID,
		Rows:       len(rows),
		IngestedAt: time.Now().UTC(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, insertBatchSize).Error; err != nil {
				return err
			}
		}
		return tx.Create(&ingest).Error
	})
	if err != nil {
		return fmt.Errorf("failed to ingest %s: %w", sourceID, err)
	}

	log.Infof("ingested %d rows from %s as %s", len(rows), sourceID, ingest.ID)
	return nil
}

// FetchRange returns rows with start <= time <= end ordered by time.
func (s *Storage) FetchRange(ctx context.Context, start, end time.Time) (types.Table, error) {
	var table types.Table
	err := s.db.WithContext(ctx).
		Where("time BETWEEN ? AND ?", start, end).
		Order("time").
		Find(&table).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query sample range: %w", err)
	}
	return table, nil
}

// Ingests returns the audit records of past appends, newest first.
func (s *Storage) Ingests(ctx context.Context) ([]types.Ingest, error) {
	var ingests []types.Ingest
	err := s.db.WithContext(ctx).
		Order("ingested_at DESC").
		Find(&ingests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query ingests: %w", err)
	}
	return ingests, nil
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
