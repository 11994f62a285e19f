// Package storage defines the persistence contract for ADR log samples
// and is implemented by the sqlite and timescaledb backends.
package storage

import (
	"context"
	"time"

	"github.com/chrissnell/cryo107/internal/types"
)

// Store is what the rest of the system needs from persistence: bulk
// appends and inclusive time-range scans ordered by timestamp.  Appending
// the same source twice writes duplicate rows; no backend deduplicates.
type Store interface {
	// Append bulk-inserts the table's rows, stamping each with sourceID,
	// and records one ingest audit entry for the batch.
	Append(ctx context.Context, table types.Table, sourceID string) error

	// FetchRange returns rows with start <= timestamp <= end ordered by
	// timestamp, carrying each row's source identifier.
	FetchRange(ctx context.Context, start, end time.Time) (types.Table, error)

	// Ingests returns the audit records of past appends, newest first.
	Ingests(ctx context.Context) ([]types.Ingest, error)

	// Close releases the backend connection.
	Close() error
}
