// Package app wires the loader, splitter, store, and exporter together
// for the command-line tools.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/chrissnell/cryo107/internal/logfile"
	"github.com/chrissnell/cryo107/internal/segment"
	"github.com/chrissnell/cryo107/internal/storage"
	"github.com/chrissnell/cryo107/internal/storage/sqlite"
	"github.com/chrissnell/cryo107/internal/storage/timescaledb"
	"github.com/chrissnell/cryo107/internal/types"
	"github.com/chrissnell/cryo107/pkg/config"
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
	store          storage.Store
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Store returns the configured sample store, opening it on first use.
func (a *App) Store(ctx context.Context) (storage.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	storageConfig, err := a.configProvider.GetStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	// A failed open must leave the app storeless so a later call retries.
	var store storage.Store
	switch {
	case storageConfig.SQLite != nil:
		store, err = sqlite.New(storageConfig.SQLite.Path)
	case storageConfig.TimescaleDB != nil:
		store, err = timescaledb.New(ctx, storageConfig.TimescaleDB.ConnectionString)
	default:
		return nil, fmt.Errorf("no storage backend configured")
	}
	if err != nil {
		return nil, err
	}
	a.store = store
	return a.store, nil
}

// IngestFiles loads each log file and appends it to the configured
// store.  Files fail independently: a bad file is reported but does not
// stop the rest of the batch, and the returned error aggregates every
// per-file failure.
func (a *App) IngestFiles(ctx context.Context, paths []string) error {
	store, err := a.Store(ctx)
	if err != nil {
		return err
	}

	var errs error
	for _, path := range paths {
		table, err := logfile.Load(path)
		if err != nil {
			a.logger.Errorf("skipping %s: %v", path, err)
			errs = multierr.Append(errs, err)
			continue
		}
		if err := store.Append(ctx, table, path); err != nil {
			a.logger.Errorf("failed to store %s: %v", path, err)
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// SegmentFile loads one log file and splits it into phases.  A single
// file starts at its cooldown and ends in its warmup, so the endpoints
// policy applies unless configuration says otherwise.
func (a *App) SegmentFile(path string) (*segment.Result, error) {
	params, err := a.splitterParams(segment.PolicyEndpoints)
	if err != nil {
		return nil, err
	}

	table, err := logfile.Load(path)
	if err != nil {
		return nil, err
	}

	a.logger.Infof("segmenting %s: %d rows", path, len(table))
	return segment.New(a.logger, params).Split(table)
}

// SegmentRange fetches [start, end] from the store and splits it into
// phases.  A merged range says nothing about where runs begin and end,
// so the temperature-span policy applies unless configuration says
// otherwise.
func (a *App) SegmentRange(ctx context.Context, start, end time.Time) (*segment.Result, error) {
	params, err := a.splitterParams(segment.PolicyTempSpan)
	if err != nil {
		return nil, err
	}

	store, err := a.Store(ctx)
	if err != nil {
		return nil, err
	}
	table, err := store.FetchRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	a.logger.Infof("segmenting range %s to %s: %d rows", start, end, len(table))
	return segment.New(a.logger, params).Split(table)
}

// Ingests lists the store's audit records, newest first.
func (a *App) Ingests(ctx context.Context) ([]types.Ingest, error) {
	store, err := a.Store(ctx)
	if err != nil {
		return nil, err
	}
	return store.Ingests(ctx)
}

// Close releases the store connection if one was opened.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// splitterParams merges configuration overrides onto the defaults,
// starting from the policy the call site picked for its source shape.
func (a *App) splitterParams(defaultPolicy segment.Policy) (segment.Params, error) {
	params := segment.DefaultParams()
	params.Policy = defaultPolicy

	seg, err := a.configProvider.GetSegmentConfig()
	if err != nil {
		return params, fmt.Errorf("failed to load segment config: %w", err)
	}

	switch seg.Policy {
	case "":
		// keep the call site's choice
	case "endpoints":
		params.Policy = segment.PolicyEndpoints
	case "tempspan":
		params.Policy = segment.PolicyTempSpan
	default:
		return params, fmt.Errorf("unknown segmentation policy %q", seg.Policy)
	}

	override(&params.RegenCurrentMin, seg.RegenCurrentMin)
	override(&params.RegenHoursMin, seg.RegenHoursMin)
	override(&params.RegenHoursMax, seg.RegenHoursMax)
	override(&params.RegCurrentFloor, seg.RegCurrentFloor)
	override(&params.RegCurrentCeil, seg.RegCurrentCeil)
	override(&params.HoldOffCurrent, seg.HoldOffCurrent)
	override(&params.WarmLow, seg.WarmLow)
	override(&params.WarmHigh, seg.WarmHigh)
	override(&params.ColdLow, seg.ColdLow)
	override(&params.ColdHigh, seg.ColdHigh)

	return params, nil
}

func override(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
