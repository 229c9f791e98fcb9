// Package sqlite stores run statistics in a local SQLite database so they can
// be served after the run.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/stats"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/storage"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/pkg/migrate"
)

// ErrNotFound is returned when a run or a step has no stored statistics.
var ErrNotFound = errors.New("not found")

//go:embed migrations/*.sql
var migrations embed.FS

const upsertStatsSQL = `
INSERT INTO snapshot_stats (
    run_id, step, time, max_eta, min_eta, max_crest, mean_positive_eta,
    max_flow_depth, max_runup, inundated_area, inundated_cells, wet_cells,
    max_velocity, max_momentum_flux, mean_u, mean_v
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (run_id, step) DO UPDATE SET
    time = excluded.time,
    max_eta = excluded.max_eta,
    min_eta = excluded.min_eta,
    max_crest = excluded.max_crest,
    mean_positive_eta = excluded.mean_positive_eta,
    max_flow_depth = excluded.max_flow_depth,
    max_runup = excluded.max_runup,
    inundated_area = excluded.inundated_area,
    inundated_cells = excluded.inundated_cells,
    wet_cells = excluded.wet_cells,
    max_velocity = excluded.max_velocity,
    max_momentum_flux = excluded.max_momentum_flux,
    mean_u = excluded.mean_u,
    mean_v = excluded.mean_v
`

const selectStatsSQL = `
SELECT step, time, max_eta, min_eta, max_crest, mean_positive_eta,
       max_flow_depth, max_runup, inundated_area, inundated_cells, wet_cells,
       max_velocity, max_momentum_flux, mean_u, mean_v
FROM snapshot_stats
WHERE run_id = ?
`

// Storage is a SQLite statistics store.
type Storage struct {
	db     *sql.DB
	dbPath string
}

// New opens (and creates if needed) the database at dbPath.
func New(ctx context.Context, dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// One connection serializes writers from parallel snapshot workers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set %q: %w", pragma, err)
		}
	}
	m := migrate.NewMigrator(db, migrate.NewFSProvider(migrations, "migrations", ""))
	if err := m.MigrateUp(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Storage{db: db, dbPath: dbPath}, nil
}

// Name returns "sqlite".
func (s *Storage) Name() string {
	return "sqlite"
}

// StoreStats inserts or replaces the record of (run, r.Step).
func (s *Storage) StoreStats(ctx context.Context, run storage.Run, r stats.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO runs (id, started_at, input_dir, output_dir) VALUES (?, ?, ?, ?)`,
		run.ID, run.Started.UnixNano(), run.InputDir, run.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	_, err = tx.ExecContext(ctx, upsertStatsSQL,
		run.ID, r.Step, r.Time, r.MaxEta, r.MinEta, r.MaxCrest, r.MeanPositiveEta,
		r.MaxFlowDepth, r.MaxRunup, r.InundatedArea, r.InundatedCells, r.WetCells,
		r.MaxVelocity, r.MaxMomentumFlux, r.MeanU, r.MeanV)
	if err != nil {
		return fmt.Errorf("failed to store statistics of step %d: %w", r.Step, err)
	}

	return tx.Commit()
}

// LatestRun returns the most recently started run.
func (s *Storage) LatestRun(ctx context.Context) (storage.Run, error) {
	var (
		run     storage.Run
		started int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, input_dir, output_dir FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`,
	).Scan(&run.ID, &started, &run.InputDir, &run.OutputDir)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Run{}, ErrNotFound
	}
	if err != nil {
		return storage.Run{}, fmt.Errorf("failed to query latest run: %w", err)
	}
	run.Started = time.Unix(0, started)
	return run, nil
}

// ListStats returns the records of runID ordered by step.
func (s *Storage) ListStats(ctx context.Context, runID string) ([]stats.Record, error) {
	rows, err := s.db.QueryContext(ctx, selectStatsSQL+" ORDER BY step", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query statistics: %w", err)
	}
	defer rows.Close()

	var records []stats.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetStats returns the record of one step of runID.
func (s *Storage) GetStats(ctx context.Context, runID string, step int) (stats.Record, error) {
	r, err := scanRecord(s.db.QueryRowContext(ctx, selectStatsSQL+" AND step = ?", runID, step))
	if errors.Is(err, sql.ErrNoRows) {
		return stats.Record{}, ErrNotFound
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (stats.Record, error) {
	var r stats.Record
	err := row.Scan(
		&r.Step, &r.Time, &r.MaxEta, &r.MinEta, &r.MaxCrest, &r.MeanPositiveEta,
		&r.MaxFlowDepth, &r.MaxRunup, &r.InundatedArea, &r.InundatedCells, &r.WetCells,
		&r.MaxVelocity, &r.MaxMomentumFlux, &r.MeanU, &r.MeanV,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return stats.Record{}, fmt.Errorf("failed to scan statistics row: %w", err)
	}
	return r, err
}

// Close closes the database.
func (s *Storage) Close() error {
	return s.db.Close()
}
