// Package timescaledb stores run statistics in PostgreSQL, as a TimescaleDB
// hypertable when the extension is available.
package timescaledb

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/database"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/log"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/stats"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/storage"
)

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS timescaledb CASCADE`

// Steps are the hypertable's integer time dimension; 1000 steps per chunk.
const createHypertableSQL = `SELECT create_hypertable('tsunami_stats', 'step', chunk_time_interval => 1000, if_not_exists => TRUE, migrate_data => TRUE)`

// Storage holds the connection of a TimescaleDB storage backend.
type Storage struct {
	TimescaleDBConn *gorm.DB
	now             func() time.Time
}

// New sets up a new TimescaleDB storage backend
func New(ctx context.Context, connectionString string) (*Storage, error) {
	db, err := database.CreateConnection(connectionString, database.Options{})
	if err != nil {
		return nil, err
	}
	t := newStorage(db)

	if err := t.migrate(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

func newStorage(db *gorm.DB) *Storage {
	return &Storage{TimescaleDBConn: db, now: time.Now}
}

func (t *Storage) migrate(ctx context.Context) error {
	db := t.TimescaleDBConn.WithContext(ctx)

	log.Info("creating tsunami_stats table...")
	if err := db.AutoMigrate(&database.TsunamiStat{}); err != nil {
		return fmt.Errorf("could not migrate tsunami_stats: %w", err)
	}

	// Plain PostgreSQL works too; the hypertable only speeds up range queries.
	log.Info("creating TimescaleDB extension...")
	if err := db.Exec(createExtensionSQL).Error; err != nil {
		log.Warnw("could not create TimescaleDB extension, using a plain table", "error", err)
		return nil
	}
	log.Info("creating hypertable...")
	if err := db.Exec(createHypertableSQL).Error; err != nil {
		log.Warnw("could not create hypertable, using a plain table", "error", err)
	}
	return nil
}

// Name returns "timescaledb".
func (t *Storage) Name() string {
	return "timescaledb"
}

// StoreStats inserts or replaces the row of (run, r.Step).
func (t *Storage) StoreStats(ctx context.Context, run storage.Run, r stats.Record) error {
	row := database.NewTsunamiStat(run.ID, t.now(), r)
	err := t.TimescaleDBConn.WithContext(ctx).Clauses(upsert()).Create(&row).Error
	if err != nil {
		return fmt.Errorf("could not store statistics of step %d: %w", r.Step, err)
	}
	return nil
}

// ListStats returns the rows of runID ordered by step.
func (t *Storage) ListStats(ctx context.Context, runID string) ([]stats.Record, error) {
	var rows []database.TsunamiStat
	err := t.TimescaleDBConn.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("step").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("could not query statistics of run %s: %w", runID, err)
	}
	records := make([]stats.Record, len(rows))
	for i, row := range rows {
		records[i] = row.Record()
	}
	return records, nil
}

func upsert() clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "run_id"}, {Name: "step"}},
		UpdateAll: true,
	}
}

// Close closes the underlying connection pool.
func (t *Storage) Close() error {
	sqlDB, err := t.TimescaleDBConn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
