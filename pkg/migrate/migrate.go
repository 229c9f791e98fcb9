// Package migrate applies versioned SQL schema migrations.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/log"
)

// Latest is the MigrateTo target that applies every known migration.
const Latest = -1

// Migration is one schema step with its forward and reverse SQL.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// DB is satisfied by both *sql.DB and *sql.Tx.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// MigrationProvider loads migrations and tracks the applied version.
type MigrationProvider interface {
	GetMigrations() ([]Migration, error)
	GetCurrentVersion(ctx context.Context, db DB) (int, error)
	SetVersion(ctx context.Context, db DB, version int) error
	CreateMigrationTable(ctx context.Context, db DB) error
}

// Migrator moves a database between schema versions.
type Migrator struct {
	db       *sql.DB
	provider MigrationProvider
}

// NewMigrator returns a Migrator over db.
func NewMigrator(db *sql.DB, provider MigrationProvider) *Migrator {
	return &Migrator{db: db, provider: provider}
}

// MigrateUp applies every pending migration.
func (m *Migrator) MigrateUp(ctx context.Context) error {
	return m.MigrateTo(ctx, Latest)
}

// MigrateDown reverts migrations until the schema is at version target, which
// must be below the current version.
func (m *Migrator) MigrateDown(ctx context.Context, target int) error {
	current, migrations, err := m.state(ctx)
	if err != nil {
		return err
	}
	if target >= current {
		return fmt.Errorf("cannot roll back to version %d from version %d", target, current)
	}
	return m.rollback(ctx, migrations, current, target)
}

// MigrateTo applies or reverts migrations until the schema is at version
// target, or at the newest version for Latest.
func (m *Migrator) MigrateTo(ctx context.Context, target int) error {
	current, migrations, err := m.state(ctx)
	if err != nil {
		return err
	}
	if target == Latest {
		target = 0
		if n := len(migrations); n > 0 {
			target = migrations[n-1].Version
		}
	}

	switch {
	case target < current:
		return m.rollback(ctx, migrations, current, target)
	case target == current:
		return nil
	}

	for _, mg := range migrations {
		if mg.Version <= current || mg.Version > target {
			continue
		}
		if err := m.apply(ctx, mg, true, mg.Version); err != nil {
			return fmt.Errorf("applying migration %d: %w", mg.Version, err)
		}
	}
	return nil
}

// GetCurrentVersion returns the applied schema version, 0 for a fresh database.
func (m *Migrator) GetCurrentVersion(ctx context.Context) (int, error) {
	current, _, err := m.state(ctx)
	return current, err
}

// GetPendingMigrations returns the migrations above the current version in
// ascending order.
func (m *Migrator) GetPendingMigrations(ctx context.Context) ([]Migration, error) {
	current, migrations, err := m.state(ctx)
	if err != nil {
		return nil, err
	}
	var pending []Migration
	for _, mg := range migrations {
		if mg.Version > current {
			pending = append(pending, mg)
		}
	}
	return pending, nil
}

// state ensures the version table exists and returns the applied version
// together with every known migration, oldest first.
func (m *Migrator) state(ctx context.Context) (int, []Migration, error) {
	if err := m.provider.CreateMigrationTable(ctx, m.db); err != nil {
		return 0, nil, fmt.Errorf("could not create migration table: %w", err)
	}
	current, err := m.provider.GetCurrentVersion(ctx, m.db)
	if err != nil {
		return 0, nil, fmt.Errorf("could not read schema version: %w", err)
	}
	migrations, err := m.provider.GetMigrations()
	if err != nil {
		return 0, nil, fmt.Errorf("could not load migrations: %w", err)
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return current, migrations, nil
}

// rollback reverts, newest first, every migration in (target, current]. Each
// step records the version of the migration below it.
func (m *Migrator) rollback(ctx context.Context, migrations []Migration, current, target int) error {
	for i := len(migrations) - 1; i >= 0; i-- {
		mg := migrations[i]
		if mg.Version > current || mg.Version <= target {
			continue
		}
		below := 0
		if i > 0 {
			below = migrations[i-1].Version
		}
		if err := m.apply(ctx, mg, false, below); err != nil {
			return fmt.Errorf("rolling back migration %d: %w", mg.Version, err)
		}
	}
	return nil
}

// apply runs one direction of mg and records version in the same transaction.
func (m *Migrator) apply(ctx context.Context, mg Migration, up bool, version int) error {
	direction, query := "up", mg.Up
	if !up {
		direction, query = "down", mg.Down
	}
	if query == "" {
		return fmt.Errorf("migration %d has no %s SQL", mg.Version, direction)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, query); err != nil {
		return err
	}
	if err := m.provider.SetVersion(ctx, tx, version); err != nil {
		return fmt.Errorf("could not record version %d: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit: %w", err)
	}

	log.Infow("applied migration", "version", mg.Version, "name", mg.Name, "direction", direction)
	return nil
}
