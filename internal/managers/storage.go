// Package managers assembles the configured statistics stores and fans each
// snapshot's record out to all of them.
package managers

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/stats"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/storage"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/storage/report"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/storage/sqlite"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/storage/timescaledb"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/pkg/config"
)

// StorageManager holds our active storage backends
type StorageManager struct {
	Engines []storage.Engine
	Health  *storage.HealthManager
	logger  *zap.SugaredLogger
}

// NewStorageManager creates a StorageManager object, populated with all configured storage engines.
// The text report engine is always present.
func NewStorageManager(ctx context.Context, c *config.ConfigData, logger *zap.SugaredLogger) (*StorageManager, error) {
	s := &StorageManager{Health: storage.NewHealthManager(), logger: logger}

	if err := s.AddEngine(ctx, "report", c); err != nil {
		return nil, fmt.Errorf("could not add report storage backend: %w", err)
	}
	if c.Storage.SQLite != nil {
		if err := s.AddEngine(ctx, "sqlite", c); err != nil {
			s.Close()
			return nil, fmt.Errorf("could not add SQLite storage backend: %w", err)
		}
	}
	if c.Storage.TimescaleDB != nil {
		if err := s.AddEngine(ctx, "timescaledb", c); err != nil {
			s.Close()
			return nil, fmt.Errorf("could not add TimescaleDB storage backend: %w", err)
		}
	}
	return s, nil
}

// AddEngine adds a new engine of name engineName
func (s *StorageManager) AddEngine(ctx context.Context, engineName string, c *config.ConfigData) error {
	var (
		e   storage.Engine
		err error
	)
	switch engineName {
	case "report":
		e = report.New(c.StatsDir)
	case "sqlite":
		e, err = sqlite.New(ctx, c.Storage.SQLite.Path)
	case "timescaledb":
		e, err = timescaledb.New(ctx, c.Storage.TimescaleDB.ConnectionString)
	default:
		return fmt.Errorf("unknown storage engine %q", engineName)
	}
	if err != nil {
		return err
	}
	s.Add(e)
	return nil
}

// Add registers an already constructed engine.
func (s *StorageManager) Add(e storage.Engine) {
	s.logger.Infow("storage engine enabled", "engine", e.Name())
	s.Engines = append(s.Engines, e)
}

// StoreStats hands r to every engine. A failing engine is logged and does
// not keep the others from storing; the number of failures is returned.
func (s *StorageManager) StoreStats(ctx context.Context, run storage.Run, r stats.Record) int {
	failed := 0
	for _, e := range s.Engines {
		err := e.StoreStats(ctx, run, r)
		s.Health.Observe(e.Name(), err)
		if err != nil {
			failed++
			s.logger.Errorw("could not store statistics", "engine", e.Name(), "step", r.Step, "error", err)
		}
	}
	return failed
}

// Engine returns the engine called name, if enabled.
func (s *StorageManager) Engine(name string) (storage.Engine, bool) {
	for _, e := range s.Engines {
		if e.Name() == name {
			return e, true
		}
	}
	return nil, false
}

// Close closes every engine.
func (s *StorageManager) Close() error {
	var errs []error
	for _, e := range s.Engines {
		if err := e.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
		}
	}
	return errors.Join(errs...)
}
