// Package report stores each snapshot's statistics as a text report.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/stats"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/storage"
)

// Storage writes stats_step_NNNN.txt files into one directory.
type Storage struct {
	dir string
}

// New returns a report store for dir. The directory is created with the
// first report.
func New(dir string) *Storage {
	return &Storage{dir: dir}
}

// Name returns "report".
func (s *Storage) Name() string {
	return "report"
}

// Path returns the report path of a step.
func (s *Storage) Path(step int) string {
	return filepath.Join(s.dir, stats.ReportName(step))
}

// StoreStats replaces the report of r.Step.
func (s *Storage) StoreStats(ctx context.Context, _ storage.Run, r stats.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("could not create statistics directory %s: %w", s.dir, err)
	}

	path := s.Path(r.Step)
	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("could not write report %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(stats.Format(r)); err != nil {
		tmp.Close()
		return fmt.Errorf("could not write report %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not write report %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("could not write report %s: %w", path, err)
	}
	return nil
}

// Close is a no-op.
func (s *Storage) Close() error {
	return nil
}
