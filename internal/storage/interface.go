// Package storage defines the sinks that persist per-snapshot statistics.
package storage

import (
	"context"
	"time"

	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/stats"
)

// Run identifies one conversion run. Every record stored during the run
// carries it.
type Run struct {
	ID        string
	Started   time.Time
	InputDir  string
	OutputDir string
}

// Engine is a statistics sink. StoreStats is called once per converted
// snapshot, possibly from several goroutines at once.
type Engine interface {
	Name() string
	StoreStats(ctx context.Context, run Run, r stats.Record) error
	Close() error
}
