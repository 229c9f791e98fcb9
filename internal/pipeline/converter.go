// Package pipeline drives a conversion run: it walks the snapshot files of a
// GeoClaw output directory, writes one mesh per patch, stores per-snapshot
// statistics and finally writes the time manifest.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/amr"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/fields"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/stats"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/storage"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/vtk"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/pkg/config"
)

// Options are the run-wide settings of a Converter.
type Options struct {
	InputDir  string
	OutputDir string

	DryTolerance  float64
	TimeIncrement float64
	SeaLevel      float64

	Strategy     fields.Strategy
	Encoding     vtk.Encoding
	Arrays       []string
	Prefix       string
	ManifestName string
	Workers      int
}

// OptionsFromConfig converts a validated configuration.
func OptionsFromConfig(c *config.ConfigData) (Options, error) {
	strategy, err := fields.ParseStrategy(c.Conversion.Resample)
	if err != nil {
		return Options{}, err
	}
	enc, err := vtk.ParseEncoding(c.Conversion.Encoding)
	if err != nil {
		return Options{}, err
	}
	return Options{
		InputDir:      c.InputDir,
		OutputDir:     c.OutputDir,
		DryTolerance:  c.Conversion.DryTolerance,
		TimeIncrement: c.Conversion.TimeIncrement,
		SeaLevel:      c.Conversion.SeaLevel,
		Strategy:      strategy,
		Encoding:      enc,
		Arrays:        c.Conversion.Arrays,
		Prefix:        c.Conversion.Prefix,
		ManifestName:  c.Conversion.ManifestName,
		Workers:       c.Conversion.Workers,
	}, nil
}

// StatsSink persists a snapshot's statistics and returns how many of its
// stores failed. *managers.StorageManager is the production sink.
type StatsSink interface {
	StoreStats(ctx context.Context, run storage.Run, r stats.Record) int
}

type discardSink struct{}

func (discardSink) StoreStats(context.Context, storage.Run, stats.Record) int { return 0 }

// Summary counts what a run did.
type Summary struct {
	RunID        string
	ManifestPath string

	SnapshotsAttempted int
	SnapshotsConverted int
	SnapshotsSkipped   int
	PatchesRead        int
	ReadErrors         int
	TimeWarnings       int
	ArtifactsWritten   int
	ArtifactsSkipped   int
	StatsFailures      int
	StoreFailures      int
}

// Converter runs one conversion.
type Converter struct {
	opts   Options
	sink   StatsSink
	logger *zap.SugaredLogger
	run    storage.Run

	writer   *vtk.RectilinearWriter
	manifest *ManifestAccumulator

	mu      sync.Mutex
	summary Summary
}

// New prepares a run. A nil sink discards statistics.
func New(opts Options, sink StatsSink, logger *zap.SugaredLogger) *Converter {
	if sink == nil {
		sink = discardSink{}
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if len(opts.Arrays) == 0 {
		opts.Arrays = fields.DefaultArrays
	}
	if opts.ManifestName == "" {
		opts.ManifestName = vtk.DefaultCollectionName
	}
	if opts.Strategy == "" {
		opts.Strategy = fields.Duplicate
	}

	run := storage.Run{
		ID:        uuid.NewString(),
		Started:   time.Now(),
		InputDir:  opts.InputDir,
		OutputDir: opts.OutputDir,
	}
	return &Converter{
		opts:     opts,
		sink:     sink,
		logger:   logger.With("run", run.ID),
		run:      run,
		manifest: NewManifestAccumulator(),
		summary:  Summary{RunID: run.ID},
	}
}

// Run converts every snapshot of the input directory. Errors scoped to one
// snapshot or one artifact are logged and counted; Run fails only on an
// unusable output directory, an internal array shape error, a manifest write
// failure, or when no artifact at all could be produced. A run without
// snapshot files does nothing and succeeds.
func (c *Converter) Run(ctx context.Context) (Summary, error) {
	files, err := amr.Discover(c.opts.InputDir)
	if errors.Is(err, fs.ErrNotExist) {
		c.logger.Warnw("input directory does not exist, nothing to convert", "input", c.opts.InputDir)
		return c.Summary(), nil
	}
	if err != nil {
		return c.Summary(), err
	}
	if len(files) == 0 {
		c.logger.Infow("no snapshot files found, nothing to convert", "input", c.opts.InputDir)
		return c.Summary(), nil
	}

	c.writer, err = vtk.NewRectilinearWriter(c.opts.OutputDir, c.opts.Encoding)
	if err != nil {
		return c.Summary(), err
	}

	c.logger.Infow("starting conversion",
		"input", c.opts.InputDir,
		"output", c.opts.OutputDir,
		"snapshots", len(files),
		"resample", c.opts.Strategy,
		"encoding", c.opts.Encoding,
		"workers", c.opts.Workers,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for _, sf := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return c.convertSnapshot(gctx, sf, len(files))
		})
	}
	if err := g.Wait(); err != nil {
		c.logSummary()
		return c.Summary(), err
	}

	path := filepath.Join(c.opts.OutputDir, c.opts.ManifestName)
	err = c.manifest.Flush(path)
	switch {
	case errors.Is(err, ErrNoArtifacts):
		c.logger.Errorw("every snapshot failed, manifest not written", "snapshots", len(files))
	case err != nil:
		c.logger.Errorw("could not write manifest", "path", path, "error", err)
	default:
		c.mu.Lock()
		c.summary.ManifestPath = path
		c.mu.Unlock()
		c.logger.Infow("manifest written", "path", path, "datasets", c.manifest.Len(), "times", len(c.manifest.Times()))
	}
	c.logSummary()

	if ctxErr := ctx.Err(); ctxErr != nil && (err == nil || errors.Is(err, ErrNoArtifacts)) {
		err = ctxErr
	}
	return c.Summary(), err
}

// Manifest returns the run's manifest accumulator.
func (c *Converter) Manifest() *ManifestAccumulator {
	return c.manifest
}

// RunInfo returns the identity under which statistics are stored.
func (c *Converter) RunInfo() storage.Run {
	return c.run
}

// Summary returns the counts so far.
func (c *Converter) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary
}

func (c *Converter) count(f func(s *Summary)) {
	c.mu.Lock()
	f(&c.summary)
	c.mu.Unlock()
}

// convertSnapshot returns an error only when the run must stop.
func (c *Converter) convertSnapshot(ctx context.Context, sf amr.SnapshotFile, total int) error {
	log := c.logger.With("snapshot", sf.Name(), "step", sf.Index)
	c.count(func(s *Summary) { s.SnapshotsAttempted++ })

	snap, err := amr.Load(sf, c.opts.TimeIncrement)
	if snap.TimeWarning != nil {
		c.count(func(s *Summary) { s.TimeWarnings++ })
		log.Warnw("time file unusable, using default increment", "time", snap.Time, "error", snap.TimeWarning)
	}
	if err != nil {
		c.count(func(s *Summary) { s.ReadErrors++ })
		kv := []interface{}{"kept_patches", len(snap.Patches), "error", err}
		var pre *amr.PatchReadError
		if errors.As(err, &pre) {
			kv = append(kv, "patch", pre.PatchIndex, "line", pre.Line)
		}
		log.Warnw("snapshot read aborted", kv...)
	}
	c.count(func(s *Summary) { s.PatchesRead += len(snap.Patches) })

	if len(snap.Patches) == 0 {
		c.count(func(s *Summary) { s.SnapshotsSkipped++ })
		log.Warnw("snapshot has no patches, skipped")
		return nil
	}

	names := vtk.NewNameRegistry(c.opts.Prefix, sf.Index)
	var (
		in      stats.Input
		written []string
	)
	for i, p := range snap.Patches {
		if ctx.Err() != nil {
			return nil
		}
		d, err := fields.Derive(p, c.opts.DryTolerance)
		if err != nil {
			return fmt.Errorf("snapshot %s patch %d: %w", sf.Name(), i, err)
		}
		in.AddPatch(p, d)

		grid, err := fields.Build(p, d, c.opts.Arrays, c.opts.Strategy)
		if err != nil {
			return fmt.Errorf("snapshot %s patch %d: %w", sf.Name(), i, err)
		}
		name := names.Reserve(p.GridID, p.Level, i)
		if _, err := c.writer.Write(name, grid); err != nil {
			var shape *fields.ArrayShapeError
			if errors.As(err, &shape) {
				return fmt.Errorf("snapshot %s patch %d: %w", sf.Name(), i, err)
			}
			c.count(func(s *Summary) { s.ArtifactsSkipped++ })
			log.Errorw("mesh not written", "patch", i, "grid", p.GridID, "level", p.Level, "error", err)
			continue
		}
		written = append(written, name)
	}

	if len(written) > 0 {
		c.manifest.Add(snap.Time, written...)
		c.count(func(s *Summary) {
			s.ArtifactsWritten += len(written)
			s.SnapshotsConverted++
		})
	} else {
		c.count(func(s *Summary) { s.SnapshotsSkipped++ })
	}

	rec, err := stats.Compute(in, c.opts.DryTolerance, c.opts.SeaLevel)
	if err != nil {
		c.count(func(s *Summary) { s.StatsFailures++ })
		log.Errorw("statistics not computed, storing zeros", "error", err)
		rec = stats.Record{}
	}
	rec.Step = sf.Index
	rec.Time = snap.Time
	// Every patch of the snapshot has been handled, so its record is stored
	// even if the run is being cancelled.
	if failed := c.sink.StoreStats(context.WithoutCancel(ctx), c.run, rec); failed > 0 {
		c.count(func(s *Summary) { s.StoreFailures += failed })
	}

	log.Infow("snapshot processed",
		"progress", fmt.Sprintf("%d/%d", sf.Index+1, total),
		"time_min", snap.Time/60,
		"patches", len(snap.Patches),
		"artifacts", len(written),
		"max_eta", rec.MaxEta,
		"inundated_cells", rec.InundatedCells,
	)
	return nil
}

func (c *Converter) logSummary() {
	s := c.Summary()
	c.logger.Infow("conversion finished",
		"snapshots_attempted", s.SnapshotsAttempted,
		"snapshots_converted", s.SnapshotsConverted,
		"snapshots_skipped", s.SnapshotsSkipped,
		"patches_read", s.PatchesRead,
		"read_errors", s.ReadErrors,
		"time_warnings", s.TimeWarnings,
		"artifacts_written", s.ArtifactsWritten,
		"artifacts_skipped", s.ArtifactsSkipped,
		"stats_failures", s.StatsFailures,
		"store_failures", s.StoreFailures,
	)
}
