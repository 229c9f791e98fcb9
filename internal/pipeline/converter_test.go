package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/fields"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/stats"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/storage"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/vtk"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/pkg/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingSink struct {
	mu      sync.Mutex
	runs    map[string]bool
	records []stats.Record
}

func (s *recordingSink) StoreStats(_ context.Context, run storage.Run, r stats.Record) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runs == nil {
		s.runs = make(map[string]bool)
	}
	s.runs[run.ID] = true
	s.records = append(s.records, r)
	return 0
}

func (s *recordingSink) sorted() []stats.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]stats.Record(nil), s.records...)
	sort.Slice(out, func(i, j int) bool { return out[i].Step < out[j].Step })
	return out
}

// patchText renders one GeoClaw patch with labelled header lines.
func patchText(grid, level, mx, my int, dx float64, rows ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d  grid_number\n%d  AMR_level\n%d  mx\n%d  my\n", grid, level, mx, my)
	fmt.Fprintf(&b, "0.0  xlow\n0.0  ylow\n%g  dx\n%g  dy\n\n", dx, dx)
	for _, r := range rows {
		b.WriteString(r + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

func repeat(row string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = row
	}
	return out
}

type fixture struct {
	in, out string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	f := fixture{in: filepath.Join(root, "_output"), out: filepath.Join(root, "_vtk")}
	require.NoError(t, os.MkdirAll(f.in, 0755))
	return f
}

func (f fixture) snapshot(t *testing.T, frame int, timeLine string, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.in, fmt.Sprintf("fort.q%04d", frame)), []byte(body), 0644))
	if timeLine != "" {
		require.NoError(t, os.WriteFile(filepath.Join(f.in, fmt.Sprintf("fort.t%04d", frame)), []byte(timeLine+"\n"), 0644))
	}
}

func (f fixture) options() Options {
	return Options{
		InputDir:      f.in,
		OutputDir:     f.out,
		DryTolerance:  fields.DefaultDryTolerance,
		TimeIncrement: 300,
		Strategy:      fields.Duplicate,
		Encoding:      vtk.ASCII,
	}
}

func nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func TestRunEndToEnd(t *testing.T) {
	f := newFixture(t)
	f.snapshot(t, 0, "0.0  time",
		patchText(1, 1, 2, 2, 1, repeat("1.0 0.0 0.0 1.0", 4)...))
	f.snapshot(t, 1, "0.6D+03  time",
		patchText(1, 1, 2, 2, 1, "1.0 0.0 0.0 2.0", "0 0 0 5", "0 0 0 5", "0 0 0 5")+
			patchText(2, 2, 1, 1, 0.5, "3.0 6.0 0.0 1.0"))

	sink := &recordingSink{}
	c := New(f.options(), sink, nop())
	sum, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sum.SnapshotsAttempted)
	assert.Equal(t, 2, sum.SnapshotsConverted)
	assert.Equal(t, 3, sum.PatchesRead)
	assert.Equal(t, 3, sum.ArtifactsWritten)
	assert.Zero(t, sum.ReadErrors)
	assert.Zero(t, sum.TimeWarnings)
	assert.Equal(t, filepath.Join(f.out, vtk.DefaultCollectionName), sum.ManifestPath)

	for _, name := range []string{
		"tsunami_t0000_grid001_lvl1.vtr",
		"tsunami_t0001_grid001_lvl1.vtr",
		"tsunami_t0001_grid002_lvl2.vtr",
	} {
		_, err := os.Stat(filepath.Join(f.out, name))
		assert.NoError(t, err, name)
	}

	coll, err := vtk.ReadCollection(sum.ManifestPath)
	require.NoError(t, err)
	want := []vtk.DataSet{
		{Timestep: 0, File: "tsunami_t0000_grid001_lvl1.vtr"},
		{Timestep: 600, File: "tsunami_t0001_grid001_lvl1.vtr"},
		{Timestep: 600, File: "tsunami_t0001_grid002_lvl2.vtr"},
	}
	if diff := cmp.Diff(want, coll.DataSets); diff != "" {
		t.Errorf("manifest mismatch (-want +got):\n%s", diff)
	}

	records := sink.sorted()
	require.Len(t, records, 2)
	assert.Len(t, sink.runs, 1)
	assert.True(t, sink.runs[sum.RunID])

	assert.Equal(t, 0, records[0].Step)
	assert.Equal(t, 1.0, records[0].MaxEta)
	assert.Zero(t, records[0].InundatedArea)

	// Step 1: the wet level-1 cell is land (b=1) with eta 2; the level-2
	// cell is ocean (b=-2) moving at 2 m/s.
	r := records[1]
	assert.Equal(t, 600.0, r.Time)
	assert.Equal(t, 2.0, r.MaxEta)
	assert.Equal(t, 1.0, r.MinEta)
	assert.Equal(t, 1.0, r.MaxCrest)
	assert.Equal(t, 1.5, r.MeanPositiveEta)
	assert.Equal(t, 1, r.InundatedCells)
	assert.Equal(t, 1.0, r.InundatedArea)
	assert.Equal(t, 2.0, r.MaxVelocity)
	assert.Equal(t, 12.0, r.MaxMomentumFlux)
}

func TestRunTruncatedPatchKeepsEarlierPatches(t *testing.T) {
	f := newFixture(t)
	f.snapshot(t, 0, "",
		patchText(1, 1, 2, 2, 1, repeat("1.0 0.0 0.0 1.0", 4)...)+
			patchText(2, 2, 5, 5, 0.2, repeat("1.0 0.0 0.0 1.0", 3)...))

	sink := &recordingSink{}
	sum, err := New(f.options(), sink, nop()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.PatchesRead)
	assert.Equal(t, 1, sum.ReadErrors)
	assert.Equal(t, 1, sum.TimeWarnings)
	assert.Equal(t, 1, sum.ArtifactsWritten)
	assert.Equal(t, 1, sum.SnapshotsConverted)

	entries, err := os.ReadDir(f.out)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"tsunami_t0000_grid001_lvl1.vtr", vtk.DefaultCollectionName}, names)
	require.Len(t, sink.records, 1)
	assert.Equal(t, 4, sink.records[0].WetCells)
}

func TestRunOversizedHeaderKeepsOtherSnapshots(t *testing.T) {
	f := newFixture(t)
	ok := patchText(1, 1, 1, 1, 1, "1.0 0.0 0.0 1.0")
	f.snapshot(t, 0, "0", ok)
	f.snapshot(t, 1, "300", ok+"2  grid_number\n1  AMR_level\n4611686018427387904  mx\n4  my\n0.0  xlow\n0.0  ylow\n1.0  dx\n1.0  dy\n")
	f.snapshot(t, 2, "600", ok)

	sink := &recordingSink{}
	opts := f.options()
	opts.Workers = 2
	sum, err := New(opts, sink, nop()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, sum.SnapshotsConverted)
	assert.Equal(t, 3, sum.ArtifactsWritten)
	assert.Equal(t, 1, sum.ReadErrors)

	coll, err := vtk.ReadCollection(sum.ManifestPath)
	require.NoError(t, err)
	times, _ := coll.Group()
	assert.Equal(t, []float64{0, 300, 600}, times)
	assert.Len(t, sink.sorted(), 3)
}

type cancellingSink struct {
	cancel context.CancelFunc
	errs   []error
}

func (s *cancellingSink) StoreStats(ctx context.Context, _ storage.Run, _ stats.Record) int {
	s.cancel()
	s.errs = append(s.errs, ctx.Err())
	return 0
}

func TestRunStoresConvertedSnapshotAfterCancel(t *testing.T) {
	f := newFixture(t)
	f.snapshot(t, 0, "0", patchText(1, 1, 1, 1, 1, "1 0 0 1"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := &cancellingSink{cancel: cancel}
	sum, err := New(f.options(), sink, nop()).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	require.Len(t, sink.errs, 1)
	assert.NoError(t, sink.errs[0])
	assert.Equal(t, 1, sum.SnapshotsConverted)
	assert.NotEmpty(t, sum.ManifestPath)
}

func TestRunWithoutInputsIsNoOp(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.in, "fort.t0000"), []byte("0\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(f.in, "fort.q12"), []byte("junk\n"), 0644))

	sink := &recordingSink{}
	sum, err := New(f.options(), sink, nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.SnapshotsAttempted)
	assert.Empty(t, sink.records)
	_, statErr := os.Stat(f.out)
	assert.True(t, os.IsNotExist(statErr))

	opts := f.options()
	opts.InputDir = filepath.Join(f.in, "missing")
	_, err = New(opts, nil, nop()).Run(context.Background())
	assert.NoError(t, err)
}

func TestRunAllSnapshotsFail(t *testing.T) {
	f := newFixture(t)
	f.snapshot(t, 0, "", "not a header\n")
	f.snapshot(t, 1, "", "   \n\n")

	sum, err := New(f.options(), nil, nop()).Run(context.Background())
	assert.ErrorIs(t, err, ErrNoArtifacts)
	assert.Equal(t, 2, sum.SnapshotsAttempted)
	assert.Equal(t, 2, sum.SnapshotsSkipped)
	assert.Equal(t, 1, sum.ReadErrors)
	assert.Empty(t, sum.ManifestPath)

	_, statErr := os.Stat(filepath.Join(f.out, vtk.DefaultCollectionName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunParallelMatchesSequential(t *testing.T) {
	f := newFixture(t)
	for frame := 0; frame < 9; frame++ {
		body := ""
		for grid := 1; grid <= frame%3+1; grid++ {
			body += patchText(grid, grid, 3, 2, 1, repeat(fmt.Sprintf("%d.0 1.0 0.0 %d.0", grid, frame), 6)...)
		}
		f.snapshot(t, frame, fmt.Sprintf("%d.0", frame*60), body)
	}

	collect := func(workers int) ([]vtk.DataSet, []stats.Record) {
		opts := f.options()
		opts.OutputDir = filepath.Join(t.TempDir(), "vtk")
		opts.Workers = workers
		sink := &recordingSink{}
		sum, err := New(opts, sink, nop()).Run(context.Background())
		require.NoError(t, err)
		coll, err := vtk.ReadCollection(sum.ManifestPath)
		require.NoError(t, err)
		return coll.DataSets, sink.sorted()
	}

	seqSets, seqStats := collect(1)
	parSets, parStats := collect(4)
	assert.Len(t, seqSets, 18)
	if diff := cmp.Diff(seqSets, parSets); diff != "" {
		t.Errorf("manifest differs (-sequential +parallel):\n%s", diff)
	}
	if diff := cmp.Diff(seqStats, parStats); diff != "" {
		t.Errorf("statistics differ (-sequential +parallel):\n%s", diff)
	}
}

func TestRunRepeatedGridIDs(t *testing.T) {
	f := newFixture(t)
	f.snapshot(t, 0, "0",
		patchText(7, 1, 1, 1, 1, "1 0 0 1")+patchText(7, 1, 1, 1, 1, "2 0 0 2"))

	sum, err := New(f.options(), nil, nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.ArtifactsWritten)

	coll, err := vtk.ReadCollection(sum.ManifestPath)
	require.NoError(t, err)
	require.Len(t, coll.DataSets, 2)
	assert.Equal(t, "tsunami_t0000_grid007_lvl1.vtr", coll.DataSets[0].File)
	assert.Equal(t, "tsunami_t0000_grid007_lvl1_p1.vtr", coll.DataSets[1].File)
}

func TestRunUnusableOutputDir(t *testing.T) {
	f := newFixture(t)
	f.snapshot(t, 0, "0", patchText(1, 1, 1, 1, 1, "1 0 0 1"))
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	opts := f.options()
	opts.OutputDir = filepath.Join(blocker, "vtk")
	_, err := New(opts, nil, nop()).Run(context.Background())
	assert.Error(t, err)
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t)
	f.snapshot(t, 0, "0", patchText(1, 1, 1, 1, 1, "1 0 0 1"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(f.options(), nil, nop()).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunNodeAverageBinary(t *testing.T) {
	f := newFixture(t)
	f.snapshot(t, 0, "0", patchText(1, 1, 2, 2, 1, repeat("1.0 0.0 0.0 1.0", 4)...))

	opts := f.options()
	opts.Strategy = fields.NodeAverage
	opts.Encoding = vtk.Binary
	opts.Arrays = []string{fields.WaterDepth}
	sum, err := New(opts, nil, nop()).Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(f.out, "tsunami_t0000_grid001_lvl1.vtr"))
	require.NoError(t, err)
	body := string(data)
	assert.Contains(t, body, `WholeExtent="0 2 0 2 0 0"`)
	assert.Contains(t, body, `header_type="UInt32"`)
	assert.Contains(t, body, `Name="water_depth"`)
	assert.NotContains(t, body, `Name="velocity_x"`)
	assert.Equal(t, 1, sum.ArtifactsWritten)
}

func TestNewFillsDefaults(t *testing.T) {
	c := New(Options{}, nil, nop())
	assert.Equal(t, 1, c.opts.Workers)
	assert.Equal(t, fields.Duplicate, c.opts.Strategy)
	assert.Equal(t, fields.DefaultArrays, c.opts.Arrays)
	assert.Equal(t, vtk.DefaultCollectionName, c.opts.ManifestName)
	assert.NotEmpty(t, c.RunInfo().ID)
	assert.NotEqual(t, c.RunInfo().ID, New(Options{}, nil, nop()).RunInfo().ID)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Conversion.Resample = "node-average"
	cfg.Conversion.Encoding = "binary"
	cfg.Conversion.Workers = 3

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, fields.NodeAverage, opts.Strategy)
	assert.Equal(t, vtk.Binary, opts.Encoding)
	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, "_output", opts.InputDir)
	assert.Equal(t, 300.0, opts.TimeIncrement)

	cfg.Conversion.Encoding = "zstd"
	_, err = OptionsFromConfig(cfg)
	assert.Error(t, err)
}
