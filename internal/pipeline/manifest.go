package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/vtk"
)

// ErrNoArtifacts is returned when snapshot files existed but none produced a
// mesh. No manifest is written in that case.
var ErrNoArtifacts = errors.New("no mesh artifacts were produced")

// ManifestWriteError reports a failure to persist the manifest at the end of
// a run. Meshes and statistics written before it are kept.
type ManifestWriteError struct {
	Path string
	Err  error
}

func (e *ManifestWriteError) Error() string {
	return fmt.Sprintf("could not write manifest %s: %v", e.Path, e.Err)
}

func (e *ManifestWriteError) Unwrap() error {
	return e.Err
}

// ManifestAccumulator collects (time, file) pairs over a whole run and writes
// them once as a ParaView collection. It is safe for concurrent use.
type ManifestAccumulator struct {
	mu      sync.Mutex
	files   map[float64]map[string]struct{}
	n       int
	flushed bool
}

// NewManifestAccumulator returns an empty accumulator.
func NewManifestAccumulator() *ManifestAccumulator {
	return &ManifestAccumulator{files: make(map[float64]map[string]struct{})}
}

// Add records files as produced at simulation time t. A (time, file) pair
// already present is not added twice.
func (m *ManifestAccumulator) Add(t float64, files ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.files[t]
	if !ok {
		set = make(map[string]struct{}, len(files))
		m.files[t] = set
	}
	for _, f := range files {
		if _, dup := set[f]; dup {
			continue
		}
		set[f] = struct{}{}
		m.n++
	}
}

// Len returns the number of distinct (time, file) pairs.
func (m *ManifestAccumulator) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.n
}

// Times returns the distinct times holding at least one file, ascending.
func (m *ManifestAccumulator) Times() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.times()
}

func (m *ManifestAccumulator) times() []float64 {
	times := make([]float64, 0, len(m.files))
	for t, set := range m.files {
		if len(set) > 0 {
			times = append(times, t)
		}
	}
	sort.Float64s(times)
	return times
}

// Collection returns the accumulated pairs ordered by time, then filename.
func (m *ManifestAccumulator) Collection() *vtk.Collection {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := vtk.NewCollection()
	c.DataSets = make([]vtk.DataSet, 0, m.n)
	for _, t := range m.times() {
		names := make([]string, 0, len(m.files[t]))
		for f := range m.files[t] {
			names = append(names, f)
		}
		sort.Strings(names)
		for _, f := range names {
			c.DataSets = append(c.DataSets, vtk.DataSet{Timestep: t, File: f})
		}
	}
	return c
}

// Flush writes the manifest to path. It may be called once; with nothing
// accumulated it writes nothing and returns ErrNoArtifacts.
func (m *ManifestAccumulator) Flush(path string) error {
	m.mu.Lock()
	if m.flushed {
		m.mu.Unlock()
		return &ManifestWriteError{Path: path, Err: errors.New("manifest already flushed")}
	}
	m.flushed = true
	empty := m.n == 0
	m.mu.Unlock()

	if empty {
		return ErrNoArtifacts
	}
	if err := vtk.WriteCollection(path, m.Collection()); err != nil {
		return &ManifestWriteError{Path: path, Err: err}
	}
	return nil
}
