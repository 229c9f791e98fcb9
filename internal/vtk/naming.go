package vtk

import (
	"fmt"
	"sync"
)

// DefaultPrefix starts every artifact filename.
const DefaultPrefix = "tsunami"

// ArtifactName returns the deterministic filename of one patch's mesh, e.g.
// tsunami_t0003_grid012_lvl2.vtr.
func ArtifactName(prefix string, snapshot, grid, level int) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return fmt.Sprintf("%s_t%04d_grid%03d_lvl%d.vtr", prefix, snapshot, grid, level)
}

// NameRegistry hands out artifact names for one snapshot and guarantees that
// no two patches of that snapshot share a file. Grid ids are unique within a
// well-formed snapshot; a repeated (grid, level) pair gets a _p<index> suffix
// instead of overwriting the earlier mesh.
type NameRegistry struct {
	mu       sync.Mutex
	prefix   string
	snapshot int
	used     map[string]bool
}

// NewNameRegistry starts a registry for one snapshot.
func NewNameRegistry(prefix string, snapshot int) *NameRegistry {
	return &NameRegistry{prefix: prefix, snapshot: snapshot, used: make(map[string]bool)}
}

// Reserve returns a filename for the patch at position patchIndex.
func (r *NameRegistry) Reserve(grid, level, patchIndex int) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := ArtifactName(r.prefix, r.snapshot, grid, level)
	if r.used[name] {
		base := name[:len(name)-len(".vtr")]
		name = fmt.Sprintf("%s_p%d.vtr", base, patchIndex)
		for n := 1; r.used[name]; n++ {
			name = fmt.Sprintf("%s_p%d_%d.vtr", base, patchIndex, n)
		}
	}
	r.used[name] = true
	return name
}
