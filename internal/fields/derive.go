// Package fields derives velocity and bathymetry from GeoClaw's conserved
// quantities and resamples cell values onto mesh points.
package fields

import (
	"fmt"
	"math"

	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/amr"
)

// DefaultDryTolerance is the depth in meters at or below which a cell is dry.
const DefaultDryTolerance = 1e-3

// ArrayShapeError reports arrays whose lengths disagree with the patch shape.
// It indicates a bug rather than bad input and is fatal for the run.
type ArrayShapeError struct {
	Array string
	Got   int
	Want  int
}

func (e *ArrayShapeError) Error() string {
	return fmt.Sprintf("array %s has %d values, want %d", e.Array, e.Got, e.Want)
}

// Derived holds per-cell quantities computed from one patch.
type Derived struct {
	U          []float64
	V          []float64
	Speed      []float64
	Bathymetry []float64
}

// Derive computes velocities, speed and bathymetry for every cell of p.
// Velocities of dry cells (h <= dryTol) are exactly zero; the division is
// never evaluated for them.
func Derive(p *amr.Patch, dryTol float64) (*Derived, error) {
	n := p.Cells()
	for _, a := range []struct {
		name string
		v    []float64
	}{{"h", p.H}, {"hu", p.HU}, {"hv", p.HV}, {"eta", p.Eta}} {
		if len(a.v) != n {
			return nil, &ArrayShapeError{Array: a.name, Got: len(a.v), Want: n}
		}
	}

	d := &Derived{
		U:          make([]float64, n),
		V:          make([]float64, n),
		Speed:      make([]float64, n),
		Bathymetry: make([]float64, n),
	}
	for k := 0; k < n; k++ {
		h := p.H[k]
		d.Bathymetry[k] = p.Eta[k] - h
		if !(h > dryTol) {
			continue
		}
		u := p.HU[k] / h
		v := p.HV[k] / h
		d.U[k] = u
		d.V[k] = v
		d.Speed[k] = math.Hypot(u, v)
	}
	return d, nil
}
