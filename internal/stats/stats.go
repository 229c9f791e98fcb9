// Package stats computes the per-snapshot summary of a tsunami simulation:
// wave heights, land inundation and flow dynamics.
package stats

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/amr"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/fields"
)

// DefaultSeaLevel is the reference elevation of crests and positive elevation.
const DefaultSeaLevel = 0.0

// Input holds the flattened cell arrays of every patch of one snapshot. All
// slices have one entry per cell.
type Input struct {
	H        []float64
	B        []float64
	Eta      []float64
	Speed    []float64
	U        []float64
	V        []float64
	CellArea []float64
}

// AddPatch appends the cells of p and its derived fields.
func (in *Input) AddPatch(p *amr.Patch, d *fields.Derived) {
	in.H = append(in.H, p.H...)
	in.B = append(in.B, d.Bathymetry...)
	in.Eta = append(in.Eta, p.Eta...)
	in.Speed = append(in.Speed, d.Speed...)
	in.U = append(in.U, d.U...)
	in.V = append(in.V, d.V...)
	area := p.CellArea()
	for k := 0; k < p.Cells(); k++ {
		in.CellArea = append(in.CellArea, area)
	}
}

// Len returns the number of cells.
func (in *Input) Len() int {
	return len(in.H)
}

// Record is the summary of one snapshot. Every value of an empty selection
// (no wet cells, no inundated land) is 0.
type Record struct {
	Step int     `json:"step"`
	Time float64 `json:"time"`

	MaxEta          float64 `json:"max_eta"`
	MinEta          float64 `json:"min_eta"`
	MaxCrest        float64 `json:"max_crest"`
	MeanPositiveEta float64 `json:"mean_positive_eta"`

	MaxFlowDepth   float64 `json:"max_flow_depth"`
	MaxRunup       float64 `json:"max_runup"`
	InundatedArea  float64 `json:"inundated_area"`
	InundatedCells int     `json:"inundated_cells"`

	WetCells        int     `json:"wet_cells"`
	MaxVelocity     float64 `json:"max_velocity"`
	MaxMomentumFlux float64 `json:"max_momentum_flux"`
	MeanU           float64 `json:"mean_u"`
	MeanV           float64 `json:"mean_v"`
}

// ComputeError reports input arrays of inconsistent length. The snapshot's
// record is zero-filled and the run continues.
type ComputeError struct {
	Array string
	Got   int
	Want  int
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("statistics input %s has %d values, want %d", e.Array, e.Got, e.Want)
}

// Compute summarizes one snapshot. A cell is wet when h > dryTol and land
// when its bathymetry is above 0; inundated cells are wet land.
func Compute(in Input, dryTol, seaLevel float64) (Record, error) {
	n := len(in.H)
	for _, a := range []struct {
		name string
		v    []float64
	}{
		{"bathymetry", in.B},
		{"eta", in.Eta},
		{"speed", in.Speed},
		{"u", in.U},
		{"v", in.V},
		{"cell_area", in.CellArea},
	} {
		if len(a.v) != n {
			return Record{}, &ComputeError{Array: a.name, Got: len(a.v), Want: n}
		}
	}

	var (
		wetEta, crest, positive []float64
		flowDepth, runup        []float64
		speed, flux, u, v       []float64
		area                    float64
	)
	for k := 0; k < n; k++ {
		h := in.H[k]
		if !(h > dryTol) {
			continue
		}
		eta, b, s := in.Eta[k], in.B[k], in.Speed[k]

		wetEta = append(wetEta, eta)
		speed = append(speed, s)
		flux = append(flux, h*s*s)
		u = append(u, in.U[k])
		v = append(v, in.V[k])
		if eta > seaLevel {
			positive = append(positive, eta)
		}
		if b > 0 {
			flowDepth = append(flowDepth, h)
			runup = append(runup, b)
			area += in.CellArea[k]
		} else {
			crest = append(crest, eta-seaLevel)
		}
	}

	return Record{
		MaxEta:          maxOf(wetEta),
		MinEta:          minOf(wetEta),
		MaxCrest:        maxOf(crest),
		MeanPositiveEta: meanOf(positive),
		MaxFlowDepth:    maxOf(flowDepth),
		MaxRunup:        maxOf(runup),
		InundatedArea:   area,
		InundatedCells:  len(flowDepth),
		WetCells:        len(wetEta),
		MaxVelocity:     maxOf(speed),
		MaxMomentumFlux: maxOf(flux),
		MeanU:           meanOf(u),
		MeanV:           meanOf(v),
	}, nil
}

func maxOf(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Max(x)
}

func minOf(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Min(x)
}

func meanOf(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}
