// Package amr reads GeoClaw ASCII AMR output (fort.qNNNN / fort.tNNNN) into
// rectangular patches.
package amr

import (
	"fmt"
	"math"
)

// MaxCells bounds mx*my for one patch. Larger headers are rejected as
// corrupt before any data line is read.
const MaxCells = 1 << 28

// Header holds the eight scalars that open every patch block, in file order.
type Header struct {
	GridID int
	Level  int
	MX     int
	MY     int
	XLow   float64
	YLow   float64
	DX     float64
	DY     float64
}

// Validate checks the header invariants: positive cell counts whose product
// fits MaxCells, level >= 1 and finite positive spacing.
func (h Header) Validate() error {
	if h.Level < 1 {
		return fmt.Errorf("level %d is less than 1", h.Level)
	}
	if h.MX < 1 || h.MY < 1 {
		return fmt.Errorf("cell counts must be positive, got mx=%d my=%d", h.MX, h.MY)
	}
	if h.MX > MaxCells/h.MY {
		return fmt.Errorf("patch of mx=%d my=%d exceeds %d cells", h.MX, h.MY, MaxCells)
	}
	if !(h.DX > 0) || !(h.DY > 0) || math.IsInf(h.DX, 0) || math.IsInf(h.DY, 0) {
		return fmt.Errorf("spacing must be positive and finite, got dx=%g dy=%g", h.DX, h.DY)
	}
	if math.IsNaN(h.XLow) || math.IsNaN(h.YLow) {
		return fmt.Errorf("origin is NaN")
	}
	return nil
}

// Patch is one rectangular block of cells at a single refinement level.
//
// Cell arrays are flat with x varying fastest: the value of cell (i, j) lives
// at index j*MX + i. That is the order of the data lines in fort.q files and
// the point order VTK expects, so nothing downstream transposes.
type Patch struct {
	Header

	H   []float64
	HU  []float64
	HV  []float64
	Eta []float64
}

// NewPatch builds a Patch and validates its shape once.
func NewPatch(hdr Header, h, hu, hv, eta []float64) (*Patch, error) {
	if err := hdr.Validate(); err != nil {
		return nil, err
	}
	n := hdr.MX * hdr.MY
	for name, a := range map[string][]float64{"h": h, "hu": hu, "hv": hv, "eta": eta} {
		if len(a) != n {
			return nil, fmt.Errorf("array %s has %d values, want mx*my=%d", name, len(a), n)
		}
	}
	return &Patch{Header: hdr, H: h, HU: hu, HV: hv, Eta: eta}, nil
}

// Cells returns the number of cells in the patch.
func (p *Patch) Cells() int {
	return p.MX * p.MY
}

// Index returns the flat index of cell (i, j).
func (p *Patch) Index(i, j int) int {
	return j*p.MX + i
}

// CellArea is the plan area of one cell.
func (p *Patch) CellArea() float64 {
	return p.DX * p.DY
}

// CellCenters returns the x and y coordinates of the cell centers.
func (p *Patch) CellCenters() (x, y []float64) {
	x = make([]float64, p.MX)
	for i := range x {
		x[i] = p.XLow + (float64(i)+0.5)*p.DX
	}
	y = make([]float64, p.MY)
	for j := range y {
		y[j] = p.YLow + (float64(j)+0.5)*p.DY
	}
	return x, y
}

// CellEdges returns the mx+1 and my+1 coordinates of the cell boundaries.
func (p *Patch) CellEdges() (x, y []float64) {
	x = make([]float64, p.MX+1)
	for i := range x {
		x[i] = p.XLow + float64(i)*p.DX
	}
	y = make([]float64, p.MY+1)
	for j := range y {
		y[j] = p.YLow + float64(j)*p.DY
	}
	return x, y
}

// String identifies the patch in log lines.
func (p *Patch) String() string {
	return fmt.Sprintf("grid %d level %d (%dx%d)", p.GridID, p.Level, p.MX, p.MY)
}
