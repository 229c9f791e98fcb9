package fields

import (
	"fmt"

	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/amr"
)

// Point-data array names written to every mesh.
const (
	WaterDepth        = "water_depth"
	SurfaceElevation  = "surface_elevation"
	Bathymetry        = "bathymetry"
	VelocityX         = "velocity_x"
	VelocityY         = "velocity_y"
	VelocityMagnitude = "velocity_magnitude"
)

// DefaultArrays is the full array set in the order it is written.
var DefaultArrays = []string{
	WaterDepth,
	SurfaceElevation,
	Bathymetry,
	VelocityX,
	VelocityY,
	VelocityMagnitude,
}

// ValidateArrays rejects unknown or repeated array names.
func ValidateArrays(names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("at least one point-data array must be selected")
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if !isKnown(n) {
			return fmt.Errorf("unknown point-data array %q", n)
		}
		if seen[n] {
			return fmt.Errorf("point-data array %q listed twice", n)
		}
		seen[n] = true
	}
	return nil
}

func isKnown(name string) bool {
	for _, n := range DefaultArrays {
		if n == name {
			return true
		}
	}
	return false
}

// NamedArray is one point-data array.
type NamedArray struct {
	Name   string
	Values []float64
}

// PointGrid is everything a structured mesh needs: the three coordinate axes
// and the point-data arrays, each of len(X)*len(Y)*len(Z) values.
type PointGrid struct {
	X, Y, Z []float64
	Arrays  []NamedArray
}

// Points returns the number of points in the grid.
func (g *PointGrid) Points() int {
	return len(g.X) * len(g.Y) * len(g.Z)
}

// Array returns the named array, or nil.
func (g *PointGrid) Array(name string) []float64 {
	for _, a := range g.Arrays {
		if a.Name == name {
			return a.Values
		}
	}
	return nil
}

func cellArray(name string, p *amr.Patch, d *Derived) []float64 {
	switch name {
	case WaterDepth:
		return p.H
	case SurfaceElevation:
		return p.Eta
	case Bathymetry:
		return d.Bathymetry
	case VelocityX:
		return d.U
	case VelocityY:
		return d.V
	case VelocityMagnitude:
		return d.Speed
	}
	return nil
}

// Build resamples the selected arrays of a patch with strategy s.
func Build(p *amr.Patch, d *Derived, names []string, s Strategy) (*PointGrid, error) {
	g := &PointGrid{}
	g.X, g.Y, g.Z = s.Axes(p)
	want := g.Points()
	for _, name := range names {
		cells := cellArray(name, p, d)
		if cells == nil {
			return nil, fmt.Errorf("unknown point-data array %q", name)
		}
		pts, err := s.Resample(cells, p.MX, p.MY)
		if err != nil {
			if se, ok := err.(*ArrayShapeError); ok {
				se.Array = name
			}
			return nil, err
		}
		if len(pts) != want {
			return nil, &ArrayShapeError{Array: name, Got: len(pts), Want: want}
		}
		g.Arrays = append(g.Arrays, NamedArray{Name: name, Values: pts})
	}
	return g, nil
}
