package fields

import (
	"fmt"
	"strings"

	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/amr"
)

// Strategy selects how cell-centered values become point values. One strategy
// is used for the whole run.
type Strategy string

const (
	// Duplicate places points at cell centers and repeats each value along an
	// added unit z axis, giving an mx x my x 2 point grid. Values are never
	// averaged.
	Duplicate Strategy = "duplicate"

	// NodeAverage places points at cell corners, giving an (mx+1) x (my+1) x 1
	// grid. Each point is the mean of the cells touching it: four inside,
	// two along an edge, one at a corner.
	NodeAverage Strategy = "node-average"
)

// ParseStrategy converts a configuration value into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", Duplicate:
		return Duplicate, nil
	case NodeAverage:
		return NodeAverage, nil
	}
	return "", fmt.Errorf("unknown resampling strategy %q (want %q or %q)", s, Duplicate, NodeAverage)
}

// Axes returns the point coordinates along x, y and z for patch p.
func (s Strategy) Axes(p *amr.Patch) (x, y, z []float64) {
	if s == NodeAverage {
		x, y = p.CellEdges()
		return x, y, []float64{0}
	}
	x, y = p.CellCenters()
	return x, y, []float64{0, 1}
}

// Points returns the number of points produced for an mx x my patch.
func (s Strategy) Points(mx, my int) int {
	if s == NodeAverage {
		return (mx + 1) * (my + 1)
	}
	return 2 * mx * my
}

// Resample converts one flat x-fastest cell array into a point array in VTK
// order (x fastest, then y, then z).
func (s Strategy) Resample(cells []float64, mx, my int) ([]float64, error) {
	if len(cells) != mx*my {
		return nil, &ArrayShapeError{Array: "cell field", Got: len(cells), Want: mx * my}
	}
	if s == NodeAverage {
		return nodeAverage(cells, mx, my), nil
	}
	out := make([]float64, 0, 2*len(cells))
	out = append(out, cells...)
	return append(out, cells...), nil
}

func nodeAverage(cells []float64, mx, my int) []float64 {
	nx, ny := mx+1, my+1
	out := make([]float64, nx*ny)
	for J := 0; J < ny; J++ {
		for I := 0; I < nx; I++ {
			// Running mean, so a uniform neighbourhood stays exactly uniform.
			mean, n := 0.0, 0
			for j := J - 1; j <= J; j++ {
				if j < 0 || j >= my {
					continue
				}
				for i := I - 1; i <= I; i++ {
					if i < 0 || i >= mx {
						continue
					}
					n++
					mean += (cells[j*mx+i] - mean) / float64(n)
				}
			}
			out[J*nx+I] = mean
		}
	}
	return out
}
