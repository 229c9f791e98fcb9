// Package vtk writes VTK XML RectilinearGrid files (.vtr) and ParaView
// collection files (.pvd).
package vtk

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/fields"
)

// Encoding selects how DataArray contents are stored.
type Encoding string

const (
	// ASCII writes whitespace-separated decimal values.
	ASCII Encoding = "ascii"
	// Binary writes base64 of a UInt32 byte count followed by little-endian
	// float64 values, VTK's inline "binary" format.
	Binary Encoding = "binary"
)

// ParseEncoding converts a configuration value into an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(strings.ToLower(strings.TrimSpace(s))) {
	case "", ASCII:
		return ASCII, nil
	case Binary:
		return Binary, nil
	}
	return "", fmt.Errorf("unknown VTK encoding %q (want %q or %q)", s, ASCII, Binary)
}

// MeshWriteError reports an I/O failure on one artifact. The artifact is
// skipped; the run continues.
type MeshWriteError struct {
	Path string
	Err  error
}

func (e *MeshWriteError) Error() string {
	return fmt.Sprintf("could not write mesh %s: %v", e.Path, e.Err)
}

func (e *MeshWriteError) Unwrap() error {
	return e.Err
}

// RectilinearWriter writes point grids as .vtr files into one directory.
type RectilinearWriter struct {
	dir      string
	encoding Encoding
}

// NewRectilinearWriter creates dir if needed. An error here means the output
// directory is unusable and the run cannot proceed.
func NewRectilinearWriter(dir string, enc Encoding) (*RectilinearWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create output directory %s: %w", dir, err)
	}
	if enc == "" {
		enc = ASCII
	}
	return &RectilinearWriter{dir: dir, encoding: enc}, nil
}

// Dir returns the output directory.
func (w *RectilinearWriter) Dir() string {
	return w.dir
}

// Write stores g as dir/name and returns the full path. The file appears
// atomically: it is written under a temporary name and renamed.
func (w *RectilinearWriter) Write(name string, g *fields.PointGrid) (string, error) {
	path := filepath.Join(w.dir, name)
	if err := checkGrid(g); err != nil {
		return "", &MeshWriteError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(w.dir, "."+name+".*")
	if err != nil {
		return "", &MeshWriteError{Path: path, Err: err}
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriterSize(tmp, 256*1024)
	if err := w.encode(bw, g); err != nil {
		tmp.Close()
		return "", &MeshWriteError{Path: path, Err: err}
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return "", &MeshWriteError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return "", &MeshWriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", &MeshWriteError{Path: path, Err: err}
	}
	return path, nil
}

func checkGrid(g *fields.PointGrid) error {
	if len(g.X) == 0 || len(g.Y) == 0 || len(g.Z) == 0 {
		return fmt.Errorf("empty coordinate axis (%d, %d, %d)", len(g.X), len(g.Y), len(g.Z))
	}
	n := g.Points()
	for _, a := range g.Arrays {
		if len(a.Values) != n {
			return &fields.ArrayShapeError{Array: a.Name, Got: len(a.Values), Want: n}
		}
	}
	return nil
}

func (w *RectilinearWriter) encode(out io.Writer, g *fields.PointGrid) error {
	extent := fmt.Sprintf("0 %d 0 %d 0 %d", len(g.X)-1, len(g.Y)-1, len(g.Z)-1)

	var hdr bytes.Buffer
	hdr.WriteString("<?xml version=\"1.0\"?>\n")
	if w.encoding == Binary {
		hdr.WriteString("<VTKFile type=\"RectilinearGrid\" version=\"1.0\" byte_order=\"LittleEndian\" header_type=\"UInt32\">\n")
	} else {
		hdr.WriteString("<VTKFile type=\"RectilinearGrid\" version=\"1.0\" byte_order=\"LittleEndian\">\n")
	}
	fmt.Fprintf(&hdr, "  <RectilinearGrid WholeExtent=\"%s\">\n", extent)
	fmt.Fprintf(&hdr, "    <Piece Extent=\"%s\">\n", extent)
	if _, err := out.Write(hdr.Bytes()); err != nil {
		return err
	}

	if len(g.Arrays) > 0 {
		if _, err := fmt.Fprintf(out, "      <PointData Scalars=\"%s\">\n", g.Arrays[0].Name); err != nil {
			return err
		}
		for _, a := range g.Arrays {
			if err := w.dataArray(out, a.Name, a.Values); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(out, "      </PointData>\n"); err != nil {
			return err
		}
	}

	if _, err := io.WriteString(out, "      <CellData>\n      </CellData>\n      <Coordinates>\n"); err != nil {
		return err
	}
	for _, axis := range []struct {
		name string
		v    []float64
	}{{"x_coordinates", g.X}, {"y_coordinates", g.Y}, {"z_coordinates", g.Z}} {
		if err := w.dataArray(out, axis.name, axis.v); err != nil {
			return err
		}
	}
	_, err := io.WriteString(out, "      </Coordinates>\n    </Piece>\n  </RectilinearGrid>\n</VTKFile>\n")
	return err
}

func (w *RectilinearWriter) dataArray(out io.Writer, name string, values []float64) error {
	if _, err := fmt.Fprintf(out, "        <DataArray type=\"Float64\" Name=\"%s\" NumberOfComponents=\"1\" format=\"%s\" RangeMin=\"%s\" RangeMax=\"%s\">\n",
		name, w.encoding, formatFloat(rangeOf(values, math.Min)), formatFloat(rangeOf(values, math.Max))); err != nil {
		return err
	}
	var err error
	if w.encoding == Binary {
		err = writeBinary(out, values)
	} else {
		err = writeASCII(out, values)
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, "\n        </DataArray>\n")
	return err
}

func writeASCII(out io.Writer, values []float64) error {
	const perLine = 6
	buf := make([]byte, 0, 32*perLine)
	for i, v := range values {
		if i%perLine == 0 {
			if i > 0 {
				buf = append(buf, '\n')
				if _, err := out.Write(buf); err != nil {
					return err
				}
				buf = buf[:0]
			}
			buf = append(buf, "          "...)
		} else {
			buf = append(buf, ' ')
		}
		buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
	}
	_, err := out.Write(buf)
	return err
}

func writeBinary(out io.Writer, values []float64) error {
	raw := make([]byte, 4+8*len(values))
	binary.LittleEndian.PutUint32(raw, uint32(8*len(values)))
	for i, v := range values {
		binary.LittleEndian.PutUint64(raw[4+8*i:], math.Float64bits(v))
	}
	if _, err := io.WriteString(out, "          "); err != nil {
		return err
	}
	enc := base64.NewEncoder(base64.StdEncoding, out)
	if _, err := enc.Write(raw); err != nil {
		return err
	}
	return enc.Close()
}

func rangeOf(values []float64, pick func(a, b float64) float64) float64 {
	if len(values) == 0 {
		return 0
	}
	r := values[0]
	for _, v := range values[1:] {
		r = pick(r, v)
	}
	return r
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
