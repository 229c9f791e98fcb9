package vtk

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/fields"
)

type vtrArray struct {
	Name   string `xml:"Name,attr"`
	Format string `xml:"format,attr"`
	Body   string `xml:",chardata"`
}

type vtrFile struct {
	Type       string `xml:"type,attr"`
	HeaderType string `xml:"header_type,attr"`
	Grid       struct {
		WholeExtent string `xml:"WholeExtent,attr"`
		Piece       struct {
			Extent      string     `xml:"Extent,attr"`
			PointData   []vtrArray `xml:"PointData>DataArray"`
			Coordinates []vtrArray `xml:"Coordinates>DataArray"`
		} `xml:"Piece"`
	} `xml:"RectilinearGrid"`
}

func decode(t *testing.T, a vtrArray) []float64 {
	t.Helper()
	switch a.Format {
	case "ascii":
		var out []float64
		for _, f := range strings.Fields(a.Body) {
			v, err := strconv.ParseFloat(f, 64)
			require.NoError(t, err)
			out = append(out, v)
		}
		return out
	case "binary":
		raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(a.Body))
		require.NoError(t, err)
		n := binary.LittleEndian.Uint32(raw)
		require.Equal(t, int(n), len(raw)-4)
		out := make([]float64, n/8)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[4+8*i:]))
		}
		return out
	}
	t.Fatalf("unexpected format %q", a.Format)
	return nil
}

func readVTR(t *testing.T, path string) vtrFile {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var f vtrFile
	require.NoError(t, xml.Unmarshal(data, &f))
	return f
}

func sampleGrid() *fields.PointGrid {
	return &fields.PointGrid{
		X: []float64{0.5, 1.5, 2.5},
		Y: []float64{-1, 1},
		Z: []float64{0, 1},
		Arrays: []fields.NamedArray{
			{Name: fields.WaterDepth, Values: []float64{1, 2, 3, 4, 5, 6, 1, 2, 3, 4, 5, 6}},
			{Name: fields.VelocityX, Values: []float64{0, -0.25, 1e-9, 3.5e10, 0, 0, 0, -0.25, 1e-9, 3.5e10, 0, 0}},
		},
	}
}

func TestRectilinearWriterEncodings(t *testing.T) {
	for _, enc := range []Encoding{ASCII, Binary} {
		t.Run(string(enc), func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "nested", "vtk")
			w, err := NewRectilinearWriter(dir, enc)
			require.NoError(t, err)

			g := sampleGrid()
			path, err := w.Write("mesh.vtr", g)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "mesh.vtr"), path)

			f := readVTR(t, path)
			assert.Equal(t, "RectilinearGrid", f.Type)
			assert.Equal(t, "0 2 0 1 0 1", f.Grid.WholeExtent)
			assert.Equal(t, f.Grid.WholeExtent, f.Grid.Piece.Extent)
			if enc == Binary {
				assert.Equal(t, "UInt32", f.HeaderType)
			}

			require.Len(t, f.Grid.Piece.PointData, 2)
			for i, a := range f.Grid.Piece.PointData {
				assert.Equal(t, g.Arrays[i].Name, a.Name)
				assert.Equal(t, string(enc), a.Format)
				if diff := cmp.Diff(g.Arrays[i].Values, decode(t, a)); diff != "" {
					t.Errorf("array %s mismatch (-want +got):\n%s", a.Name, diff)
				}
			}

			require.Len(t, f.Grid.Piece.Coordinates, 3)
			assert.Equal(t, g.X, decode(t, f.Grid.Piece.Coordinates[0]))
			assert.Equal(t, g.Y, decode(t, f.Grid.Piece.Coordinates[1]))
			assert.Equal(t, g.Z, decode(t, f.Grid.Piece.Coordinates[2]))

			leftovers, err := filepath.Glob(filepath.Join(dir, ".mesh.vtr.*"))
			require.NoError(t, err)
			assert.Empty(t, leftovers)
		})
	}
}

func TestRectilinearWriterRejectsBadShape(t *testing.T) {
	w, err := NewRectilinearWriter(t.TempDir(), ASCII)
	require.NoError(t, err)

	g := sampleGrid()
	g.Arrays[1].Values = g.Arrays[1].Values[:5]
	_, err = w.Write("bad.vtr", g)

	var mwe *MeshWriteError
	require.ErrorAs(t, err, &mwe)
	var se *fields.ArrayShapeError
	assert.ErrorAs(t, err, &se)
	_, statErr := os.Stat(filepath.Join(w.Dir(), "bad.vtr"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestNewRectilinearWriterUnusableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err := NewRectilinearWriter(filepath.Join(file, "vtk"), ASCII)
	assert.Error(t, err)
}

func TestParseEncoding(t *testing.T) {
	e, err := ParseEncoding("")
	require.NoError(t, err)
	assert.Equal(t, ASCII, e)
	e, err = ParseEncoding("BINARY")
	require.NoError(t, err)
	assert.Equal(t, Binary, e)
	_, err = ParseEncoding("appended")
	assert.Error(t, err)
}

func TestArtifactName(t *testing.T) {
	assert.Equal(t, "tsunami_t0003_grid012_lvl2.vtr", ArtifactName("", 3, 12, 2))
	assert.Equal(t, "lisbon_t0110_grid1234_lvl4.vtr", ArtifactName("lisbon", 110, 1234, 4))
}

func TestNameRegistryNeverRepeats(t *testing.T) {
	r := NewNameRegistry("", 7)
	names := []string{
		r.Reserve(1, 1, 0),
		r.Reserve(2, 2, 1),
		r.Reserve(1, 1, 2),
		r.Reserve(1, 1, 2),
		r.Reserve(1, 2, 3),
	}
	assert.Equal(t, []string{
		"tsunami_t0007_grid001_lvl1.vtr",
		"tsunami_t0007_grid002_lvl2.vtr",
		"tsunami_t0007_grid001_lvl1_p2.vtr",
		"tsunami_t0007_grid001_lvl1_p2_1.vtr",
		"tsunami_t0007_grid001_lvl2.vtr",
	}, names)
}

func TestCollectionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultCollectionName)
	c := NewCollection()
	c.DataSets = []DataSet{
		{Timestep: 0, File: "a.vtr"},
		{Timestep: 300, File: "b.vtr"},
		{Timestep: 300, File: "c.vtr"},
		{Timestep: 1234.5, File: "d.vtr"},
	}
	require.NoError(t, WriteCollection(path, c))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<?xml"))
	assert.Contains(t, string(data), `<VTKFile type="Collection" version="0.1">`)
	assert.Contains(t, string(data), `timestep="1234.5"`)

	got, err := ReadCollection(path)
	require.NoError(t, err)
	if diff := cmp.Diff(c.DataSets, got.DataSets); diff != "" {
		t.Errorf("datasets mismatch (-want +got):\n%s", diff)
	}

	times, files := got.Group()
	assert.Equal(t, []float64{0, 300, 1234.5}, times)
	assert.Equal(t, []string{"b.vtr", "c.vtr"}, files[300])
}

func TestReadCollectionRejectsOtherVTK(t *testing.T) {
	dir := t.TempDir()
	w, err := NewRectilinearWriter(dir, ASCII)
	require.NoError(t, err)
	path, err := w.Write("m.vtr", sampleGrid())
	require.NoError(t, err)

	_, err = ReadCollection(path)
	assert.Error(t, err)
}
