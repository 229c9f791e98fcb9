package vtk

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultCollectionName is the manifest filename inside the output directory.
const DefaultCollectionName = "tsunami_1755.pvd"

// DataSet is one file of a ParaView collection at one time.
type DataSet struct {
	Timestep float64 `xml:"timestep,attr"`
	File     string  `xml:"file,attr"`
}

// Collection is a ParaView data collection (.pvd): a list of datasets tagged
// with the time they belong to.
type Collection struct {
	XMLName  xml.Name  `xml:"VTKFile"`
	Type     string    `xml:"type,attr"`
	Version  string    `xml:"version,attr"`
	DataSets []DataSet `xml:"Collection>DataSet"`
}

// NewCollection returns an empty collection with the standard header.
func NewCollection() *Collection {
	return &Collection{Type: "Collection", Version: "0.1"}
}

// WriteCollection writes c to path, replacing any previous file atomically.
func WriteCollection(path string, c *Collection) error {
	body, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode collection: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(xml.Header); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(append(body, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadCollection parses a .pvd file.
func ReadCollection(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := &Collection{}
	if err := xml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("could not parse collection %s: %w", path, err)
	}
	if c.Type != "Collection" {
		return nil, fmt.Errorf("%s is a VTK %q file, not a Collection", path, c.Type)
	}
	return c, nil
}

// Group returns the collection's files per distinct timestep, in file order.
func (c *Collection) Group() (times []float64, files map[float64][]string) {
	files = make(map[float64][]string)
	for _, ds := range c.DataSets {
		if _, ok := files[ds.Timestep]; !ok {
			times = append(times, ds.Timestep)
		}
		files[ds.Timestep] = append(files[ds.Timestep], ds.File)
	}
	return times, files
}
