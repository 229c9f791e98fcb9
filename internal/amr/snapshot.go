package amr

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var qFilePattern = regexp.MustCompile(`^fort\.q(\d{4,})$`)

// SnapshotFile is one fort.qNNNN file discovered in an output directory.
type SnapshotFile struct {
	// Index is the position in filename order, used for naming artifacts.
	Index int
	// Frame is the NNNN number from the filename.
	Frame int
	QPath string
	TPath string
}

// Name returns the base name of the solution file.
func (s SnapshotFile) Name() string {
	return filepath.Base(s.QPath)
}

// Snapshot is a fully read simulation frame.
type Snapshot struct {
	SnapshotFile
	Time    float64
	Patches []*Patch

	// TimeWarning is the *MissingTimeFileWarning raised while reading the
	// time file, if any.
	TimeWarning error
}

// Discover lists the fort.qNNNN files in dir sorted by filename. A directory
// without any yields an empty slice and no error.
func Discover(dir string) ([]SnapshotFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("could not list input directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if qFilePattern.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	files := make([]SnapshotFile, 0, len(names))
	for i, name := range names {
		frame, _ := strconv.Atoi(qFilePattern.FindStringSubmatch(name)[1])
		files = append(files, SnapshotFile{
			Index: i,
			Frame: frame,
			QPath: filepath.Join(dir, name),
			TPath: filepath.Join(dir, strings.Replace(name, ".q", ".t", 1)),
		})
	}
	return files, nil
}

// ReadTime returns the simulation time stored as the first token of the
// fort.t file at path. When the file is missing or its first token is not a
// number, it returns step*increment along with a *MissingTimeFileWarning.
func ReadTime(path string, step int, increment float64) (float64, error) {
	fallback := float64(step) * increment
	warn := func(err error) (float64, error) {
		return fallback, &MissingTimeFileWarning{Path: path, Fallback: fallback, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return warn(err)
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return warn(errors.New("file is empty"))
	}
	t, err := parseFloat(fields[0])
	if err != nil {
		return warn(err)
	}
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return warn(fmt.Errorf("time %q is not finite", fields[0]))
	}
	return t, nil
}

// Load reads the snapshot's time and patches. Patches read before a
// PatchReadError are returned along with it.
func Load(sf SnapshotFile, increment float64) (*Snapshot, error) {
	t, warning := ReadTime(sf.TPath, sf.Index, increment)
	patches, err := ReadFile(sf.QPath)
	return &Snapshot{SnapshotFile: sf, Time: t, Patches: patches, TimeWarning: warning}, err
}
