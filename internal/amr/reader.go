package amr

import (
	"fmt"
	"io"
	"os"
)

// maxPrealloc caps the capacity reserved from a header's declared size so a
// corrupt header cannot force a huge allocation before any data is read.
const maxPrealloc = 1 << 20

// Reader retrieves patches from one snapshot stream, one patch at a time.
//
//	r := amr.NewReader(f, "fort.q0003")
//	for r.Next() {
//		p := r.Patch()
//		...
//	}
//	if err := r.Err(); err != nil { ... }
type Reader struct {
	tok      *Tokenizer
	snapshot string
	index    int
	patch    *Patch
	err      error
	done     bool
}

// NewReader creates a patch reader over r. The snapshot name is only used to
// identify errors.
func NewReader(r io.Reader, snapshot string) *Reader {
	return &Reader{tok: NewTokenizer(r), snapshot: snapshot}
}

// Next advances to the next patch. It returns false at the end of input or at
// the first malformed patch; Err distinguishes the two.
func (r *Reader) Next() bool {
	if r.done {
		return false
	}
	r.patch = nil
	if !r.tok.More() {
		r.done = true
		if err := r.tok.Err(); err != nil {
			r.err = &PatchReadError{Snapshot: r.snapshot, PatchIndex: r.index, Line: r.tok.Line(), Err: err}
		}
		return false
	}

	p, err := r.readPatch()
	if err != nil {
		r.done = true
		r.err = err
		return false
	}
	r.patch = p
	r.index++
	return true
}

// Patch returns the patch read by the last successful call to Next.
func (r *Reader) Patch() *Patch {
	return r.patch
}

// Err returns the *PatchReadError that stopped the reader, or nil.
func (r *Reader) Err() error {
	return r.err
}

// Count returns the number of patches read so far.
func (r *Reader) Count() int {
	return r.index
}

func (r *Reader) fail(field string, err error) error {
	return &PatchReadError{
		Snapshot:   r.snapshot,
		PatchIndex: r.index,
		Line:       r.tok.Line(),
		Field:      field,
		Err:        err,
	}
}

func (r *Reader) readPatch() (*Patch, error) {
	var hdr Header
	ints := []struct {
		name string
		dst  *int
	}{
		{"grid_number", &hdr.GridID},
		{"AMR_level", &hdr.Level},
		{"mx", &hdr.MX},
		{"my", &hdr.MY},
	}
	for _, f := range ints {
		tok, err := r.tok.Header()
		if err != nil {
			return nil, r.fail(f.name, err)
		}
		if *f.dst, err = tok.Int(); err != nil {
			return nil, r.fail(f.name, err)
		}
	}
	floats := []struct {
		name string
		dst  *float64
	}{
		{"xlow", &hdr.XLow},
		{"ylow", &hdr.YLow},
		{"dx", &hdr.DX},
		{"dy", &hdr.DY},
	}
	for _, f := range floats {
		tok, err := r.tok.Header()
		if err != nil {
			return nil, r.fail(f.name, err)
		}
		if *f.dst, err = tok.Float(); err != nil {
			return nil, r.fail(f.name, err)
		}
	}
	if err := hdr.Validate(); err != nil {
		return nil, r.fail("header", err)
	}

	n := hdr.MX * hdr.MY
	capHint := n
	if capHint > maxPrealloc {
		capHint = maxPrealloc
	}
	h := make([]float64, 0, capHint)
	hu := make([]float64, 0, capHint)
	hv := make([]float64, 0, capHint)
	eta := make([]float64, 0, capHint)

	for k := 0; k < n; k++ {
		row, err := r.tok.DataRow()
		if err != nil {
			return nil, r.fail(fmt.Sprintf("cell %d of %d", k+1, n), err)
		}
		h = append(h, row.Values[0])
		hu = append(hu, row.Values[1])
		hv = append(hv, row.Values[2])
		eta = append(eta, row.Values[3])
	}

	p, err := NewPatch(hdr, h, hu, hv, eta)
	if err != nil {
		return nil, r.fail("patch", err)
	}
	return p, nil
}

// ReadAll drains a reader. It returns every patch read before the first
// error together with that error.
func ReadAll(r io.Reader, snapshot string) ([]*Patch, error) {
	pr := NewReader(r, snapshot)
	var patches []*Patch
	for pr.Next() {
		patches = append(patches, pr.Patch())
	}
	return patches, pr.Err()
}

// ReadFile opens path and reads all of its patches. Each call starts from the
// beginning of the file.
func ReadFile(path string) ([]*Patch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &PatchReadError{Snapshot: path, Err: err}
	}
	defer f.Close()
	return ReadAll(f, path)
}
