package amr

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// maxLineSize bounds a single line of a fort.q file.
const maxLineSize = 1 << 20

// dataColumns is the number of leading columns of a data row that are
// consumed: h, hu, hv, eta.
const dataColumns = 4

// HeaderToken is one header line. Only the first whitespace-separated field is
// significant; GeoClaw follows it with a label such as "grid_number".
type HeaderToken struct {
	Line  int
	Value string
}

// DataRowToken is one cell's values.
type DataRowToken struct {
	Line   int
	Values [dataColumns]float64
}

// Tokenizer splits a fort.q stream into non-blank lines and types them on
// request. Blank lines are skipped wherever they appear.
type Tokenizer struct {
	sc      *bufio.Scanner
	line    int
	pending []string
	hasNext bool
	err     error
}

// NewTokenizer wraps r.
func NewTokenizer(r io.Reader) *Tokenizer {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Tokenizer{sc: sc}
}

// Line returns the 1-based number of the last line handed out.
func (t *Tokenizer) Line() int {
	return t.line
}

// More reports whether another non-blank line is available.
func (t *Tokenizer) More() bool {
	if t.hasNext {
		return true
	}
	for t.sc.Scan() {
		t.line++
		fields := strings.Fields(t.sc.Text())
		if len(fields) == 0 {
			continue
		}
		t.pending = fields
		t.hasNext = true
		return true
	}
	t.err = t.sc.Err()
	return false
}

// Err returns the I/O error that ended scanning, if any.
func (t *Tokenizer) Err() error {
	return t.err
}

func (t *Tokenizer) next() ([]string, error) {
	if !t.More() {
		if t.err != nil {
			return nil, t.err
		}
		return nil, io.ErrUnexpectedEOF
	}
	t.hasNext = false
	return t.pending, nil
}

// Header consumes the next non-blank line as a header token.
func (t *Tokenizer) Header() (HeaderToken, error) {
	fields, err := t.next()
	if err != nil {
		return HeaderToken{}, err
	}
	return HeaderToken{Line: t.line, Value: fields[0]}, nil
}

// DataRow consumes the next non-blank line as a data row. Rows must carry at
// least four numeric columns; any further columns are ignored.
func (t *Tokenizer) DataRow() (DataRowToken, error) {
	fields, err := t.next()
	if err != nil {
		return DataRowToken{}, err
	}
	tok := DataRowToken{Line: t.line}
	if len(fields) < dataColumns {
		return tok, fmt.Errorf("data row has %d columns, want at least %d", len(fields), dataColumns)
	}
	for k := 0; k < dataColumns; k++ {
		v, err := parseFloat(fields[k])
		if err != nil {
			return tok, fmt.Errorf("column %d: %w", k+1, err)
		}
		tok.Values[k] = v
	}
	return tok, nil
}

// Int interprets the token as an integer.
func (h HeaderToken) Int() (int, error) {
	return strconv.Atoi(h.Value)
}

// Float interprets the token as a float.
func (h HeaderToken) Float() (float64, error) {
	return parseFloat(h.Value)
}

// parseFloat accepts Fortran double-precision exponents (1.0D+02) as well as
// the usual forms.
func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return v, nil
	}
	if strings.ContainsAny(s, "dD") {
		if v, err2 := strconv.ParseFloat(strings.NewReplacer("d", "e", "D", "E").Replace(s), 64); err2 == nil {
			return v, nil
		}
	}
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return 0, err
}
