package amr

import "fmt"

// PatchReadError reports a truncated or malformed patch. Parsing of the file
// stops at the first PatchReadError; patches read before it remain valid.
type PatchReadError struct {
	Snapshot   string
	PatchIndex int
	Line       int
	Field      string
	Err        error
}

func (e *PatchReadError) Error() string {
	loc := fmt.Sprintf("snapshot %s: patch %d", e.Snapshot, e.PatchIndex)
	if e.Line > 0 {
		loc += fmt.Sprintf(": line %d", e.Line)
	}
	if e.Field != "" {
		loc += ": " + e.Field
	}
	return fmt.Sprintf("%s: %v", loc, e.Err)
}

func (e *PatchReadError) Unwrap() error {
	return e.Err
}

// MissingTimeFileWarning is returned by ReadTime when the fort.t file is
// absent or unreadable and the default time was used instead.
type MissingTimeFileWarning struct {
	Path     string
	Fallback float64
	Err      error
}

func (w *MissingTimeFileWarning) Error() string {
	return fmt.Sprintf("time file %s unusable, using t=%g s: %v", w.Path, w.Fallback, w.Err)
}

func (w *MissingTimeFileWarning) Unwrap() error {
	return w.Err
}
