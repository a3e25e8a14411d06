package ingest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for file extensions with no reader.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrSchemaMismatch is returned by a snapshot whose columns no longer match
	// the record schema. Loaders treat it as a cache miss.
	ErrSchemaMismatch = errors.New("snapshot schema mismatch")
	// ErrMissingRequiredColumn is wrapped by MissingColumnError.
	ErrMissingRequiredColumn = errors.New("missing required column")
	// ErrEmptyTable is returned when a source has no header row.
	ErrEmptyTable = errors.New("table has no header row")
)

// MissingColumnError lists every required column absent after normalisation.
type MissingColumnError struct {
	Path    string
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Path, ErrMissingRequiredColumn, strings.Join(e.Columns, ", "))
}

func (e *MissingColumnError) Unwrap() error { return ErrMissingRequiredColumn }

// ValueError reports a cell that could not be converted. Row is the 1-based
// data row, not counting the header.
type ValueError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("row %d, column %s: invalid value %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *ValueError) Unwrap() error { return e.Err }
