package pipeline

import (
	"errors"

	"github.com/banshee-data/spiview/internal/canvas"
	"github.com/banshee-data/spiview/internal/ingest"
	"github.com/banshee-data/spiview/internal/layer"
)

// ErrorKind classifies a failure for observers.
type ErrorKind string

const (
	KindUnsupportedFormat     ErrorKind = "UnsupportedFormat"
	KindSchemaMismatch        ErrorKind = "SchemaMismatch"
	KindMissingRequiredColumn ErrorKind = "MissingRequiredColumn"
	KindDegenerateBounds      ErrorKind = "DegenerateBounds"
	KindInvalidSelectionState ErrorKind = "InvalidSelectionState"
	KindInternal              ErrorKind = "Internal"
)

// Kind maps err to its ErrorKind. An empty dataset has no extent and a canvas
// with no room inside its margins cannot be scaled, so both are reported as
// degenerate bounds. Nil yields "".
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		return KindUnsupportedFormat
	case errors.Is(err, ingest.ErrSchemaMismatch):
		return KindSchemaMismatch
	case errors.Is(err, ingest.ErrMissingRequiredColumn):
		return KindMissingRequiredColumn
	case errors.Is(err, canvas.ErrDegenerateBounds), errors.Is(err, canvas.ErrNoComponents),
		errors.Is(err, canvas.ErrNoDrawableArea):
		return KindDegenerateBounds
	case errors.Is(err, layer.ErrInvalidSelectionState):
		return KindInvalidSelectionState
	}
	return KindInternal
}
