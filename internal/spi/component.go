// Package spi holds solder-paste-inspection component records and the
// in-memory store that indexes them for grouped iteration.
package spi

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// InvalidCanvasPos marks a canvas coordinate that has not been projected yet.
const InvalidCanvasPos = -1

// ErrEmptyComponentID is returned when a record has no component identifier,
// since the component type is derived from its first character.
var ErrEmptyComponentID = errors.New("component id is empty")

// Component describes one inspected pad on a panel. Everything except the
// canvas position is fixed once the record is created.
type Component struct {
	PadID         int64
	ComponentID   string // e.g. "R12"
	ComponentType string // first character of ComponentID

	SizeMin float64
	SizeMax float64

	// Measurement fields are carried through untouched.
	Volume   float64
	RealVol  int64
	Area     float64
	RealArea int64

	// Data-space position from the inspection machine.
	PosX float64
	PosY float64

	// Pixel-space position, written by the projection stage.
	CanvasX int
	CanvasY int

	LineID  string
	PanelID string
}

// NewComponent returns a component with its type derived from id and the
// canvas position set to InvalidCanvasPos.
func NewComponent(padID int64, id string) (*Component, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("pad %d: %w", padID, ErrEmptyComponentID)
	}
	return &Component{
		PadID:         padID,
		ComponentID:   id,
		ComponentType: TypeOf(id),
		CanvasX:       InvalidCanvasPos,
		CanvasY:       InvalidCanvasPos,
	}, nil
}

// TypeOf returns the component type encoded in id: its first character.
func TypeOf(id string) string {
	_, n := utf8.DecodeRuneInString(id)
	return id[:n]
}

// Size returns the size grouping key, e.g. "0.5x1.0".
func (c *Component) Size() string {
	return SizeKey(c.SizeMin, c.SizeMax)
}

// Projected reports whether the canvas position has been set.
func (c *Component) Projected() bool {
	return c.CanvasX != InvalidCanvasPos && c.CanvasY != InvalidCanvasPos
}

// SizeKey formats a min/max pair the way the inspection exports label sizes.
// Integral values keep a trailing ".0" so 1 becomes "1.0", and very small or
// large values use exponent notation.
func SizeKey(min, max float64) string {
	return formatFloat(min) + "x" + formatFloat(max)
}

// formatFloat renders the shortest round-tripping form of v. Decimal
// exponents below -4 or from 16 up switch to exponent notation, so 0.00001
// becomes "1e-05" and 1e16 becomes "1e+16".
func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	if v != 0 {
		e := strconv.FormatFloat(v, 'e', -1, 64)
		exp, err := strconv.Atoi(e[strings.LastIndexByte(e, 'e')+1:])
		if err == nil && (exp < -4 || exp >= 16) {
			return e
		}
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if strings.Contains(s, ".") {
		return s
	}
	return s + ".0"
}
