// Package canvas maps component positions from data space onto a raster
// canvas with a uniform scale that keeps the data centred inside the margin.
package canvas

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Mode selects how the canvas size is chosen.
type Mode string

const (
	// ModeAuto fits the canvas to the aspect ratio of the data.
	ModeAuto Mode = "auto"
	// ModeFixed uses the configured canvas size as is.
	ModeFixed Mode = "fixed"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeAuto || m == ModeFixed
}

var (
	// ErrDegenerateBounds is returned when the data has zero extent on an axis,
	// which would make the scaling ratio undefined.
	ErrDegenerateBounds = errors.New("degenerate bounds: zero extent on at least one axis")
	// ErrNoComponents is returned when bounds are requested for an empty set.
	ErrNoComponents = errors.New("no components to bound")
	// ErrNoDrawableArea is returned when the margins leave no room on an axis
	// of the (possibly auto-sized) canvas.
	ErrNoDrawableArea = errors.New("no drawable area inside the margins")
)

// Size is the canvas raster size. Channels is the colour depth.
type Size struct {
	Height   int `json:"height"`
	Width    int `json:"width"`
	Channels int `json:"channels"`
}

// Bounds is the data-space bounding box of the loaded components.
type Bounds struct {
	XMin float64 `json:"x_min"`
	XMax float64 `json:"x_max"`
	YMin float64 `json:"y_min"`
	YMax float64 `json:"y_max"`
}

// UnsetBounds is the bounding box of a config that has never seen data.
var UnsetBounds = Bounds{XMin: -1, XMax: -1, YMin: -1, YMax: -1}

// Width is the extent along x.
func (b Bounds) Width() float64 { return b.XMax - b.XMin }

// Height is the extent along y.
func (b Bounds) Height() float64 { return b.YMax - b.YMin }

// Degenerate reports whether either extent is zero.
func (b Bounds) Degenerate() bool {
	return b.Width() == 0 || b.Height() == 0
}

// RGB is an 8-bit colour.
type RGB struct {
	R, G, B uint8
}

// Hex formats the colour as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex parses #rrggbb (the leading # is optional).
func ParseHex(s string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("invalid colour %q: want #rrggbb", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Config holds the target canvas attributes plus the bounds derived from the
// most recent parse.
type Config struct {
	Mode            Mode // "auto" or "fixed"
	Size            Size
	Margin          int
	Background      RGB
	ComponentRadius int

	Bounds Bounds
}

// DefaultConfig returns the stock canvas settings.
func DefaultConfig() *Config {
	return &Config{
		Mode:            ModeAuto,
		Size:            Size{Height: 10000, Width: 10000, Channels: 3},
		Margin:          500,
		Background:      RGB{R: 84, G: 1, B: 68},
		ComponentRadius: 10,
		Bounds:          UnsetBounds,
	}
}

// Clone returns a copy of c.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// AvailableSize returns the drawable (height, width) inside the margins.
func (c *Config) AvailableSize() (height, width int) {
	return c.Size.Height - 2*c.Margin, c.Size.Width - 2*c.Margin
}

// ScalingRatio is the uniform scale that fits the bounds into the available
// area on both axes.
func (c *Config) ScalingRatio() (float64, error) {
	if c.Bounds.Degenerate() {
		return 0, ErrDegenerateBounds
	}
	h, w := c.AvailableSize()
	if h <= 0 || w <= 0 {
		return 0, fmt.Errorf("%w: %dx%d canvas with margin %d", ErrNoDrawableArea, c.Size.Height, c.Size.Width, c.Margin)
	}
	return math.Min(float64(h)/c.Bounds.Height(), float64(w)/c.Bounds.Width()), nil
}

// OffsetToCenter returns the padding that centres the scaled data along each
// axis. Offsets are truncated toward zero.
func (c *Config) OffsetToCenter() (offY, offX int, err error) {
	ratio, err := c.ScalingRatio()
	if err != nil {
		return 0, 0, err
	}
	h, w := c.AvailableSize()
	offY = int((float64(h) - c.Bounds.Height()*ratio) / 2)
	offX = int((float64(w) - c.Bounds.Width()*ratio) / 2)
	return offY, offX, nil
}

// ChangeKind classifies the difference between two configs by what needs to be
// redone.
type ChangeKind int

const (
	// ChangeNone means nothing observable changed.
	ChangeNone ChangeKind = iota
	// ChangeCanvas means size, margin or mode changed: parse and project again.
	ChangeCanvas
	// ChangeRadius means only the component radius changed: re-render.
	ChangeRadius
	// ChangeBackground means only the background changed: redraw the backdrop.
	ChangeBackground
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeNone:
		return "none"
	case ChangeCanvas:
		return "canvas"
	case ChangeRadius:
		return "radius"
	case ChangeBackground:
		return "background"
	}
	return "ChangeKind(" + strconv.Itoa(int(k)) + ")"
}

// Compare reports the first difference between old and new in priority order.
// Bounds are ignored.
func Compare(old, new *Config) ChangeKind {
	switch {
	case old.Size != new.Size:
		return ChangeCanvas
	case old.Margin != new.Margin:
		return ChangeCanvas
	case old.Mode != new.Mode:
		return ChangeCanvas
	case old.ComponentRadius != new.ComponentRadius:
		return ChangeRadius
	case old.Background != new.Background:
		return ChangeBackground
	}
	return ChangeNone
}
