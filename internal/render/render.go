// Package render draws the layer index for people: an interactive echarts
// page and a static PNG preview.
package render

import (
	"github.com/banshee-data/spiview/internal/canvas"
	"github.com/banshee-data/spiview/internal/layer"
)

// DefaultMaxSide is the longest side of a PNG preview in pixels.
const DefaultMaxSide = 1024

// Options tweaks a render.
type Options struct {
	Title   string
	MaxSide int // PNG only; 0 means DefaultMaxSide
}

func (o Options) maxSide() int {
	if o.MaxSide <= 0 {
		return DefaultMaxSide
	}
	return o.MaxSide
}

func (o Options) title() string {
	if o.Title == "" {
		return "SPI components"
	}
	return o.Title
}

// highlightScale enlarges highlighted layers.
const highlightScale = 1.5

func radius(in layer.Info, s layer.Shape) float64 {
	r := float64(s.Radius)
	if in.Highlighted {
		r *= highlightScale
	}
	return r
}

// flipY turns a canvas row into a plot coordinate with the origin at the
// bottom, so the picture matches the canvas orientation.
func flipY(cfg *canvas.Config, y int) float64 {
	return float64(cfg.Size.Height - y)
}
