package render

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/spiview/internal/canvas"
	"github.com/banshee-data/spiview/internal/layer"
)

const pngDPI = 96

// PNG draws the visible layers over the canvas background.
func PNG(w io.Writer, idx *layer.Index, cfg *canvas.Config, o Options) error {
	width, height := previewSize(cfg, o.maxSide())
	scale := float64(width) / float64(cfg.Size.Width)

	p := plot.New()
	p.BackgroundColor = toColor(cfg.Background)
	p.HideAxes()
	p.X.Min, p.X.Max = 0, float64(cfg.Size.Width)
	p.Y.Min, p.Y.Max = 0, float64(cfg.Size.Height)

	for _, in := range idx.Layers(true) {
		if !in.Visible || len(in.Shapes) == 0 {
			continue
		}
		fill, err := parseColor(in.Style.Color)
		if err != nil {
			return fmt.Errorf("layer %s: %w", in.Name, err)
		}
		pts := make(plotter.XYs, len(in.Shapes))
		for i, s := range in.Shapes {
			pts[i] = plotter.XY{X: float64(s.X), Y: flipY(cfg, s.Y)}
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("layer %s: %w", in.Name, err)
		}
		r := radius(in, in.Shapes[0]) * scale
		if r < 1 {
			r = 1
		}
		sc.GlyphStyle = draw.GlyphStyle{Color: fill, Radius: pixels(r), Shape: draw.CircleGlyph{}}
		p.Add(sc)
	}

	wt, err := p.WriterTo(pixels(float64(width)), pixels(float64(height)), "png")
	if err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

// previewSize scales the canvas so its longer side is maxSide.
func previewSize(cfg *canvas.Config, maxSide int) (width, height int) {
	w, h := cfg.Size.Width, cfg.Size.Height
	long := max(w, h)
	if long <= maxSide {
		return w, h
	}
	return max(1, w*maxSide/long), max(1, h*maxSide/long)
}

// pixels converts a pixel count to a length at the PNG canvas resolution.
func pixels(n float64) vg.Length {
	return vg.Length(n) * vg.Inch / pngDPI
}

func toColor(c canvas.RGB) color.Color {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

func parseColor(hex string) (color.Color, error) {
	rgb, err := canvas.ParseHex(hex)
	if err != nil {
		return nil, err
	}
	return toColor(rgb), nil
}
