package canvas

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Point is a data-space position.
type Point struct {
	X, Y float64
}

// ComputeBounds returns the bounding box of points.
func ComputeBounds(points []Point) (Bounds, error) {
	if len(points) == 0 {
		return Bounds{}, ErrNoComponents
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}
	return Bounds{
		XMin: floats.Min(xs),
		XMax: floats.Max(xs),
		YMin: floats.Min(ys),
		YMax: floats.Max(ys),
	}, nil
}

// AutoSize fits the canvas to the data aspect ratio when the mode is auto.
// The longer data axis gets the configured maximum side and the shorter one
// is scaled down proportionally. Degenerate bounds leave the size unchanged.
func (c *Config) AutoSize() {
	if c.Mode != ModeAuto || c.Bounds.Degenerate() {
		return
	}
	side := max(c.Size.Height, c.Size.Width)
	w, h := math.Abs(c.Bounds.Width()), math.Abs(c.Bounds.Height())
	if w >= h {
		c.Size.Width = side
		c.Size.Height = int(float64(side) * h / w)
	} else {
		c.Size.Height = side
		c.Size.Width = int(float64(side) * w / h)
	}
}

// Transform is a resolved projection. Resolve it once per projection run.
type Transform struct {
	ratio      float64
	xMin, yMin float64
	margin     int
	offX, offY int
}

// Transform resolves the scaling ratio and offsets of c.
func (c *Config) Transform() (Transform, error) {
	ratio, err := c.ScalingRatio()
	if err != nil {
		return Transform{}, err
	}
	offY, offX, err := c.OffsetToCenter()
	if err != nil {
		return Transform{}, err
	}
	return Transform{
		ratio:  ratio,
		xMin:   c.Bounds.XMin,
		yMin:   c.Bounds.YMin,
		margin: c.Margin,
		offX:   offX,
		offY:   offY,
	}, nil
}

// Ratio returns the scaling ratio.
func (t Transform) Ratio() float64 { return t.ratio }

// Apply maps a data-space position to canvas pixels.
func (t Transform) Apply(posX, posY float64) (x, y int) {
	x = int(math.Round((posX-t.xMin)*t.ratio + float64(t.margin+t.offX)))
	y = int(math.Round((posY-t.yMin)*t.ratio + float64(t.margin+t.offY)))
	return x, y
}

// Project maps one position with the current config.
func (c *Config) Project(posX, posY float64) (x, y int, err error) {
	t, err := c.Transform()
	if err != nil {
		return 0, 0, err
	}
	x, y = t.Apply(posX, posY)
	return x, y, nil
}
