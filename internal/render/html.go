package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/spiview/internal/canvas"
	"github.com/banshee-data/spiview/internal/layer"
)

// HTML writes an echarts page with one scatter series per layer. Toggling a
// legend entry toggles the layer; hidden layers start unselected.
func HTML(w io.Writer, idx *layer.Index, cfg *canvas.Config, o Options) error {
	layers := idx.Layers(true)

	selected := make(map[string]bool, len(layers))
	for _, in := range layers {
		selected[in.Name] = in.Visible
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       o.title(),
			Width:           "1000px",
			Height:          "1000px",
			BackgroundColor: cfg.Background.Hex(),
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    o.title(),
			Subtitle: fmt.Sprintf("canvas=%dx%d layers=%d", cfg.Size.Width, cfg.Size.Height, len(layers)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll", Orient: "vertical", Left: "right", Selected: selected}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: cfg.Size.Width}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: cfg.Size.Height}),
	)

	for _, in := range layers {
		data := make([]opts.ScatterData, 0, len(in.Shapes))
		for _, s := range in.Shapes {
			data = append(data, opts.ScatterData{
				Name:  s.ObjectID,
				Value: []interface{}{s.X, flipY(cfg, s.Y)},
			})
		}
		size := 4
		if in.Highlighted {
			size = 8
		}
		scatter.AddSeries(in.Name, data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: size}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: in.Style.Color}),
		)
	}

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}
