package layer

import (
	"strconv"
	"strings"

	"github.com/banshee-data/spiview/internal/spi"
)

// Layer name prefixes of the two groupings.
const (
	PrefixSize = "size"
	PrefixID   = "id"
)

// SizeLayerName names the (type, size, line, panel) layer.
func SizeLayerName(componentType, size, line, panel string) string {
	return strings.Join([]string{PrefixSize, componentType, size, line, panel}, "/")
}

// IDLayerName names the (type, id, line, panel) layer.
func IDLayerName(componentType, id, line, panel string) string {
	return strings.Join([]string{PrefixID, componentType, id, line, panel}, "/")
}

// Build registers both groupings of store with r. Every component becomes
// one circle of the given radius in each grouping, keyed by its pad id.
func Build(r Renderer, store *spi.Store, radius int) error {
	for g := range store.IterBySize() {
		for _, part := range splitByLinePanel(g.Components) {
			attrs := Attributes{ComponentType: g.ComponentType, Size: g.Key, LineID: part.line, PanelID: part.panel}
			name := SizeLayerName(g.ComponentType, g.Key, part.line, part.panel)
			if err := r.AddItemsToLayer(name, attrs, shapes(part.components, radius), DefaultStyle(Color(g.ComponentType))); err != nil {
				return err
			}
		}
	}
	for g := range store.IterByID() {
		for _, part := range splitByLinePanel(g.Components) {
			attrs := Attributes{ComponentType: g.ComponentType, ComponentID: g.Key, LineID: part.line, PanelID: part.panel}
			name := IDLayerName(g.ComponentType, g.Key, part.line, part.panel)
			if err := r.AddItemsToLayer(name, attrs, shapes(part.components, radius), DefaultStyle(Color(g.ComponentType))); err != nil {
				return err
			}
		}
	}
	return nil
}

type linePanel struct {
	line, panel string
	components  []*spi.Component
}

// splitByLinePanel partitions components by (line, panel) in first-seen
// order.
func splitByLinePanel(components []*spi.Component) []*linePanel {
	var parts []*linePanel
	seen := make(map[[2]string]*linePanel)
	for _, c := range components {
		key := [2]string{c.LineID, c.PanelID}
		p, ok := seen[key]
		if !ok {
			p = &linePanel{line: c.LineID, panel: c.PanelID}
			seen[key] = p
			parts = append(parts, p)
		}
		p.components = append(p.components, c)
	}
	return parts
}

func shapes(components []*spi.Component, radius int) []Shape {
	out := make([]Shape, len(components))
	for i, c := range components {
		out[i] = Shape{
			ObjectID: strconv.FormatInt(c.PadID, 10),
			X:        c.CanvasX,
			Y:        c.CanvasY,
			Radius:   radius,
		}
	}
	return out
}
