// Package layer keeps the rendering-facing table of named layers: the
// classification attributes each layer was built from, the shapes it holds
// and its visibility and highlight flags.
package layer

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrUnknownLayer is returned when a layer name has not been registered.
var ErrUnknownLayer = errors.New("unknown layer")

// Field names a classification attribute.
type Field string

const (
	FieldComponentType Field = "component_type"
	FieldSize          Field = "size"
	FieldComponentID   Field = "component_id"
	FieldLineID        Field = "line_id"
	FieldPanelID       Field = "panel_id"
)

// Fields lists every attribute field in a stable order.
var Fields = []Field{FieldComponentType, FieldSize, FieldComponentID, FieldLineID, FieldPanelID}

// ParseField validates a field name.
func ParseField(s string) (Field, error) {
	f := Field(s)
	if slices.Contains(Fields, f) {
		return f, nil
	}
	return "", fmt.Errorf("unknown layer field %q", s)
}

// Attributes are the classification values a layer was built from. An empty
// Size or ComponentID means the layer does not belong to that grouping.
type Attributes struct {
	ComponentType string `json:"component_type"`
	Size          string `json:"size,omitempty"`
	ComponentID   string `json:"component_id,omitempty"`
	LineID        string `json:"line_id"`
	PanelID       string `json:"panel_id"`
}

// Get returns the value of f and whether it is set.
func (a Attributes) Get(f Field) (string, bool) {
	switch f {
	case FieldComponentType:
		return a.ComponentType, true
	case FieldSize:
		return a.Size, a.Size != ""
	case FieldComponentID:
		return a.ComponentID, a.ComponentID != ""
	case FieldLineID:
		return a.LineID, true
	case FieldPanelID:
		return a.PanelID, true
	}
	return "", false
}

// Conditions is a partial match over attribute fields. Absent fields match
// anything; present fields must match exactly.
type Conditions map[Field]string

// Match reports whether a satisfies every condition.
func (c Conditions) Match(a Attributes) bool {
	for f, want := range c {
		got, ok := a.Get(f)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// Shape is a circle at a canvas position, tagged with the object it draws.
type Shape struct {
	ObjectID string `json:"object_id"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Radius   int    `json:"radius"`
}

// Style is how a layer's shapes are drawn.
type Style struct {
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity"`
	Width   float64 `json:"width"`
}

// DefaultStyle returns an opaque style with a 2px outline.
func DefaultStyle(color string) Style {
	return Style{Color: color, Opacity: 1, Width: 2}
}

// Info is a snapshot of one layer.
type Info struct {
	Name        string     `json:"name"`
	Attributes  Attributes `json:"attributes"`
	Style       Style      `json:"style"`
	Visible     bool       `json:"visible"`
	Highlighted bool       `json:"highlighted"`
	Shapes      []Shape    `json:"shapes,omitempty"`
}

type entry struct {
	attrs       Attributes
	style       Style
	shapes      []Shape
	byObject    map[string]int
	visible     bool
	highlighted bool
}

// Index is the layer table. Layers keep their registration order, which is
// also their drawing order.
type Index struct {
	mu     sync.RWMutex
	layers map[string]*entry
	order  []string
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{layers: make(map[string]*entry)}
}

// AddItems registers name on first use and merges shapes into it. A shape
// whose ObjectID is already in the layer replaces the old one in place.
// Attributes and style are fixed at registration; later calls only add
// shapes. New layers start visible.
func (x *Index) AddItems(name string, attrs Attributes, shapes []Shape, style Style) {
	x.mu.Lock()
	defer x.mu.Unlock()

	e, ok := x.layers[name]
	if !ok {
		e = &entry{attrs: attrs, style: style, byObject: make(map[string]int), visible: true}
		x.layers[name] = e
		x.order = append(x.order, name)
	}
	for _, s := range shapes {
		if i, dup := e.byObject[s.ObjectID]; dup {
			e.shapes[i] = s
			continue
		}
		e.byObject[s.ObjectID] = len(e.shapes)
		e.shapes = append(e.shapes, s)
	}
}

// SetVisible shows or hides a layer.
func (x *Index) SetVisible(name string, visible bool) error {
	return x.update(name, func(e *entry) { e.visible = visible })
}

// SetHighlighted toggles a layer's highlight.
func (x *Index) SetHighlighted(name string, highlighted bool) error {
	return x.update(name, func(e *entry) { e.highlighted = highlighted })
}

func (x *Index) update(name string, fn func(*entry)) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	e, ok := x.layers[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLayer, name)
	}
	fn(e)
	return nil
}

// Query returns the names of every layer matching c, in registration order.
func (x *Index) Query(c Conditions) []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	var out []string
	for _, name := range x.order {
		if c.Match(x.layers[name].attrs) {
			out = append(out, name)
		}
	}
	return out
}

// Close hides and un-highlights every layer whose f attribute is set. It
// returns the affected names.
func (x *Index) Close(f Field) []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	var out []string
	for _, name := range x.order {
		e := x.layers[name]
		if _, set := e.attrs.Get(f); set {
			e.visible = false
			e.highlighted = false
			out = append(out, name)
		}
	}
	return out
}

// Layer returns a snapshot of one layer including its shapes.
func (x *Index) Layer(name string) (Info, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	e, ok := x.layers[name]
	if !ok {
		return Info{}, false
	}
	return e.info(name, true), true
}

// Layers returns snapshots of every layer in registration order. Shapes are
// included only when withShapes is set.
func (x *Index) Layers(withShapes bool) []Info {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]Info, 0, len(x.order))
	for _, name := range x.order {
		out = append(out, x.layers[name].info(name, withShapes))
	}
	return out
}

// Len returns the number of registered layers.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.order)
}

// Clear drops every layer.
func (x *Index) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.layers = make(map[string]*entry)
	x.order = nil
}

func (e *entry) info(name string, withShapes bool) Info {
	in := Info{
		Name:        name,
		Attributes:  e.attrs,
		Style:       e.style,
		Visible:     e.visible,
		Highlighted: e.highlighted,
	}
	if withShapes {
		in.Shapes = slices.Clone(e.shapes)
	}
	return in
}
