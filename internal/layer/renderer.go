package layer

// Renderer is the drawing collaborator. The core only ever talks to layers
// through these four calls.
type Renderer interface {
	AddItemsToLayer(name string, attrs Attributes, shapes []Shape, style Style) error
	SetLayerVisible(name string, visible bool) error
	SetLayerHighlighted(name string, highlighted bool) error
	QueryLayers(c Conditions) []string
}

var _ Renderer = (*Index)(nil)

func (x *Index) AddItemsToLayer(name string, attrs Attributes, shapes []Shape, style Style) error {
	x.AddItems(name, attrs, shapes, style)
	return nil
}

func (x *Index) SetLayerVisible(name string, visible bool) error { return x.SetVisible(name, visible) }

func (x *Index) SetLayerHighlighted(name string, highlighted bool) error {
	return x.SetHighlighted(name, highlighted)
}

func (x *Index) QueryLayers(c Conditions) []string { return x.Query(c) }
