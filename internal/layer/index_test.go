package layer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sizeAttrs(typ, size, line, panel string) Attributes {
	return Attributes{ComponentType: typ, Size: size, LineID: line, PanelID: panel}
}

func idAttrs(typ, id, line, panel string) Attributes {
	return Attributes{ComponentType: typ, ComponentID: id, LineID: line, PanelID: panel}
}

func TestIndex_QueryTypeAndLine(t *testing.T) {
	t.Parallel()
	x := NewIndex()
	for _, typ := range []string{"R", "C"} {
		for _, line := range []string{"L1", "L2"} {
			name := SizeLayerName(typ, "0.5x1.0", line, "P1")
			x.AddItems(name, sizeAttrs(typ, "0.5x1.0", line, "P1"), nil, DefaultStyle(Color(typ)))
		}
	}

	got := x.Query(Conditions{FieldComponentType: "R", FieldLineID: "L1"})
	assert.Equal(t, []string{"size/R/0.5x1.0/L1/P1"}, got)

	assert.Len(t, x.Query(Conditions{}), 4)
	assert.Empty(t, x.Query(Conditions{FieldComponentType: "U"}))
	assert.Empty(t, x.Query(Conditions{FieldComponentID: "R1"}), "size layers have no component id")
}

func TestIndex_AddItemsReplacesSameObject(t *testing.T) {
	t.Parallel()
	x := NewIndex()
	attrs := idAttrs("R", "R1", "L1", "P1")

	x.AddItems("a", attrs, []Shape{{ObjectID: "1", X: 1, Y: 1, Radius: 3}, {ObjectID: "2", X: 2, Y: 2, Radius: 3}}, DefaultStyle("#D2691E"))
	x.AddItems("a", attrs, []Shape{{ObjectID: "1", X: 10, Y: 10, Radius: 3}, {ObjectID: "3", X: 3, Y: 3, Radius: 3}}, DefaultStyle("#ffffff"))

	in, ok := x.Layer("a")
	require.True(t, ok)
	want := []Shape{
		{ObjectID: "1", X: 10, Y: 10, Radius: 3},
		{ObjectID: "2", X: 2, Y: 2, Radius: 3},
		{ObjectID: "3", X: 3, Y: 3, Radius: 3},
	}
	if diff := cmp.Diff(want, in.Shapes); diff != "" {
		t.Errorf("shapes mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "#D2691E", in.Style.Color, "style is fixed at registration")
	assert.True(t, in.Visible)
}

func TestIndex_EmptyLayerStaysRegistered(t *testing.T) {
	t.Parallel()
	x := NewIndex()
	x.AddItems("empty", sizeAttrs("R", "1.0x1.0", "L1", "P1"), nil, DefaultStyle("#000000"))

	assert.Equal(t, 1, x.Len())
	in, ok := x.Layer("empty")
	require.True(t, ok)
	assert.Empty(t, in.Shapes)
	assert.NoError(t, x.SetVisible("empty", false))
}

func TestIndex_UnknownLayer(t *testing.T) {
	t.Parallel()
	x := NewIndex()
	assert.ErrorIs(t, x.SetVisible("nope", true), ErrUnknownLayer)
	assert.ErrorIs(t, x.SetHighlighted("nope", true), ErrUnknownLayer)
	_, ok := x.Layer("nope")
	assert.False(t, ok)
}

func TestIndex_Close(t *testing.T) {
	t.Parallel()
	x := NewIndex()
	x.AddItems("s", sizeAttrs("R", "0.5x1.0", "L1", "P1"), nil, DefaultStyle(""))
	x.AddItems("i", idAttrs("R", "R1", "L1", "P1"), nil, DefaultStyle(""))
	require.NoError(t, x.SetHighlighted("s", true))
	require.NoError(t, x.SetHighlighted("i", true))

	closed := x.Close(FieldSize)
	assert.Equal(t, []string{"s"}, closed)

	s, _ := x.Layer("s")
	i, _ := x.Layer("i")
	assert.False(t, s.Visible)
	assert.False(t, s.Highlighted)
	assert.True(t, i.Visible)
	assert.True(t, i.Highlighted)
}

func TestIndex_Clear(t *testing.T) {
	t.Parallel()
	x := NewIndex()
	x.AddItems("s", sizeAttrs("R", "0.5x1.0", "L1", "P1"), nil, DefaultStyle(""))
	x.Clear()
	assert.Zero(t, x.Len())
	assert.Empty(t, x.Query(Conditions{}))
}

func TestParseField(t *testing.T) {
	t.Parallel()
	for _, f := range Fields {
		got, err := ParseField(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseField("colour")
	assert.Error(t, err)
}

func TestColor(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "#D2691E", Color("R"))
	assert.Equal(t, "#00FF7F", Color("U"))
	assert.Equal(t, DefaultColor, Color("Z"))
}
