package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/spiview/internal/spi"
)

func buildStore(t *testing.T) *spi.Store {
	t.Helper()
	s := spi.NewStore()
	rows := []struct {
		pad         int64
		id          string
		min, max    float64
		line, panel string
	}{
		{1, "R1", 0.5, 1.0, "L1", "P1"},
		{2, "R2", 0.5, 1.0, "L1", "P1"},
		{3, "R1", 0.5, 1.0, "L2", "P1"},
		{4, "C1", 1.0, 1.0, "L1", "P2"},
	}
	for _, r := range rows {
		c, err := spi.NewComponent(r.pad, r.id)
		require.NoError(t, err)
		c.SizeMin, c.SizeMax = r.min, r.max
		c.LineID, c.PanelID = r.line, r.panel
		c.CanvasX, c.CanvasY = int(r.pad)*10, int(r.pad)*20
		require.NoError(t, s.Add(c))
	}
	return s
}

func TestBuild(t *testing.T) {
	t.Parallel()
	x := NewIndex()
	require.NoError(t, Build(x, buildStore(t), 7))

	names := make([]string, 0, x.Len())
	for _, in := range x.Layers(false) {
		names = append(names, in.Name)
	}
	assert.Equal(t, []string{
		"size/R/0.5x1.0/L1/P1",
		"size/R/0.5x1.0/L2/P1",
		"size/C/1.0x1.0/L1/P2",
		"id/R/R1/L1/P1",
		"id/R/R1/L2/P1",
		"id/R/R2/L1/P1",
		"id/C/C1/L1/P2",
	}, names)

	in, ok := x.Layer("size/R/0.5x1.0/L1/P1")
	require.True(t, ok)
	assert.Equal(t, sizeAttrs("R", "0.5x1.0", "L1", "P1"), in.Attributes)
	assert.Equal(t, "#D2691E", in.Style.Color)
	assert.Equal(t, []Shape{
		{ObjectID: "1", X: 10, Y: 20, Radius: 7},
		{ObjectID: "2", X: 20, Y: 40, Radius: 7},
	}, in.Shapes)

	in, ok = x.Layer("id/C/C1/L1/P2")
	require.True(t, ok)
	assert.Equal(t, idAttrs("C", "C1", "L1", "P2"), in.Attributes)
	assert.Equal(t, "#FFD700", in.Style.Color)
}

func TestBuild_QueryByID(t *testing.T) {
	t.Parallel()
	x := NewIndex()
	require.NoError(t, Build(x, buildStore(t), 1))

	assert.Equal(t, []string{"id/R/R1/L1/P1", "id/R/R1/L2/P1"}, x.Query(Conditions{FieldComponentID: "R1"}))
	assert.Equal(t, []string{"size/R/0.5x1.0/L2/P1", "id/R/R1/L2/P1"}, x.Query(Conditions{FieldLineID: "L2"}))
}
