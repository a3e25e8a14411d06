package spi

import (
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustComponent(t *testing.T, pad int64, id string, min, max float64) *Component {
	t.Helper()
	c, err := NewComponent(pad, id)
	require.NoError(t, err)
	c.SizeMin = min
	c.SizeMax = max
	return c
}

func TestNewComponent(t *testing.T) {
	t.Parallel()

	c, err := NewComponent(7, " R12 ")
	require.NoError(t, err)
	assert.Equal(t, "R12", c.ComponentID)
	assert.Equal(t, "R", c.ComponentType)
	assert.Equal(t, InvalidCanvasPos, c.CanvasX)
	assert.Equal(t, InvalidCanvasPos, c.CanvasY)
	assert.False(t, c.Projected())

	_, err = NewComponent(8, "")
	assert.ErrorIs(t, err, ErrEmptyComponentID)

	c, err = NewComponent(9, "Ω12")
	require.NoError(t, err)
	assert.Equal(t, "Ω", c.ComponentType)
}

func TestSizeKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		min, max float64
		want     string
	}{
		{0.5, 1.0, "0.5x1.0"},
		{1, 2, "1.0x2.0"},
		{0.25, 0.125, "0.25x0.125"},
		{-3, 10, "-3.0x10.0"},
		{0.0001, 0.00001, "0.0001x1e-05"},
		{0.000015, 1e16, "1.5e-05x1e+16"},
		{123456789012345.0, 1234567890123456.0, "123456789012345.0x1234567890123456.0"},
		{0, -2.5e-07, "0.0x-2.5e-07"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SizeKey(tt.min, tt.max))
	}
}

func TestStore_AddAndLookup(t *testing.T) {
	t.Parallel()
	s := NewStore()

	r1 := mustComponent(t, 1, "R1", 0.5, 1.0)
	r2 := mustComponent(t, 2, "R2", 0.5, 1.0)
	r3 := mustComponent(t, 3, "R1", 1.0, 2.0)
	c1 := mustComponent(t, 4, "C1", 0.5, 1.0)
	for _, c := range []*Component{r1, r2, r3, c1} {
		require.NoError(t, s.Add(c))
	}

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, []*Component{r1, r2}, s.BySize("R", "0.5x1.0"))
	assert.Equal(t, []*Component{r1, r3}, s.ByID("R1"))
	assert.Equal(t, []*Component{r1, r2, r3}, s.ByType("R"))
	assert.Equal(t, []*Component{r1, r2, r3, c1}, s.All())
}

func TestStore_MultiByteTypePrefix(t *testing.T) {
	t.Parallel()
	s := NewStore()
	omega := mustComponent(t, 1, "Ω1", 0.5, 1.0)
	mu := mustComponent(t, 2, "µ2", 0.5, 1.0)
	require.NoError(t, s.Add(omega))
	require.NoError(t, s.Add(mu))

	assert.Equal(t, []*Component{omega}, s.ByID("Ω1"))
	assert.Equal(t, []*Component{omega}, s.BySize("Ω", "0.5x1.0"))
	assert.Equal(t, []*Component{mu}, s.ByType("µ"))
	for g := range s.IterByID() {
		assert.True(t, utf8.ValidString(g.ComponentType), g.ComponentType)
	}
}

func TestStore_Replace(t *testing.T) {
	t.Parallel()
	s := NewStore()
	s.Reset(Metadata{Idno: 1, ProductName: "OLD"})
	require.NoError(t, s.Add(mustComponent(t, 1, "R1", 0.5, 1.0)))

	staged := NewStore()
	staged.Reset(Metadata{Idno: 2, ProductName: "NEW"})
	c1 := mustComponent(t, 5, "C1", 1.0, 2.0)
	c1.LineID, c1.PanelID = "L2", "P3"
	require.NoError(t, staged.Add(c1))

	s.Replace(staged)
	assert.Equal(t, int64(2), s.Idno())
	assert.Equal(t, "NEW", s.ProductName())
	assert.Equal(t, []*Component{c1}, s.All())
	assert.Equal(t, []*Component{c1}, s.ByID("C1"))
	assert.Empty(t, s.ByID("R1"))
	assert.Equal(t, []string{"L2"}, s.LineIDs())
	assert.Equal(t, []string{"P3"}, s.PanelIDs())

	assert.Zero(t, staged.Len())
	assert.Equal(t, UnsetIdno, staged.Idno())
	assert.Empty(t, staged.ByID("C1"))
	require.NoError(t, staged.Add(mustComponent(t, 5, "C9", 1.0, 2.0)))
	assert.Equal(t, 1, s.Len())

	s.Replace(s)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, int64(2), s.Idno())
}

func TestStore_UnknownKeysAreEmpty(t *testing.T) {
	t.Parallel()
	s := NewStore()
	require.NoError(t, s.Add(mustComponent(t, 1, "R1", 0.5, 1.0)))

	assert.Empty(t, s.BySize("X", "0.5x1.0"))
	assert.Empty(t, s.BySize("R", "9.0x9.0"))
	assert.Empty(t, s.ByID("U77"))
	assert.Empty(t, s.ByID(""))
	assert.Empty(t, s.ByType("Q"))
}

func TestStore_RejectsDuplicatePadID(t *testing.T) {
	t.Parallel()
	s := NewStore()
	require.NoError(t, s.Add(mustComponent(t, 1, "R1", 0.5, 1.0)))

	err := s.Add(mustComponent(t, 1, "C9", 0.5, 1.0))
	assert.ErrorIs(t, err, ErrDuplicatePadID)
	assert.Equal(t, 1, s.Len())
	assert.Empty(t, s.ByID("C9"))
}

func TestStore_ClearResetsEverything(t *testing.T) {
	t.Parallel()
	s := NewStore()
	s.Reset(Metadata{Idno: 42, ProductName: "board"})
	c := mustComponent(t, 1, "R1", 0.5, 1.0)
	c.LineID, c.PanelID = "L1", "P1"
	require.NoError(t, s.Add(c))

	s.Clear()

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, UnsetIdno, s.Idno())
	assert.Empty(t, s.ProductName())
	assert.Empty(t, s.LineIDs())
	assert.Empty(t, s.PanelIDs())

	groups := 0
	for range s.IterBySize() {
		groups++
	}
	for range s.IterByID() {
		groups++
	}
	assert.Zero(t, groups)

	// Clearing twice and reusing the same pad id must work.
	s.Clear()
	require.NoError(t, s.Add(mustComponent(t, 1, "R1", 0.5, 1.0)))
	assert.Equal(t, 1, s.Len())
}

func TestStore_LineAndPanelOrder(t *testing.T) {
	t.Parallel()
	s := NewStore()
	rows := []struct {
		line, panel string
	}{
		{"L2", "P1"}, {"L1", "P1"}, {"L2", "P2"}, {"L1", "P3"},
	}
	for i, r := range rows {
		c := mustComponent(t, int64(i), "R1", 0.5, 1.0)
		c.LineID, c.PanelID = r.line, r.panel
		require.NoError(t, s.Add(c))
	}

	assert.Equal(t, []string{"L2", "L1"}, s.LineIDs())
	assert.Equal(t, []string{"P1", "P2", "P3"}, s.PanelIDs())
}

func TestStore_IterationOrderAndRestart(t *testing.T) {
	t.Parallel()
	s := NewStore()
	require.NoError(t, s.Add(mustComponent(t, 1, "U3", 2, 2)))
	require.NoError(t, s.Add(mustComponent(t, 2, "R1", 0.5, 1.0)))
	require.NoError(t, s.Add(mustComponent(t, 3, "U3", 1, 1)))

	collect := func() []string {
		var keys []string
		for g := range s.IterBySize() {
			keys = append(keys, g.ComponentType+"/"+g.Key)
		}
		return keys
	}

	first := collect()
	assert.Equal(t, []string{"U/2.0x2.0", "U/1.0x1.0", "R/0.5x1.0"}, first)
	assert.Equal(t, first, collect())

	// Early break must not leak the read lock.
	for range s.IterByID() {
		break
	}
	require.NoError(t, s.Add(mustComponent(t, 4, "C1", 1, 1)))
}

func TestStore_StructureBySize(t *testing.T) {
	t.Parallel()
	s := NewStore()
	require.NoError(t, s.Add(mustComponent(t, 1, "R1", 1.0, 2.0)))
	require.NoError(t, s.Add(mustComponent(t, 2, "C1", 0.5, 1.0)))
	require.NoError(t, s.Add(mustComponent(t, 3, "R2", 0.5, 1.0)))
	require.NoError(t, s.Add(mustComponent(t, 4, "R3", 0.5, 1.0)))

	want := []StructureEntry{
		{ComponentType: "C", Key: "0.5x1.0", Count: 1},
		{ComponentType: "R", Key: "0.5x1.0", Count: 2},
		{ComponentType: "R", Key: "1.0x2.0", Count: 1},
	}
	if diff := cmp.Diff(want, s.StructureBySize()); diff != "" {
		t.Errorf("StructureBySize() mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_StructureByIDNaturalOrder(t *testing.T) {
	t.Parallel()
	s := NewStore()
	for i, id := range []string{"R2", "R10", "R1"} {
		require.NoError(t, s.Add(mustComponent(t, int64(i), id, 0.5, 1.0)))
	}

	var got []string
	for _, e := range s.StructureByID() {
		got = append(got, e.Key)
	}
	assert.Equal(t, []string{"R1", "R2", "R10"}, got)
}

func TestStore_StructureByIDMixedPrefixes(t *testing.T) {
	t.Parallel()
	s := NewStore()
	for i, id := range []string{"RN12", "R9", "C100", "RN2", "R", "C20"} {
		require.NoError(t, s.Add(mustComponent(t, int64(i), id, 0.5, 1.0)))
	}

	var got []string
	for _, e := range s.StructureByID() {
		got = append(got, e.Key)
	}
	assert.Equal(t, []string{"C20", "C100", "R", "R9", "RN2", "RN12"}, got)
}

func TestSplitNatural(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		prefix string
		number int
	}{
		{"R10", "R", 10},
		{"R", "R", 0},
		{"U3A", "U", 3},
		{"10", "", 10},
		{"", "", 0},
	}
	for _, tt := range tests {
		p, n := splitNatural(tt.in)
		assert.Equal(t, tt.prefix, p, tt.in)
		assert.Equal(t, tt.number, n, tt.in)
	}
}

func TestStore_EachStopsOnError(t *testing.T) {
	t.Parallel()
	s := NewStore()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Add(mustComponent(t, int64(i), "R1", 1, 1)))
	}

	visited := 0
	err := s.Each(func(i, n int, c *Component) error {
		assert.Equal(t, 5, n)
		visited++
		if i == 2 {
			return assert.AnError
		}
		return nil
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 3, visited)
}
