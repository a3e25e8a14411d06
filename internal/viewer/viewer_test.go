package viewer

import (
	"context"
	"io/fs"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/spiview/internal/canvas"
	"github.com/banshee-data/spiview/internal/fsutil"
	"github.com/banshee-data/spiview/internal/ingest"
	"github.com/banshee-data/spiview/internal/layer"
	"github.com/banshee-data/spiview/internal/pipeline"
	"github.com/banshee-data/spiview/internal/spi"
	"github.com/banshee-data/spiview/internal/testutil"
)

type recorder struct {
	mu   sync.Mutex
	runs []pipeline.Run
}

func (r *recorder) RecordRun(_ context.Context, run pipeline.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}

func settings() *canvas.Config {
	cfg := canvas.DefaultConfig()
	cfg.Mode = canvas.ModeFixed
	cfg.Size = canvas.Size{Height: 1000, Width: 1000, Channels: 3}
	cfg.Margin = 100
	return cfg
}

func newViewer(t *testing.T) (*Viewer, *fsutil.MemoryFileSystem, *recorder) {
	t.Helper()
	mem := fsutil.NewMemoryFileSystem()
	require.NoError(t, mem.WriteFile("/board.csv", testutil.SampleFixture().CSV(), 0o644))
	rec := &recorder{}
	v := New(Options{
		Settings: settings(),
		Loader:   &ingest.Loader{FS: mem},
		FS:       mem,
		Recorder: rec,
	})
	t.Cleanup(v.Close)
	return v, mem, rec
}

func wait(t *testing.T, v *Viewer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, v.Wait(ctx))
}

func visible(v *Viewer) []string {
	var out []string
	for _, in := range v.Index().Layers(false) {
		if in.Visible {
			out = append(out, in.Name)
		}
	}
	return out
}

func loaded(t *testing.T) (*Viewer, *fsutil.MemoryFileSystem, *recorder) {
	t.Helper()
	v, mem, rec := newViewer(t)
	require.NoError(t, v.Load("/board.csv"))
	wait(t, v)
	return v, mem, rec
}

var sizeLayers = []string{
	"size/R/0.5x1.0/L1/P1",
	"size/R/1.0x2.0/L1/P2",
	"size/C/0.5x1.0/L2/P1",
	"size/U/2.0x2.0/L2/P2",
}

func TestViewer_LoadBuildsLayers(t *testing.T) {
	t.Parallel()
	v, _, rec := loaded(t)

	assert.Equal(t, "Done !", v.Status.Get())
	assert.Equal(t, 9, v.Index().Len())
	assert.Equal(t, sizeLayers, visible(v))
	assert.Equal(t, 1, rec.count())

	s := v.Summary()
	assert.Equal(t, pipeline.StateIdle, s.State)
	assert.Equal(t, "/board.csv", s.Path)
	assert.Equal(t, int64(4711), s.Idno)
	assert.Equal(t, "MB-01", s.ProductName)
	assert.Equal(t, 5, s.Components)
	assert.Equal(t, []string{"L1", "L2"}, s.LineIDs)
	assert.Equal(t, []string{"P1", "P2"}, s.PanelIDs)
	assert.Equal(t, layer.ModeSize, s.Mode)
	assert.Empty(t, s.Error)

	in, ok := v.Index().Layer("size/U/2.0x2.0/L2/P2")
	require.True(t, ok)
	assert.Equal(t, []layer.Shape{{ObjectID: "5", X: 900, Y: 900, Radius: 10}}, in.Shapes)
}

func TestViewer_LoadSamePathReparses(t *testing.T) {
	t.Parallel()
	v, _, rec := loaded(t)

	require.NoError(t, v.Load("/board.csv"))
	wait(t, v)
	assert.Equal(t, 2, rec.count())
	assert.Equal(t, 9, v.Index().Len())
}

func TestViewer_LoadMissingFile(t *testing.T) {
	t.Parallel()
	v, _, _ := newViewer(t)

	err := v.Load("/nope.csv")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Empty(t, v.FilePath.Get())
}

func TestViewer_FailureKeepsPreviousDataset(t *testing.T) {
	t.Parallel()
	v, mem, _ := loaded(t)
	require.NoError(t, mem.WriteFile("/notes.txt", []byte("hello"), 0o644))

	require.NoError(t, v.Load("/notes.txt"))
	wait(t, v)

	assert.True(t, strings.HasPrefix(v.Status.Get(), "Error: "), v.Status.Get())
	s := v.Summary()
	assert.Equal(t, pipeline.StateFailed, s.State)
	assert.NotEmpty(t, s.Error)
	assert.Equal(t, 5, s.Components)
	assert.Equal(t, 9, v.Index().Len())
}

func TestViewer_DegenerateLoadKeepsDatasetThroughRedraw(t *testing.T) {
	t.Parallel()
	v, mem, _ := loaded(t)
	one := testutil.Fixture{Idno: 99, ProductName: "ONE", Rows: []testutil.Row{
		{PadID: 7, ComponentID: "R1", SizeMin: 0.5, SizeMax: 1.0, PosX: 5, PosY: 5, LineID: "L9", PanelID: "P9"},
	}}
	require.NoError(t, mem.WriteFile("/one.csv", one.CSV(), 0o644))

	require.NoError(t, v.Load("/one.csv"))
	wait(t, v)

	assert.True(t, strings.HasPrefix(v.Status.Get(), "Error: "), v.Status.Get())
	s := v.Summary()
	assert.Equal(t, 5, s.Components)
	assert.Equal(t, int64(4711), s.Idno)
	assert.Equal(t, "MB-01", s.ProductName)

	cfg := v.Settings()
	cfg.ComponentRadius = 3
	require.Equal(t, canvas.ChangeRadius, v.ApplySettings(cfg))

	assert.Equal(t, 9, v.Index().Len())
	_, ok := v.Index().Layer(layer.SizeLayerName("R", "0.5x1.0", "L9", "P9"))
	assert.False(t, ok)
	for _, in := range v.Index().Layers(true) {
		for _, sh := range in.Shapes {
			assert.NotEqual(t, spi.InvalidCanvasPos, sh.X, in.Name)
			assert.NotEqual(t, spi.InvalidCanvasPos, sh.Y, in.Name)
			assert.Equal(t, 3, sh.Radius, in.Name)
		}
	}
	u3, ok := v.Index().Layer(layer.IDLayerName("U", "U3", "L2", "P2"))
	require.True(t, ok)
	require.Len(t, u3.Shapes, 1)
	assert.Equal(t, 900, u3.Shapes[0].X)
	assert.Equal(t, 900, u3.Shapes[0].Y)
}

func TestViewer_ModeAndFilter(t *testing.T) {
	t.Parallel()
	v, _, _ := loaded(t)

	require.NoError(t, v.SetMode(layer.ModeID))
	assert.Equal(t, []string{
		"id/R/R1/L1/P1",
		"id/R/R2/L1/P1",
		"id/R/R10/L1/P2",
		"id/C/C1/L2/P1",
		"id/U/U3/L2/P2",
	}, visible(v))

	require.NoError(t, v.Select(layer.Selection{BySize: true}))
	require.NoError(t, v.SetFilter("L1", ""))
	assert.Equal(t, []string{"size/R/0.5x1.0/L1/P1", "size/R/1.0x2.0/L1/P2"}, visible(v))

	require.NoError(t, v.SetFilter("L1", "P2"))
	assert.Equal(t, []string{"size/R/1.0x2.0/L1/P2"}, visible(v))

	err := v.Select(layer.Selection{BySize: true, ByID: true})
	assert.ErrorIs(t, err, layer.ErrInvalidSelectionState)
	assert.Equal(t, layer.ModeSize, v.Summary().Mode)
}

func TestViewer_LayerToggles(t *testing.T) {
	t.Parallel()
	v, _, _ := loaded(t)

	require.NoError(t, v.SetLayerEnabled("size/C/0.5x1.0/L2/P1", false))
	assert.NotContains(t, visible(v), "size/C/0.5x1.0/L2/P1")
	require.NoError(t, v.SetLayerEnabled("size/C/0.5x1.0/L2/P1", true))
	assert.Equal(t, sizeLayers, visible(v))

	assert.ErrorIs(t, v.SetLayerEnabled("size/Q/1.0x1.0/L9/P9", false), layer.ErrUnknownLayer)

	require.NoError(t, v.SetLayerHighlighted("id/R/R1/L1/P1", true))
	in, _ := v.Index().Layer("id/R/R1/L1/P1")
	assert.True(t, in.Highlighted)
}

func TestViewer_ApplySettings(t *testing.T) {
	t.Parallel()
	v, _, rec := loaded(t)

	cfg := settings()
	assert.Equal(t, canvas.ChangeNone, v.ApplySettings(cfg))

	cfg.Background = canvas.RGB{R: 1, G: 2, B: 3}
	assert.Equal(t, canvas.ChangeBackground, v.ApplySettings(cfg))
	got := v.Canvas()
	assert.Equal(t, canvas.RGB{R: 1, G: 2, B: 3}, got.Background)
	assert.Equal(t, canvas.Bounds{XMin: 0, XMax: 100, YMin: 0, YMax: 100}, got.Bounds)

	cfg.ComponentRadius = 4
	assert.Equal(t, canvas.ChangeRadius, v.ApplySettings(cfg))
	in, _ := v.Index().Layer("size/U/2.0x2.0/L2/P2")
	assert.Equal(t, 4, in.Shapes[0].Radius)
	assert.Equal(t, 1, rec.count())

	cfg.Margin = 200
	assert.Equal(t, canvas.ChangeCanvas, v.ApplySettings(cfg))
	wait(t, v)
	assert.Equal(t, 2, rec.count())
	in, _ = v.Index().Layer("size/U/2.0x2.0/L2/P2")
	assert.Equal(t, []layer.Shape{{ObjectID: "5", X: 800, Y: 800, Radius: 4}}, in.Shapes)
	assert.Equal(t, 200, v.Canvas().Margin)
	assert.Equal(t, 200, v.Settings().Margin)
}

func TestViewer_CanvasChangeBeforeLoad(t *testing.T) {
	t.Parallel()
	v, _, rec := newViewer(t)

	cfg := settings()
	cfg.Margin = 50
	assert.Equal(t, canvas.ChangeCanvas, v.ApplySettings(cfg))
	wait(t, v)
	assert.Zero(t, rec.count())
	assert.Equal(t, canvas.UnsetBounds, v.Canvas().Bounds)
}
