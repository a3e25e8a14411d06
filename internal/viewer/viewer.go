// Package viewer is the root context of an SPI session. It owns the component
// store, the canvas configs, the layer index and view, and the pipeline that
// fills them.
package viewer

import (
	"context"
	"fmt"
	"io/fs"
	"sync"

	"github.com/banshee-data/spiview/internal/canvas"
	"github.com/banshee-data/spiview/internal/fsutil"
	"github.com/banshee-data/spiview/internal/layer"
	"github.com/banshee-data/spiview/internal/monitoring"
	"github.com/banshee-data/spiview/internal/observe"
	"github.com/banshee-data/spiview/internal/pipeline"
	"github.com/banshee-data/spiview/internal/spi"
	"github.com/banshee-data/spiview/internal/timeutil"
)

// Options configures a Viewer. Zero values pick the defaults.
type Options struct {
	Settings      *canvas.Config
	Loader        pipeline.Loader
	FS            fsutil.FileSystem
	Recorder      pipeline.RunRecorder
	Clock         timeutil.Clock
	ProgressEvery int
}

// Viewer wires user input to the pipeline and the layer index.
type Viewer struct {
	// FilePath is the source file. Setting it queues a parse.
	FilePath *observe.Property[string]
	// Status mirrors the latest pipeline message, e.g. "Done !".
	Status *observe.Property[string]

	fs    fsutil.FileSystem
	store *spi.Store
	index *layer.Index
	view  *layer.View
	pipe  *pipeline.Pipeline

	// mu guards the config pointers. It is never held while waiting for the
	// pipeline's resource lock.
	mu       sync.Mutex
	settings *canvas.Config
	working  *canvas.Config
}

// New builds a viewer and starts its pipeline.
func New(opts Options) *Viewer {
	settings := opts.Settings
	if settings == nil {
		settings = canvas.DefaultConfig()
	}
	fsys := opts.FS
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	v := &Viewer{
		FilePath: observe.New(""),
		Status:   observe.New(""),
		fs:       fsys,
		store:    spi.NewStore(),
		index:    layer.NewIndex(),
		view:     layer.NewView(),
		settings: settings.Clone(),
		working:  freshWorking(settings),
	}
	v.pipe = pipeline.New(pipeline.Options{
		Loader:        opts.Loader,
		FS:            fsys,
		Recorder:      opts.Recorder,
		Clock:         opts.Clock,
		ProgressEvery: opts.ProgressEvery,
		Listener:      v.onEvent,
	})
	v.FilePath.Subscribe(v.submit)
	return v
}

func freshWorking(settings *canvas.Config) *canvas.Config {
	w := settings.Clone()
	w.Bounds = canvas.UnsetBounds
	return w
}

// Load sets the file path, queueing a parse even if the path is unchanged.
func (v *Viewer) Load(path string) error {
	if !v.fs.Exists(path) {
		return fmt.Errorf("%s: %w", path, fs.ErrNotExist)
	}
	if !v.FilePath.Set(path) {
		v.submit(path)
	}
	return nil
}

func (v *Viewer) submit(path string) {
	if path == "" {
		return
	}
	v.mu.Lock()
	working := v.working
	v.mu.Unlock()
	v.pipe.Submit(path, v.store, working)
}

// ApplySettings installs new user settings and redoes only the work the
// change requires.
func (v *Viewer) ApplySettings(cfg *canvas.Config) canvas.ChangeKind {
	v.mu.Lock()
	kind := canvas.Compare(v.settings, cfg)
	v.settings = cfg.Clone()
	working := v.working
	if kind == canvas.ChangeCanvas {
		working = freshWorking(cfg)
		v.working = working
	}
	v.mu.Unlock()

	monitoring.Logf("[viewer] settings changed: %s", kind)
	switch kind {
	case canvas.ChangeCanvas:
		v.submit(v.FilePath.Get())
	case canvas.ChangeRadius:
		v.pipe.Exclusive(func() {
			working.ComponentRadius = cfg.ComponentRadius
			working.Background = cfg.Background
			v.rebuild(working, false)
		})
	case canvas.ChangeBackground:
		v.pipe.Exclusive(func() {
			working.Background = cfg.Background
		})
	}
	return kind
}

// Settings returns a copy of the user settings.
func (v *Viewer) Settings() *canvas.Config {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.settings.Clone()
}

// Canvas returns a copy of the working config, including the bounds of the
// loaded dataset. It must not be called from a pipeline listener.
func (v *Viewer) Canvas() *canvas.Config {
	v.mu.Lock()
	working := v.working
	v.mu.Unlock()
	var out *canvas.Config
	v.pipe.Exclusive(func() { out = working.Clone() })
	return out
}

func (v *Viewer) onEvent(e pipeline.Event) {
	switch e.Kind {
	case pipeline.EventFailed:
		v.Status.Set("Error: " + e.Message)
		return
	case pipeline.EventStarted, pipeline.EventProgress:
		v.Status.Set(e.Message)
		return
	}
	if e.Stage != pipeline.StageProject {
		v.Status.Set(e.Message)
		return
	}
	v.mu.Lock()
	working := v.working
	v.mu.Unlock()
	v.rebuild(working, true)
	v.Status.Set(e.Message)
}

// rebuild repopulates the layer index from the store. The caller must hold
// the pipeline's resource lock.
func (v *Viewer) rebuild(cfg *canvas.Config, fresh bool) {
	v.index.Clear()
	if fresh {
		v.view.ResetEnabled()
	}
	if err := layer.Build(v.index, v.store, cfg.ComponentRadius); err != nil {
		monitoring.Logf("[viewer] failed to build layers: %v", err)
		return
	}
	if err := v.view.Refresh(v.index); err != nil {
		monitoring.Logf("[viewer] failed to refresh view: %v", err)
	}
}

// Select applies a pair of selection toggles.
func (v *Viewer) Select(sel layer.Selection) error {
	if err := v.view.Apply(sel); err != nil {
		return err
	}
	return v.refresh()
}

// SetMode switches the active grouping.
func (v *Viewer) SetMode(m layer.Mode) error {
	v.view.SetMode(m)
	return v.refresh()
}

// SetFilter narrows the view to a line and a panel. Empty means all.
func (v *Viewer) SetFilter(line, panel string) error {
	v.view.SetFilter(line, panel)
	return v.refresh()
}

// SetLayerEnabled toggles one layer of the active grouping.
func (v *Viewer) SetLayerEnabled(name string, enabled bool) error {
	if _, ok := v.index.Layer(name); !ok {
		return fmt.Errorf("%s: %w", name, layer.ErrUnknownLayer)
	}
	v.view.SetEnabled(name, enabled)
	return v.refresh()
}

// refresh reapplies the view between rebuilds.
func (v *Viewer) refresh() error {
	var err error
	v.pipe.Exclusive(func() { err = v.view.Refresh(v.index) })
	return err
}

// SetLayerHighlighted highlights or clears one layer.
func (v *Viewer) SetLayerHighlighted(name string, highlighted bool) error {
	return v.index.SetHighlighted(name, highlighted)
}

// Structure summarises the store for the given grouping.
func (v *Viewer) Structure(m layer.Mode) []spi.StructureEntry {
	if m == layer.ModeID {
		return v.store.StructureByID()
	}
	return v.store.StructureBySize()
}

// Summary is a point-in-time view of the session.
type Summary struct {
	State       pipeline.State `json:"state"`
	Status      string         `json:"status"`
	Error       string         `json:"error,omitempty"`
	Path        string         `json:"path"`
	Idno        int64          `json:"idno"`
	ProductName string         `json:"product_name"`
	Components  int            `json:"components"`
	LineIDs     []string       `json:"line_ids"`
	PanelIDs    []string       `json:"panel_ids"`
	Layers      int            `json:"layers"`
	Mode        layer.Mode     `json:"mode"`
	LineFilter  string         `json:"line_filter,omitempty"`
	PanelFilter string         `json:"panel_filter,omitempty"`
}

// Summary reports the current state.
func (v *Viewer) Summary() Summary {
	line, panel := v.view.Filter()
	s := Summary{
		State:       v.pipe.State(),
		Status:      v.Status.Get(),
		Path:        v.FilePath.Get(),
		Idno:        v.store.Idno(),
		ProductName: v.store.ProductName(),
		Components:  v.store.Len(),
		LineIDs:     v.store.LineIDs(),
		PanelIDs:    v.store.PanelIDs(),
		Layers:      v.index.Len(),
		Mode:        v.view.Mode(),
		LineFilter:  line,
		PanelFilter: panel,
	}
	if err := v.pipe.LastError(); err != nil {
		s.Error = err.Error()
	}
	return s
}

// Index returns the layer index.
func (v *Viewer) Index() *layer.Index { return v.index }

// Store returns the component store.
func (v *Viewer) Store() *spi.Store { return v.store }

// Bus returns the pipeline event bus.
func (v *Viewer) Bus() *pipeline.Bus { return v.pipe.Bus() }

// Wait blocks until the pipeline is idle or ctx ends.
func (v *Viewer) Wait(ctx context.Context) error { return v.pipe.Wait(ctx) }

// Close stops the pipeline and its event bus.
func (v *Viewer) Close() {
	v.pipe.Close()
	v.pipe.Bus().Close()
}
