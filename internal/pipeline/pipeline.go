// Package pipeline runs the two-stage ingestion pipeline: a parse stage that
// loads a source file into the component store and sizes the canvas, chained
// to a projection stage that writes every component's canvas position.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/spiview/internal/canvas"
	"github.com/banshee-data/spiview/internal/fsutil"
	"github.com/banshee-data/spiview/internal/ingest"
	"github.com/banshee-data/spiview/internal/monitoring"
	"github.com/banshee-data/spiview/internal/spi"
	"github.com/banshee-data/spiview/internal/timeutil"
)

// State is the coarse pipeline state.
type State string

const (
	StateIdle       State = "idle"
	StateParsing    State = "parsing"
	StateProjecting State = "projecting"
	StateFailed     State = "failed"
)

// DefaultProgressEvery is the record interval between progress events.
const DefaultProgressEvery = 10

// ParseTask asks the parse stage to load Path into Store, sizing Canvas.
type ParseTask struct {
	Path   string
	Store  *spi.Store
	Canvas *canvas.Config
}

// ProjectTask asks the projection stage to project Store with Canvas.
type ProjectTask struct {
	Store  *spi.Store
	Canvas *canvas.Config
}

// Loader loads a source file into a validated dataset.
type Loader interface {
	Load(ctx context.Context, path string, progress ingest.ProgressFunc) (*ingest.Dataset, error)
}

// RunRecorder persists finished runs.
type RunRecorder interface {
	RecordRun(ctx context.Context, run Run) error
}

// Options configures a Pipeline. Zero values pick the defaults.
type Options struct {
	Loader        Loader
	FS            fsutil.FileSystem
	Bus           *Bus
	Recorder      RunRecorder
	Clock         timeutil.Clock
	ProgressEvery int

	// Listener is called synchronously for every event before it is
	// published. Finished events arrive while the stage still holds the
	// store, so a listener may read the store and config but must not call
	// Exclusive or Wait.
	Listener func(Event)
}

// Pipeline owns the parse and projection workers.
type Pipeline struct {
	loader   Loader
	fs       fsutil.FileSystem
	bus      *Bus
	recorder RunRecorder
	clock    timeutil.Clock
	every    int
	listener func(Event)

	tracker *tracker
	parser  *worker[ParseTask]
	project *worker[ProjectTask]

	// resource serialises every write to a store or canvas config.
	resource sync.Mutex

	mu         sync.Mutex
	parsing    bool
	projecting bool
	failed     bool
	lastErr    error
	pending    map[ProjectTask]*Run

	closeOnce sync.Once
}

// New starts a pipeline.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		loader:   opts.Loader,
		fs:       opts.FS,
		bus:      opts.Bus,
		recorder: opts.Recorder,
		clock:    opts.Clock,
		every:    opts.ProgressEvery,
		listener: opts.Listener,
		tracker:  newTracker(),
		pending:  make(map[ProjectTask]*Run),
	}
	if p.loader == nil {
		p.loader = ingest.NewLoader()
	}
	if p.fs == nil {
		p.fs = fsutil.OSFileSystem{}
	}
	if p.bus == nil {
		p.bus = NewBus(DefaultBusBuffer)
	}
	if p.clock == nil {
		p.clock = timeutil.RealClock{}
	}
	if p.every <= 0 {
		p.every = DefaultProgressEvery
	}
	p.parser = newWorker("parse", p.tracker, p.runParse)
	p.project = newWorker("project", p.tracker, p.runProject)
	return p
}

// Bus returns the event bus.
func (p *Pipeline) Bus() *Bus { return p.bus }

// Submit queues a parse of path into store using cfg. It returns false when
// the file does not exist or an identical task is already waiting.
func (p *Pipeline) Submit(path string, store *spi.Store, cfg *canvas.Config) bool {
	if !p.fs.Exists(path) {
		monitoring.Logf("[pipeline] ignoring %s: file does not exist", path)
		return false
	}
	return p.parser.Enqueue(ParseTask{Path: path, Store: store, Canvas: cfg})
}

// Wait blocks until both stages have drained or ctx ends.
func (p *Pipeline) Wait(ctx context.Context) error {
	return p.tracker.wait(ctx)
}

// State reports what the pipeline is doing. Failed persists until the next
// parse starts.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.projecting:
		return StateProjecting
	case p.parsing:
		return StateParsing
	case p.failed:
		return StateFailed
	}
	return StateIdle
}

// LastError returns the error of the most recent failed run, or nil.
func (p *Pipeline) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Exclusive runs fn while no stage is writing to a store or config.
func (p *Pipeline) Exclusive(fn func()) {
	p.resource.Lock()
	defer p.resource.Unlock()
	fn()
}

// Close stops both workers after their current task. Queued tasks are
// dropped.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() {
		p.parser.close()
		p.project.close()
	})
}

func (p *Pipeline) emit(e Event) {
	e.Time = p.clock.Now()
	if e.Err != nil {
		e.Error = e.Err.Error()
		e.ErrorKind = Kind(e.Err)
	}
	if p.listener != nil {
		p.listener(e)
	}
	p.bus.Publish(e)
}

func (p *Pipeline) setRunning(stage Stage, running bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch stage {
	case StageParse:
		p.parsing = running
		if running {
			p.failed = false
			p.lastErr = nil
		}
	case StageProject:
		p.projecting = running
	}
}

func (p *Pipeline) runParse(t ParseTask) {
	p.setRunning(StageParse, true)
	defer p.setRunning(StageParse, false)

	run := &Run{
		ID:        uuid.NewString(),
		Path:      t.Path,
		Status:    StatusRunning,
		StartedAt: p.clock.Now(),
	}
	monitoring.Logf("[pipeline] run %s: parsing %s", run.ID, t.Path)
	p.emit(Event{Kind: EventStarted, Stage: StageParse, RunID: run.ID, Message: "Loading " + t.Path})

	ds, err := p.loader.Load(context.Background(), t.Path, func(msg string) {
		p.emit(Event{Kind: EventProgress, Stage: StageParse, RunID: run.ID, Message: msg})
	})
	if err != nil {
		p.fail(run, StageParse, err)
		return
	}
	run.FromCache = ds.FromCache

	bounds, err := canvas.ComputeBounds(ds.Points())
	if err != nil {
		p.fail(run, StageParse, fmt.Errorf("%s: %w", t.Path, err))
		return
	}

	// Build the new dataset off to the side. Nothing shared changes until it
	// is known to project, so a failure leaves the previous dataset in place.
	p.emit(Event{Kind: EventProgress, Stage: StageParse, RunID: run.ID, Message: "Creating spi components"})
	staged := spi.NewStore()
	staged.Reset(ds.Meta)
	n := len(ds.Components)
	for i, c := range ds.Components {
		if i%p.every == 0 {
			frac := float64(i) / float64(n)
			p.emit(Event{
				Kind:     EventProgress,
				Stage:    StageParse,
				RunID:    run.ID,
				Message:  fmt.Sprintf("Creating spi components (%.1f%%)", frac*100),
				Fraction: frac,
			})
		}
		if err := staged.Add(c); err != nil {
			p.fail(run, StageParse, err)
			return
		}
	}

	p.resource.Lock()
	p.emit(Event{Kind: EventProgress, Stage: StageParse, RunID: run.ID, Message: "Updating canvas config"})
	next := t.Canvas.Clone()
	next.Bounds = bounds
	next.AutoSize()
	if _, err := next.Transform(); err != nil {
		p.resource.Unlock()
		p.fail(run, StageParse, fmt.Errorf("%s: %w", t.Path, err))
		return
	}
	t.Canvas.Bounds = next.Bounds
	t.Canvas.Size = next.Size
	t.Store.Replace(staged)

	run.Components = n
	run.Lines = len(ds.LineIDs)
	run.Panels = len(ds.PanelIDs)
	run.Bounds = bounds
	run.Canvas = t.Canvas.Size
	p.emit(Event{Kind: EventFinished, Stage: StageParse, RunID: run.ID, Message: fmt.Sprintf("Loaded %d components", n), Fraction: 1})
	p.resource.Unlock()

	p.chain(ProjectTask{Store: t.Store, Canvas: t.Canvas}, run)
}

// chain queues the projection for run. When an equal projection is still
// waiting, it will now project this run's data, so the older run is closed
// as superseded.
func (p *Pipeline) chain(task ProjectTask, run *Run) {
	p.mu.Lock()
	prev := p.pending[task]
	p.pending[task] = run
	p.mu.Unlock()

	if !p.project.Enqueue(task) && prev != nil {
		prev.Status = StatusSuperseded
		p.finish(prev)
	}
}

func (p *Pipeline) takeRun(task ProjectTask) *Run {
	p.mu.Lock()
	defer p.mu.Unlock()
	run := p.pending[task]
	delete(p.pending, task)
	return run
}

func (p *Pipeline) runProject(t ProjectTask) {
	p.setRunning(StageProject, true)
	defer p.setRunning(StageProject, false)

	run := p.takeRun(t)
	if run == nil {
		run = &Run{ID: uuid.NewString(), Status: StatusRunning, StartedAt: p.clock.Now()}
	}

	p.resource.Lock()
	defer p.resource.Unlock()

	p.emit(Event{Kind: EventStarted, Stage: StageProject, RunID: run.ID, Message: "Updating components"})
	tr, err := t.Canvas.Transform()
	if err != nil {
		p.fail(run, StageProject, err)
		return
	}
	run.Ratio = tr.Ratio()

	err = t.Store.Each(func(i, n int, c *spi.Component) error {
		if i%p.every == 0 {
			frac := float64(i) / float64(n)
			p.emit(Event{
				Kind:     EventProgress,
				Stage:    StageProject,
				RunID:    run.ID,
				Message:  fmt.Sprintf("Updating components (%.1f%%)", frac*100),
				Fraction: frac,
			})
		}
		c.CanvasX, c.CanvasY = tr.Apply(c.PosX, c.PosY)
		return nil
	})
	if err != nil {
		p.fail(run, StageProject, err)
		return
	}

	run.Status = StatusSucceeded
	p.emit(Event{Kind: EventFinished, Stage: StageProject, RunID: run.ID, Message: "Done !", Fraction: 1})
	p.finish(run)
}

func (p *Pipeline) fail(run *Run, stage Stage, err error) {
	p.mu.Lock()
	p.failed = true
	p.lastErr = err
	p.mu.Unlock()

	monitoring.Logf("[pipeline] run %s: %s stage failed: %v", run.ID, stage, err)
	run.Status = StatusFailed
	run.Error = err.Error()
	run.ErrorKind = Kind(err)
	p.emit(Event{Kind: EventFailed, Stage: stage, RunID: run.ID, Message: err.Error(), Err: err})
	p.finish(run)
}

func (p *Pipeline) finish(run *Run) {
	run.FinishedAt = p.clock.Now()
	if p.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.recorder.RecordRun(ctx, *run); err != nil && !errors.Is(err, context.Canceled) {
		monitoring.Logf("[pipeline] failed to record run %s: %v", run.ID, err)
	}
}
