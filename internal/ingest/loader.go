// Package ingest reads inspection exports (csv, xlsx, xls), normalises them
// into the component record schema and caches the result as a sqlite snapshot
// next to the source.
package ingest

import (
	"context"
	"fmt"

	"github.com/banshee-data/spiview/internal/canvas"
	"github.com/banshee-data/spiview/internal/fsutil"
	"github.com/banshee-data/spiview/internal/monitoring"
	"github.com/banshee-data/spiview/internal/spi"
)

// ProgressFunc receives a human-readable step description.
type ProgressFunc func(msg string)

// Dataset is a fully validated load result, ready to populate a store.
type Dataset struct {
	Source     string
	FromCache  bool
	Meta       spi.Metadata
	LineIDs    []string
	PanelIDs   []string
	Components []*spi.Component
}

// Points returns the data-space position of every component.
func (d *Dataset) Points() []canvas.Point {
	pts := make([]canvas.Point, len(d.Components))
	for i, c := range d.Components {
		pts[i] = canvas.Point{X: c.PosX, Y: c.PosY}
	}
	return pts
}

// Loader turns a source path into a Dataset.
type Loader struct {
	FS    fsutil.FileSystem
	Cache Cache // nil disables caching
}

// NewLoader returns a loader over the OS filesystem with sqlite snapshots.
func NewLoader() *Loader {
	return &Loader{FS: fsutil.OSFileSystem{}, Cache: SnapshotCache{}}
}

// Load reads path, preferring a valid snapshot. It never touches a store, so
// any error leaves the caller's current dataset intact.
func (l *Loader) Load(ctx context.Context, path string, progress ProgressFunc) (*Dataset, error) {
	if progress == nil {
		progress = func(string) {}
	}
	read, err := readerFor(path)
	if err != nil {
		return nil, err
	}

	fromCache := false
	var frame *Frame
	if l.Cache != nil {
		frame, fromCache = loadCached(ctx, l.Cache, path, progress)
	}

	if !fromCache {
		progress("Loading original file: " + path)
		data, err := l.FS.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		table, err := read(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		frame, err = FrameFromTable(path, table)
		if err != nil {
			return nil, err
		}
		if l.Cache != nil {
			progress("Saving proxy file for future use")
			if err := l.Cache.Save(ctx, path, frame); err != nil {
				// The parse itself succeeded, so a cache write failure only costs
				// a re-parse next time.
				monitoring.Logf("[ingest] failed to save snapshot for %s: %v", path, err)
			}
		}
	}

	ds, err := materialize(path, frame)
	if err != nil {
		return nil, err
	}
	ds.FromCache = fromCache
	return ds, nil
}

// materialize builds components from a frame and extracts project metadata.
// Duplicate pad ids are rejected here so populating a store cannot fail
// halfway.
func materialize(path string, f *Frame) (*Dataset, error) {
	ds := &Dataset{
		Source:     path,
		Meta:       spi.Metadata{Idno: spi.UnsetIdno},
		Components: make([]*spi.Component, 0, f.Len()),
	}
	if f.Len() > 0 {
		ds.Meta = spi.Metadata{Idno: f.Int(ColIdno, 0), ProductName: f.Text(ColProductGroup, 0)}
	}

	pads := make(map[int64]int, f.Len())
	lines := make(map[string]bool)
	panels := make(map[string]bool)
	for r := 0; r < f.Len(); r++ {
		pad := f.Int(ColPadID, r)
		if first, dup := pads[pad]; dup {
			return nil, fmt.Errorf("%s: row %d repeats pad %d from row %d: %w", path, r+1, pad, first, spi.ErrDuplicatePadID)
		}
		pads[pad] = r + 1

		c, err := spi.NewComponent(pad, f.Text(ColComponentID, r))
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, r+1, err)
		}
		c.SizeMin = f.Float(ColSizeMin, r)
		c.SizeMax = f.Float(ColSizeMax, r)
		c.Volume = f.Float(ColVolume, r)
		c.RealVol = f.Int(ColRealVol, r)
		c.Area = f.Float(ColArea, r)
		c.RealArea = f.Int(ColRealArea, r)
		c.PosX = f.Float(ColPosX, r)
		c.PosY = f.Float(ColPosY, r)
		c.LineID = f.Text(ColLineID, r)
		c.PanelID = f.Text(ColPanelID, r)
		ds.Components = append(ds.Components, c)

		if !lines[c.LineID] {
			lines[c.LineID] = true
			ds.LineIDs = append(ds.LineIDs, c.LineID)
		}
		if !panels[c.PanelID] {
			panels[c.PanelID] = true
			ds.PanelIDs = append(ds.PanelIDs, c.PanelID)
		}
	}
	return ds, nil
}
