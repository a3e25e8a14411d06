package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/banshee-data/spiview/internal/canvas"
	"github.com/banshee-data/spiview/internal/pipeline"
)

// DefaultRunsLimit caps Runs when no limit is given.
const DefaultRunsLimit = 100

// RecordRun inserts or replaces a run. It satisfies pipeline.RunRecorder.
func (db *DB) RecordRun(ctx context.Context, run pipeline.Run) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR REPLACE INTO ingest_runs (
			run_id, path, from_cache, components, lines, panels,
			x_min, x_max, y_min, y_max, canvas_height, canvas_width, channels, ratio,
			status, error_kind, error, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Path, run.FromCache, run.Components, run.Lines, run.Panels,
		run.Bounds.XMin, run.Bounds.XMax, run.Bounds.YMin, run.Bounds.YMax,
		run.Canvas.Height, run.Canvas.Width, run.Canvas.Channels, run.Ratio,
		string(run.Status), string(run.ErrorKind), run.Error,
		run.StartedAt.UnixNano(), run.FinishedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

// Runs returns the most recent runs, newest first.
func (db *DB) Runs(ctx context.Context, limit int) ([]pipeline.Run, error) {
	if limit <= 0 {
		limit = DefaultRunsLimit
	}
	rows, err := db.QueryContext(ctx, `
		SELECT run_id, path, from_cache, components, lines, panels,
			x_min, x_max, y_min, y_max, canvas_height, canvas_width, channels, ratio,
			status, error_kind, error, started_at, finished_at
		FROM ingest_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []pipeline.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Run returns a single run by id.
func (db *DB) Run(ctx context.Context, id string) (pipeline.Run, error) {
	row := db.QueryRowContext(ctx, `
		SELECT run_id, path, from_cache, components, lines, panels,
			x_min, x_max, y_min, y_max, canvas_height, canvas_width, channels, ratio,
			status, error_kind, error, started_at, finished_at
		FROM ingest_runs WHERE run_id = ?`, id)
	return scanRun(row)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (pipeline.Run, error) {
	var (
		run                   pipeline.Run
		b                     canvas.Bounds
		height, width, chans  sql.NullInt64
		ratio                 sql.NullFloat64
		xMin, xMax            sql.NullFloat64
		yMin, yMax            sql.NullFloat64
		status                string
		kind, msg             sql.NullString
		startedAt, finishedAt int64
	)
	if err := s.Scan(
		&run.ID, &run.Path, &run.FromCache, &run.Components, &run.Lines, &run.Panels,
		&xMin, &xMax, &yMin, &yMax, &height, &width, &chans, &ratio,
		&status, &kind, &msg, &startedAt, &finishedAt,
	); err != nil {
		return pipeline.Run{}, err
	}
	b.XMin, b.XMax, b.YMin, b.YMax = xMin.Float64, xMax.Float64, yMin.Float64, yMax.Float64
	run.Bounds = b
	run.Canvas = canvas.Size{Height: int(height.Int64), Width: int(width.Int64), Channels: int(chans.Int64)}
	run.Ratio = ratio.Float64
	run.Status = pipeline.Status(status)
	run.ErrorKind = pipeline.ErrorKind(kind.String)
	run.Error = msg.String
	run.StartedAt = time.Unix(0, startedAt).UTC()
	run.FinishedAt = time.Unix(0, finishedAt).UTC()
	return run, nil
}
