package pipeline

import (
	"time"

	"github.com/banshee-data/spiview/internal/canvas"
)

// Status is the outcome of a run.
type Status string

const (
	StatusRunning    Status = "running"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusSuperseded Status = "superseded"
)

// Run summarises one parse and its chained projection.
type Run struct {
	ID         string        `json:"id"`
	Path       string        `json:"path"`
	FromCache  bool          `json:"from_cache"`
	Components int           `json:"components"`
	Lines      int           `json:"lines"`
	Panels     int           `json:"panels"`
	Bounds     canvas.Bounds `json:"bounds"`
	Canvas     canvas.Size   `json:"canvas"`
	Ratio      float64       `json:"ratio"`
	Status     Status        `json:"status"`
	ErrorKind  ErrorKind     `json:"error_kind,omitempty"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Duration is the wall time of the run.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
