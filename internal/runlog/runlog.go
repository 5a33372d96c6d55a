// Package runlog records pipeline run history: one row per run plus a
// stream of phase events, for the runs command and live status display.
// Writes here are best-effort; the pipeline never fails on a run-log
// error.
package runlog

import (
	"context"
	"time"

	"github.com/nstepro/the-compound-sub000/internal/model"
)

// RunStatus tracks a run through the pipeline's states.
type RunStatus string

const (
	StatusQueued     RunStatus = "queued"
	StatusSegmenting RunStatus = "segmenting"
	StatusExtracting RunStatus = "extracting"
	StatusEnriching  RunStatus = "enriching"
	StatusTagging    RunStatus = "tagging"
	StatusPersisting RunStatus = "persisting"
	StatusComplete   RunStatus = "complete"
	StatusFailed     RunStatus = "failed"
)

// Run is one pipeline invocation.
type Run struct {
	ID          string                 `json:"id"`
	DocumentID  string                 `json:"document_id"`
	FullRefresh bool                   `json:"full_refresh"`
	Status      RunStatus              `json:"status"`
	Stats       *model.EnrichmentStats `json:"stats,omitempty"`
	Error       string                 `json:"error,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// PhaseEvent is one progress event within a run.
type PhaseEvent struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Phase     string    `json:"phase"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Filter specifies criteria for listing runs.
type Filter struct {
	Status     RunStatus `json:"status,omitempty"`
	DocumentID string    `json:"document_id,omitempty"`
	Limit      int       `json:"limit,omitempty"`
	Offset     int       `json:"offset,omitempty"`
}

// Log defines the run history interface.
type Log interface {
	CreateRun(ctx context.Context, documentID string, fullRefresh bool) (*Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status RunStatus) error
	CompleteRun(ctx context.Context, runID string, stats model.EnrichmentStats) error
	FailRun(ctx context.Context, runID string, message string) error
	AddEvent(ctx context.Context, runID, phase, message string) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, filter Filter) ([]Run, error)
	ListEvents(ctx context.Context, runID string) ([]PhaseEvent, error)

	Migrate(ctx context.Context) error
	Close() error
}
