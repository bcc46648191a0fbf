package workflow

import (
	"time"

	"platen/internal/stage"
)

type pipelineStage struct {
	name    string
	handler stage.Handler
}

// AttemptRecord captures one attempt at processing an item. Records exist for
// retry bookkeeping and logging within a run; they are not persisted.
type AttemptRecord struct {
	Attempt   int
	StartedAt time.Time
	Duration  time.Duration
	// Stage names the failing stage; empty when the attempt succeeded.
	Stage string
	Err   string
}

// ItemResult is the final outcome of one discovered archive.
type ItemResult struct {
	Identifier  string
	ArchiveName string
	DateToken   string
	StartedAt   time.Time
	FinishedAt  time.Time
	Attempts    []AttemptRecord
	Completed   bool
	// Aborted marks an item interrupted by shutdown; the archive stays in the
	// inbox and no outcome is recorded.
	Aborted     bool
	FailedStage string
	Err         string
	OutputPath  string
}
