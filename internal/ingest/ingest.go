package ingest

import (
	"context"
	"time"

	"github.com/joseph-ayodele/case-analyzer/internal/async"
)

// FileResult is the per-file discovery outcome.
type FileResult struct {
	Path        string
	SubmittedAt time.Time
	Err         string
}

// DirStats summarizes a directory walk.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Submitted uint32
	Failed    uint32
}

// Submitter accepts discovered documents; *async.ProcessorQueue satisfies it.
type Submitter interface {
	Enqueue(ctx context.Context, job async.Job) error
}
