package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/case-analyzer/constants"
)

// TextExtractor is Stage 1: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (Result, error)
}

// Result is the outcome of one extraction. When Source is constants.SourceError
// the Text is a human-readable diagnostic, not document content.
type Result struct {
	Text           string
	Source         constants.Source
	CharacterCount int
	Cached         bool
	Duration       time.Duration
}

// Degraded reports whether every strategy fell short.
func (r Result) Degraded() bool {
	return r.Source == constants.SourceError
}
