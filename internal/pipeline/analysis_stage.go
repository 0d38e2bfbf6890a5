package processor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/case-analyzer/internal/entity"
	"github.com/joseph-ayodele/case-analyzer/internal/llm"
)

// Analyst is the model side of the pipeline; *llm.Analyzer satisfies it.
type Analyst interface {
	Analyze(ctx context.Context, documentText, systemPrompt string) string
}

type AnalysisStage struct {
	Logger    *slog.Logger
	Prompt    llm.PromptSource
	Analyzer  Analyst
	Normalize []llm.NormalizeOption
}

func NewAnalysisStage(logger *slog.Logger, prompt llm.PromptSource, analyzer Analyst, opts ...llm.NormalizeOption) *AnalysisStage {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append([]llm.NormalizeOption{llm.WithNormalizeLogger(logger)}, opts...)
	return &AnalysisStage{Logger: logger, Prompt: prompt, Analyzer: analyzer, Normalize: opts}
}

// Run sends text to the model and normalizes whatever comes back.
// The only error is an unreadable prompt file.
func (s *AnalysisStage) Run(ctx context.Context, sourcePath, text string) (entity.AnalysisRecord, error) {
	system, err := s.Prompt.Load()
	if err != nil {
		return entity.AnalysisRecord{}, fmt.Errorf("load prompt: %w", err)
	}
	raw := s.Analyzer.Analyze(ctx, text, system)
	return llm.Normalize(raw, sourcePath, s.Normalize...), nil
}
