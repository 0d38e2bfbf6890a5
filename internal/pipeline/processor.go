package processor

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/case-analyzer/internal/common"
	"github.com/joseph-ayodele/case-analyzer/internal/entity"
	"github.com/joseph-ayodele/case-analyzer/internal/metrics"
)

// Processor coordinates text extraction then model analysis.
type Processor struct {
	Logger   *slog.Logger
	Extract  *ExtractStage
	Analysis *AnalysisStage
	Metrics  *metrics.Metrics
}

func NewProcessor(logger *slog.Logger, ex *ExtractStage, an *AnalysisStage, m *metrics.Metrics) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Extract: ex, Analysis: an, Metrics: m}
}

// AnalyzeCase turns the document at path into a normalized record.
// Only extraction failures (missing file, unsupported type, no text) are returned
// as errors; model trouble shows up inside the record.
func (p *Processor) AnalyzeCase(ctx context.Context, path string) (entity.AnalysisRecord, error) {
	logger := common.LoggerFrom(ctx, p.Logger)
	start := time.Now()

	// 1) text
	res, err := p.Extract.Run(ctx, path)
	if err != nil {
		logger.Error("processor.extract.failed", "path", path, "err", err)
		p.Metrics.Analysis("extract_error", "")
		return entity.AnalysisRecord{}, err
	}
	logger.Info("processor.extract.ok",
		"path", path,
		"source", res.Source,
		"chars", res.CharacterCount,
		"cached", res.Cached,
		"elapsed_ms", res.Duration.Milliseconds(),
	)

	// 2) model + normalize
	rec, err := p.Analysis.Run(ctx, path, res.Text)
	if err != nil {
		logger.Error("processor.analyze.failed", "path", path, "err", err)
		p.Metrics.Analysis("analyze_error", "")
		return entity.AnalysisRecord{}, err
	}
	logger.Info("processor.analyze.ok",
		"path", path,
		"case_id", rec.CaseID,
		"recommendation", rec.Recommendation,
		"probability", rec.SuccessProbability,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	p.Metrics.Analysis("ok", string(rec.Recommendation))
	return rec, nil
}
