package processor

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/case-analyzer/internal/common"
	"github.com/joseph-ayodele/case-analyzer/internal/extract"
)

type ExtractStage struct {
	TextExtractor extract.TextExtractor
	Logger        *slog.Logger
}

func NewExtractStage(tx extract.TextExtractor, logger *slog.Logger) *ExtractStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractStage{TextExtractor: tx, Logger: logger}
}

// Run extracts text from the document at path. A degraded result is not an
// error here: its diagnostic text flows on to the model like any other text.
func (s *ExtractStage) Run(ctx context.Context, path string) (extract.Result, error) {
	res, err := s.TextExtractor.Extract(ctx, path)
	if err != nil {
		return res, err
	}
	if strings.TrimSpace(res.Text) == "" {
		return res, common.WrapError(common.ErrNoText, "no text extracted from "+path)
	}
	if res.Degraded() {
		common.LoggerFrom(ctx, s.Logger).Warn("processor.extract.degraded", "path", path, "chars", res.CharacterCount)
	}
	return res, nil
}
