package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/case-analyzer/constants"
	"github.com/joseph-ayodele/case-analyzer/internal/cache"
	"github.com/joseph-ayodele/case-analyzer/internal/common"
	"github.com/joseph-ayodele/case-analyzer/internal/metrics"
	"github.com/joseph-ayodele/case-analyzer/internal/ocr"
)

// MinAcceptedChars is the trimmed length, in characters, a strategy must reach
// to be accepted.
const MinAcceptedChars = 100

// Strategy is one way of getting text out of a PDF.
type Strategy struct {
	Name     string
	Source   constants.Source
	MinChars int
	// Enabled gates the strategy per call; nil means always.
	Enabled func(ctx context.Context) bool
	Run     func(ctx context.Context, path string) (string, error)
}

// Chain runs strategies in order until one produces enough text.
type Chain struct {
	cache      *cache.Cache
	strategies []Strategy
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

type Option func(*Chain)

func WithMetrics(m *metrics.Metrics) Option { return func(c *Chain) { c.metrics = m } }

func WithLogger(l *slog.Logger) Option { return func(c *Chain) { c.logger = l } }

// NewChain builds a chain over the given PDF strategies. A nil cache disables caching.
func NewChain(c *cache.Cache, strategies []Strategy, opts ...Option) *Chain {
	ch := &Chain{
		cache:      c,
		strategies: strategies,
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(ch)
	}
	return ch
}

// DefaultPDFStrategies returns enhanced, native, cli-ocr and library-ocr in that order.
// The cli-ocr step only runs when probe finds both binaries.
func DefaultPDFStrategies(probe *ocr.Probe, cli *ocr.CLIRunner, lib ocr.OCRRunner) []Strategy {
	return []Strategy{
		{
			Name:     "enhanced",
			Source:   constants.SourceEnhanced,
			MinChars: MinAcceptedChars,
			Run:      func(ctx context.Context, path string) (string, error) { return EnhancedText(ctx, path) },
		},
		{
			Name:     "native",
			Source:   constants.SourceNative,
			MinChars: MinAcceptedChars,
			Run:      func(ctx context.Context, path string) (string, error) { return PlainText(ctx, path) },
		},
		{
			Name:     cli.Name(),
			Source:   constants.SourceCLIOCR,
			MinChars: MinAcceptedChars,
			Enabled:  func(ctx context.Context) bool { return probe.Check(ctx).Available },
			Run: func(ctx context.Context, path string) (string, error) {
				return cli.WithTools(probe.Check(ctx)).RecognizePDF(ctx, path)
			},
		},
		{
			Name:     lib.Name(),
			Source:   constants.SourceLibraryOCR,
			MinChars: MinAcceptedChars,
			Run:      lib.RecognizePDF,
		},
	}
}

// Extract returns the text of the document at path.
//
// A cached entry short-circuits every strategy. Plain text files are read as-is.
// For PDFs, the first accepted strategy output is cached and returned; if none is
// accepted the Result carries a diagnostic with Source=error and no error value.
// Missing files wrap common.ErrNotFound; other formats return common.ErrUnsupportedType.
func (c *Chain) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	logger := common.LoggerFrom(ctx, c.logger).With("path", path)

	fp, err := cache.FingerprintOf(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{}, common.WrapError(common.ErrNotFound, fmt.Sprintf("document %q", path))
		}
		return Result{}, fmt.Errorf("stat %q: %w", path, err)
	}

	if c.cache != nil {
		if e, ok := c.cache.Get(ctx, fp); ok {
			src := e.Source
			if src == "" {
				src = constants.SourceNative
			}
			logger.Info("extract.cache.hit", "source", src, "chars", e.Chars())
			return Result{
				Text:           e.Text,
				Source:         src,
				CharacterCount: e.Chars(),
				Cached:         true,
				Duration:       time.Since(start),
			}, nil
		}
	}

	ext := filepath.Ext(path)
	switch constants.MapExtToFormat(ext) {
	case constants.TXT:
		b, err := os.ReadFile(path)
		if err != nil {
			return Result{}, fmt.Errorf("read %q: %w", path, err)
		}
		text := string(b)
		n := utf8.RuneCountInString(text)
		logger.Info("extract.text.ok", "chars", n)
		return Result{
			Text:           text,
			Source:         constants.SourceText,
			CharacterCount: n,
			Duration:       time.Since(start),
		}, nil
	case constants.PDF:
		res := c.runPDF(ctx, logger, path)
		if !res.Degraded() && c.cache != nil {
			c.cache.Put(ctx, fp, cache.Entry{Text: res.Text, Source: res.Source})
		}
		res.Duration = time.Since(start)
		return res, nil
	case constants.WORD:
		logger.Warn("extract.unsupported", "ext", ext)
		return Result{}, common.NewAppError("UNSUPPORTED_TYPE",
			"Word documents cannot be analyzed yet; upload a PDF or TXT version", common.ErrUnsupportedType)
	default:
		logger.Warn("extract.unsupported", "ext", ext)
		return Result{}, common.NewAppError("UNSUPPORTED_TYPE",
			fmt.Sprintf("unsupported file type: %q", ext), common.ErrUnsupportedType)
	}
}

func (c *Chain) runPDF(ctx context.Context, logger *slog.Logger, path string) Result {
	best := 0
	for _, s := range c.strategies {
		if ctx.Err() != nil {
			logger.Warn("extract.cancelled", "error", ctx.Err())
			break
		}
		if s.Enabled != nil && !s.Enabled(ctx) {
			logger.Info("extract.strategy.skipped", "strategy", s.Name)
			c.metrics.ExtractionAttempt(s.Name, "skipped")
			continue
		}
		t0 := time.Now()
		text, err := s.Run(ctx, path)
		elapsed := time.Since(t0).Milliseconds()
		if err != nil {
			logger.Warn("extract.strategy.failed", "strategy", s.Name, "elapsed_ms", elapsed, "error", err)
			c.metrics.ExtractionAttempt(s.Name, "failed")
			continue
		}
		trimmed := utf8.RuneCountInString(strings.TrimSpace(text))
		if trimmed > best {
			best = trimmed
		}
		if trimmed < s.MinChars {
			logger.Info("extract.strategy.insufficient", "strategy", s.Name, "chars", trimmed, "elapsed_ms", elapsed)
			c.metrics.ExtractionAttempt(s.Name, "insufficient")
			continue
		}
		n := utf8.RuneCountInString(text)
		logger.Info("extract.strategy.ok", "strategy", s.Name, "chars", n, "elapsed_ms", elapsed)
		c.metrics.ExtractionAttempt(s.Name, "accepted")
		return Result{Text: text, Source: s.Source, CharacterCount: n}
	}

	msg := Diagnostic(best)
	logger.Warn("extract.degraded", "best_chars", best)
	return Result{Text: msg, Source: constants.SourceError, CharacterCount: utf8.RuneCountInString(msg)}
}

// Diagnostic is the text returned in place of document content when no strategy
// produced enough characters.
func Diagnostic(chars int) string {
	return "The provided document is not suitable for analysis due to quality issues. " +
		"Please provide a text-based PDF or transcribe the key elements of the tax case.\n\n" +
		"Possible solutions:\n" +
		"1. If you have access to the original document, export it as a text-based PDF\n" +
		"2. Use a document conversion tool like Adobe Acrobat to convert the scanned PDF to text\n" +
		"3. For important cases, consider manual transcription of key sections\n\n" +
		"Technical details: Document appears to be an image-based PDF. " +
		fmt.Sprintf("Multiple extraction methods were attempted but yielded insufficient text (%d characters).", chars)
}
