package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/case-analyzer/internal/common"
	"github.com/joseph-ayodele/case-analyzer/internal/metrics"
)

// MinDocumentChars is the trimmed length below which a document is not sent to the model.
const MinDocumentChars = 100

const (
	defaultTemperature     = 0.2
	defaultMaxOutputTokens = 2000
)

type AnalyzerConfig struct {
	MaxTokens       int           // input budget in tokens, default 16000
	Temperature     *float32      // nil = 0.2; zero is a valid setting
	MaxOutputTokens int           // default 2000
	Timeout         time.Duration // per call, 0 = none
}

// Analyzer sends case text to a Completer and always returns a JSON-ish string.
// Provider failures are folded into an error payload instead of an error value.
type Analyzer struct {
	completer Completer
	cfg       AnalyzerConfig
	budget    TruncationBudget
	retry     RetryConfig
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

type AnalyzerOption func(*Analyzer)

func WithRetry(r RetryConfig) AnalyzerOption { return func(a *Analyzer) { a.retry = r } }

func WithAnalyzerMetrics(m *metrics.Metrics) AnalyzerOption {
	return func(a *Analyzer) { a.metrics = m }
}

func WithAnalyzerLogger(l *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) { a.logger = l }
}

// Temperature returns a pointer for AnalyzerConfig.Temperature.
func Temperature(t float32) *float32 { return &t }

func NewAnalyzer(c Completer, cfg AnalyzerConfig, opts ...AnalyzerOption) *Analyzer {
	if cfg.Temperature == nil {
		cfg.Temperature = Temperature(defaultTemperature)
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = defaultMaxOutputTokens
	}
	a := &Analyzer{
		completer: c,
		cfg:       cfg,
		budget:    TruncationBudget{MaxTokens: cfg.MaxTokens},
		retry:     DefaultRetryConfig(),
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

type errorPayload struct {
	CaseTitle          string `json:"caseTitle"`
	SuccessProbability int    `json:"successProbability"`
	Recommendation     string `json:"recommendation"`
	Reasoning          string `json:"reasoning"`
}

func (p errorPayload) String() string {
	b, _ := json.Marshal(p)
	return string(b)
}

// EmptyDocumentPayload is returned for documents too short to analyze.
func EmptyDocumentPayload() string {
	return errorPayload{
		CaseTitle:          "Document Analysis Error",
		SuccessProbability: 50,
		Recommendation:     "review",
		Reasoning:          "The document provided appears to be empty, corrupted, or doesn't contain readable text. Please upload a valid text-based document for proper analysis.",
	}.String()
}

// ProviderErrorPayload wraps a provider failure message.
func ProviderErrorPayload(err error) string {
	msg := "Unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return errorPayload{
		CaseTitle:          "API Analysis Error",
		SuccessProbability: 50,
		Recommendation:     "review",
		Reasoning:          "An error occurred during the analysis: " + msg + ". Please try again later.",
	}.String()
}

// Analyze never fails: short input and provider errors come back as payloads
// the normalizer understands.
func (a *Analyzer) Analyze(ctx context.Context, documentText, systemPrompt string) string {
	logger := common.LoggerFrom(ctx, a.logger)
	provider := a.completer.Provider()

	if utf8.RuneCountInString(strings.TrimSpace(documentText)) < MinDocumentChars {
		logger.Warn("llm.analyze.short_document", "chars", len(documentText))
		return EmptyDocumentPayload()
	}

	docChars := utf8.RuneCountInString(documentText)
	text, truncated := a.budget.Truncate(documentText)
	if truncated {
		logger.Info("llm.analyze.truncated", "chars", docChars, "kept", utf8.RuneCountInString(text))
	}

	req := CompletionRequest{
		System:      AnnotatePrompt(systemPrompt, docChars, truncated),
		User:        text,
		Temperature: *a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxOutputTokens,
		JSON:        true,
	}

	start := time.Now()
	var out string
	err := Retry(ctx, a.retry, logger, func(ctx context.Context) error {
		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if a.cfg.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		}
		defer cancel()
		var err error
		out, err = a.completer.Complete(callCtx, req)
		return err
	})
	elapsed := time.Since(start)
	if err != nil {
		logger.Error("llm.analyze.failed", "provider", provider, "error", err, "elapsed_ms", elapsed.Milliseconds())
		a.metrics.ModelCall(provider, "error", elapsed)
		return ProviderErrorPayload(err)
	}

	a.metrics.ModelCall(provider, "ok", elapsed)
	logger.Info("llm.analyze.ok", "provider", provider, "response_chars", len(out), "elapsed_ms", elapsed.Milliseconds())
	return out
}
