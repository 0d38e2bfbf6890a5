// Package provider builds the llm.Completer selected by configuration.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/joseph-ayodele/case-analyzer/internal/common"
	"github.com/joseph-ayodele/case-analyzer/internal/llm"
	"github.com/joseph-ayodele/case-analyzer/internal/llm/gemini"
	"github.com/joseph-ayodele/case-analyzer/internal/llm/ollama"
	"github.com/joseph-ayodele/case-analyzer/internal/llm/openai"
)

// New returns the Completer for cfg.Provider and a close func that releases it.
func New(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.Completer, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	noop := func() error { return nil }

	switch cfg.Provider {
	case "", common.ProviderOpenAI:
		c := openai.NewClient(openai.Config{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.Timeout,
		}, logger)
		return c, noop, nil
	case common.ProviderGemini:
		c, err := gemini.New(ctx, cfg.GeminiKey, cfg.GeminiModel, logger)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	case common.ProviderOllama:
		c, err := ollama.New(cfg.OllamaURL, cfg.OllamaModel, &http.Client{Timeout: cfg.Timeout}, logger)
		if err != nil {
			return nil, nil, err
		}
		return c, noop, nil
	default:
		return nil, nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown LLM provider %q", cfg.Provider), common.ErrInvalidInput)
	}
}

// NewAnalyzer wires the configured Completer into an llm.Analyzer.
func NewAnalyzer(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger, opts ...llm.AnalyzerOption) (*llm.Analyzer, func() error, error) {
	c, closeFn, err := New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	opts = append([]llm.AnalyzerOption{llm.WithAnalyzerLogger(logger)}, opts...)
	a := llm.NewAnalyzer(c, llm.AnalyzerConfig{
		MaxTokens:       cfg.MaxTokens,
		Temperature:     llm.Temperature(cfg.Temperature),
		MaxOutputTokens: cfg.MaxOutputTokens,
		Timeout:         cfg.Timeout,
	}, opts...)
	return a, closeFn, nil
}
