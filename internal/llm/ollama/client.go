// Package ollama adapts a local Ollama server to llm.Completer.
package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/joseph-ayodele/case-analyzer/internal/llm"
)

const DefaultModel = "llama3.1"

// Client wraps the Ollama API client
type Client struct {
	client *api.Client
	model  string
	logger *slog.Logger
}

// New creates a client for the Ollama server at ollamaURL.
func New(ollamaURL, model string, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if ollamaURL == "" {
		ollamaURL = "http://localhost:11434"
	}
	if model == "" {
		model = DefaultModel
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	baseURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}
	return &Client{
		client: api.NewClient(baseURL, httpClient),
		model:  model,
		logger: logger,
	}, nil
}

func (c *Client) Provider() string { return "ollama" }

func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	stream := false
	gr := &api.GenerateRequest{
		Model:  c.model,
		System: req.System,
		Prompt: req.User,
		Stream: &stream,
		Options: map[string]any{
			"temperature": req.Temperature,
		},
	}
	if req.MaxTokens > 0 {
		gr.Options["num_predict"] = req.MaxTokens
	}
	if req.JSON {
		gr.Format = json.RawMessage(`"json"`)
	}

	c.logger.Info("llm.ollama.request", "model", c.model, "user_chars", len(req.User))
	var b strings.Builder
	err := c.client.Generate(ctx, gr, func(resp api.GenerateResponse) error {
		b.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		var se api.StatusError
		if errors.As(err, &se) {
			return "", &llm.StatusError{Status: se.StatusCode, Body: se.ErrorMessage}
		}
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return strings.TrimSpace(b.String()), nil
}
