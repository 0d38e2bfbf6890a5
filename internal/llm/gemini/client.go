// Package gemini adapts the Google generative AI SDK to llm.Completer.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/joseph-ayodele/case-analyzer/internal/llm"
)

const DefaultModel = "gemini-1.5-pro"

type Client struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// New dials the Gemini API with apiKey. Close the client when done.
func New(ctx context.Context, apiKey, model string, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{client: client, model: model, logger: logger}, nil
}

func (c *Client) Provider() string { return "gemini" }

func (c *Client) Close() error { return c.client.Close() }

func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	m := c.client.GenerativeModel(c.model)
	m.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.JSON {
		m.ResponseMIMEType = "application/json"
	}
	if req.System != "" {
		m.SystemInstruction = genai.NewUserContent(genai.Text(req.System))
	}

	c.logger.Info("llm.gemini.request", "model", c.model, "user_chars", len(req.User))
	resp, err := m.GenerateContent(ctx, genai.Text(req.User))
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return "", &llm.StatusError{Status: gerr.Code, Body: gerr.Message}
		}
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return "", errors.New("empty response from gemini")
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		// first candidate only
		break
	}
	return strings.TrimSpace(b.String())
}
