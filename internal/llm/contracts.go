package llm

import "context"

// CompletionRequest is a single system+user exchange with a chat model.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
	// JSON asks the provider to constrain output to a JSON object.
	JSON bool
}

// Completer is the seam every model provider implements.
type Completer interface {
	Provider() string
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
