package llm

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

//go:embed prompts/case_analysis.md
var defaultSystemPrompt string

const (
	DefaultMaxTokens = 16000
	CharsPerToken    = 4
	TruncationMarker = "\n\n[...content truncated for length...]\n\n"
)

// TruncationBudget splits a token budget into the head and tail character counts
// kept when a document is too long: 2.5 and 1.5 characters per token respectively.
type TruncationBudget struct {
	MaxTokens int
}

func (b TruncationBudget) maxTokens() int {
	if b.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return b.MaxTokens
}

func (b TruncationBudget) Limit() int { return b.maxTokens() * CharsPerToken }
func (b TruncationBudget) Head() int { return b.maxTokens() * 5 / 2 }
func (b TruncationBudget) Tail() int { return b.maxTokens() * 3 / 2 }

// Truncate keeps the head and tail of text when it exceeds the budget limit.
// Lengths are counted in runes so multi-byte characters are never split.
func (b TruncationBudget) Truncate(text string) (string, bool) {
	if utf8.RuneCountInString(text) <= b.Limit() {
		return text, false
	}
	r := []rune(text)
	head := string(r[:b.Head()])
	tail := string(r[len(r)-b.Tail():])
	return head + TruncationMarker + tail, true
}

// AnnotatePrompt appends the document length note the model uses to calibrate confidence.
func AnnotatePrompt(system string, docChars int, truncated bool) string {
	note := fmt.Sprintf("\n\nThe document is %d characters long", docChars)
	if truncated {
		return system + note + " and has been truncated to fit within token limits."
	}
	return system + note + "."
}

// PromptSource yields the system prompt for case analysis.
type PromptSource struct {
	Path string
}

// Load reads Path when set; otherwise it returns the built-in prompt.
func (p PromptSource) Load() (string, error) {
	if strings.TrimSpace(p.Path) == "" {
		return defaultSystemPrompt, nil
	}
	b, err := os.ReadFile(p.Path)
	if err != nil {
		return "", fmt.Errorf("read system prompt %q: %w", p.Path, err)
	}
	return string(b), nil
}

// DefaultSystemPrompt returns the built-in case analysis prompt.
func DefaultSystemPrompt() string { return defaultSystemPrompt }
