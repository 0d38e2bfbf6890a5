package llm

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"
)

const (
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     maxRetries,
		InitialBackoff: initialBackoff,
		MaxBackoff:     maxBackoff,
	}
}

// ShouldRetryStatus reports whether a provider status code is worth another attempt.
func ShouldRetryStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// IsRetryable inspects err for a StatusError with a retryable code.
func IsRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return ShouldRetryStatus(se.Status)
	}
	return false
}

func (c RetryConfig) backoff(attempt int) time.Duration {
	// initialBackoff * 2^attempt, capped
	b := float64(c.InitialBackoff) * math.Pow(2, float64(attempt))
	if b > float64(c.MaxBackoff) {
		b = float64(c.MaxBackoff)
	}
	return time.Duration(b)
}

// Retry runs fn until it succeeds, returns a non-retryable error, or the retry
// budget is spent. Sleeps honour ctx.
func Retry(ctx context.Context, cfg RetryConfig, logger *slog.Logger, fn func(ctx context.Context) error) error {
	if logger == nil {
		logger = slog.Default()
	}
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) || attempt == cfg.MaxRetries {
			return lastErr
		}
		wait := cfg.backoff(attempt)
		logger.Warn("llm.retry", "attempt", attempt+1, "backoff_ms", wait.Milliseconds(), "error", lastErr)
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return lastErr
}
