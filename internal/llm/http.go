package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/case-analyzer/internal/common"
)

// maxResponseBytes caps how much of a provider reply is read.
const maxResponseBytes = 8 << 20

// StatusError is a non-2xx answer from a model provider. Body holds the
// provider's error message when one could be extracted, else the raw reply.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 512 {
		body = body[:512] + "...(truncated)"
	}
	return fmt.Sprintf("provider returned status %d: %s", e.Status, body)
}

// PostJSON posts payload to a provider endpoint and returns the reply body.
// The X-Request-ID header carries the request id from ctx so provider logs line
// up with the analysis that made the call; one is generated when ctx has none.
// A non-2xx reply returns the body together with a *StatusError.
func PostJSON(ctx context.Context, client *http.Client, url string, payload any, headers map[string]string, logger *slog.Logger) ([]byte, error) {
	if client == nil {
		client = &http.Client{Timeout: 90 * time.Second}
	}
	reqID := common.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	logger = common.LoggerFrom(ctx, logger).With("call_id", reqID)

	bs, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode provider payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	logger.Debug("llm.provider.request", "url", url, "payload_bytes", len(bs))
	resp, err := client.Do(req)
	if err != nil {
		logger.Warn("llm.provider.unreachable", "url", url, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Debug("llm.provider.body_close_failed", "error", cerr)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read provider reply: %w", err)
	}
	logger.Info("llm.provider.reply",
		"status", resp.StatusCode,
		"reply_bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return raw, &StatusError{Status: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}
