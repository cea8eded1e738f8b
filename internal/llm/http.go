package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// APIError carries the status and body of a non-2xx provider response
type APIError struct {
	URL        string
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if len(body) > 300 {
		body = body[:300] + "..."
	}
	return fmt.Sprintf("API call failed: %s status=%d body=%s", e.URL, e.StatusCode, body)
}

// Retryable reports whether the status is worth another attempt
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode >= 500
}

// RetryConfig controls retries of transient failures
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig returns three attempts with exponential backoff
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
	}
}

// SendJSON posts body as JSON and returns the raw response body.
// 429, 408 and 5xx responses and transport errors are retried per retry;
// other non-2xx responses return an *APIError immediately.
func SendJSON(ctx context.Context, client *http.Client, url string, body any, headers map[string]string, retry RetryConfig, logger zerolog.Logger) ([]byte, error) {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = 1
	}
	if retry.BaseDelay <= 0 {
		retry.BaseDelay = DefaultRetryConfig().BaseDelay
	}
	if retry.MaxDelay <= 0 {
		retry.MaxDelay = DefaultRetryConfig().MaxDelay
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}

	reqID := uuid.New().String()
	log := logger.With().Str("req_id", reqID).Str("url", url).Logger()

	var lastErr error
	for attempt := 1; attempt <= retry.MaxAttempts; attempt++ {
		start := time.Now()
		raw, retryAfter, transient, err := sendOnce(ctx, client, url, payload, headers)
		elapsed := time.Since(start).Milliseconds()
		if err == nil {
			log.Debug().Int("attempt", attempt).Int("bytes", len(raw)).Int64("elapsed_ms", elapsed).Msg("llm request succeeded")
			return raw, nil
		}

		lastErr = err
		if !transient || ctx.Err() != nil || attempt == retry.MaxAttempts {
			break
		}

		delay := backoff(attempt, retry.BaseDelay, retry.MaxDelay)
		if retryAfter > 0 {
			delay = min(retryAfter, retry.MaxDelay)
		}
		log.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Int64("elapsed_ms", elapsed).Msg("llm request failed, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	log.Error().Err(lastErr).Msg("llm request failed")
	return nil, lastErr
}

// sendOnce performs one attempt. transient reports whether a retry may succeed.
func sendOnce(ctx context.Context, client *http.Client, url string, payload []byte, headers map[string]string) (raw []byte, retryAfter time.Duration, transient bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, true, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, true, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{URL: url, StatusCode: resp.StatusCode, Body: raw}
		return nil, parseRetryAfter(resp.Header.Get("Retry-After")), apiErr.Retryable(), apiErr
	}
	return raw, 0, false, nil
}

func backoff(attempt int, base, maxDelay time.Duration) time.Duration {
	delay := base << (attempt - 1)
	if delay <= 0 || delay > maxDelay {
		return maxDelay
	}
	return delay
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
