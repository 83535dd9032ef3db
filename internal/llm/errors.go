package llm

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the reply was empty or did not match the
// requested schema.
type ErrInvalidResponse struct {
	Raw string
	Err error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid model response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model provider unavailable: %v", e.Err)
	}
	return "model provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the reply was cut off at MaxTokens and
// the caller asked for structured output it cannot complete.
type ErrMaxTokensExceeded struct {
	Raw string
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "model response truncated: max tokens exceeded"
}

// ErrRejected indicates the provider refused the request itself (HTTP 400).
// It is never retried.
type ErrRejected struct {
	Err error
}

func (e *ErrRejected) Error() string {
	return fmt.Sprintf("model provider rejected request: %v", e.Err)
}

func (e *ErrRejected) Unwrap() error { return e.Err }

// retryAfter reads a Retry-After header given in seconds or as an HTTP
// date. It returns zero when the header is missing or unparsable.
func retryAfter(h http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(max(secs, 0)) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}
