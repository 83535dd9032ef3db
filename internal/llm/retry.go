package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
)

// RetryProvider retries transient provider failures with exponential
// backoff. It gives up early when the caller's deadline cannot cover the
// next wait.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	logger *log.Logger
}

// WithRetry wraps p with retry logic. logger may be nil.
func WithRetry(p Provider, cfg RetryConfig, logger *log.Logger) Provider {
	if logger == nil {
		logger = log.Default()
	}
	return &RetryProvider{inner: p, config: cfg, logger: logger.WithPrefix("llm")}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	attempts := max(r.config.MaxAttempts, 1)
	malformedSeen := false

	var err error
	for attempt := 1; ; attempt++ {
		var resp *Response
		resp, err = r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if attempt >= attempts || !retryable(err, &malformedSeen) {
			return nil, err
		}

		wait := r.wait(attempt, err)
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < wait {
			return nil, err
		}
		r.logger.Warn("retrying model call",
			"session", SessionFrom(ctx), "purpose", PurposeFrom(ctx),
			"attempt", attempt, "wait", wait.Round(time.Millisecond), "error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// retryable reports whether err is worth another attempt. A malformed
// reply gets one more try; seen tracks whether it was already spent.
func retryable(err error, seen *bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var (
		truncated *ErrMaxTokensExceeded
		rejected  *ErrRejected
		malformed *ErrInvalidResponse
	)
	switch {
	case errors.As(err, &truncated), errors.As(err, &rejected):
		return false
	case errors.As(err, &malformed):
		if *seen {
			return false
		}
		*seen = true
	}
	return true
}

// wait is the pause before the attempt after the given one. A provider
// supplied retry delay wins over the computed backoff.
func (r *RetryProvider) wait(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	d := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt-1))
	d = math.Min(d, float64(r.config.MaxWait))
	// ±20% jitter
	d *= 0.8 + 0.4*rand.Float64()
	return time.Duration(math.Max(d, 0))
}
