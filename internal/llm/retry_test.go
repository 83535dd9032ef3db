package llm

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

const questionReply = `{"type":"objective","question":"Can you bear weight on the ankle?","options":["Yes","No"]}`

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     10 * time.Millisecond,
		Multiplier:  2,
	}
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func down() MockResponse {
	return MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("connection reset")}}
}

func TestRetry_Outcomes(t *testing.T) {
	malformed := MockResponse{Err: &ErrInvalidResponse{Raw: "I think", Err: errors.New("no json")}}

	tests := []struct {
		name      string
		responses []MockResponse
		wantErr   bool
		wantCalls int
	}{
		{"first attempt", []MockResponse{{Text: questionReply}}, false, 1},
		{"transient then ok", []MockResponse{down(), {Text: questionReply}}, false, 2},
		{"exhausted", []MockResponse{down(), down(), down()}, true, 3},
		{"rate limit honours delay", []MockResponse{
			{Err: &ErrRateLimit{RetryAfter: time.Millisecond, Err: errors.New("429")}},
			{Text: questionReply},
		}, false, 2},
		{"malformed retried once", []MockResponse{malformed, malformed, {Text: questionReply}}, true, 2},
		{"truncated not retried", []MockResponse{{Err: &ErrMaxTokensExceeded{Raw: `{"type":"diag`}}}, true, 1},
		{"rejected not retried", []MockResponse{{Err: &ErrRejected{Err: errors.New("400 bad request")}}}, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.responses...)
			p := WithRetry(mock, fastRetry(), quietLogger())

			resp, err := p.Generate(context.Background(), Request{})
			if tt.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && resp.Text != questionReply {
				t.Fatalf("unexpected text: %s", resp.Text)
			}
			if mock.CallCount() != tt.wantCalls {
				t.Fatalf("expected %d calls, got %d", tt.wantCalls, mock.CallCount())
			}
		})
	}
}

func TestRetry_ReturnsLastErrorType(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrRejected{Err: errors.New("bad schema")}})
	_, err := WithRetry(mock, fastRetry(), quietLogger()).Generate(context.Background(), Request{})

	var rejected *ErrRejected
	if !errors.As(err, &rejected) {
		t.Fatalf("expected ErrRejected, got %T", err)
	}
}

func TestRetry_StopsWhenDeadlineCannotCoverWait(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrRateLimit{RetryAfter: time.Minute, Err: errors.New("quota")}},
		MockResponse{Text: questionReply},
	)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	_, err := WithRetry(mock, fastRetry(), quietLogger()).Generate(ctx, Request{})

	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected the rate limit error back, got %v", err)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("waited despite the deadline")
	}
}

func TestRetry_CancelledWhileWaiting(t *testing.T) {
	mock := NewMockProvider(down(), MockResponse{Text: questionReply})
	cfg := fastRetry()
	cfg.InitialWait = time.Minute
	cfg.MaxWait = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	_, err := WithRetry(mock, cfg, quietLogger()).Generate(ctx, Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestRetry_ZeroAttemptsStillCallsOnce(t *testing.T) {
	mock := NewMockProvider(down())
	p := WithRetry(mock, RetryConfig{}, nil)

	if _, err := p.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error")
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
	if p.ModelID() != "mock" {
		t.Fatalf("ModelID = %q", p.ModelID())
	}
}

func TestRetryWait(t *testing.T) {
	r := &RetryProvider{config: RetryConfig{InitialWait: 100 * time.Millisecond, MaxWait: 300 * time.Millisecond, Multiplier: 2}}

	for attempt, base := range map[int]time.Duration{1: 100 * time.Millisecond, 2: 200 * time.Millisecond, 5: 300 * time.Millisecond} {
		got := r.wait(attempt, errors.New("x"))
		lo, hi := time.Duration(float64(base)*0.8), time.Duration(float64(base)*1.2)
		if got < lo || got > hi {
			t.Fatalf("attempt %d: wait %s outside [%s, %s]", attempt, got, lo, hi)
		}
	}

	if got := r.wait(1, &ErrRateLimit{RetryAfter: 7 * time.Second}); got != 7*time.Second {
		t.Fatalf("expected provider delay, got %s", got)
	}
}
