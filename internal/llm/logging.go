package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/hooptriage/internal/store"
	"github.com/charmbracelet/log"
)

// LoggingProvider is a decorator that logs every model call and records it
// as an event.
type LoggingProvider struct {
	inner    Provider
	provider string
	repo     store.EventRepo
	logger   *log.Logger
}

// WithLogging wraps a Provider with call logging. repo and logger may be nil.
func WithLogging(p Provider, provider string, repo store.EventRepo, logger *log.Logger) Provider {
	if logger == nil {
		logger = log.Default()
	}
	return &LoggingProvider{
		inner:    p,
		provider: provider,
		repo:     repo,
		logger:   logger.WithPrefix("llm"),
	}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	latencyMs := time.Since(start).Milliseconds()

	data := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     purpose,
		SessionID:   SessionFrom(ctx),
		LatencyMs:   latencyMs,
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}

	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.Model = resp.Model
		data.ResponseBody = resp.Text
	}

	if err != nil {
		data.ErrorMessage = err.Error()
		l.logger.Warn("model call failed",
			"purpose", purpose, "model", data.Model, "ms", latencyMs, "err", err)
	} else {
		l.logger.Debug("model call",
			"purpose", purpose, "model", data.Model, "ms", latencyMs,
			"in", data.InputTokens, "out", data.OutputTokens)
	}

	if l.repo != nil {
		// A failed write must not fail the call itself.
		if logErr := l.repo.AppendLLMRequest(ctx, data); logErr != nil {
			l.logger.Warn("failed to record model call", "err", logErr)
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest builds a readable representation of the request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n", m.Role)
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n", req.Schema.Name)
			b.Write(def)
			b.WriteString("\n")
		}
	}

	return b.String()
}
