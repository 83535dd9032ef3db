package session

import (
	"context"
	"time"

	"github.com/abhisek/hooptriage/internal/store"
	"github.com/abhisek/hooptriage/internal/triage"
	"github.com/charmbracelet/log"
)

// EventKind classifies the outcome of one Submit call.
type EventKind string

const (
	EventTurn          EventKind = "turn"           // question recorded
	EventDiagnosis     EventKind = "diagnosis"      // diagnosis recorded, session done
	EventPayloadError  EventKind = "payload_error"  // model reply unusable, error payload recorded
	EventUpstreamError EventKind = "upstream_error" // model call failed, nothing recorded
	EventReplay        EventKind = "replay"         // duplicate or terminal submission answered from history
	EventStoreError    EventKind = "store_error"
)

// Event describes one engine outcome.
type Event struct {
	Kind      EventKind
	SessionID string
	Phase     triage.Phase // phase the model was prompted in
	Turn      int          // assistant turns after the call
	ErrorTag  triage.ErrorTag
	Err       error
	Latency   time.Duration
}

// Observer receives engine outcomes. Implementations must not block.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event)

func (f ObserverFunc) Observe(ctx context.Context, ev Event) { f(ctx, ev) }

// Observers fans an event out to each observer in order.
type Observers []Observer

func (os Observers) Observe(ctx context.Context, ev Event) {
	for _, o := range os {
		if o != nil {
			o.Observe(ctx, ev)
		}
	}
}

type logObserver struct {
	logger *log.Logger
}

// LogObserver writes every event to logger: failures at warn, the rest at
// debug.
func LogObserver(logger *log.Logger) Observer {
	if logger == nil {
		logger = log.Default()
	}
	return &logObserver{logger: logger.WithPrefix("session")}
}

func (o *logObserver) Observe(_ context.Context, ev Event) {
	kv := []any{"session", ev.SessionID, "kind", ev.Kind, "phase", ev.Phase, "turn", ev.Turn}
	if ev.ErrorTag != "" {
		kv = append(kv, "tag", ev.ErrorTag)
	}
	if ev.Latency > 0 {
		kv = append(kv, "latency", ev.Latency)
	}
	switch ev.Kind {
	case EventUpstreamError, EventStoreError:
		o.logger.Warn("turn failed", append(kv, "error", ev.Err)...)
	case EventPayloadError:
		o.logger.Warn("unusable model reply", kv...)
	default:
		o.logger.Debug("turn", kv...)
	}
}

type recordObserver struct {
	repo   store.EventRepo
	logger *log.Logger
}

// RecordObserver appends every event to the triage event log.
func RecordObserver(repo store.EventRepo, logger *log.Logger) Observer {
	if logger == nil {
		logger = log.Default()
	}
	return &recordObserver{repo: repo, logger: logger}
}

func (o *recordObserver) Observe(ctx context.Context, ev Event) {
	detail := string(ev.ErrorTag)
	if ev.Err != nil {
		detail = ev.Err.Error()
	}
	err := o.repo.AppendTriageEvent(context.WithoutCancel(ctx), store.TriageEventData{
		SessionID: ev.SessionID,
		Kind:      string(ev.Kind),
		Phase:     string(ev.Phase),
		Turn:      ev.Turn,
		Detail:    detail,
	})
	if err != nil {
		o.logger.Warn("failed to record triage event", "session", ev.SessionID, "error", err)
	}
}
