package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit     int    // max results (0 = unlimited)
	After     int64  // sequence > After
	Before    int64  // sequence < Before
	Purpose   string // LLM events only
	SessionID string
}

// SessionRecord is a persisted session blob.
type SessionRecord struct {
	ID        string
	Data      []byte
	Phase     string
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time // zero means never; set by Put from its ttl
}

// SessionRepo stores opaque session state keyed by id.
type SessionRepo interface {
	// Get returns the live record for id, or ErrNotFound if it is missing
	// or expired.
	Get(ctx context.Context, id string) (*SessionRecord, error)

	// Put inserts or replaces the record and sets it to expire ttl from
	// now by the store's clock. A zero ttl never expires. CreatedAt is
	// kept from the first write.
	Put(ctx context.Context, rec SessionRecord, ttl time.Duration) error

	// Delete removes the record. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// PurgeExpired deletes every expired record and returns how many went.
	PurgeExpired(ctx context.Context) (int64, error)

	// List returns live records, most recently updated first.
	List(ctx context.Context, limit int) ([]SessionRecord, error)
}

// LLMRequestEventData captures the data for a single model call.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	SessionID    string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a recorded model call.
type LLMRequestEvent struct {
	ID        int64
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// TriageEventData captures one session engine outcome.
type TriageEventData struct {
	SessionID string
	Kind      string
	Phase     string
	Turn      int
	Detail    string
}

// TriageEvent is a recorded engine outcome.
type TriageEvent struct {
	ID        int64
	Sequence  int64
	Timestamp time.Time
	TriageEventData
}

// UsageStats aggregates model calls under one key (purpose or model).
type UsageStats struct {
	Key          string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo provides append and query access to recorded events.
type EventRepo interface {
	// AppendLLMRequest records a model API call.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// AppendTriageEvent records a session engine outcome.
	AppendTriageEvent(ctx context.Context, data TriageEventData) error

	// QueryLLMEvents returns model calls, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns one model call or ErrNotFound.
	GetLLMEvent(ctx context.Context, id int64) (*LLMRequestEvent, error)

	// QueryTriageEvents returns engine outcomes, oldest first.
	QueryTriageEvents(ctx context.Context, opts QueryOpts) ([]TriageEvent, error)

	// LLMUsageByPurpose aggregates model calls per purpose label.
	LLMUsageByPurpose(ctx context.Context) ([]UsageStats, error)

	// LLMUsageByModel aggregates model calls per model ID.
	LLMUsageByModel(ctx context.Context) ([]UsageStats, error)
}
