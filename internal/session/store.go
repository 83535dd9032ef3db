package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/abhisek/hooptriage/internal/store"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// Store keeps sessions between turns.
type Store interface {
	// Get returns the session or ErrSessionNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Put saves s. It expires ttl after the write; ttl <= 0 keeps it
	// until deleted.
	Put(ctx context.Context, s *Session, ttl time.Duration) error

	// Delete removes the session. Unknown ids are not an error.
	Delete(ctx context.Context, id string) error

	// Sweep drops expired sessions and reports how many went.
	Sweep(ctx context.Context) (int, error)
}

type memoryEntry struct {
	sess    *Session
	expires time.Time // zero means never
}

// MemoryStore is a process-local Store. Expired sessions are hidden on
// read and removed by Sweep.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

// SetClock replaces the time source. For tests.
func (m *MemoryStore) SetClock(now func() time.Time) { m.now = now }

func (m *MemoryStore) expired(e memoryEntry) bool {
	return !e.expires.IsZero() && !m.now().Before(e.expires)
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if m.expired(e) {
		delete(m.entries, id)
		return nil, ErrSessionNotFound
	}
	return e.sess.Clone(), nil
}

func (m *MemoryStore) Put(_ context.Context, s *Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memoryEntry{sess: s.Clone()}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.entries[s.ID] = e
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

func (m *MemoryStore) Sweep(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// SQLStore keeps sessions as JSON in the database. Expiry follows the
// database store's clock.
type SQLStore struct {
	repo store.SessionRepo
}

// NewSQLStore wraps a session repository.
func NewSQLStore(repo store.SessionRepo) *SQLStore {
	return &SQLStore{repo: repo}
}

func (s *SQLStore) Get(ctx context.Context, id string) (*Session, error) {
	rec, err := s.repo.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(rec.Data, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *SQLStore) Put(ctx context.Context, sess *Session, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}
	rec := store.SessionRecord{
		ID:        sess.ID,
		Data:      data,
		Phase:     string(sess.Phase),
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
	}
	return s.repo.Put(ctx, rec, ttl)
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *SQLStore) Sweep(ctx context.Context) (int, error) {
	n, err := s.repo.PurgeExpired(ctx)
	return int(n), err
}
