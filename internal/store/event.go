package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	entsql "entgo.io/ent/dialect/sql"
)

// sequenceCounter hands out one increasing number shared by every event
// table, so LLM calls and triage events can be interleaved in order.
//
// The increment is raw SQL: the builder has no UPDATE ... RETURNING. The
// mutex serializes within the process; RETURNING makes the increment
// atomic at the database level.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

// newSequenceCounter creates a counter and ensures the tracking table exists.
func newSequenceCounter(db *sql.DB, dialect string) (*sequenceCounter, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS event_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val BIGINT NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	query, args := entsql.Dialect(dialect).
		Insert("event_sequence").
		Columns("id", "next_val").
		Values(1, 1).
		OnConflict(entsql.DoNothing()).
		Query()
	if _, err := db.Exec(query, args...); err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{db: db}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := sc.db.QueryRowContext(ctx,
		`UPDATE event_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}
