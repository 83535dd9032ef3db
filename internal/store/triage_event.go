package store

import (
	"context"
	"fmt"
)

var triageEventColumns = []string{"id", "sequence", "created_at", "session_id", "kind", "phase", "turn", "detail"}

func (r *eventRepo) AppendTriageEvent(ctx context.Context, data TriageEventData) error {
	seqNum, err := r.s.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	q := r.s.builder().
		Insert("triage_events").
		Columns(triageEventColumns[1:]...).
		Values(seqNum, toMillis(r.s.now()), data.SessionID, data.Kind, data.Phase, data.Turn, data.Detail)
	if _, err := r.s.exec(ctx, q); err != nil {
		return fmt.Errorf("save triage event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryTriageEvents(ctx context.Context, opts QueryOpts) ([]TriageEvent, error) {
	b := r.s.builder()
	q := b.Select(triageEventColumns...).
		From(b.Table("triage_events")).
		OrderBy("sequence")
	if p := opts.predicate(); p != nil {
		q.Where(p)
	}
	if opts.Limit > 0 {
		q.Limit(opts.Limit)
	}

	rows, err := r.s.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query triage events: %w", err)
	}
	defer rows.Close()

	var out []TriageEvent
	for rows.Next() {
		var (
			e  TriageEvent
			ts int64
		)
		if err := rows.Scan(&e.ID, &e.Sequence, &ts, &e.SessionID, &e.Kind, &e.Phase, &e.Turn, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan triage event: %w", err)
		}
		e.Timestamp = fromMillis(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

var _ EventRepo = (*eventRepo)(nil)
