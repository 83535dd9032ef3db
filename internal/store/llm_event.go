package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

var llmEventColumns = []string{
	"id", "sequence", "created_at", "provider", "model", "purpose", "session_id",
	"input_tokens", "output_tokens", "latency_ms", "success", "error_message",
	"request_body", "response_body",
}

// eventRepo implements EventRepo backed by the SQL builder and the shared
// sequence counter.
type eventRepo struct {
	s *Store
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := r.s.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	q := r.s.builder().
		Insert("llm_requests").
		Columns(llmEventColumns[1:]...).
		Values(
			seqNum, toMillis(r.s.now()), data.Provider, data.Model, data.Purpose, data.SessionID,
			data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success, data.ErrorMessage,
			data.RequestBody, data.ResponseBody,
		)
	if _, err := r.s.exec(ctx, q); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error) {
	b := r.s.builder()
	q := b.Select(llmEventColumns...).
		From(b.Table("llm_requests")).
		OrderBy(entsql.Desc("sequence"))
	if p := opts.predicate(); p != nil {
		q.Where(p)
	}
	if opts.Purpose != "" {
		q.Where(entsql.EQ("purpose", opts.Purpose))
	}
	if opts.Limit > 0 {
		q.Limit(opts.Limit)
	}

	rows, err := r.s.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var out []LLMRequestEvent
	for rows.Next() {
		e, err := scanLLMEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan LLM event: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int64) (*LLMRequestEvent, error) {
	b := r.s.builder()
	query, args := b.Select(llmEventColumns...).
		From(b.Table("llm_requests")).
		Where(entsql.EQ("id", id)).
		Query()

	e, err := scanLLMEvent(r.s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get LLM event %d: %w", id, err)
	}
	return e, nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]UsageStats, error) {
	return r.usageBy(ctx, "purpose")
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]UsageStats, error) {
	return r.usageBy(ctx, "model")
}

func (r *eventRepo) usageBy(ctx context.Context, column string) ([]UsageStats, error) {
	b := r.s.builder()
	q := b.Select(
		column,
		entsql.As(entsql.Count("*"), "calls"),
		entsql.As(entsql.Sum("input_tokens"), "input_tokens"),
		entsql.As(entsql.Sum("output_tokens"), "output_tokens"),
		entsql.As(entsql.Avg("latency_ms"), "avg_latency"),
	).
		From(b.Table("llm_requests")).
		GroupBy(column).
		OrderBy(column)

	rows, err := r.s.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("usage by %s: %w", column, err)
	}
	defer rows.Close()

	var out []UsageStats
	for rows.Next() {
		var (
			st  UsageStats
			in  int64
			o   int64
			avg float64
		)
		if err := rows.Scan(&st.Key, &st.Calls, &in, &o, &avg); err != nil {
			return nil, fmt.Errorf("usage by %s: %w", column, err)
		}
		st.InputTokens = int(in)
		st.OutputTokens = int(o)
		st.AvgLatencyMs = int64(avg)
		out = append(out, st)
	}
	return out, rows.Err()
}

// predicate builds the sequence and session filters shared by event queries.
func (o QueryOpts) predicate() *entsql.Predicate {
	var preds []*entsql.Predicate
	if o.After > 0 {
		preds = append(preds, entsql.GT("sequence", o.After))
	}
	if o.Before > 0 {
		preds = append(preds, entsql.LT("sequence", o.Before))
	}
	if o.SessionID != "" {
		preds = append(preds, entsql.EQ("session_id", o.SessionID))
	}
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	}
	return entsql.And(preds...)
}

func scanLLMEvent(row rowScanner) (*LLMRequestEvent, error) {
	var (
		e  LLMRequestEvent
		ts int64
	)
	err := row.Scan(
		&e.ID, &e.Sequence, &ts, &e.Provider, &e.Model, &e.Purpose, &e.SessionID,
		&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success, &e.ErrorMessage,
		&e.RequestBody, &e.ResponseBody,
	)
	if err != nil {
		return nil, err
	}
	e.Timestamp = fromMillis(ts)
	return &e, nil
}
