package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var sessionColumns = []string{"id", "data", "phase", "created_at", "updated_at", "expires_at"}

type sessionRepo struct {
	s *Store
}

// live matches rows that have no expiry or expire after now.
func (r *sessionRepo) live() *entsql.Predicate {
	now := toMillis(r.s.now())
	return entsql.Or(
		entsql.EQ("expires_at", 0),
		entsql.GT("expires_at", now),
	)
}

func (r *sessionRepo) Get(ctx context.Context, id string) (*SessionRecord, error) {
	b := r.s.builder()
	q := b.Select(sessionColumns...).
		From(b.Table("sessions")).
		Where(entsql.And(entsql.EQ("id", id), r.live()))

	query, args := q.Query()
	rec, err := scanSession(r.s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return rec, nil
}

func (r *sessionRepo) Put(ctx context.Context, rec SessionRecord, ttl time.Duration) error {
	now := r.s.now()
	var expires int64
	if ttl > 0 {
		expires = toMillis(now.Add(ttl))
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = now
	}
	updated := rec.UpdatedAt
	if updated.IsZero() {
		updated = now
	}

	q := r.s.builder().
		Insert("sessions").
		Columns(sessionColumns...).
		Values(rec.ID, string(rec.Data), rec.Phase, toMillis(created), toMillis(updated), expires).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("data")
				u.SetExcluded("phase")
				u.SetExcluded("updated_at")
				u.SetExcluded("expires_at")
			}),
		)
	if _, err := r.s.exec(ctx, q); err != nil {
		return fmt.Errorf("put session %s: %w", rec.ID, err)
	}
	return nil
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	q := r.s.builder().Delete("sessions").Where(entsql.EQ("id", id))
	if _, err := r.s.exec(ctx, q); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func (r *sessionRepo) PurgeExpired(ctx context.Context) (int64, error) {
	q := r.s.builder().Delete("sessions").Where(entsql.And(
		entsql.GT("expires_at", 0),
		entsql.LTE("expires_at", toMillis(r.s.now())),
	))
	res, err := r.s.exec(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return n, nil
}

func (r *sessionRepo) List(ctx context.Context, limit int) ([]SessionRecord, error) {
	b := r.s.builder()
	q := b.Select(sessionColumns...).
		From(b.Table("sessions")).
		Where(r.live()).
		OrderBy(entsql.Desc("updated_at"))
	if limit > 0 {
		q.Limit(limit)
	}

	rows, err := r.s.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*SessionRecord, error) {
	var (
		rec                         SessionRecord
		data                        string
		created, updated, expiresAt int64
	)
	if err := row.Scan(&rec.ID, &data, &rec.Phase, &created, &updated, &expiresAt); err != nil {
		return nil, err
	}
	rec.Data = []byte(data)
	rec.CreatedAt = fromMillis(created)
	rec.UpdatedAt = fromMillis(updated)
	rec.ExpiresAt = fromMillis(expiresAt)
	return &rec, nil
}
