package journal

import (
	"context"
	"time"
)

// Recent returns up to limit fetches, newest first.
func (j *SQLite) Recent(ctx context.Context, limit int) ([]Fetch, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT fetch_id, provider, name, symbol, days, points, started, duration_ms, error
		FROM fetches
		ORDER BY fetch_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Fetch
	for rows.Next() {
		var (
			f  Fetch
			ms int64
		)
		if err := rows.Scan(
			&f.ID,
			&f.Provider,
			&f.Name,
			&f.Symbol,
			&f.Days,
			&f.Points,
			&f.Started,
			&ms,
			&f.Err,
		); err != nil {
			return nil, err
		}
		f.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, f)
	}
	return out, rows.Err()
}

// FailuresSince counts failed fetches started at or after t.
func (j *SQLite) FailuresSince(ctx context.Context, t time.Time) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM fetches WHERE error <> '' AND started >= ?`, t.UTC()).Scan(&n)
	return n, err
}
