package journal

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/stockchart/id"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// RecordFetch stores f, assigning an ID when it has none.
func (j *SQLite) RecordFetch(ctx context.Context, f Fetch) error {
	if f.ID == "" {
		f.ID = id.New(f.Started)
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO fetches
		(fetch_id, provider, name, symbol, days, points, started, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Provider, f.Name, f.Symbol, f.Days, f.Points,
		f.Started.UTC(), f.Duration.Milliseconds(), f.Err,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
