// Package journal records every provider fetch the loader makes.
package journal

import (
	"context"
	"time"
)

// Fetch is one provider call for one symbol.
type Fetch struct {
	ID       string
	Provider string
	Name     string
	Symbol   string
	Days     int
	Points   int
	Started  time.Time
	Duration time.Duration
	Err      string // empty on success
}

// OK reports whether the fetch succeeded.
func (f Fetch) OK() bool { return f.Err == "" }

type Journal interface {
	RecordFetch(ctx context.Context, f Fetch) error
	Close() error
}
