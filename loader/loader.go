// Package loader assembles Price Tables from a provider and memoizes them.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rustyeddy/stockchart/cache"
	"github.com/rustyeddy/stockchart/journal"
	"github.com/rustyeddy/stockchart/market"
	"github.com/rustyeddy/stockchart/provider"
)

// ErrInvalidDays is returned for a non-positive lookback.
var ErrInvalidDays = errors.New("days must be positive")

// Loader fetches the registry's close history and pivots it into a
// PriceTable. Tables are cached under (days, registry fingerprint).
type Loader struct {
	registry    market.Registry
	fingerprint string
	provider    provider.Provider
	store       cache.Store
	journal     journal.Journal
	logger      *slog.Logger
	now         func() time.Time

	group singleflight.Group
}

// Option configures a Loader.
type Option func(*Loader)

// WithCache replaces the default never-expiring memory cache.
func WithCache(s cache.Store) Option {
	return func(l *Loader) {
		l.store = s
	}
}

// WithJournal records every provider call.
func WithJournal(j journal.Journal) Option {
	return func(l *Loader) {
		l.journal = j
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithClock replaces time.Now for journal timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) {
		l.now = now
	}
}

// New creates a Loader for reg backed by p.
func New(reg market.Registry, p provider.Provider, opts ...Option) *Loader {
	l := &Loader{
		registry:    reg,
		fingerprint: reg.Fingerprint(),
		provider:    p,
		store:       cache.NewMemory(0),
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Registry returns the tickers the loader fetches.
func (l *Loader) Registry() market.Registry { return l.registry }

// Fetch returns the PriceTable for the trailing days calendar days. Rows
// follow registry order. Provider failures are returned unchanged apart from
// naming the company; a symbol without data in the window keeps an empty row.
func (l *Loader) Fetch(ctx context.Context, days int) (*market.PriceTable, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDays, days)
	}

	key := cache.Key{Days: days, Fingerprint: l.fingerprint}
	if t, ok := l.cached(ctx, key); ok {
		return t, nil
	}

	v, err, shared := l.group.Do(key.String(), func() (interface{}, error) {
		if t, ok := l.cached(ctx, key); ok {
			return t, nil
		}
		t, err := l.fetch(ctx, days)
		if err != nil {
			return nil, err
		}
		if err := l.store.Set(ctx, key, t); err != nil {
			l.logger.Warn("cache set failed", "key", key.String(), "err", err)
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		l.logger.Debug("shared in-flight fetch", "days", days)
	}
	return v.(*market.PriceTable), nil
}

func (l *Loader) cached(ctx context.Context, key cache.Key) (*market.PriceTable, bool) {
	t, ok, err := l.store.Get(ctx, key)
	if err != nil {
		l.logger.Warn("cache get failed", "key", key.String(), "err", err)
		return nil, false
	}
	if ok {
		l.logger.Debug("cache hit", "days", key.Days)
	}
	return t, ok
}

func (l *Loader) fetch(ctx context.Context, days int) (*market.PriceTable, error) {
	series := make([]market.Series, 0, len(l.registry))
	for _, tk := range l.registry {
		closes, err := l.history(ctx, tk, days)
		if errors.Is(err, provider.ErrNoData) {
			l.logger.Warn("no closes in window", "name", tk.Name, "symbol", tk.Symbol, "days", days)
			closes, err = nil, nil
		}
		if err != nil {
			l.logger.Warn("fetch failed",
				"name", tk.Name,
				"symbol", tk.Symbol,
				"retryable", provider.IsRetryable(err),
				"err", err,
			)
			return nil, fmt.Errorf("fetch %s (%s): %w", tk.Name, tk.Symbol, err)
		}
		series = append(series, market.Series{Name: tk.Name, Closes: closes})
	}

	t := market.NewPriceTable(series)
	l.logger.Info("price table loaded",
		"provider", l.provider.Name(),
		"days", days,
		"rows", len(t.Rows),
		"dates", len(t.Dates),
	)
	return t, nil
}

func (l *Loader) history(ctx context.Context, tk market.Ticker, days int) ([]market.Close, error) {
	started := l.now()
	closes, err := l.provider.History(ctx, tk.Symbol, days)

	if l.journal != nil {
		f := journal.Fetch{
			Provider: l.provider.Name(),
			Name:     tk.Name,
			Symbol:   tk.Symbol,
			Days:     days,
			Points:   len(closes),
			Started:  started,
			Duration: l.now().Sub(started),
		}
		if err != nil {
			f.Err = err.Error()
		}
		if jerr := l.journal.RecordFetch(ctx, f); jerr != nil {
			l.logger.Warn("journal write failed", "symbol", tk.Symbol, "err", jerr)
		}
	}
	return closes, err
}
