// Package cache memoizes Price Tables by lookback days and registry
// fingerprint.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rustyeddy/stockchart/market"
)

// Key addresses one Price Table.
type Key struct {
	Days        int
	Fingerprint string
}

func (k Key) String() string {
	return fmt.Sprintf("stockchart:table:%s:%d", k.Fingerprint, k.Days)
}

// Store is a Price Table cache. A TTL of zero keeps entries until the store
// is dropped.
type Store interface {
	Get(ctx context.Context, k Key) (*market.PriceTable, bool, error)
	Set(ctx context.Context, k Key, t *market.PriceTable) error
	Delete(ctx context.Context, k Key) error
}

type entry struct {
	table   *market.PriceTable
	expires time.Time
}

// Memory is a process-local Store.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[Key]entry
}

// NewMemory creates a Memory store with the given TTL.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[Key]entry),
	}
}

func (m *Memory) Get(_ context.Context, k Key) (*market.PriceTable, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[k]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, k)
		return nil, false, nil
	}
	return e.table, true, nil
}

func (m *Memory) Set(_ context.Context, k Key, t *market.PriceTable) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := entry{table: t}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.entries[k] = e
	return nil
}

func (m *Memory) Delete(_ context.Context, k Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, k)
	return nil
}

// size returns the number of entries, expired ones included.
func (m *Memory) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
