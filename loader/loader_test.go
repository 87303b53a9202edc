package loader

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/stockchart/cache"
	"github.com/rustyeddy/stockchart/journal"
	"github.com/rustyeddy/stockchart/market"
	"github.com/rustyeddy/stockchart/provider"
)

var now = time.Date(2024, time.March, 8, 21, 0, 0, 0, time.UTC)

// fakeProvider returns one close per weekday in the window.
type fakeProvider struct {
	mu    sync.Mutex
	calls map[string]int
	errs  map[string]error
	delay time.Duration
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{calls: map[string]int{}, errs: map[string]error{}}
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) History(ctx context.Context, symbol string, days int) ([]market.Close, error) {
	p.mu.Lock()
	p.calls[symbol]++
	err := p.errs[symbol]
	p.mu.Unlock()

	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if err != nil {
		return nil, err
	}

	var out []market.Close
	for d := now.AddDate(0, 0, -days+1); !d.After(now); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		out = append(out, market.Close{Time: d, Price: float64(100 + d.Day())})
	}
	if len(out) == 0 {
		return nil, provider.ErrNoData
	}
	return out, nil
}

func (p *fakeProvider) total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		n += c
	}
	return n
}

type memJournal struct {
	mu      sync.Mutex
	fetches []journal.Fetch
}

func (j *memJournal) RecordFetch(_ context.Context, f journal.Fetch) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fetches = append(j.fetches, f)
	return nil
}

func (j *memJournal) Close() error { return nil }

func TestFetch_RowsFollowRegistry(t *testing.T) {
	p := newFakeProvider()
	l := New(market.DefaultTickers, p, WithClock(func() time.Time { return now }))

	for days := 1; days <= 50; days++ {
		tbl, err := l.Fetch(context.Background(), days)
		require.NoError(t, err, "days=%d", days)
		assert.Equal(t, market.DefaultTickers.Names(), tbl.Names(), "days=%d", days)
		assert.LessOrEqual(t, len(tbl.Dates), days)
	}
}

func TestFetch_Memoized(t *testing.T) {
	p := newFakeProvider()
	l := New(market.DefaultTickers, p)
	ctx := context.Background()

	first, err := l.Fetch(ctx, 25)
	require.NoError(t, err)
	assert.Equal(t, len(market.DefaultTickers), p.total())

	second, err := l.Fetch(ctx, 25)
	require.NoError(t, err)
	assert.Equal(t, len(market.DefaultTickers), p.total(), "no second provider round")
	assert.Equal(t, first.Names(), second.Names())
	assert.Equal(t, first.DateLabels(), second.DateLabels())

	_, err = l.Fetch(ctx, 24)
	require.NoError(t, err)
	assert.Equal(t, 2*len(market.DefaultTickers), p.total(), "days is part of the key")
}

func TestFetch_TTLExpiry(t *testing.T) {
	p := newFakeProvider()
	store := cache.NewMemory(time.Nanosecond)
	l := New(market.DefaultTickers, p, WithCache(store))
	ctx := context.Background()

	_, err := l.Fetch(ctx, 10)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = l.Fetch(ctx, 10)
	require.NoError(t, err)

	assert.Equal(t, 2*len(market.DefaultTickers), p.total())
}

func TestFetch_ConcurrentCallsShareOneRound(t *testing.T) {
	p := newFakeProvider()
	p.delay = 10 * time.Millisecond
	l := New(market.DefaultTickers, p)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Fetch(context.Background(), 25)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, len(market.DefaultTickers), p.total())
}

func TestFetch_InvalidDays(t *testing.T) {
	l := New(market.DefaultTickers, newFakeProvider())
	_, err := l.Fetch(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidDays)
}

func TestFetch_ProviderErrorPropagates(t *testing.T) {
	p := newFakeProvider()
	p.errs["META"] = &provider.Error{Provider: "fake", Symbol: "META", Err: provider.ErrUnknownSymbol}
	l := New(market.DefaultTickers, p)

	_, err := l.Fetch(context.Background(), 25)
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrUnknownSymbol)
	assert.Contains(t, err.Error(), "facebook (META)")

	var pe *provider.Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "META", pe.Symbol)

	// Failures are not cached.
	delete(p.errs, "META")
	_, err = l.Fetch(context.Background(), 25)
	assert.NoError(t, err)
}

func TestFetch_NoDataKeepsRow(t *testing.T) {
	p := newFakeProvider()
	p.errs["NFLX"] = &provider.Error{Provider: "fake", Symbol: "NFLX", Err: provider.ErrNoData}
	l := New(market.DefaultTickers, p)

	tbl, err := l.Fetch(context.Background(), 25)
	require.NoError(t, err)
	assert.Equal(t, market.DefaultTickers.Names(), tbl.Names())

	row, ok := tbl.Row("netfilix")
	require.True(t, ok)
	for _, c := range row.Cells {
		assert.False(t, c.Valid)
	}
}

func TestFetch_Journal(t *testing.T) {
	p := newFakeProvider()
	p.errs["AMZN"] = errors.New("connection reset")
	j := &memJournal{}
	l := New(market.DefaultTickers, p, WithJournal(j), WithClock(func() time.Time { return now }))

	_, err := l.Fetch(context.Background(), 5)
	require.Error(t, err)

	require.Len(t, j.fetches, len(market.DefaultTickers))
	first := j.fetches[0]
	assert.Equal(t, "fake", first.Provider)
	assert.Equal(t, "apple", first.Name)
	assert.Equal(t, "AAPL", first.Symbol)
	assert.Equal(t, 5, first.Days)
	assert.True(t, first.OK())
	assert.Positive(t, first.Points)

	last := j.fetches[len(j.fetches)-1]
	assert.Equal(t, "AMZN", last.Symbol)
	assert.Equal(t, "connection reset", last.Err)
}
