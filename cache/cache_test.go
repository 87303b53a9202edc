package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/stockchart/market"
)

func testTable() *market.PriceTable {
	d := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	return market.NewPriceTable([]market.Series{
		{Name: "apple", Closes: []market.Close{{Time: d, Price: 175.10}}},
		{Name: "google", Closes: []market.Close{{Time: d.AddDate(0, 0, 1), Price: 132.67}}},
	})
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "stockchart:table:abc:25", Key{Days: 25, Fingerprint: "abc"}.String())
}

func TestMemory_NeverExpires(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)
	now := time.Now()
	m.now = func() time.Time { return now }

	k := Key{Days: 25, Fingerprint: "f"}
	_, ok, err := m.Get(ctx, k)
	require.NoError(t, err)
	assert.False(t, ok)

	tbl := testTable()
	require.NoError(t, m.Set(ctx, k, tbl))

	now = now.Add(24 * 365 * time.Hour)
	got, ok, err := m.Get(ctx, k)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, tbl, got)

	_, ok, _ = m.Get(ctx, Key{Days: 24, Fingerprint: "f"})
	assert.False(t, ok, "days is part of the key")
	_, ok, _ = m.Get(ctx, Key{Days: 25, Fingerprint: "g"})
	assert.False(t, ok, "fingerprint is part of the key")
}

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)
	now := time.Date(2024, time.March, 8, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	k := Key{Days: 5, Fingerprint: "f"}
	require.NoError(t, m.Set(ctx, k, testTable()))

	now = now.Add(59 * time.Second)
	_, ok, _ := m.Get(ctx, k)
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok, _ = m.Get(ctx, k)
	assert.False(t, ok)
	assert.Equal(t, 0, m.size(), "expired entry is evicted on read")
}

func TestMemory_Delete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)
	k := Key{Days: 5, Fingerprint: "f"}
	require.NoError(t, m.Set(ctx, k, testTable()))
	require.NoError(t, m.Delete(ctx, k))
	_, ok, _ := m.Get(ctx, k)
	assert.False(t, ok)
}

// TestRedis runs against a live server when STOCKCHART_REDIS_ADDR is set.
func TestRedis(t *testing.T) {
	addr := os.Getenv("STOCKCHART_REDIS_ADDR")
	if addr == "" {
		t.Skip("STOCKCHART_REDIS_ADDR not set")
	}
	ctx := context.Background()

	rdb, err := NewRedisClient(ctx, RedisConfig{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	r := NewRedis(rdb, time.Minute)
	k := Key{Days: 7, Fingerprint: "test-" + time.Now().Format("150405.000")}
	t.Cleanup(func() { _ = r.Delete(ctx, k) })

	_, ok, err := r.Get(ctx, k)
	require.NoError(t, err)
	assert.False(t, ok)

	tbl := testTable()
	require.NoError(t, r.Set(ctx, k, tbl))

	got, ok, err := r.Get(ctx, k)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, tbl.Names(), got.Names())
	assert.Equal(t, tbl.DateLabels(), got.DateLabels())
	assert.False(t, got.Rows[0].Cells[1].Valid)
}
