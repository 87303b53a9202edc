package id

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsSortable(t *testing.T) {
	now := time.Now()
	a := New(now)
	b := New(now)
	c := New(now.Add(time.Second))

	assert.Len(t, a, 26)
	assert.Less(t, a, b, "same millisecond stays monotonic")
	assert.Less(t, b, c)
}

func TestNewEncodesTime(t *testing.T) {
	ts := time.Date(2024, time.March, 8, 21, 0, 0, 123_000_000, time.UTC)
	got, err := ulid.ParseStrict(New(ts))
	require.NoError(t, err)
	assert.True(t, ts.Equal(ulid.Time(got.Time())))
}
