package provider

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	e := &Error{Provider: "yahoo", Symbol: "FB", Status: 404, Err: ErrUnknownSymbol}
	assert.Equal(t, "yahoo FB: http 404: unknown symbol", e.Error())
	assert.ErrorIs(t, e, ErrUnknownSymbol)

	e = &Error{Provider: "csv", Symbol: "AAPL", Err: ErrNoData}
	assert.Equal(t, "csv AAPL: no data", e.Error())
}

func TestIsRetryable(t *testing.T) {
	wrapped := fmt.Errorf("fetch apple: %w", &Error{Retryable: true, Err: errors.New("timeout")})
	assert.True(t, IsRetryable(wrapped))
	assert.False(t, IsRetryable(&Error{Err: ErrUnknownSymbol}))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestRetryableStatus(t *testing.T) {
	assert.True(t, RetryableStatus(429))
	assert.True(t, RetryableStatus(503))
	assert.False(t, RetryableStatus(404))
	assert.False(t, RetryableStatus(400))
}

func TestWindowStart(t *testing.T) {
	now := time.Date(2024, time.March, 8, 21, 0, 0, 0, time.UTC)
	tests := []struct {
		days int
		want time.Time
	}{
		{1, time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC)},
		{5, time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)},
		{25, time.Date(2024, time.February, 13, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.days), func(t *testing.T) {
			assert.Equal(t, tt.want, WindowStart(now, tt.days))
		})
	}

	ny, err := time.LoadLocation("America/New_York")
	if err == nil {
		// 01:00 UTC on the 9th is still the 8th in New York.
		late := time.Date(2024, time.March, 9, 1, 0, 0, 0, time.UTC).In(ny)
		assert.Equal(t, time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC), WindowStart(late, 1))
	}
}
