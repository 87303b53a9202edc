// Package provider defines the market-data source the loader fetches daily
// close history from.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rustyeddy/stockchart/market"
)

var (
	// ErrNoData means the provider answered but had no closes for the symbol.
	ErrNoData = errors.New("no data")
	// ErrUnknownSymbol means the provider does not know the symbol.
	ErrUnknownSymbol = errors.New("unknown symbol")
)

// Provider returns daily closes for a symbol.
type Provider interface {
	// Name identifies the provider in logs and the fetch journal.
	Name() string
	// History returns the closes dated on or after WindowStart(now, days),
	// oldest first.
	History(ctx context.Context, symbol string, days int) ([]market.Close, error)
}

// WindowStart returns the first calendar date of the days-long window that
// ends on now's date. A window of 1 day covers today only.
func WindowStart(now time.Time, days int) time.Time {
	return market.Day(now.AddDate(0, 0, -(days - 1)))
}

// Error describes a failed provider call.
type Error struct {
	Provider  string
	Symbol    string
	Status    int // HTTP status, 0 if the request never got a response
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: http %d: %v", e.Provider, e.Symbol, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Symbol, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// RetryableStatus reports whether an HTTP status is worth retrying.
func RetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// IsRetryable reports whether err carries a retryable provider failure.
func IsRetryable(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}
