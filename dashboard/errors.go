package dashboard

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/stockchart/loader"
	"github.com/rustyeddy/stockchart/market"
	"github.com/rustyeddy/stockchart/provider"
)

// Kind classifies a dashboard failure.
type Kind int

const (
	// KindInternal is any failure not caused by input or the provider.
	KindInternal Kind = iota
	// KindInput is a bad control value; shown inline, the page stays usable.
	KindInput
	// KindProvider is a market-data or network failure.
	KindProvider
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindProvider:
		return "provider"
	default:
		return "internal"
	}
}

// ErrEmptySelection is the message shown when no company is selected.
var ErrEmptySelection = errors.New("select at least one company")

// Error is the typed result of a failed load or render.
type Error struct {
	Kind      Kind
	Retryable bool
	Err       error
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

func inputError(format string, args ...any) *Error {
	return &Error{Kind: KindInput, Err: fmt.Errorf(format, args...)}
}

// Classify wraps err in an *Error with the kind inferred from its chain.
// A nil err stays nil.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return de
	}

	var pe *provider.Error
	switch {
	case errors.As(err, &pe):
		return &Error{Kind: KindProvider, Retryable: pe.Retryable, Err: err}
	case errors.Is(err, loader.ErrInvalidDays), errors.Is(err, market.ErrUnknownCompany):
		return &Error{Kind: KindInput, Err: err}
	default:
		return &Error{Kind: KindInternal, Err: err}
	}
}

// Message formats err for display on the page.
func Message(err error) string {
	e := Classify(err)
	if e == nil {
		return ""
	}
	if e.Kind == KindInput {
		return e.Error()
	}
	return fmt.Sprintf("An error occurred!\n\nDetails: %v", e.Err)
}
