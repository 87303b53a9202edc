package dashboard

import (
	"context"
	"fmt"

	"github.com/rustyeddy/stockchart/market"
)

// Source supplies Price Tables; *loader.Loader implements it.
type Source interface {
	Registry() market.Registry
	Fetch(ctx context.Context, days int) (*market.PriceTable, error)
}

// ErrorView is an error as the page shows it.
type ErrorView struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// Page is one full render pass: controls plus either a view or an error.
type Page struct {
	Controls Controls   `json:"controls"`
	View     *View      `json:"view,omitempty"`
	Error    *ErrorView `json:"error,omitempty"`
}

// Failed reports whether the pass ended in an error.
func (p Page) Failed() bool { return p.Error != nil }

// Build runs one pass for sel. It never fails: load errors, render errors and
// panics all end up in Page.Error, so the next input change starts clean.
func Build(ctx context.Context, src Source, sel Selection) (page Page) {
	defer func() {
		if r := recover(); r != nil {
			page.View = nil
			page.Error = NewErrorView(&Error{Kind: KindInternal, Err: fmt.Errorf("panic: %v", r)})
		}
	}()

	page.Controls = NewControls(src.Registry().Names())

	if sel.Days < MinDays || sel.Days > MaxDays {
		page.Error = NewErrorView(sel.Validate())
		return page
	}

	t, err := src.Fetch(ctx, sel.Days)
	if err != nil {
		page.Error = NewErrorView(err)
		return page
	}
	page.Controls = NewControls(t.Names())

	v, err := Render(t, sel)
	if err != nil {
		page.Error = NewErrorView(err)
		return page
	}
	page.View = v
	return page
}

// NewErrorView classifies err for display.
func NewErrorView(err error) *ErrorView {
	e := Classify(err)
	return &ErrorView{
		Kind:      e.Kind.String(),
		Message:   Message(e),
		Retryable: e.Retryable,
	}
}
