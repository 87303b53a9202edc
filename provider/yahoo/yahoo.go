// Package yahoo serves daily closes from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"log/slog"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"

	"github.com/rustyeddy/stockchart/market"
	"github.com/rustyeddy/stockchart/provider"
)

const name = "yahoo"

// bars is the part of *chart.Iter the provider consumes.
type bars interface {
	Next() bool
	Bar() *finance.ChartBar
	Err() error
}

// Provider fetches daily bars through finance-go.
type Provider struct {
	logger *slog.Logger
	now    func() time.Time
	loc    *time.Location
	get    func(*chart.Params) bars
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = l
	}
}

// WithClock replaces time.Now when computing the lookback window.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

// New creates a Yahoo provider. Bar timestamps are read in US/Eastern, the
// exchange calendar of the default registry.
func New(opts ...Option) *Provider {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	p := &Provider{
		logger: slog.Default(),
		now:    time.Now,
		loc:    loc,
		get: func(params *chart.Params) bars {
			return chart.Get(params)
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string { return name }

// History returns the daily closes of the trailing days calendar days.
func (p *Provider) History(ctx context.Context, symbol string, days int) ([]market.Close, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	end := p.now().In(p.loc)
	start := provider.WindowStart(end, days)
	// End is exclusive on Yahoo's side; include today's session.
	end = end.AddDate(0, 0, 1)

	params := &chart.Params{
		Symbol:   symbol,
		Interval: datetime.OneDay,
		Start:    &datetime.Datetime{Year: start.Year(), Month: int(start.Month()), Day: start.Day()},
		End:      &datetime.Datetime{Year: end.Year(), Month: int(end.Month()), Day: end.Day()},
	}

	p.logger.Debug("yahoo chart request", "symbol", symbol, "days", days)

	iter := p.get(params)
	var closes []market.Close
	for iter.Next() {
		bar := iter.Bar()
		// Yahoo leaves the close null on halted sessions.
		if bar.Close.IsZero() {
			continue
		}
		ts := time.Unix(int64(bar.Timestamp), 0).In(p.loc)
		if market.Day(ts).Before(start) {
			continue
		}
		c, _ := bar.Close.Float64()
		closes = append(closes, market.Close{Time: ts, Price: c})
	}
	if err := iter.Err(); err != nil {
		return nil, &provider.Error{Provider: name, Symbol: symbol, Err: err}
	}
	if len(closes) == 0 {
		return nil, &provider.Error{Provider: name, Symbol: symbol, Err: provider.ErrNoData}
	}
	return closes, nil
}
