package alphavantage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/stockchart/market"
	"github.com/rustyeddy/stockchart/provider"
	"github.com/tidwall/gjson"
)

const (
	// BaseURL is the Alpha Vantage query endpoint host.
	BaseURL = "https://www.alphavantage.co"

	name = "alphavantage"
)

var errRateLimited = errors.New("rate limited")

// Client fetches daily time series from Alpha Vantage.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another host, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithClock replaces time.Now when computing the lookback window.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a new Alpha Vantage client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: BaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return name }

// History fetches the compact daily series (about 100 sessions) and keeps the
// closes within the trailing days calendar days.
func (c *Client) History(ctx context.Context, symbol string, days int) ([]market.Close, error) {
	if symbol == "" {
		return nil, fmt.Errorf("alphavantage: missing symbol")
	}
	if days <= 0 {
		return nil, fmt.Errorf("alphavantage: days must be positive")
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("alphavantage: missing api key")
	}

	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", symbol)
	params.Set("outputsize", "compact")
	params.Set("apikey", c.apiKey)

	apiURL := fmt.Sprintf("%s/query?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("alphavantage request", "symbol", symbol, "days", days)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &provider.Error{Provider: name, Symbol: symbol, Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &provider.Error{Provider: name, Symbol: symbol, Retryable: true, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &provider.Error{
			Provider:  name,
			Symbol:    symbol,
			Status:    resp.StatusCode,
			Retryable: provider.RetryableStatus(resp.StatusCode),
			Err:       fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	since := provider.WindowStart(c.now(), days)
	closes, err := parseDaily(body, since)
	if err != nil {
		return nil, &provider.Error{
			Provider:  name,
			Symbol:    symbol,
			Retryable: errors.Is(err, errRateLimited),
			Err:       err,
		}
	}
	return closes, nil
}

// parseDaily extracts the closes dated after since from a TIME_SERIES_DAILY
// body. Alpha Vantage reports API errors inside a 200 response.
func parseDaily(body []byte, since time.Time) ([]market.Close, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("malformed response")
	}
	doc := gjson.ParseBytes(body)

	if msg := doc.Get("Error Message"); msg.Exists() {
		return nil, fmt.Errorf("%w: %s", provider.ErrUnknownSymbol, msg.String())
	}
	for _, k := range []string{"Note", "Information"} {
		if msg := doc.Get(k); msg.Exists() {
			return nil, fmt.Errorf("%w: %s", errRateLimited, msg.String())
		}
	}

	series := doc.Get("Time Series (Daily)")
	if !series.Exists() || !series.IsObject() {
		return nil, fmt.Errorf("missing daily time series")
	}

	var closes []market.Close
	var perr error
	series.ForEach(func(key, value gjson.Result) bool {
		t, err := time.Parse("2006-01-02", key.String())
		if err != nil {
			perr = fmt.Errorf("parse date %s: %w", key.String(), err)
			return false
		}
		if t.Before(since) {
			return true
		}
		raw, ok := value.Map()["4. close"]
		if !ok {
			perr = fmt.Errorf("missing close on %s", key.String())
			return false
		}
		p, err := strconv.ParseFloat(raw.String(), 64)
		if err != nil {
			perr = fmt.Errorf("parse close on %s: %w", key.String(), err)
			return false
		}
		closes = append(closes, market.Close{Time: t, Price: p})
		return true
	})
	if perr != nil {
		return nil, perr
	}
	if len(closes) == 0 {
		return nil, provider.ErrNoData
	}

	sort.Slice(closes, func(i, j int) bool { return closes[i].Time.Before(closes[j].Time) })
	return closes, nil
}
