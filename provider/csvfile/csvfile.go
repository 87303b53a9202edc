// Package csvfile serves daily closes from CSV files on disk, one file per
// symbol. It is used for offline dashboards and demos.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/stockchart/market"
	"github.com/rustyeddy/stockchart/provider"
)

const name = "csv"

// Provider reads <dir>/<SYMBOL>.csv. The file needs a header naming a date
// column ("date" or "time") and a close column ("close" or "c"). Dates are
// 2006-01-02 or RFC 3339, which also covers candle CSVs exported by oa2csv.
type Provider struct {
	dir string
	now func() time.Time
}

// New creates a provider reading from dir. A nil clock means time.Now.
func New(dir string, now func() time.Time) *Provider {
	if now == nil {
		now = time.Now
	}
	return &Provider{dir: dir, now: now}
}

func (p *Provider) Name() string { return name }

func (p *Provider) History(ctx context.Context, symbol string, days int) ([]market.Close, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(p.dir, strings.ToUpper(symbol)+".csv")
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &provider.Error{Provider: name, Symbol: symbol, Err: provider.ErrUnknownSymbol}
	}
	if err != nil {
		return nil, &provider.Error{Provider: name, Symbol: symbol, Err: err}
	}
	defer f.Close()

	since := provider.WindowStart(p.now(), days)
	closes, err := readCloses(f, since)
	if err != nil {
		return nil, &provider.Error{Provider: name, Symbol: symbol, Err: fmt.Errorf("%s: %w", path, err)}
	}
	return closes, nil
}

func readCloses(r io.Reader, since time.Time) ([]market.Close, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, provider.ErrNoData
	}
	if err != nil {
		return nil, err
	}

	dateCol, closeCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "date", "time":
			dateCol = i
		case "close", "c":
			closeCol = i
		}
	}
	if dateCol < 0 || closeCol < 0 {
		return nil, fmt.Errorf("header needs date and close columns, got %v", header)
	}

	var closes []market.Close
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) <= dateCol || len(row) <= closeCol {
			continue
		}

		t, err := parseDate(strings.TrimSpace(row[dateCol]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if market.Day(t).Before(since) {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[closeCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse close: %w", line, err)
		}
		closes = append(closes, market.Close{Time: t, Price: v})
	}

	if len(closes) == 0 {
		return nil, provider.ErrNoData
	}
	sort.Slice(closes, func(i, j int) bool { return closes[i].Time.Before(closes[j].Time) })
	return closes, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q", s)
	}
	return t, nil
}
