package market

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/guregu/null/v5"
)

// DateLayout is the column label format of a PriceTable, e.g. "05 March 2024".
const DateLayout = "02 January 2006"

// PriceLabel names the price field of long-form records.
const PriceLabel = "Stock Prices(USD)"

// ErrUnknownCompany is returned when a selection names a row the table does
// not have.
var ErrUnknownCompany = errors.New("unknown company")

// Close is one daily closing price.
type Close struct {
	Time  time.Time
	Price float64
}

// Series is the close history of one company.
type Series struct {
	Name   string
	Closes []Close
}

// Row is one company's closes, parallel to PriceTable.Dates. An invalid
// cell means the provider returned no close for that company on that date.
type Row struct {
	Name  string       `json:"name"`
	Cells []null.Float `json:"cells"`
}

// PriceTable holds closing prices with one row per company and one column
// per calendar date. Tables are never mutated after construction.
type PriceTable struct {
	Dates []time.Time `json:"dates"`
	Rows  []Row       `json:"rows"`
}

// Record is one long-form (date, company, price) triple.
type Record struct {
	Date  string  `json:"Date"`
	Name  string  `json:"Name"`
	Price float64 `json:"Stock Prices(USD)"`
}

// Day normalizes t to midnight UTC of its calendar date in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewPriceTable outer-joins the series on calendar date. Rows keep the series
// order; columns are the chronological union of all dates.
func NewPriceTable(series []Series) *PriceTable {
	index := map[time.Time]int{}
	var dates []time.Time
	for _, s := range series {
		for _, c := range s.Closes {
			d := Day(c.Time)
			if _, ok := index[d]; !ok {
				index[d] = 0
				dates = append(dates, d)
			}
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	for i, d := range dates {
		index[d] = i
	}

	t := &PriceTable{
		Dates: dates,
		Rows:  make([]Row, 0, len(series)),
	}
	for _, s := range series {
		cells := make([]null.Float, len(dates))
		for _, c := range s.Closes {
			cells[index[Day(c.Time)]] = null.FloatFrom(c.Price)
		}
		t.Rows = append(t.Rows, Row{Name: s.Name, Cells: cells})
	}
	return t
}

// DateLabels returns the column labels in DateLayout.
func (t *PriceTable) DateLabels() []string {
	labels := make([]string, len(t.Dates))
	for i, d := range t.Dates {
		labels[i] = d.Format(DateLayout)
	}
	return labels
}

// Names returns the row keys in table order.
func (t *PriceTable) Names() []string {
	names := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		names[i] = r.Name
	}
	return names
}

// Row returns the row for a company.
func (t *PriceTable) Row(name string) (Row, bool) {
	for _, r := range t.Rows {
		if r.Name == name {
			return r, true
		}
	}
	return Row{}, false
}

// Slice returns a table restricted to the named rows, in the order given.
func (t *PriceTable) Slice(names []string) (*PriceTable, error) {
	out := &PriceTable{
		Dates: t.Dates,
		Rows:  make([]Row, 0, len(names)),
	}
	for _, n := range names {
		r, ok := t.Row(n)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCompany, n)
		}
		out.Rows = append(out.Rows, r)
	}
	return out, nil
}

// SortedByName returns a copy of the table with rows ordered by name.
func (t *PriceTable) SortedByName() *PriceTable {
	rows := make([]Row, len(t.Rows))
	copy(rows, t.Rows)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return &PriceTable{Dates: t.Dates, Rows: rows}
}

// Records reshapes the table to long form: one record per present cell,
// grouped by row with dates in chronological order.
func (t *PriceTable) Records() []Record {
	labels := t.DateLabels()
	out := make([]Record, 0, len(t.Rows)*len(t.Dates))
	for _, r := range t.Rows {
		for i, c := range r.Cells {
			if !c.Valid {
				continue
			}
			out = append(out, Record{
				Date:  labels[i],
				Name:  r.Name,
				Price: c.Float64,
			})
		}
	}
	return out
}
