// Package dashboard turns a PriceTable and the user's control values into
// what the page shows: the sorted price table and the chart.
package dashboard

import (
	"errors"
	"fmt"
	"math"

	"github.com/rustyeddy/stockchart/market"
)

// Control bounds.
const (
	MinDays     = 1
	MaxDays     = 50
	DefaultDays = 25

	MinPrice = 0.0
	MaxPrice = 3500.0
)

// Selection is one immutable set of control values.
type Selection struct {
	Days      int      `json:"days"`
	Companies []string `json:"companies"`
	YMin      float64  `json:"ymin"`
	YMax      float64  `json:"ymax"`
}

// DefaultSelection preselects the default companies present in names.
func DefaultSelection(names []string) Selection {
	avail := map[string]bool{}
	for _, n := range names {
		avail[n] = true
	}
	companies := []string{}
	for _, n := range market.DefaultSelection {
		if avail[n] {
			companies = append(companies, n)
		}
	}
	return Selection{
		Days:      DefaultDays,
		Companies: companies,
		YMin:      MinPrice,
		YMax:      MaxPrice,
	}
}

// Validate checks the selection against the control bounds. Company names
// are checked against the table in Render.
func (s Selection) Validate() error {
	if s.Days < MinDays || s.Days > MaxDays {
		return inputError("days must be between %d and %d, got %d", MinDays, MaxDays, s.Days)
	}
	if math.IsNaN(s.YMin) || math.IsNaN(s.YMax) {
		return inputError("price range must be numeric")
	}
	if s.YMin < MinPrice || s.YMax > MaxPrice {
		return inputError("price range must be within [%.1f, %.1f]", MinPrice, MaxPrice)
	}
	if s.YMin > s.YMax {
		return inputError("price range minimum %.1f is above maximum %.1f", s.YMin, s.YMax)
	}
	if len(s.Companies) == 0 {
		return &Error{Kind: KindInput, Err: ErrEmptySelection}
	}
	return nil
}

// IntSlider describes a single-handle integer slider.
type IntSlider struct {
	Label   string `json:"label"`
	Min     int    `json:"min"`
	Max     int    `json:"max"`
	Default int    `json:"default"`
}

// RangeSlider describes a two-handle slider.
type RangeSlider struct {
	Label   string     `json:"label"`
	Min     float64    `json:"min"`
	Max     float64    `json:"max"`
	Default [2]float64 `json:"default"`
}

// MultiSelect describes a multi-select list.
type MultiSelect struct {
	Label   string   `json:"label"`
	Options []string `json:"options"`
	Default []string `json:"default"`
}

// Controls is the sidebar.
type Controls struct {
	Days       IntSlider   `json:"days"`
	PriceRange RangeSlider `json:"price_range"`
	Companies  MultiSelect `json:"companies"`
}

// NewControls builds the sidebar; company options are the table rows.
func NewControls(names []string) Controls {
	def := DefaultSelection(names)
	return Controls{
		Days: IntSlider{
			Label:   "Days",
			Min:     MinDays,
			Max:     MaxDays,
			Default: DefaultDays,
		},
		PriceRange: RangeSlider{
			Label:   "Price range (USD)",
			Min:     MinPrice,
			Max:     MaxPrice,
			Default: [2]float64{MinPrice, MaxPrice},
		},
		Companies: MultiSelect{
			Label:   "Companies",
			Options: names,
			Default: def.Companies,
		},
	}
}

// View is everything the page renders for one Selection.
type View struct {
	Selection Selection          `json:"selection"`
	Title     string             `json:"title"`
	Dates     []string           `json:"dates"`
	Table     *market.PriceTable `json:"table"`
	Records   []market.Record    `json:"records"`
	Chart     ChartSpec          `json:"chart"`
}

// Render slices t to the selection and builds the view. It has no side
// effects; errors are *Error.
func Render(t *market.PriceTable, sel Selection) (*View, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, &Error{Kind: KindInternal, Err: errors.New("no price table")}
	}

	sliced, err := t.Slice(sel.Companies)
	if err != nil {
		return nil, &Error{Kind: KindInput, Err: err}
	}

	records := sliced.Records()
	return &View{
		Selection: sel,
		Title:     fmt.Sprintf("Stock prices over the last %d days", sel.Days),
		Dates:     sliced.DateLabels(),
		Table:     sliced.SortedByName(),
		Records:   records,
		Chart:     NewChart(records, sel.YMin, sel.YMax),
	}, nil
}
