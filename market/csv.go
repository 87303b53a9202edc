package market

import (
	"encoding/csv"
	"io"

	"github.com/guregu/null/v5"
	"github.com/shopspring/decimal"
)

// WriteCSV writes the table in wide form: a Name column followed by one
// column per date. Prices have two decimals; missing cells are written
// empty.
func WriteCSV(w io.Writer, t *PriceTable) error {
	cw := csv.NewWriter(w)

	header := append([]string{"Name"}, t.DateLabels()...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range t.Rows {
		row := make([]string, 0, len(r.Cells)+1)
		row = append(row, r.Name)
		for _, c := range r.Cells {
			row = append(row, FormatPrice(c))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// FormatPrice renders a cell with two decimals, or "" when missing.
func FormatPrice(c null.Float) string {
	if !c.Valid {
		return ""
	}
	return decimal.NewFromFloat(c.Float64).StringFixed(2)
}
