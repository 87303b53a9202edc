package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/stockchart/dashboard"
	"github.com/rustyeddy/stockchart/market"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Print the price table",
	Long: `Fetch closing prices for the selected companies and print them as a
table, one row per trading day.

Examples:
  stockchart fetch --days 10
  stockchart fetch --company apple,google --csv prices.csv`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

var (
	fetchDays      int
	fetchCompanies []string
	fetchCSV       string
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dateStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	priceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	missStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4")).Padding(0, 1)
)

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().IntVarP(&fetchDays, "days", "n", dashboard.DefaultDays, "lookback in calendar days")
	fetchCmd.Flags().StringSliceVar(&fetchCompanies, "company", nil, "companies to show (default all)")
	fetchCmd.Flags().StringVar(&fetchCSV, "csv", "", "also write the table to this CSV file")
}

func runFetch(cmd *cobra.Command, args []string) error {
	if fetchDays < dashboard.MinDays || fetchDays > dashboard.MaxDays {
		return fmt.Errorf("days must be between %d and %d", dashboard.MinDays, dashboard.MaxDays)
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	l, cleanup, err := newLoader(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	t, err := l.Fetch(ctx, fetchDays)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	if len(fetchCompanies) > 0 {
		if t, err = t.Slice(fetchCompanies); err != nil {
			return err
		}
	}
	t = t.SortedByName()

	fmt.Fprintln(cmd.OutOrStdout(), titleStyle.Render(fmt.Sprintf("Stock prices over the last %d days", fetchDays)))
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(t))

	if fetchCSV != "" {
		if err := writeCSVFile(fetchCSV, t); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", fetchCSV)
	}
	return nil
}

// renderTable lays the table out with dates down the side and one column
// per company, which fits a terminal better than the wide form.
func renderTable(t *market.PriceTable) string {
	labels := t.DateLabels()
	dateWidth := len("Date")
	for _, l := range labels {
		dateWidth = max(dateWidth, len(l))
	}
	colWidth := 10
	for _, r := range t.Rows {
		colWidth = max(colWidth, len(r.Name))
	}

	var b strings.Builder
	b.WriteString(headerStyle.Width(dateWidth).Render("Date"))
	for _, r := range t.Rows {
		b.WriteString(" ")
		b.WriteString(headerStyle.Width(colWidth).Align(lipgloss.Right).Render(r.Name))
	}
	b.WriteString("\n")

	for i, l := range labels {
		b.WriteString(dateStyle.Width(dateWidth).Render(l))
		for _, r := range t.Rows {
			b.WriteString(" ")
			cell := market.FormatPrice(r.Cells[i])
			style := priceStyle
			if cell == "" {
				cell, style = "-", missStyle
			}
			b.WriteString(style.Width(colWidth).Align(lipgloss.Right).Render(cell))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeCSVFile(path string, t *market.PriceTable) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := market.WriteCSV(f, t); err != nil {
		f.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}
