package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stockchart/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "List recent market data fetches",
	Long: `Show the most recent provider calls recorded in the SQLite journal.

Examples:
  stockchart journal --limit 20
  stockchart journal --db ./stockchart.sqlite`,
	Args: cobra.NoArgs,
	RunE: runJournal,
}

var (
	journalDBPath string
	journalLimit  int
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.Flags().StringVarP(&journalDBPath, "db", "d", "", "path to SQLite journal DB (default journal.db_path)")
	journalCmd.Flags().IntVarP(&journalLimit, "limit", "l", 20, "number of fetches to show")
}

func runJournal(cmd *cobra.Command, args []string) error {
	path := journalDBPath
	if path == "" {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.Journal.DBPath
	}

	j, err := journal.NewSQLite(path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	ctx := context.Background()
	recs, err := j.Recent(ctx, journalLimit)
	if err != nil {
		return fmt.Errorf("query fetches: %w", err)
	}
	failed, err := j.FailuresSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		return fmt.Errorf("count failures: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, f := range recs {
		status := "ok"
		if !f.OK() {
			status = "error: " + f.Err
		}
		fmt.Fprintf(out, "%s  %-12s %-9s %-6s %3dd %4d pts %8s  %s\n",
			f.Started.Local().Format("2006-01-02 15:04:05"),
			f.Provider, f.Name, f.Symbol, f.Days, f.Points,
			f.Duration.Round(time.Millisecond), status)
	}
	fmt.Fprintf(out, "%d fetches shown, %d failures in the last 24h\n", len(recs), failed)
	return nil
}
