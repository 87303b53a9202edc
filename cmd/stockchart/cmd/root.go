package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stockchart/config"
)

var rootCmd = &cobra.Command{
	Use:   "stockchart",
	Short: "A US stock price dashboard",
	Long: `Stockchart charts recent daily closing prices for a set of US companies.

It provides tools for:
  - Serving an interactive dashboard in the browser
  - Printing or exporting the price table from the terminal
  - Inspecting the journal of market data fetches

Complete documentation is available at https://github.com/rustyeddy/stockchart`,
	SilenceUsage: true,
}

var (
	cfgFile  string
	logLevel string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default settings when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error (overrides config)")
}

// loadConfig reads --config, applies --log-level and installs the default
// logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg := config.Default()
	if cfgFile != "" {
		var err error
		if cfg, err = config.LoadFromFile(cfgFile); err != nil {
			return nil, nil, err
		}
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	logger := config.NewLogger(level)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
