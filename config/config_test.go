package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/stockchart/market"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, "yahoo", cfg.Provider.Name)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, []string{"apple", "facebook", "google", "microsft", "netfilix", "amazon"}, cfg.Tickers.Names())
	assert.NoError(t, cfg.Validate())

	ttl, err := cfg.Cache.TTLDuration()
	require.NoError(t, err)
	assert.Zero(t, ttl, "cache never expires by default")
}

func TestDefault_CopiesTickers(t *testing.T) {
	cfg := Default()
	cfg.Tickers[0].Symbol = "XXX"
	assert.Equal(t, "AAPL", market.DefaultTickers[0].Symbol)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"valid config", func(*Config) {}, ""},
		{"missing addr", func(c *Config) { c.Server.Addr = "" }, "server.addr is required"},
		{"bad read timeout", func(c *Config) { c.Server.ReadTimeout = "soon" }, "server.read_timeout"},
		{"unknown provider", func(c *Config) { c.Provider.Name = "bloomberg" }, "provider.name must be"},
		{"alphavantage without key", func(c *Config) { c.Provider.Name = "alphavantage" }, "provider.api_key is required"},
		{"csv without dir", func(c *Config) { c.Provider.Name = "csv" }, "provider.data_dir is required"},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "disk" }, "cache.backend must be"},
		{"redis without addr", func(c *Config) { c.Cache.Backend = "redis" }, "cache.redis_addr is required"},
		{"negative ttl", func(c *Config) { c.Cache.TTL = "-1m" }, "cache.ttl must not be negative"},
		{"journal without path", func(c *Config) { c.Journal = JournalConfig{Enabled: true} }, "journal.db_path is required"},
		{"empty registry", func(c *Config) { c.Tickers = nil }, "registry is empty"},
		{"duplicate ticker", func(c *Config) {
			c.Tickers = append(c.Tickers, market.Ticker{Name: "apple", Symbol: "AAPL"})
		}, "duplicate ticker name"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Cache.TTL = "5m"
			path := filepath.Join(tmpDir, "test"+tt.ext)

			require.NoError(t, cfg.SaveToFile(path))
			_, err := os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)

			ttl, err := loaded.Cache.TTLDuration()
			require.NoError(t, err)
			assert.Equal(t, 5*time.Minute, ttl)
		})
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("STOCKCHART_TEST_AV_KEY", "demo-key")

	path := filepath.Join(t.TempDir(), "av.yaml")
	body := `server:
  addr: ":9000"
provider:
  name: alphavantage
  api_key: ${STOCKCHART_TEST_AV_KEY}
cache:
  backend: memory
tickers:
  - name: apple
    symbol: AAPL
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "demo-key", cfg.Provider.APIKey)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [\n"), 0o644))
	_, err = LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"WARN", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			l, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, l)
		})
	}
}
