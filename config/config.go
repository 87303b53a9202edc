package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/stockchart/market"
)

// Config is the complete dashboard configuration.
type Config struct {
	Server   ServerConfig    `json:"server" yaml:"server"`
	Provider ProviderConfig  `json:"provider" yaml:"provider"`
	Cache    CacheConfig     `json:"cache" yaml:"cache"`
	Journal  JournalConfig   `json:"journal" yaml:"journal"`
	Tickers  market.Registry `json:"tickers" yaml:"tickers"`
	LogLevel string          `json:"log_level" yaml:"log_level"`
}

// ServerConfig contains the HTTP listener settings.
type ServerConfig struct {
	Addr         string `json:"addr" yaml:"addr"`
	ReadTimeout  string `json:"read_timeout,omitempty" yaml:"read_timeout,omitempty"` // e.g. "10s"
	WriteTimeout string `json:"write_timeout,omitempty" yaml:"write_timeout,omitempty"`
}

// ProviderConfig selects the market data source.
type ProviderConfig struct {
	Name    string `json:"name" yaml:"name"` // "yahoo", "alphavantage" or "csv"
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	DataDir string `json:"data_dir,omitempty" yaml:"data_dir,omitempty"`
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// CacheConfig selects where Price Tables are memoized.
type CacheConfig struct {
	Backend       string `json:"backend" yaml:"backend"` // "memory" or "redis"
	TTL           string `json:"ttl,omitempty" yaml:"ttl,omitempty"`
	RedisAddr     string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty" yaml:"redis_db,omitempty"`
}

// JournalConfig contains fetch journaling parameters.
type JournalConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	DBPath  string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// parseDuration treats an empty string as zero.
func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", field)
	}
	return d, nil
}

func (s ServerConfig) ReadTimeoutDuration() (time.Duration, error) {
	return parseDuration("server.read_timeout", s.ReadTimeout)
}

func (s ServerConfig) WriteTimeoutDuration() (time.Duration, error) {
	return parseDuration("server.write_timeout", s.WriteTimeout)
}

func (p ProviderConfig) TimeoutDuration() (time.Duration, error) {
	return parseDuration("provider.timeout", p.Timeout)
}

// TTLDuration returns the cache TTL. Zero means entries never expire.
func (c CacheConfig) TTLDuration() (time.Duration, error) {
	return parseDuration("cache.ttl", c.TTL)
}

// LoadFromFile loads configuration from a YAML or JSON file. A .env file in
// the working directory is loaded first so ${VAR} references in the file can
// pick up secrets such as the provider API key.
func LoadFromFile(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	data = []byte(os.ExpandEnv(string(data)))

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", errors.Join(err, jerr))
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file, YAML for .yaml/.yml and JSON
// otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if _, err := c.Server.ReadTimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.Server.WriteTimeoutDuration(); err != nil {
		return err
	}

	switch c.Provider.Name {
	case "yahoo":
	case "alphavantage":
		if c.Provider.APIKey == "" {
			return fmt.Errorf("provider.api_key is required for alphavantage")
		}
	case "csv":
		if c.Provider.DataDir == "" {
			return fmt.Errorf("provider.data_dir is required for csv")
		}
	default:
		return fmt.Errorf("provider.name must be 'yahoo', 'alphavantage' or 'csv'")
	}
	if _, err := c.Provider.TimeoutDuration(); err != nil {
		return err
	}

	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required for redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be 'memory' or 'redis'")
	}
	if _, err := c.Cache.TTLDuration(); err != nil {
		return err
	}

	if c.Journal.Enabled && c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path is required when journal is enabled")
	}

	if err := c.Tickers.Validate(); err != nil {
		return fmt.Errorf("tickers: %w", err)
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	tickers := make(market.Registry, len(market.DefaultTickers))
	copy(tickers, market.DefaultTickers)

	return &Config{
		Server: ServerConfig{
			Addr:         ":8501",
			ReadTimeout:  "10s",
			WriteTimeout: "30s",
		},
		Provider: ProviderConfig{
			Name:    "yahoo",
			Timeout: "15s",
		},
		Cache: CacheConfig{
			Backend: "memory",
		},
		Journal: JournalConfig{
			Enabled: false,
			DBPath:  "./stockchart.sqlite",
		},
		Tickers:  tickers,
		LogLevel: "info",
	}
}

// ParseLevel maps a level name to a slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// NewLogger returns a text logger on stdout at level.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
