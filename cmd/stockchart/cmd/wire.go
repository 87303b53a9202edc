package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rustyeddy/stockchart/cache"
	"github.com/rustyeddy/stockchart/config"
	"github.com/rustyeddy/stockchart/journal"
	"github.com/rustyeddy/stockchart/loader"
	"github.com/rustyeddy/stockchart/provider"
	"github.com/rustyeddy/stockchart/provider/alphavantage"
	"github.com/rustyeddy/stockchart/provider/csvfile"
	"github.com/rustyeddy/stockchart/provider/yahoo"
)

func newProvider(cfg config.ProviderConfig, logger *slog.Logger) (provider.Provider, error) {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	switch cfg.Name {
	case "yahoo":
		return yahoo.New(yahoo.WithLogger(logger)), nil
	case "alphavantage":
		opts := []alphavantage.Option{
			alphavantage.WithLogger(logger),
			alphavantage.WithHTTPClient(&http.Client{Timeout: timeout}),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, alphavantage.WithBaseURL(cfg.BaseURL))
		}
		return alphavantage.NewClient(cfg.APIKey, opts...), nil
	case "csv":
		return csvfile.New(cfg.DataDir, time.Now), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Name)
	}
}

func newStore(ctx context.Context, cfg config.CacheConfig) (cache.Store, func(), error) {
	ttl, err := cfg.TTLDuration()
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Backend {
	case "memory":
		return cache.NewMemory(ttl), func() {}, nil
	case "redis":
		rdb, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return cache.NewRedis(rdb, ttl), func() { _ = rdb.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// newLoader wires the provider, cache and journal from cfg. The returned
// cleanup closes whatever was opened.
func newLoader(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*loader.Loader, func(), error) {
	p, err := newProvider(cfg.Provider, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("provider: %w", err)
	}

	store, closeStore, err := newStore(ctx, cfg.Cache)
	if err != nil {
		return nil, nil, fmt.Errorf("cache: %w", err)
	}

	opts := []loader.Option{
		loader.WithCache(store),
		loader.WithLogger(logger),
	}
	cleanup := closeStore

	if cfg.Journal.Enabled {
		j, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			closeStore()
			return nil, nil, fmt.Errorf("open journal: %w", err)
		}
		opts = append(opts, loader.WithJournal(j))
		cleanup = func() {
			_ = j.Close()
			closeStore()
		}
	}

	logger.Debug("loader ready",
		"provider", p.Name(),
		"cache", cfg.Cache.Backend,
		"journal", cfg.Journal.Enabled,
		"tickers", len(cfg.Tickers),
	)
	return loader.New(cfg.Tickers, p, opts...), cleanup, nil
}
