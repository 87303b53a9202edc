package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rustyeddy/stockchart/market"
)

// Redis shares Price Tables between dashboard instances.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisConfig holds the connection settings for NewRedisClient.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient opens a client and checks the connection.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// NewRedis wraps client. Entries expire after ttl; zero means never.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, k Key) (*market.PriceTable, bool, error) {
	b, err := r.client.Get(ctx, k.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", k, err)
	}

	var t market.PriceTable
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, false, fmt.Errorf("decode cached table %s: %w", k, err)
	}
	return &t, true, nil
}

func (r *Redis) Set(ctx context.Context, k Key, t *market.PriceTable) error {
	b, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode table: %w", err)
	}
	if err := r.client.Set(ctx, k.String(), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", k, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, k Key) error {
	return r.client.Del(ctx, k.String()).Err()
}
