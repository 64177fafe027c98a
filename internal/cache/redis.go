package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/roach88/attune/internal/domain"
)

// RedisOptions configures the redis backend.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// Redis stores readings as canonical JSON under KeyPrefix+key.
type Redis struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis cache: missing addr")
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "attune:reading:"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Redis{rdb: rdb, prefix: opts.KeyPrefix, ttl: opts.TTL}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (domain.DailyEnergyReading, bool, error) {
	raw, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.DailyEnergyReading{}, false, nil
	}
	if err != nil {
		return domain.DailyEnergyReading{}, false, fmt.Errorf("redis get: %w", err)
	}
	var out domain.DailyEnergyReading
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.DailyEnergyReading{}, false, fmt.Errorf("redis decode: %w", err)
	}
	return out, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, reading domain.DailyEnergyReading) error {
	raw, err := reading.CanonicalJSON()
	if err != nil {
		return fmt.Errorf("redis encode: %w", err)
	}
	if err := r.rdb.Set(ctx, r.prefix+key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
