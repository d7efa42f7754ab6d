package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Redis shares cached lists between API instances. Clear bumps a generation
// counter instead of scanning keys; old generations age out through their TTL.
type Redis struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedis(cfg RedisConfig, ttl time.Duration) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "postboard:cache:"
	}

	return &Redis{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (c *Redis) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Redis) Close() error {
	return c.rdb.Close()
}

func (c *Redis) genKey() string {
	return c.prefix + "gen"
}

func (c *Redis) generation(ctx context.Context) (Generation, error) {
	gen, err := c.rdb.Get(ctx, c.genKey()).Result()

	if errors.Is(err, redis.Nil) {
		return "0", nil
	}

	return Generation(gen), err
}

func (c *Redis) key(gen Generation, key string) string {
	return c.prefix + string(gen) + ":" + key
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, Generation, bool) {
	gen, err := c.generation(ctx)
	if err != nil {
		slog.WarnContext(ctx, "cache generation lookup failed", "err", err)
		return nil, "", false
	}

	val, err := c.rdb.Get(ctx, c.key(gen, key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "cache get failed", "key", key, "err", err)
		}
		return nil, gen, false
	}

	return val, gen, true
}

// Set writes under gen, not the current generation. After a Clear that key is
// never read again and expires through its TTL.
func (c *Redis) Set(ctx context.Context, gen Generation, key string, val []byte) {
	if gen == "" {
		return
	}

	if err := c.rdb.Set(ctx, c.key(gen, key), val, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "cache set failed", "key", key, "err", err)
	}
}

func (c *Redis) Clear(ctx context.Context) {
	if err := c.rdb.Incr(ctx, c.genKey()).Err(); err != nil {
		slog.WarnContext(ctx, "cache clear failed", "err", err)
	}
}
