package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewRedisClient connects to Redis and verifies the connection with a ping.
func NewRedisClient(ctx context.Context, cfg *Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// RedisDeduper remembers fanned out event ids so redeliveries skip the
// database round trip. When Redis is unavailable every event is treated as
// new; the database uniqueness constraints still hold.
type RedisDeduper struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
	logger zerolog.Logger
}

func NewRedisDeduper(rdb redis.Cmdable, ttl time.Duration, logger zerolog.Logger) *RedisDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDeduper{
		rdb:    rdb,
		ttl:    ttl,
		prefix: "dedup:notify:",
		logger: logger,
	}
}

func (d *RedisDeduper) Seen(ctx context.Context, eventID string) bool {
	n, err := d.rdb.Exists(ctx, d.prefix+eventID).Result()
	if err != nil {
		d.logger.Warn().Err(err).Str("event_id", eventID).Msg("redis dedup check failed, allowing processing")
		return false
	}
	return n > 0
}

// Forget drops the marker of a replayed event so it is processed again.
func (d *RedisDeduper) Forget(ctx context.Context, eventID string) {
	if err := d.rdb.Del(ctx, d.prefix+eventID).Err(); err != nil {
		d.logger.Warn().Err(err).Str("event_id", eventID).Msg("redis dedup delete failed")
	}
}

func (d *RedisDeduper) Remember(ctx context.Context, eventID string) {
	if err := d.rdb.Set(ctx, d.prefix+eventID, 1, d.ttl).Err(); err != nil {
		d.logger.Warn().Err(err).Str("event_id", eventID).Msg("redis dedup write failed")
	}
}
