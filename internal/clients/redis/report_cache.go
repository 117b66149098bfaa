package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/saehim/attendance-backend/internal/platform/logger"
)

// ReportCache is a small JSON get/set layer for report payloads. Callers treat
// it as best-effort: a miss or a redis failure means recompute, never an error
// surfaced to the client.
type ReportCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Client() *goredis.Client
	Close() error
}

type reportCache struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewReportCache(log *logger.Logger) (ReportCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &reportCache{
		log: log.With("service", "RedisReportCache"),
		rdb: rdb,
	}, nil
}

func (c *reportCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.rdb == nil {
		return false, fmt.Errorf("report cache not initialized")
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// Treat a payload we can no longer decode as a miss.
		c.log.Warn("report cache payload decode failed", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func (c *reportCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("report cache not initialized")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, ttl).Err()
}

func (c *reportCache) Client() *goredis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}

func (c *reportCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
