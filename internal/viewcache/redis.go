package viewcache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "xpboard:view:"

// redisClient is the subset of *redis.Client used by PageCache.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// PageCache stores rendered responses in Redis keyed by route path and
// generation. Invalidate bumps the generation, so a body rendered before an
// invalidation is written under a key readers no longer look at. A nil
// *PageCache is valid and behaves as an always-empty cache.
type PageCache struct {
	client redisClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewPageCache wraps client. Entries expire after ttl even if never invalidated.
func NewPageCache(client redisClient, ttl time.Duration, logger *slog.Logger) *PageCache {
	return &PageCache{client: client, ttl: ttl, logger: logger}
}

// NewRedisClient connects to addr and verifies the connection with PING.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func genKey(path string) string {
	return keyPrefix + path + ":gen"
}

func pageKey(path string, gen int64) string {
	return keyPrefix + path + "@" + strconv.FormatInt(gen, 10)
}

func (c *PageCache) generation(ctx context.Context, path string) (int64, error) {
	gen, err := c.client.Get(ctx, genKey(path)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Get returns the cached body for path and the generation it was looked up
// under. Pass that generation to Set after rendering a miss. Redis errors
// report gen -1, which Set ignores.
func (c *PageCache) Get(ctx context.Context, path string) (body []byte, gen int64, ok bool) {
	if c == nil {
		return nil, -1, false
	}
	gen, err := c.generation(ctx, path)
	if err != nil {
		c.logger.Warn("page cache generation", "path", path, "error", err.Error())
		return nil, -1, false
	}
	body, err = c.client.Get(ctx, pageKey(path, gen)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("page cache get", "path", path, "error", err.Error())
		}
		return nil, gen, false
	}
	return body, gen, true
}

// Set stores body for path under gen, the generation returned by the Get
// that preceded rendering.
func (c *PageCache) Set(ctx context.Context, path string, gen int64, body []byte) {
	if c == nil || gen < 0 {
		return
	}
	if err := c.client.Set(ctx, pageKey(path, gen), body, c.ttl).Err(); err != nil {
		c.logger.Warn("page cache set", "path", path, "error", err.Error())
	}
}

// Invalidate moves path to a new generation. Bodies from older generations
// are never read again and expire with their TTL.
func (c *PageCache) Invalidate(ctx context.Context, path string) {
	if c == nil {
		return
	}
	if err := c.client.Incr(ctx, genKey(path)).Err(); err != nil {
		c.logger.Warn("page cache invalidate", "path", path, "error", err.Error())
	}
}
