package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Client wraps a redis connection used as a read accelerant. It is
// never authoritative: every operation degrades to a cache miss when
// redis is unreachable, so callers fall back to the durable store.
type Client struct {
	rdb *redis.Client
	log *logrus.Logger
}

// New connects to redis when a URL is configured. An empty URL or an
// unreachable server yields a client whose reads always miss.
func New(redisURL string, log *logrus.Logger) *Client {
	if redisURL == "" {
		return &Client{log: log}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.WithError(err).Warn("invalid REDIS_URL, caching disabled")
		return &Client{log: log}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("redis unreachable, caching disabled")
		_ = rdb.Close()
		return &Client{log: log}
	}

	return &Client{rdb: rdb, log: log}
}

func (c *Client) Get(ctx context.Context, key string) (string, bool) {
	if c.rdb == nil {
		return "", false
	}
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).WithField("key", key).Debug("cache get failed")
		}
		return "", false
	}
	return val, true
}

func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.WithError(err).WithField("key", key).Debug("cache set failed")
	}
}

func (c *Client) Del(ctx context.Context, key string) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.log.WithError(err).WithField("key", key).Debug("cache del failed")
	}
}

func (c *Client) Close() {
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
}
