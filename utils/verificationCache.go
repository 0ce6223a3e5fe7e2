package utils

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"sdssn/models"

	"github.com/go-redis/redis/v8"
)

const verifyKeyPrefix = "verify:"

// NewRedisClient accepts either a redis:// URL or a bare host:port.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, err
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// RedisVerificationCache keeps verified memberships by serial. Cache errors
// are logged and treated as misses.
type RedisVerificationCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func verifyKey(serial string) string {
	return verifyKeyPrefix + serial
}

func (c *RedisVerificationCache) Get(ctx context.Context, serial string) (*models.Membership, bool) {
	raw, err := c.Client.Get(ctx, verifyKey(serial)).Bytes()
	if err != nil {
		if err != redis.Nil {
			Log.WithError(err).WithField("serial", serial).Warn("verification cache read failed")
		}
		return nil, false
	}
	var m models.Membership
	if err := json.Unmarshal(raw, &m); err != nil {
		Log.WithError(err).WithField("serial", serial).Warn("verification cache entry unreadable")
		c.Evict(ctx, serial)
		return nil, false
	}
	return &m, true
}

func (c *RedisVerificationCache) Set(ctx context.Context, m *models.Membership) {
	raw, err := json.Marshal(m)
	if err != nil {
		Log.WithError(err).WithField("serial", m.SerialNo).Warn("verification cache encode failed")
		return
	}
	if err := c.Client.Set(ctx, verifyKey(m.SerialNo), raw, c.TTL).Err(); err != nil {
		Log.WithError(err).WithField("serial", m.SerialNo).Warn("verification cache write failed")
	}
}

func (c *RedisVerificationCache) Evict(ctx context.Context, serial string) {
	if serial == "" {
		return
	}
	if err := c.Client.Del(ctx, verifyKey(serial)).Err(); err != nil {
		Log.WithError(err).WithField("serial", serial).Warn("verification cache evict failed")
	}
}
