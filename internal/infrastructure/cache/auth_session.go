package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/waste3d/courseforge/internal/domain"
)

// AuthSessionCache хранит сессии входа: session:<sid> -> user_id.
type AuthSessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAuthSessionCache(client *redis.Client, ttl time.Duration) *AuthSessionCache {
	return &AuthSessionCache{client: client, ttl: ttl}
}

func authKey(sid string) string { return "session:" + sid }

func (c *AuthSessionCache) Create(ctx context.Context, sid string, userID uint) error {
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, authKey(sid), "user_id", userID)
	pipe.Expire(ctx, authKey(sid), c.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Resolve возвращает владельца сессии и продлевает её на полный TTL.
func (c *AuthSessionCache) Resolve(ctx context.Context, sid string) (uint, error) {
	val, err := c.client.HGet(ctx, authKey(sid), "user_id").Result()
	if errors.Is(err, redis.Nil) {
		return 0, domain.ErrNotAuthenticated
	}
	if err != nil {
		return 0, err
	}

	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, domain.ErrNotAuthenticated
	}

	// Скользящее истечение
	if err := c.client.Expire(ctx, authKey(sid), c.ttl).Err(); err != nil {
		return 0, err
	}
	return uint(id), nil
}

func (c *AuthSessionCache) Destroy(ctx context.Context, sid string) error {
	return c.client.Del(ctx, authKey(sid)).Err()
}
