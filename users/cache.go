package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RoleCache remembers roles between requests so the admin guard does not hit
// Mongo on every call.
type RoleCache interface {
	Get(ctx context.Context, email string) (role string, ok bool, err error)
	Set(ctx context.Context, email, role string) error
	// Add stores role only when nothing is cached for email yet.
	Add(ctx context.Context, email, role string) error
}

type RedisRoleCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRoleCache(client *redis.Client, ttl time.Duration) *RedisRoleCache {
	return &RedisRoleCache{client: client, ttl: ttl}
}

func roleKey(email string) string {
	return "parlour:role:" + email
}

func (c *RedisRoleCache) Get(ctx context.Context, email string) (string, bool, error) {
	role, err := c.client.Get(ctx, roleKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get cached role: %w", err)
	}
	return role, true, nil
}

func (c *RedisRoleCache) Set(ctx context.Context, email, role string) error {
	if err := c.client.Set(ctx, roleKey(email), role, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache role: %w", err)
	}
	return nil
}

// Add uses SET NX so a role read before a promotion cannot replace the
// role the promotion wrote.
func (c *RedisRoleCache) Add(ctx context.Context, email, role string) error {
	if err := c.client.SetNX(ctx, roleKey(email), role, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache role: %w", err)
	}
	return nil
}
