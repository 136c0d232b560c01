package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client is the session allowlist backing logout for stateless JWTs.
// A session key exists for every live token; deleting it revokes the token
// before its expiry.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// PutSession registers a live session for a token id with the token's TTL
func (c *Client) PutSession(ctx context.Context, tokenID, userID string, ttl time.Duration) error {
	return c.rdb.Set(ctx, sessionKey(tokenID), userID, ttl).Err()
}

// SessionExists reports whether the session for a token id is still live
func (c *Client) SessionExists(ctx context.Context, tokenID string) (bool, error) {
	n, err := c.rdb.Exists(ctx, sessionKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteSession revokes the session for a token id
func (c *Client) DeleteSession(ctx context.Context, tokenID string) error {
	return c.rdb.Del(ctx, sessionKey(tokenID)).Err()
}

func sessionKey(tokenID string) string {
	return fmt.Sprintf("session:%s", tokenID)
}
