package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/onflow/drand-fulfiller/storage"
)

// Checkpoints stores checkpoints in redis, which lets several hosts running
// the fulfiller one after another share their progress.
type Checkpoints struct {
	client    redis.UniversalClient
	namespace string
}

var _ storage.Checkpoints = (*Checkpoints)(nil)

// NewCheckpoints returns a store that prefixes all keys with namespace.
func NewCheckpoints(client redis.UniversalClient, namespace string) *Checkpoints {
	return &Checkpoints{
		client:    client,
		namespace: namespace,
	}
}

// NewClient creates a redis client for the given address.
func NewClient(addr string, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Get returns the checkpoint value stored under key.
// Expected errors during normal operations:
//   - storage.ErrNotFound if the key was never set
func (c *Checkpoints) Get(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, c.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("could not load checkpoint: %w", err)
	}
	return value, nil
}

// Set stores the checkpoint value under key without expiration.
func (c *Checkpoints) Set(ctx context.Context, key string, value string) error {
	err := c.client.Set(ctx, c.key(key), value, 0).Err()
	if err != nil {
		return fmt.Errorf("could not store checkpoint %s: %w", key, err)
	}
	return nil
}

func (c *Checkpoints) key(key string) string {
	if c.namespace == "" {
		return key
	}
	return c.namespace + ":" + key
}
