package inmemory

import (
	"context"
	"sync"

	"github.com/onflow/drand-fulfiller/storage"
)

// Checkpoints keeps checkpoints in memory. Progress is lost when the process
// exits, so it is meant for tests and for one-off runs with an explicit start block.
type Checkpoints struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ storage.Checkpoints = (*Checkpoints)(nil)

func NewCheckpoints() *Checkpoints {
	return &Checkpoints{
		values: make(map[string]string),
	}
}

func (c *Checkpoints) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	value, ok := c.values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

func (c *Checkpoints) Set(_ context.Context, key string, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values[key] = value
	return nil
}
