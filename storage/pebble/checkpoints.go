package pebble

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/onflow/drand-fulfiller/storage"
)

// codeCheckpoint prefixes all checkpoint keys.
const codeCheckpoint byte = 0x64

// Checkpoints stores checkpoints in a pebble database. Every write is synced
// to disk before Set returns.
type Checkpoints struct {
	db *pebble.DB
}

var _ storage.Checkpoints = (*Checkpoints)(nil)

func NewCheckpoints(db *pebble.DB) *Checkpoints {
	return &Checkpoints{db: db}
}

// Get returns the checkpoint value stored under key.
// Expected errors during normal operations:
//   - storage.ErrNotFound if the key was never set
func (c *Checkpoints) Get(_ context.Context, key string) (string, error) {
	val, closer, err := c.db.Get(makeKey(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("could not load checkpoint: %w", err)
	}
	defer closer.Close()

	// val is only valid until closer is closed
	return string(val), nil
}

// Set stores the checkpoint value under key.
func (c *Checkpoints) Set(_ context.Context, key string, value string) error {
	err := c.db.Set(makeKey(key), []byte(value), pebble.Sync)
	if err != nil {
		return fmt.Errorf("could not store checkpoint %s: %w", key, err)
	}
	return nil
}

func makeKey(key string) []byte {
	return append([]byte{codeCheckpoint}, key...)
}
