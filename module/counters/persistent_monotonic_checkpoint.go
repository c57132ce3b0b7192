package counters

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/onflow/drand-fulfiller/storage"
)

// ErrDecreasingCheckpoint is returned when a checkpoint update would move it backwards.
var ErrDecreasingCheckpoint = errors.New("could not update checkpoint to a height lower than the current height")

// PersistentMonotonicCheckpoint is a block height stored in a checkpoint store
// that can only move forward.
// The checkpoint key must not be written outside of calls to this object,
// otherwise the cached value may become inconsistent.
type PersistentMonotonicCheckpoint struct {
	store storage.Checkpoints
	key   string

	value uint64
	set   bool
}

// NewPersistentMonotonicCheckpoint loads the checkpoint stored under key.
// A missing key is not an error: the checkpoint starts out unset.
//
// Expected errors during normal operations:
//   - storage.ErrInvalidValue if the stored value is not a decimal block height
func NewPersistentMonotonicCheckpoint(ctx context.Context, store storage.Checkpoints, key string) (*PersistentMonotonicCheckpoint, error) {
	c := &PersistentMonotonicCheckpoint{
		store: store,
		key:   key,
	}

	raw, err := store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c, nil
		}
		return nil, fmt.Errorf("could not read checkpoint %s: %w", key, err)
	}

	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("checkpoint %s has value %q: %w", key, raw, storage.ErrInvalidValue)
	}
	c.value = value
	c.set = true

	return c, nil
}

// Value returns the current checkpoint and whether one was ever stored.
func (c *PersistentMonotonicCheckpoint) Value() (uint64, bool) {
	return c.value, c.set
}

// Pointer returns the checkpoint as a pointer, nil when unset.
func (c *PersistentMonotonicCheckpoint) Pointer() *uint64 {
	if !c.set {
		return nil
	}
	v := c.value
	return &v
}

// Set persists a new checkpoint. Setting the current value again does not write.
//
// Expected errors during normal operations:
//   - ErrDecreasingCheckpoint if height is lower than the current checkpoint
func (c *PersistentMonotonicCheckpoint) Set(ctx context.Context, height uint64) error {
	if c.set {
		if height < c.value {
			return fmt.Errorf("%w: current %d, requested %d", ErrDecreasingCheckpoint, c.value, height)
		}
		if height == c.value {
			return nil
		}
	}

	err := c.store.Set(ctx, c.key, strconv.FormatUint(height, 10))
	if err != nil {
		return fmt.Errorf("could not persist checkpoint %s: %w", c.key, err)
	}
	c.value = height
	c.set = true
	return nil
}
