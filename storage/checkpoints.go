package storage

import (
	"context"
)

// KeyLastBlockNumber is the key under which the highest fully scanned block is stored.
const KeyLastBlockNumber = "lastBlockNumber"

// Checkpoints is a small persistent key/value store provided by the host that
// runs the fulfiller. Values are strings; block heights are stored in decimal.
type Checkpoints interface {
	// Get returns the value stored under key.
	// Expected errors during normal operations:
	//   - storage.ErrNotFound if no value was ever stored under key
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	// No errors are expected during normal operation.
	Set(ctx context.Context, key string, value string) error
}
