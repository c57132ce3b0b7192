package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/onflow/drand-fulfiller/storage"
)

// codeCheckpoint prefixes all checkpoint keys so the database can be shared
// with other data.
const codeCheckpoint byte = 0x64

// Checkpoints stores checkpoints in a badger database.
type Checkpoints struct {
	db *badger.DB
}

var _ storage.Checkpoints = (*Checkpoints)(nil)

func NewCheckpoints(db *badger.DB) *Checkpoints {
	return &Checkpoints{db: db}
}

// Get returns the checkpoint value stored under key.
// Expected errors during normal operations:
//   - storage.ErrNotFound if the key was never set
func (c *Checkpoints) Get(_ context.Context, key string) (string, error) {
	var value []byte
	err := c.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(makeKey(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return fmt.Errorf("could not load checkpoint: %w", err)
		}
		value, err = item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("could not read checkpoint value: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return string(value), nil
}

// Set stores the checkpoint value under key.
func (c *Checkpoints) Set(_ context.Context, key string, value string) error {
	err := c.db.Update(func(tx *badger.Txn) error {
		return tx.Set(makeKey(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("could not store checkpoint %s: %w", key, err)
	}
	return nil
}

func makeKey(key string) []byte {
	return append([]byte{codeCheckpoint}, key...)
}
