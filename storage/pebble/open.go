package pebble

import (
	"fmt"

	"github.com/cockroachdb/pebble"
)

// Open opens (or creates) the pebble database in dir.
func Open(dir string) (*pebble.DB, error) {
	cache := pebble.NewCache(1 << 20)
	defer cache.Unref()

	db, err := pebble.Open(dir, &pebble.Options{Cache: cache})
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return db, nil
}
