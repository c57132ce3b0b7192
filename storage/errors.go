package storage

import (
	"errors"
)

var (
	// Note: every backend translates its own "missing key" error (badger.ErrKeyNotFound,
	// pebble.ErrNotFound, redis.Nil) into storage.ErrNotFound, so callers only
	// ever need to check for this one.
	ErrNotFound = errors.New("key not found")

	// ErrInvalidValue is returned when a stored value cannot be interpreted.
	ErrInvalidValue = errors.New("invalid stored value")
)
