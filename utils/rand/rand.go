// Package rand draws secure randoms from the system RNG through `crypto/rand`.
//
// Functions in this package return an error if the system RNG fails to provide
// entropy. Callers should treat that as an irrecoverable exception.
package rand

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// Uint64n returns a random uint64 strictly less than `n`.
//
// It returns:
//   - (0, exception) if `n==0`
//   - (0, exception) if crypto/rand fails to provide entropy
//   - (random, nil) otherwise
func Uint64n(n uint64) (uint64, error) {
	if n == 0 {
		return 0, fmt.Errorf("n should be strictly positive, got %d", n)
	}
	max := n - 1
	size := 0
	for tmp := max; tmp != 0; tmp >>= 8 {
		size++
	}
	mask := uint64(0)
	for max&mask != max {
		mask = (mask << 1) | 1
	}

	// rejection sampling over the bit size of max keeps the result uniform
	buffer := make([]byte, 8)
	random := n
	for random > max {
		if _, err := rand.Read(buffer[:size]); err != nil {
			return 0, fmt.Errorf("crypto/rand read failed: %w", err)
		}
		random = binary.LittleEndian.Uint64(buffer) & mask
	}
	return random, nil
}

// Shuffle permutes `n` elements in place through the `swap` function,
// using Fisher-Yates with crypto/rand as the source of randoms.
func Shuffle(n uint, swap func(i, j uint)) error {
	for i := uint(0); i < n; i++ {
		j, err := Uint64n(uint64(n - i))
		if err != nil {
			return err
		}
		swap(i, i+uint(j))
	}
	return nil
}

// Permutation returns a shuffled copy of `items`. The input is not modified.
func Permutation[T any](items []T) ([]T, error) {
	out := make([]T, len(items))
	copy(out, items)
	err := Shuffle(uint(len(out)), func(i, j uint) {
		out[i], out[j] = out[j], out[i]
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
