package fulfillment

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// DefaultMaxWindow is the number of blocks covered by one log query. Hosted
	// providers commonly reject wider eth_getLogs ranges.
	DefaultMaxWindow = 100
	// DefaultMaxWindows bounds the log queries of one invocation.
	DefaultMaxWindows = 100
	// DefaultLookback is how far behind the head the first invocation starts.
	DefaultLookback = 700
	// DefaultStaleThreshold is the backlog, in blocks, above which the scanner reports falling behind.
	DefaultStaleThreshold = 10_000
	// DefaultBeaconConcurrency bounds the concurrent beacon fetches of one invocation.
	DefaultBeaconConcurrency = 4
)

// ErrInvalidConfig is returned by the constructors for configurations the scanner
// or the builder cannot run with.
var ErrInvalidConfig = errors.New("invalid fulfillment configuration")

// Config is the configuration of the reconciliation loop.
type Config struct {
	// Adapter is the contract emitting requests and receiving fulfillments.
	Adapter common.Address
	// AllowedSenders narrows the requests to these senders. Empty matches nothing.
	AllowedSenders []common.Address
	MaxWindow      uint64
	MaxWindows     uint
	// DefaultLookback is used only when no checkpoint exists and StartBlock is unset.
	DefaultLookback uint64
	StaleThreshold  uint64
	// StartBlock is the first block to scan when no checkpoint exists.
	StartBlock *uint64
	// DeliverRawRandomness sends the beacon randomness itself instead of the
	// request seed, for adapters that derive the seed on-chain.
	DeliverRawRandomness bool
	BeaconConcurrency    int
	// DeadlineRounds is the number of rounds after its target round a request is
	// considered late. Late requests are still fulfilled but logged; 0 disables the check.
	DeadlineRounds uint64
}

func DefaultConfig() Config {
	return Config{
		MaxWindow:         DefaultMaxWindow,
		MaxWindows:        DefaultMaxWindows,
		DefaultLookback:   DefaultLookback,
		StaleThreshold:    DefaultStaleThreshold,
		BeaconConcurrency: DefaultBeaconConcurrency,
	}
}

// Validate checks the bounds the scanner and the builder rely on.
func (c Config) Validate() error {
	if c.MaxWindow == 0 {
		return fmt.Errorf("%w: max window must be positive", ErrInvalidConfig)
	}
	if c.MaxWindows == 0 {
		return fmt.Errorf("%w: max windows must be positive", ErrInvalidConfig)
	}
	if c.BeaconConcurrency <= 0 {
		return fmt.Errorf("%w: beacon concurrency must be positive, got %d", ErrInvalidConfig, c.BeaconConcurrency)
	}
	return nil
}
