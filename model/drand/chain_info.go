package drand

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidChainInfo is returned when chain parameters cannot be used to map time to rounds.
var ErrInvalidChainInfo = errors.New("invalid drand chain info")

// ChainInfo holds the public parameters of a drand chain, as served by the
// `/{chainHash}/info` endpoint of any drand HTTP relay.
type ChainInfo struct {
	PublicKey   HexBytes `json:"public_key"`
	Period      uint64   `json:"period"`       // seconds between two rounds
	GenesisTime int64    `json:"genesis_time"` // unix seconds of round 1
	Hash        HexBytes `json:"hash"`
	GroupHash   HexBytes `json:"groupHash"`
	Scheme      string   `json:"schemeID"`
	Metadata    Metadata `json:"metadata"`
}

type Metadata struct {
	BeaconID string `json:"beaconID"`
}

// HashString returns the hex chain hash used in relay URLs.
func (c *ChainInfo) HashString() string {
	return hex.EncodeToString(c.Hash)
}

// Validate checks the parameters the round arithmetic and the verifier depend on.
func (c *ChainInfo) Validate() error {
	if c.Period == 0 {
		return fmt.Errorf("%w: period must be positive", ErrInvalidChainInfo)
	}
	if c.GenesisTime <= 0 {
		return fmt.Errorf("%w: genesis time must be positive, got %d", ErrInvalidChainInfo, c.GenesisTime)
	}
	if len(c.Hash) != 32 {
		return fmt.Errorf("%w: chain hash must be 32 bytes, got %d", ErrInvalidChainInfo, len(c.Hash))
	}
	if len(c.PublicKey) == 0 {
		return fmt.Errorf("%w: missing public key", ErrInvalidChainInfo)
	}
	return nil
}

// RoundAt returns the round that is expected to be published at the given time.
func (c *ChainInfo) RoundAt(t time.Time) uint64 {
	return RoundAt(t.UnixMilli(), c)
}

// CurrentRound returns the most recent round that should exist at `now`.
func (c *ChainInfo) CurrentRound(now time.Time) uint64 {
	return c.RoundAt(now)
}

// TimeOfRound returns the time at which the given round is published.
// Round 0 and round 1 both map to the genesis time.
func (c *ChainInfo) TimeOfRound(round uint64) time.Time {
	if round <= 1 {
		return time.Unix(c.GenesisTime, 0)
	}
	offset := time.Duration(round-1) * time.Duration(c.Period) * time.Second
	return time.Unix(c.GenesisTime, 0).Add(offset)
}

// RoundAt maps a unix timestamp in milliseconds to a drand round:
//
//	round = floor((timestamp - genesis) / period) + 1
//
// The result is clamped to 1 for timestamps before genesis or for chain info
// without a period.
func RoundAt(timestampMillis int64, info *ChainInfo) uint64 {
	genesis := info.GenesisTime * 1000
	period := int64(info.Period) * 1000
	if period <= 0 || timestampMillis < genesis {
		return 1
	}
	return uint64((timestampMillis-genesis)/period) + 1
}
