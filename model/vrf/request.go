package vrf

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// RandomnessRequest is a randomness request decoded from a single adapter log.
type RandomnessRequest struct {
	// Requester is the indexed sender of the request (the allow-listed account).
	Requester common.Address
	RequestID *big.Int
	// NumWords is the number of random words the consumer asked for, at least 1.
	NumWords uint32
	// Round is the drand round the request waits for. Zero means the round has
	// to be derived from the time of the request.
	Round    uint64
	Consumer common.Address

	BlockNumber uint64
	BlockHash   common.Hash
	TxHash      common.Hash
	LogIndex    uint
}

// HasRound returns true if the request names its target round explicitly.
func (r *RandomnessRequest) HasRound() bool {
	return r.Round != 0
}

func (r *RandomnessRequest) String() string {
	return fmt.Sprintf("request %s from %s (block %d, log %d, round %d, words %d)",
		r.RequestID, r.Requester.Hex(), r.BlockNumber, r.LogIndex, r.Round, r.NumWords)
}
