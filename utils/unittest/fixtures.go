package unittest

import (
	"crypto/rand"
	"crypto/sha256"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/onflow/drand-fulfiller/model/drand"
	"github.com/onflow/drand-fulfiller/model/vrf"
)

func RandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

func AddressFixture() common.Address {
	return common.BytesToAddress(RandomBytes(common.AddressLength))
}

func AddressListFixture(n int) []common.Address {
	list := make([]common.Address, n)
	for i := range list {
		list[i] = AddressFixture()
	}
	return list
}

func HashFixture() common.Hash {
	return common.BytesToHash(RandomBytes(common.HashLength))
}

// ChainInfoFixture returns chain parameters for a chain with a 3s period whose
// genesis was long enough ago for the fixtures' rounds to be published.
func ChainInfoFixture() *drand.ChainInfo {
	info := drand.Quicknet()
	info.Hash = RandomBytes(32)
	return info
}

// BeaconFixture returns a beacon whose randomness is consistent with its
// (random) signature. It does not carry a valid BLS signature.
func BeaconFixture(round uint64) *drand.Beacon {
	sig := RandomBytes(48)
	digest := sha256.Sum256(sig)
	return &drand.Beacon{
		Round:      round,
		Signature:  sig,
		Randomness: digest[:],
	}
}

type RequestOption func(*vrf.RandomnessRequest)

func WithRound(round uint64) RequestOption {
	return func(r *vrf.RandomnessRequest) {
		r.Round = round
	}
}

func WithNumWords(n uint32) RequestOption {
	return func(r *vrf.RandomnessRequest) {
		r.NumWords = n
	}
}

func WithBlock(height uint64, logIndex uint) RequestOption {
	return func(r *vrf.RandomnessRequest) {
		r.BlockNumber = height
		r.LogIndex = logIndex
	}
}

func WithRequester(requester common.Address) RequestOption {
	return func(r *vrf.RandomnessRequest) {
		r.Requester = requester
	}
}

func RandomnessRequestFixture(opts ...RequestOption) *vrf.RandomnessRequest {
	req := &vrf.RandomnessRequest{
		Requester:   AddressFixture(),
		RequestID:   new(big.Int).SetBytes(RandomBytes(8)),
		NumWords:    1,
		Round:       1000,
		Consumer:    AddressFixture(),
		BlockNumber: 100,
		BlockHash:   HashFixture(),
		TxHash:      HashFixture(),
	}
	for _, apply := range opts {
		apply(req)
	}
	return req
}

// RequestLogFixture encodes the request as the log the adapter contract emits.
func RequestLogFixture(adapter common.Address, req *vrf.RandomnessRequest) types.Log {
	event := vrf.AdapterABI.Events[vrf.EventRandomnessRequest]
	data, err := event.Inputs.NonIndexed().Pack(req.NumWords, req.RequestID, req.Round, req.Consumer)
	if err != nil {
		panic(err)
	}
	return types.Log{
		Address: adapter,
		Topics: []common.Hash{
			vrf.RandomnessRequestTopic,
			common.BytesToHash(req.Requester.Bytes()),
		},
		Data:        data,
		BlockNumber: req.BlockNumber,
		BlockHash:   req.BlockHash,
		TxHash:      req.TxHash,
		Index:       req.LogIndex,
	}
}
