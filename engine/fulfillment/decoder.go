package fulfillment

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/onflow/drand-fulfiller/model/vrf"
)

// Decoder parses RandomnessRequest logs of one adapter contract.
type Decoder struct {
	adapter common.Address
	event   abi.Event
}

func NewDecoder(adapter common.Address) *Decoder {
	return &Decoder{
		adapter: adapter,
		event:   vrf.AdapterABI.Events[vrf.EventRandomnessRequest],
	}
}

// randomnessRequestData are the non-indexed fields of the event.
type randomnessRequestData struct {
	NumWords    uint32
	RequestId   *big.Int
	RoundNumber uint64
	Consumer    common.Address
}

// Decode turns one log into one request.
// Expected errors during normal operations:
//   - MalformedEventError if the log is not a well formed RandomnessRequest of the adapter
func (d *Decoder) Decode(log types.Log) (*vrf.RandomnessRequest, error) {
	if log.Address != d.adapter {
		return nil, NewMalformedEventErrorf(log.BlockNumber, log.Index, "log emitted by %s, expected adapter %s", log.Address.Hex(), d.adapter.Hex())
	}
	if len(log.Topics) != 2 {
		return nil, NewMalformedEventErrorf(log.BlockNumber, log.Index, "expected 2 topics, got %d", len(log.Topics))
	}
	if log.Topics[0] != d.event.ID {
		return nil, NewMalformedEventErrorf(log.BlockNumber, log.Index, "unexpected event topic %s", log.Topics[0].Hex())
	}
	// an indexed address is left padded with 12 zero bytes
	if !bytes.Equal(log.Topics[1][:common.HashLength-common.AddressLength], make([]byte, common.HashLength-common.AddressLength)) {
		return nil, NewMalformedEventErrorf(log.BlockNumber, log.Index, "sender topic %s is not an address", log.Topics[1].Hex())
	}

	var data randomnessRequestData
	if err := vrf.AdapterABI.UnpackIntoInterface(&data, vrf.EventRandomnessRequest, log.Data); err != nil {
		return nil, NewMalformedEventErrorf(log.BlockNumber, log.Index, "could not unpack event data: %w", err)
	}
	if data.NumWords == 0 {
		return nil, NewMalformedEventErrorf(log.BlockNumber, log.Index, "request %s asks for zero words", data.RequestId)
	}

	return &vrf.RandomnessRequest{
		Requester:   common.BytesToAddress(log.Topics[1].Bytes()),
		RequestID:   data.RequestId,
		NumWords:    data.NumWords,
		Round:       data.RoundNumber,
		Consumer:    data.Consumer,
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash,
		TxHash:      log.TxHash,
		LogIndex:    log.Index,
	}, nil
}

// DecodeAll decodes logs in order and stops at the first malformed one.
func (d *Decoder) DecodeAll(logs []types.Log) ([]*vrf.RandomnessRequest, error) {
	requests := make([]*vrf.RandomnessRequest, 0, len(logs))
	for _, log := range logs {
		req, err := d.Decode(log)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, nil
}
