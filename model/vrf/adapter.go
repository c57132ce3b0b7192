package vrf

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const (
	EventRandomnessRequest   = "RandomnessRequest"
	MethodFulfillRandomWords = "fulfillRandomWords"
	adapterABIJSON           = `[
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "internalType": "address", "name": "sender", "type": "address"},
			{"indexed": false, "internalType": "uint32", "name": "numWords", "type": "uint32"},
			{"indexed": false, "internalType": "uint256", "name": "requestId", "type": "uint256"},
			{"indexed": false, "internalType": "uint64", "name": "roundNumber", "type": "uint64"},
			{"indexed": false, "internalType": "address", "name": "consumer", "type": "address"}
		],
		"name": "RandomnessRequest",
		"type": "event"
	},
	{
		"inputs": [
			{"internalType": "uint32", "name": "numWords", "type": "uint32"},
			{"internalType": "uint256", "name": "requestId", "type": "uint256"},
			{"internalType": "uint256", "name": "randomness", "type": "uint256"},
			{"internalType": "address", "name": "consumer", "type": "address"}
		],
		"name": "fulfillRandomWords",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`
)

// AdapterABI is the part of the VRF adapter contract interface the fulfiller
// relies on: the request event it scans for and the call it produces.
var AdapterABI abi.ABI

// RandomnessRequestTopic is the topic0 of RandomnessRequest logs.
var RandomnessRequestTopic common.Hash

func init() {
	parsed, err := abi.JSON(strings.NewReader(adapterABIJSON))
	if err != nil {
		panic(fmt.Sprintf("invalid adapter abi: %v", err))
	}
	AdapterABI = parsed
	RandomnessRequestTopic = parsed.Events[EventRandomnessRequest].ID
}
