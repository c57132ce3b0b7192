package vrf

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	seedArguments abi.Arguments
	wordArguments abi.Arguments
)

func init() {
	uint256Type := mustNewType("uint256")
	seedArguments = abi.Arguments{
		{Name: "randomness", Type: uint256Type},
		{Name: "consumer", Type: mustNewType("address")},
		{Name: "chainId", Type: uint256Type},
		{Name: "requestId", Type: uint256Type},
	}
	wordArguments = abi.Arguments{
		{Name: "seed", Type: mustNewType("bytes32")},
		{Name: "index", Type: mustNewType("uint32")},
	}
}

// DeriveSeed binds beacon randomness to a request:
//
//	keccak256(abi.encode(uint256 randomness, address consumer, uint256 chainId, uint256 requestId))
//
// It returns an error if the inputs cannot be ABI encoded (nil or negative integers).
func DeriveSeed(randomness []byte, consumer common.Address, chainID *big.Int, requestID *big.Int) (common.Hash, error) {
	if chainID == nil || requestID == nil {
		return common.Hash{}, fmt.Errorf("chain id and request id are required")
	}
	encoded, err := seedArguments.Pack(new(big.Int).SetBytes(randomness), consumer, chainID, requestID)
	if err != nil {
		return common.Hash{}, fmt.Errorf("could not encode seed preimage: %w", err)
	}
	return crypto.Keccak256Hash(encoded), nil
}

// DeriveWord returns the word at the given 0-based index:
//
//	keccak256(abi.encode(bytes32 seed, uint32 index))
func DeriveWord(seed common.Hash, index uint32) common.Hash {
	encoded, err := wordArguments.Pack([32]byte(seed), index)
	if err != nil {
		// static types of fixed size always encode
		panic(fmt.Sprintf("could not encode word preimage: %v", err))
	}
	return crypto.Keccak256Hash(encoded)
}

// DeriveWords returns words 0..numWords-1 of the seed.
func DeriveWords(seed common.Hash, numWords uint32) []common.Hash {
	words := make([]common.Hash, numWords)
	for i := uint32(0); i < numWords; i++ {
		words[i] = DeriveWord(seed, i)
	}
	return words
}

func mustNewType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(fmt.Sprintf("invalid abi type %s: %v", t, err))
	}
	return typ
}
