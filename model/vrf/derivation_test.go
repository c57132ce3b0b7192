package vrf_test

import (
	"encoding/binary"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/drand-fulfiller/model/vrf"
)

func TestDeriveSeed(t *testing.T) {
	randomness := common.FromHex("0x8c9f4d3f1c4cb1ad2c8a2a3ab2c1d8e4f3a6b5c4d3e2f1a0b9c8d7e6f5a4b3c2")
	consumer := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	chainID := big.NewInt(31337)
	requestID := big.NewInt(7)

	seed, err := vrf.DeriveSeed(randomness, consumer, chainID, requestID)
	require.NoError(t, err)

	// abi.encode of static types is the concatenation of 32-byte words
	var preimage []byte
	preimage = append(preimage, common.LeftPadBytes(randomness, 32)...)
	preimage = append(preimage, common.LeftPadBytes(consumer.Bytes(), 32)...)
	preimage = append(preimage, common.LeftPadBytes(chainID.Bytes(), 32)...)
	preimage = append(preimage, common.LeftPadBytes(requestID.Bytes(), 32)...)
	assert.Equal(t, crypto.Keccak256Hash(preimage), seed)

	t.Run("bound to every input", func(t *testing.T) {
		other, err := vrf.DeriveSeed(randomness, consumer, chainID, big.NewInt(8))
		require.NoError(t, err)
		assert.NotEqual(t, seed, other)

		other, err = vrf.DeriveSeed(randomness, consumer, big.NewInt(1), requestID)
		require.NoError(t, err)
		assert.NotEqual(t, seed, other)

		other, err = vrf.DeriveSeed(randomness, common.HexToAddress("0xbb"), chainID, requestID)
		require.NoError(t, err)
		assert.NotEqual(t, seed, other)
	})

	t.Run("missing inputs", func(t *testing.T) {
		_, err := vrf.DeriveSeed(randomness, consumer, nil, requestID)
		require.Error(t, err)
		_, err = vrf.DeriveSeed(randomness, consumer, chainID, nil)
		require.Error(t, err)
	})
}

func TestDeriveWords(t *testing.T) {
	seed := crypto.Keccak256Hash([]byte("seed"))

	index := make([]byte, 4)
	binary.BigEndian.PutUint32(index, 2)
	expected := crypto.Keccak256Hash(seed.Bytes(), common.LeftPadBytes(index, 32))
	assert.Equal(t, expected, vrf.DeriveWord(seed, 2))

	// pure function of seed and index
	assert.Equal(t, vrf.DeriveWord(seed, 2), vrf.DeriveWord(seed, 2))

	words := vrf.DeriveWords(seed, 3)
	require.Len(t, words, 3)
	for i, w := range words {
		assert.Equal(t, vrf.DeriveWord(seed, uint32(i)), w)
	}
	assert.NotEqual(t, words[0], words[1])
	assert.NotEqual(t, words[1], words[2])

	assert.Empty(t, vrf.DeriveWords(seed, 0))
}

func TestExecutionResultJSON(t *testing.T) {
	res := vrf.Executable(nil)
	encoded, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"canExec":true,"callData":[]}`, string(encoded))

	res = vrf.Executable([]vrf.FulfillmentCall{{
		To:        common.HexToAddress("0x01"),
		Data:      []byte{0xde, 0xad},
		RequestID: big.NewInt(1),
	}})
	encoded, err = json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"canExec":true,"callData":[{"to":"0x0000000000000000000000000000000000000001","data":"0xdead"}]}`, string(encoded))

	encoded, err = json.Marshal(vrf.Blocked("rpc call failed"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"canExec":false,"message":"rpc call failed"}`, string(encoded))
}
