package fulfillment

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/drand-fulfiller/utils/unittest"
)

func TestDecoder_Decode(t *testing.T) {
	adapter := unittest.AddressFixture()
	decoder := NewDecoder(adapter)

	req := unittest.RandomnessRequestFixture(unittest.WithNumWords(3), unittest.WithRound(4242), unittest.WithBlock(77, 5))
	decoded, err := decoder.Decode(unittest.RequestLogFixture(adapter, req))
	require.NoError(t, err)
	assert.Equal(t, req, decoded)
}

func TestDecoder_DecodeZeroRound(t *testing.T) {
	adapter := unittest.AddressFixture()
	decoder := NewDecoder(adapter)

	req := unittest.RandomnessRequestFixture(unittest.WithRound(0))
	decoded, err := decoder.Decode(unittest.RequestLogFixture(adapter, req))
	require.NoError(t, err)
	assert.False(t, decoded.HasRound())
}

func TestDecoder_Malformed(t *testing.T) {
	adapter := unittest.AddressFixture()
	decoder := NewDecoder(adapter)
	req := unittest.RandomnessRequestFixture()

	t.Run("other contract", func(t *testing.T) {
		log := unittest.RequestLogFixture(unittest.AddressFixture(), req)
		_, err := decoder.Decode(log)
		assert.True(t, IsMalformedEventError(err))
	})

	t.Run("missing sender topic", func(t *testing.T) {
		log := unittest.RequestLogFixture(adapter, req)
		log.Topics = log.Topics[:1]
		_, err := decoder.Decode(log)
		assert.True(t, IsMalformedEventError(err))
	})

	t.Run("other event", func(t *testing.T) {
		log := unittest.RequestLogFixture(adapter, req)
		log.Topics[0] = unittest.HashFixture()
		_, err := decoder.Decode(log)
		assert.True(t, IsMalformedEventError(err))
	})

	t.Run("sender topic is not an address", func(t *testing.T) {
		log := unittest.RequestLogFixture(adapter, req)
		log.Topics[1] = common.HexToHash("0xff00000000000000000000000000000000000000000000000000000000000001")
		_, err := decoder.Decode(log)
		assert.True(t, IsMalformedEventError(err))
	})

	t.Run("truncated data", func(t *testing.T) {
		log := unittest.RequestLogFixture(adapter, req)
		log.Data = log.Data[:64]
		_, err := decoder.Decode(log)
		assert.True(t, IsMalformedEventError(err))
	})

	t.Run("zero words", func(t *testing.T) {
		log := unittest.RequestLogFixture(adapter, unittest.RandomnessRequestFixture(unittest.WithNumWords(0)))
		_, err := decoder.Decode(log)
		assert.True(t, IsMalformedEventError(err))
	})
}

func TestDecoder_DecodeAll(t *testing.T) {
	adapter := unittest.AddressFixture()
	decoder := NewDecoder(adapter)

	first := unittest.RandomnessRequestFixture(unittest.WithBlock(10, 0))
	second := unittest.RandomnessRequestFixture(unittest.WithBlock(10, 1))
	second.RequestID = big.NewInt(7)

	requests, err := decoder.DecodeAll([]types.Log{
		unittest.RequestLogFixture(adapter, first),
		unittest.RequestLogFixture(adapter, second),
	})
	require.NoError(t, err)
	require.Len(t, requests, 2)
	assert.Equal(t, first.RequestID, requests[0].RequestID)
	assert.Equal(t, big.NewInt(7), requests[1].RequestID)

	t.Run("stops at the first malformed log", func(t *testing.T) {
		bad := unittest.RequestLogFixture(adapter, first)
		bad.Topics = nil
		_, err := decoder.DecodeAll([]types.Log{unittest.RequestLogFixture(adapter, second), bad})
		require.Error(t, err)
		assert.True(t, IsMalformedEventError(err))
	})

	t.Run("empty", func(t *testing.T) {
		requests, err := decoder.DecodeAll(nil)
		require.NoError(t, err)
		assert.Empty(t, requests)
	})
}
