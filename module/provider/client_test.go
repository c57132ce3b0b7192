package provider

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	modulemock "github.com/onflow/drand-fulfiller/module/mock"
	"github.com/onflow/drand-fulfiller/utils/unittest"
)

func TestClient_Timeout(t *testing.T) {
	backend := modulemock.NewLogProvider(t)
	backend.On("FilterLogs", mock.Anything, mock.Anything).Return(
		func(ctx context.Context, _ ethereum.FilterQuery) ([]types.Log, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

	client := NewClient(unittest.Logger(), backend, 50*time.Millisecond)
	unittest.RequireReturnsBefore(t, func() {
		_, err := client.FilterLogs(context.Background(), ethereum.FilterQuery{})
		require.ErrorIs(t, err, context.DeadlineExceeded)
	}, time.Second, "log query was not bounded by the call timeout")
}

func TestClient_Passthrough(t *testing.T) {
	backend := modulemock.NewLogProvider(t)
	client := NewClient(unittest.Logger(), backend, time.Second)

	backend.On("BlockNumber", mock.Anything).Return(uint64(42), nil).Once()
	height, err := client.BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), height)

	backend.On("ChainID", mock.Anything).Return(big.NewInt(1), nil).Once()
	id, err := client.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.Int64())

	header := &types.Header{Number: big.NewInt(7), Time: 1000}
	backend.On("HeaderByNumber", mock.Anything, big.NewInt(7)).Return(header, nil).Once()
	h, err := client.HeaderByNumber(context.Background(), big.NewInt(7))
	require.NoError(t, err)
	assert.Equal(t, header, h)
}

func TestClient_ErrorsAreAnnotated(t *testing.T) {
	backend := modulemock.NewLogProvider(t)
	client := NewClient(unittest.Logger(), backend, time.Second)

	failure := errors.New("connection refused")
	backend.On("BlockNumber", mock.Anything).Return(uint64(0), failure).Once()

	_, err := client.BlockNumber(context.Background())
	require.ErrorIs(t, err, failure)
	assert.Equal(t, "eth_blockNumber: connection refused", err.Error())
}

func TestDial_GivesUp(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// nothing listens on this port; ChainID fails on every attempt
	_, _, err := Dial(ctx, unittest.Logger(), "http://127.0.0.1:1", 100*time.Millisecond, 1)
	require.Error(t, err)
}
