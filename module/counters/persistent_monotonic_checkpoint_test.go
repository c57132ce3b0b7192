package counters_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/onflow/drand-fulfiller/module/counters"
	"github.com/onflow/drand-fulfiller/storage"
	bstorage "github.com/onflow/drand-fulfiller/storage/badger"
	"github.com/onflow/drand-fulfiller/storage/inmemory"
	storagemock "github.com/onflow/drand-fulfiller/storage/mock"
	"github.com/onflow/drand-fulfiller/utils/unittest"
)

func TestMonotonicCheckpoint(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		ctx := context.Background()
		store := bstorage.NewCheckpoints(db)

		checkpoint, err := counters.NewPersistentMonotonicCheckpoint(ctx, store, storage.KeyLastBlockNumber)
		require.NoError(t, err)

		// no value stored yet
		_, ok := checkpoint.Value()
		require.False(t, ok)
		require.Nil(t, checkpoint.Pointer())

		var height1 = uint64(1234)
		require.NoError(t, checkpoint.Set(ctx, height1))
		actual, ok := checkpoint.Value()
		require.True(t, ok)
		require.Equal(t, height1, actual)

		// try to update value with less than current
		err = checkpoint.Set(ctx, height1-1)
		require.ErrorIs(t, err, counters.ErrDecreasingCheckpoint)

		// update the value with bigger height
		var height2 = uint64(1235)
		require.NoError(t, checkpoint.Set(ctx, height2))

		// check that new checkpoint over the same store has the same value
		checkpoint2, err := counters.NewPersistentMonotonicCheckpoint(ctx, store, storage.KeyLastBlockNumber)
		require.NoError(t, err)
		actual, ok = checkpoint2.Value()
		require.True(t, ok)
		require.Equal(t, height2, actual)
		require.Equal(t, height2, *checkpoint2.Pointer())
	})
}

func TestMonotonicCheckpoint_SameValueDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	store := storagemock.NewCheckpoints(t)
	store.On("Get", mock.Anything, storage.KeyLastBlockNumber).Return("100", nil).Once()

	checkpoint, err := counters.NewPersistentMonotonicCheckpoint(ctx, store, storage.KeyLastBlockNumber)
	require.NoError(t, err)

	// Set is never called on the store
	require.NoError(t, checkpoint.Set(ctx, 100))
}

func TestMonotonicCheckpoint_InvalidValue(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewCheckpoints()
	require.NoError(t, store.Set(ctx, storage.KeyLastBlockNumber, "0x10"))

	_, err := counters.NewPersistentMonotonicCheckpoint(ctx, store, storage.KeyLastBlockNumber)
	require.ErrorIs(t, err, storage.ErrInvalidValue)
}

func TestMonotonicCheckpoint_StoreFailure(t *testing.T) {
	ctx := context.Background()
	exception := errors.New("disk on fire")

	store := storagemock.NewCheckpoints(t)
	store.On("Get", mock.Anything, storage.KeyLastBlockNumber).Return("", exception).Once()

	_, err := counters.NewPersistentMonotonicCheckpoint(ctx, store, storage.KeyLastBlockNumber)
	require.ErrorIs(t, err, exception)

	store = storagemock.NewCheckpoints(t)
	store.On("Get", mock.Anything, storage.KeyLastBlockNumber).Return("5", nil).Once()
	store.On("Set", mock.Anything, storage.KeyLastBlockNumber, "6").Return(exception).Once()

	checkpoint, err := counters.NewPersistentMonotonicCheckpoint(ctx, store, storage.KeyLastBlockNumber)
	require.NoError(t, err)
	require.ErrorIs(t, checkpoint.Set(ctx, 6), exception)

	// failed write leaves the checkpoint unchanged
	actual, _ := checkpoint.Value()
	require.Equal(t, uint64(5), actual)
}
