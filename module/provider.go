package module

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
)

// LogProvider is the subset of an EVM JSON-RPC client the fulfiller reads from.
type LogProvider interface {
	// BlockNumber returns the most recent block number.
	BlockNumber(ctx context.Context) (uint64, error)

	// FilterLogs executes a log filter query.
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)

	// HeaderByNumber returns the header of the given block, latest if number is nil.
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)

	// ChainID returns the chain id used for replay protection.
	ChainID(ctx context.Context) (*big.Int, error)
}
