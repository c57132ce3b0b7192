package mocks

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/atomic"

	"github.com/onflow/drand-fulfiller/model/vrf"
	"github.com/onflow/drand-fulfiller/module"
	"github.com/onflow/drand-fulfiller/utils/unittest"
)

// BlockTime is the interval between two simulated blocks, in seconds.
const BlockTime = 2

// ErrRangeTooLarge is returned by Chain when a log query spans more blocks than allowed.
var ErrRangeTooLarge = errors.New("query returned more than allowed block range")

// QueryRange is a block range passed to FilterLogs.
type QueryRange struct {
	From uint64
	To   uint64
}

// Chain is a simulated EVM chain implementing module.LogProvider. It
// evaluates log filters the way a JSON-RPC node does and records every query.
type Chain struct {
	mu          sync.RWMutex
	chainID     *big.Int
	head        uint64
	genesisTime uint64
	maxRange    uint64
	logs        []types.Log
	nextIndex   map[uint64]uint
	queryErr    error
	headErr     error
	ranges      []QueryRange
	queries     *atomic.Uint64
}

var _ module.LogProvider = (*Chain)(nil)

// NewChain returns a chain at height `head` whose block n has timestamp genesisTime + n*BlockTime.
func NewChain(chainID *big.Int, head uint64, genesisTime uint64) *Chain {
	return &Chain{
		chainID:     chainID,
		head:        head,
		genesisTime: genesisTime,
		nextIndex:   make(map[uint64]uint),
		queries:     atomic.NewUint64(0),
	}
}

// SetHead moves the chain head.
func (c *Chain) SetHead(head uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.head = head
}

// SetMaxRange makes FilterLogs reject queries spanning more than `n` blocks, like
// hosted providers do. 0 disables the limit.
func (c *Chain) SetMaxRange(n uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxRange = n
}

// FailQueries makes every subsequent FilterLogs call fail with `err`; nil restores the chain.
func (c *Chain) FailQueries(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queryErr = err
}

// FailHead makes BlockNumber and HeaderByNumber fail with `err`; nil restores the chain.
func (c *Chain) FailHead(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headErr = err
}

// Emit records the request as a log of the adapter contract at the request's
// block, assigning the next free log index of that block.
func (c *Chain) Emit(adapter common.Address, req *vrf.RandomnessRequest) types.Log {
	c.mu.Lock()
	defer c.mu.Unlock()

	req.LogIndex = c.nextIndex[req.BlockNumber]
	c.nextIndex[req.BlockNumber]++
	req.BlockHash = blockHash(req.BlockNumber)

	log := unittest.RequestLogFixture(adapter, req)
	c.logs = append(c.logs, log)
	sort.SliceStable(c.logs, func(i, j int) bool {
		if c.logs[i].BlockNumber != c.logs[j].BlockNumber {
			return c.logs[i].BlockNumber < c.logs[j].BlockNumber
		}
		return c.logs[i].Index < c.logs[j].Index
	})
	return log
}

// EmitLog records an arbitrary log.
func (c *Chain) EmitLog(log types.Log) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs = append(c.logs, log)
}

// Queries returns the number of FilterLogs calls so far.
func (c *Chain) Queries() uint64 {
	return c.queries.Load()
}

// QueriedRanges returns the block ranges of all FilterLogs calls so far, in order.
func (c *Chain) QueriedRanges() []QueryRange {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]QueryRange, len(c.ranges))
	copy(out, c.ranges)
	return out
}

// BlockTimestamp returns the timestamp of block `number` in unix seconds.
func (c *Chain) BlockTimestamp(number uint64) uint64 {
	return c.genesisTime + number*BlockTime
}

func (c *Chain) BlockNumber(ctx context.Context) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.headErr != nil {
		return 0, c.headErr
	}
	return c.head, nil
}

func (c *Chain) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.chainID), nil
}

func (c *Chain) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.headErr != nil {
		return nil, c.headErr
	}
	height := c.head
	if number != nil {
		height = number.Uint64()
	}
	if height > c.head {
		return nil, ethereum.NotFound
	}
	return &types.Header{
		Number: new(big.Int).SetUint64(height),
		Time:   c.BlockTimestamp(height),
	}, nil
}

func (c *Chain) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	c.queries.Inc()

	c.mu.Lock()
	defer c.mu.Unlock()

	if query.FromBlock == nil || query.ToBlock == nil {
		return nil, fmt.Errorf("simulated chain requires explicit block bounds")
	}
	from, to := query.FromBlock.Uint64(), query.ToBlock.Uint64()
	c.ranges = append(c.ranges, QueryRange{From: from, To: to})

	if c.queryErr != nil {
		return nil, c.queryErr
	}
	if from > to {
		return nil, fmt.Errorf("invalid block range %d-%d", from, to)
	}
	if c.maxRange > 0 && to-from+1 > c.maxRange {
		return nil, fmt.Errorf("%w: %d blocks requested, limit %d", ErrRangeTooLarge, to-from+1, c.maxRange)
	}

	var out []types.Log
	for _, log := range c.logs {
		if log.BlockNumber < from || log.BlockNumber > to {
			continue
		}
		if !matchAddress(query.Addresses, log.Address) || !matchTopics(query.Topics, log.Topics) {
			continue
		}
		out = append(out, log)
	}
	return out, nil
}

func matchAddress(addresses []common.Address, address common.Address) bool {
	if len(addresses) == 0 {
		return true
	}
	for _, a := range addresses {
		if a == address {
			return true
		}
	}
	return false
}

// matchTopics follows the JSON-RPC filter semantics: position i matches any of
// topics[i], an empty position matches anything.
func matchTopics(filter [][]common.Hash, topics []common.Hash) bool {
	if len(filter) > len(topics) {
		return false
	}
	for i, alternatives := range filter {
		if len(alternatives) == 0 {
			continue
		}
		found := false
		for _, topic := range alternatives {
			if topic == topics[i] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func blockHash(number uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(number + 1<<32))
}
