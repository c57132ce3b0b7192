package fulfillment

import (
	"context"
	"math"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"github.com/onflow/drand-fulfiller/model/vrf"
	"github.com/onflow/drand-fulfiller/module"
)

// ScanResult is the outcome of one bounded scan.
type ScanResult struct {
	// Logs are the request logs found, in ascending (block, log index) order.
	Logs []types.Log
	// Checkpoint is the highest block whose logs were retrieved. It equals the
	// input checkpoint if no window was scanned, and is nil only if there was
	// no input checkpoint and nothing was scanned.
	Checkpoint *uint64
	// Queries is the number of provider log queries issued.
	Queries uint
	// CaughtUp is true if the scan reached the current block.
	CaughtUp bool
}

// Scanner walks the adapter's log history in bounded windows.
type Scanner struct {
	log        zerolog.Logger
	provider   module.LogProvider
	metrics    module.ScannerMetrics
	adapter    common.Address
	senders    []common.Hash
	maxWindow  uint64
	maxWindows uint
	lookback   uint64
	stale      uint64
	startBlock *uint64
}

// NewScanner returns a scanner for the adapter and senders of `cfg`.
// Returns ErrInvalidConfig if `cfg` has no room for a single window.
func NewScanner(log zerolog.Logger, provider module.LogProvider, metrics module.ScannerMetrics, cfg Config) (*Scanner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	senders := make([]common.Hash, 0, len(cfg.AllowedSenders))
	for _, sender := range cfg.AllowedSenders {
		senders = append(senders, common.BytesToHash(sender.Bytes()))
	}
	return &Scanner{
		log:        log.With().Str("component", "event_scanner").Logger(),
		provider:   provider,
		metrics:    metrics,
		adapter:    cfg.Adapter,
		senders:    senders,
		maxWindow:  cfg.MaxWindow,
		maxWindows: cfg.MaxWindows,
		lookback:   cfg.DefaultLookback,
		stale:      cfg.StaleThreshold,
		startBlock: cfg.StartBlock,
	}, nil
}

// StartBlock returns the first block to scan for the given checkpoint. The
// second return is false if the checkpoint is the highest representable block
// and nothing remains to be scanned.
func (s *Scanner) StartBlock(checkpoint *uint64, currentBlock uint64) (uint64, bool) {
	if checkpoint != nil {
		if *checkpoint == math.MaxUint64 {
			return 0, false
		}
		return *checkpoint + 1, true
	}
	if s.startBlock != nil {
		return *s.startBlock, true
	}
	if currentBlock < s.lookback {
		return 0, true
	}
	return currentBlock - s.lookback, true
}

// Scan retrieves the request logs from the block after `checkpoint` towards
// `currentBlock`, using at most maxWindows queries of at most maxWindow blocks.
// With an empty sender allow-list no query matches anything, so windows advance
// without contacting the provider.
// Expected errors during normal operations:
//   - ProviderQueryFailedError if a log query failed; no partial result is returned
func (s *Scanner) Scan(ctx context.Context, checkpoint *uint64, currentBlock uint64) (*ScanResult, error) {
	from, ok := s.StartBlock(checkpoint, currentBlock)
	result := &ScanResult{Checkpoint: checkpoint}
	if !ok {
		s.metrics.Backlog(0)
		result.CaughtUp = true
		return result, nil
	}

	if from <= currentBlock {
		backlog := currentBlock - from + 1
		s.metrics.Backlog(backlog)
		if s.stale > 0 && backlog > s.stale {
			s.log.Warn().
				Uint64("from_block", from).
				Uint64("current_block", currentBlock).
				Uint64("backlog", backlog).
				Msg("scanner is behind the chain head, catching up over several invocations")
		}
	} else {
		s.metrics.Backlog(0)
	}

	for windows := uint(0); windows < s.maxWindows && from <= currentBlock; windows++ {
		to := from + s.maxWindow - 1
		if to > currentBlock || to < from {
			to = currentBlock
		}

		if len(s.senders) > 0 {
			logs, err := s.query(ctx, from, to)
			result.Queries++
			if err != nil {
				return nil, NewProviderQueryFailedError(from, to, err)
			}
			result.Logs = append(result.Logs, logs...)
		}

		scanned := to
		result.Checkpoint = &scanned
		from = to + 1
	}
	result.CaughtUp = from > currentBlock

	lg := s.log.Debug().Uint("queries", result.Queries).Int("logs", len(result.Logs)).Bool("caught_up", result.CaughtUp)
	if result.Checkpoint != nil {
		lg = lg.Uint64("checkpoint", *result.Checkpoint)
	}
	lg.Msg("scan finished")

	return result, nil
}

func (s *Scanner) query(ctx context.Context, from, to uint64) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{s.adapter},
		Topics:    [][]common.Hash{{vrf.RandomnessRequestTopic}, s.senders},
	}

	start := time.Now()
	logs, err := s.provider.FilterLogs(ctx, query)
	s.metrics.LogQuery(to-from+1, len(logs), time.Since(start), err)
	if err != nil {
		s.log.Warn().Err(err).Uint64("from_block", from).Uint64("to_block", to).Msg("log query failed")
		return nil, err
	}

	sortLogs(logs)
	return logs, nil
}

// sortLogs orders logs by block and position within the block.
func sortLogs(logs []types.Log) {
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})
}
