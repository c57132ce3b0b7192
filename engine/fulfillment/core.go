package fulfillment

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/onflow/drand-fulfiller/model/vrf"
	"github.com/onflow/drand-fulfiller/module"
)

// State is a state of the reconciliation state machine.
type State string

const (
	StateIdle      State = "idle"
	StateScanning  State = "scanning"
	StateDecoding  State = "decoding"
	StateResolving State = "resolving"
	StateReady     State = "ready"
	StateBlocked   State = "blocked"
)

// Core runs one reconciliation: scan from a checkpoint, decode the requests,
// resolve their randomness and propose the calls. It does not persist anything.
type Core struct {
	log      zerolog.Logger
	metrics  module.FulfillmentMetrics
	provider module.LogProvider
	scanner  *Scanner
	decoder  *Decoder
	builder  *Builder

	chainIDMu sync.Mutex
	chainID   *big.Int
}

func NewCore(
	log zerolog.Logger,
	metrics module.FulfillmentMetrics,
	provider module.LogProvider,
	beacons module.BeaconClient,
	cfg Config,
) (*Core, error) {
	log = log.With().Str("engine", "fulfillment").Logger()
	scanner, err := NewScanner(log, provider, metrics, cfg)
	if err != nil {
		return nil, err
	}
	return &Core{
		log:      log,
		metrics:  metrics,
		provider: provider,
		scanner:  scanner,
		decoder:  NewDecoder(cfg.Adapter),
		builder:  NewBuilder(log, beacons, provider, cfg),
	}, nil
}

// Run performs one invocation from `checkpoint` (nil if none was ever stored).
// It returns the result and the checkpoint to persist. The returned checkpoint
// differs from the input only for an executable result. Failures are reported
// in the result and never as an error.
func (c *Core) Run(ctx context.Context, checkpoint *uint64) (*vrf.ExecutionResult, *uint64) {
	start := time.Now()
	log := c.log.With().Str("invocation_id", uuid.NewString()).Logger()
	if checkpoint != nil {
		log = log.With().Uint64("checkpoint", *checkpoint).Logger()
	}

	state := StateIdle
	transition := func(next State) {
		log.Debug().Str("from", string(state)).Str("to", string(next)).Msg("state transition")
		state = next
	}
	blocked := func(err error) (*vrf.ExecutionResult, *uint64) {
		transition(StateBlocked)
		log.Warn().Err(err).Dur("duration", time.Since(start)).Msg("invocation blocked")
		c.metrics.InvocationFinished(string(StateBlocked), time.Since(start))
		return vrf.Blocked(err.Error()), checkpoint
	}

	transition(StateScanning)
	currentBlock, err := c.provider.BlockNumber(ctx)
	if err != nil {
		return blocked(NewProviderQueryFailedError(0, 0, err))
	}
	chainID, err := c.chainIDOf(ctx)
	if err != nil {
		return blocked(NewProviderQueryFailedError(0, 0, err))
	}
	scan, err := c.scanner.Scan(ctx, checkpoint, currentBlock)
	if err != nil {
		return blocked(err)
	}

	transition(StateDecoding)
	requests, err := c.decoder.DecodeAll(scan.Logs)
	if err != nil {
		return blocked(err)
	}

	transition(StateResolving)
	calls, err := c.builder.Build(ctx, chainID, requests)
	if err != nil {
		return blocked(err)
	}

	// a canceled invocation must not advance the checkpoint, even if all work completed
	if ctx.Err() != nil {
		return blocked(fmt.Errorf("invocation canceled: %w", ctx.Err()))
	}

	transition(StateReady)
	lg := log.Info().
		Uint64("current_block", currentBlock).
		Uint("queries", scan.Queries).
		Int("requests", len(requests)).
		Int("calls", len(calls)).
		Bool("caught_up", scan.CaughtUp).
		Dur("duration", time.Since(start))
	if scan.Checkpoint != nil {
		lg = lg.Uint64("new_checkpoint", *scan.Checkpoint)
	}
	lg.Msg("invocation ready")

	c.metrics.CallsBuilt(len(calls))
	c.metrics.InvocationFinished(string(StateReady), time.Since(start))
	return vrf.Executable(calls), scan.Checkpoint
}

// chainIDOf returns the chain id, fetched once from the provider.
func (c *Core) chainIDOf(ctx context.Context) (*big.Int, error) {
	c.chainIDMu.Lock()
	defer c.chainIDMu.Unlock()
	if c.chainID != nil {
		return c.chainID, nil
	}
	id, err := c.provider.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	c.chainID = id
	return id, nil
}
