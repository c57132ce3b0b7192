package fulfillment

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/onflow/drand-fulfiller/model/vrf"
	"github.com/onflow/drand-fulfiller/module"
	"github.com/onflow/drand-fulfiller/module/counters"
	"github.com/onflow/drand-fulfiller/storage"
)

// Report describes the last finished invocation.
type Report struct {
	Result     *vrf.ExecutionResult `json:"result"`
	Checkpoint *uint64              `json:"checkpoint,omitempty"`
	FinishedAt time.Time            `json:"finishedAt"`
}

// Engine binds the reconciliation Core to a checkpoint store: it loads the
// checkpoint, runs one invocation and persists the new checkpoint at most once.
// Invocations must not overlap; Serve guarantees this, other callers must do so themselves.
type Engine struct {
	log         zerolog.Logger
	metrics     module.FulfillmentMetrics
	core        *Core
	checkpoints storage.Checkpoints
	last        *atomic.Pointer[Report]
}

func New(log zerolog.Logger, metrics module.FulfillmentMetrics, core *Core, checkpoints storage.Checkpoints) *Engine {
	return &Engine{
		log:         log.With().Str("engine", "fulfillment").Logger(),
		metrics:     metrics,
		core:        core,
		checkpoints: checkpoints,
		last:        atomic.NewPointer[Report](nil),
	}
}

// Execute runs one invocation. The returned result is always set. An error is
// returned only if the checkpoint store failed, in which case the result is
// blocked so that no call is proposed whose fulfillment could not be recorded.
func (e *Engine) Execute(ctx context.Context) (*vrf.ExecutionResult, error) {
	checkpoint, err := counters.NewPersistentMonotonicCheckpoint(ctx, e.checkpoints, storage.KeyLastBlockNumber)
	if err != nil {
		err = fmt.Errorf("could not load checkpoint: %w", err)
		return e.finish(vrf.Blocked(err.Error()), nil), err
	}

	result, next := e.core.Run(ctx, checkpoint.Pointer())
	if !result.CanExec || next == nil {
		return e.finish(result, checkpoint.Pointer()), nil
	}
	if ctx.Err() != nil {
		return e.finish(vrf.Blocked(fmt.Sprintf("invocation canceled: %v", ctx.Err())), checkpoint.Pointer()), nil
	}

	err = checkpoint.Set(ctx, *next)
	if err != nil {
		err = fmt.Errorf("could not advance checkpoint to %d: %w", *next, err)
		return e.finish(vrf.Blocked(err.Error()), checkpoint.Pointer()), err
	}
	e.metrics.CheckpointAdvanced(*next)

	return e.finish(result, next), nil
}

// Serve runs an invocation every `interval` until ctx is canceled. Each result
// is passed to `onResult` if set and is available through LastReport.
func (e *Engine) Serve(ctx context.Context, interval time.Duration, onResult func(*vrf.ExecutionResult)) {
	e.log.Info().Dur("interval", interval).Msg("starting reconciliation loop")
	NewIntervalWorker(interval).Run(ctx, func(ctx context.Context) {
		result, err := e.Execute(ctx)
		if err != nil {
			e.log.Error().Err(err).Msg("checkpoint store failed")
		}
		if onResult != nil {
			onResult(result)
		}
	})
	e.log.Info().Msg("reconciliation loop stopped")
}

// LastReport returns the report of the last finished invocation, nil before the first one.
func (e *Engine) LastReport() *Report {
	return e.last.Load()
}

func (e *Engine) finish(result *vrf.ExecutionResult, checkpoint *uint64) *vrf.ExecutionResult {
	e.last.Store(&Report{
		Result:     result,
		Checkpoint: checkpoint,
		FinishedAt: time.Now(),
	})
	return result
}
