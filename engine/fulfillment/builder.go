package fulfillment

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/onflow/drand-fulfiller/model/drand"
	"github.com/onflow/drand-fulfiller/model/vrf"
	"github.com/onflow/drand-fulfiller/module"
)

// Builder turns decoded requests into fulfillment calls.
type Builder struct {
	log            zerolog.Logger
	beacons        module.BeaconClient
	provider       module.LogProvider
	adapter        common.Address
	rawRandomness  bool
	concurrency    int
	deadlineRounds uint64
	now            func() time.Time
}

func NewBuilder(log zerolog.Logger, beacons module.BeaconClient, provider module.LogProvider, cfg Config) *Builder {
	return &Builder{
		log:            log.With().Str("component", "fulfillment_builder").Logger(),
		beacons:        beacons,
		provider:       provider,
		adapter:        cfg.Adapter,
		rawRandomness:  cfg.DeliverRawRandomness,
		concurrency:    cfg.BeaconConcurrency,
		deadlineRounds: cfg.DeadlineRounds,
		now:            time.Now,
	}
}

// Build resolves the randomness of every request and returns one call per
// request, in the order of `requests`. Any failure aborts the whole batch.
// Expected errors during normal operations:
//   - BeaconResolutionFailedError if the round or the beacon of any request could not be resolved
func (b *Builder) Build(ctx context.Context, chainID *big.Int, requests []*vrf.RandomnessRequest) ([]vrf.FulfillmentCall, error) {
	if len(requests) == 0 {
		return []vrf.FulfillmentCall{}, nil
	}

	rounds, err := b.targetRounds(ctx, requests)
	if err != nil {
		return nil, err
	}

	beacons, err := b.fetchBeacons(ctx, requests, rounds)
	if err != nil {
		return nil, err
	}

	current := b.beacons.Info().CurrentRound(b.now())
	calls := make([]vrf.FulfillmentCall, 0, len(requests))
	for i, req := range requests {
		round := rounds[i]
		if b.deadlineRounds > 0 && round+b.deadlineRounds < current {
			// the adapter rejects late fulfillments on-chain; the call is still proposed
			b.log.Warn().
				Str("request_id", req.RequestID.String()).
				Uint64("round", round).
				Uint64("current_round", current).
				Msg("request is past its fulfillment deadline")
		}

		call, err := b.buildCall(chainID, req, round, beacons[round])
		if err != nil {
			return nil, NewBeaconResolutionFailedError(req.RequestID.String(), round, err)
		}
		calls = append(calls, call)
	}
	return calls, nil
}

// targetRounds returns the round of every request. Requests without a round wait
// for the first round published strictly after their block.
func (b *Builder) targetRounds(ctx context.Context, requests []*vrf.RandomnessRequest) ([]uint64, error) {
	info := b.beacons.Info()
	current := info.CurrentRound(b.now())
	timestamps := make(map[uint64]uint64)

	rounds := make([]uint64, len(requests))
	for i, req := range requests {
		round := req.Round
		if !req.HasRound() {
			ts, ok := timestamps[req.BlockNumber]
			if !ok {
				header, err := b.provider.HeaderByNumber(ctx, new(big.Int).SetUint64(req.BlockNumber))
				if err != nil {
					return nil, NewBeaconResolutionFailedError(req.RequestID.String(), 0,
						fmt.Errorf("could not read block %d: %w", req.BlockNumber, err))
				}
				ts = header.Time
				timestamps[req.BlockNumber] = ts
			}
			round = drand.RoundAt(int64(ts)*1000, info) + 1
		}
		if round > current {
			return nil, NewBeaconResolutionFailedError(req.RequestID.String(), round,
				fmt.Errorf("%w: current round is %d", ErrRoundNotPublished, current))
		}
		rounds[i] = round
	}
	return rounds, nil
}

// fetchBeacons fetches every distinct round once, concurrently.
func (b *Builder) fetchBeacons(ctx context.Context, requests []*vrf.RandomnessRequest, rounds []uint64) (map[uint64]*drand.Beacon, error) {
	// the first request waiting for a round names the failure
	owners := make(map[uint64]*vrf.RandomnessRequest)
	var distinct []uint64
	for i, round := range rounds {
		if _, ok := owners[round]; !ok {
			owners[round] = requests[i]
			distinct = append(distinct, round)
		}
	}

	var mu sync.Mutex
	beacons := make(map[uint64]*drand.Beacon, len(distinct))

	g, gCtx := errgroup.WithContext(ctx)
	if b.concurrency > 0 {
		g.SetLimit(b.concurrency)
	}
	for _, round := range distinct {
		round := round
		g.Go(func() error {
			beacon, err := b.beacons.Fetch(gCtx, round)
			if err != nil {
				return NewBeaconResolutionFailedError(owners[round].RequestID.String(), round, err)
			}
			if beacon.Round != round {
				return NewBeaconResolutionFailedError(owners[round].RequestID.String(), round,
					fmt.Errorf("beacon client returned round %d", beacon.Round))
			}
			mu.Lock()
			beacons[round] = beacon
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b.log.Debug().Int("rounds", len(distinct)).Int("requests", len(requests)).Msg("fetched beacons")
	return beacons, nil
}

func (b *Builder) buildCall(chainID *big.Int, req *vrf.RandomnessRequest, round uint64, beacon *drand.Beacon) (vrf.FulfillmentCall, error) {
	seed, err := vrf.DeriveSeed(beacon.Randomness, req.Consumer, chainID, req.RequestID)
	if err != nil {
		return vrf.FulfillmentCall{}, err
	}

	randomness := new(big.Int).SetBytes(seed.Bytes())
	if b.rawRandomness {
		randomness = new(big.Int).SetBytes(beacon.Randomness)
	}

	data, err := vrf.AdapterABI.Pack(vrf.MethodFulfillRandomWords, req.NumWords, req.RequestID, randomness, req.Consumer)
	if err != nil {
		return vrf.FulfillmentCall{}, fmt.Errorf("could not encode fulfillment call: %w", err)
	}

	return vrf.FulfillmentCall{
		To:        b.adapter,
		Data:      data,
		RequestID: req.RequestID,
		Round:     round,
		Seed:      seed,
		Words:     vrf.DeriveWords(seed, req.NumWords),
	}, nil
}
