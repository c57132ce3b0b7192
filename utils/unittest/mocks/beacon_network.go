package mocks

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/onflow/drand-fulfiller/model/drand"
	"github.com/onflow/drand-fulfiller/module"
	"github.com/onflow/drand-fulfiller/module/beacon"
	"github.com/onflow/drand-fulfiller/utils/unittest"
)

// ErrFutureRound is the last error of fetches for rounds the simulated network has not published yet.
var ErrFutureRound = errors.New("round not yet published")

// BeaconNetwork is a simulated drand chain. It produces one stable beacon per
// round and implements module.BeaconClient directly, so it can stand in for a
// set of relays in engine tests.
type BeaconNetwork struct {
	mu      sync.Mutex
	info    *drand.ChainInfo
	beacons map[uint64]*drand.Beacon
	latest  uint64
	err     error
	fetches *atomic.Uint64
	rounds  []uint64
}

var _ module.BeaconClient = (*BeaconNetwork)(nil)

// NewBeaconNetwork returns a network where every round up to `latest` is published.
func NewBeaconNetwork(info *drand.ChainInfo, latest uint64) *BeaconNetwork {
	return &BeaconNetwork{
		info:    info,
		beacons: make(map[uint64]*drand.Beacon),
		latest:  latest,
		fetches: atomic.NewUint64(0),
	}
}

func (n *BeaconNetwork) Info() *drand.ChainInfo {
	return n.info
}

// LatestRound returns the most recent published round.
func (n *BeaconNetwork) LatestRound() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.latest
}

// Publish moves the latest published round forward.
func (n *BeaconNetwork) Publish(latest uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.latest = latest
}

// Set replaces the beacon of b.Round, e.g. with a beacon recorded from a real chain.
func (n *BeaconNetwork) Set(b *drand.Beacon) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.beacons[b.Round] = b
}

// Now returns a time at which `LatestRound` is the current round of the chain.
func (n *BeaconNetwork) Now() time.Time {
	return n.info.TimeOfRound(n.LatestRound()).Add(time.Second)
}

// Beacon returns the beacon of `round`, generating it on first use.
func (n *BeaconNetwork) Beacon(round uint64) *drand.Beacon {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.beacon(round)
}

func (n *BeaconNetwork) beacon(round uint64) *drand.Beacon {
	b, ok := n.beacons[round]
	if !ok {
		b = unittest.BeaconFixture(round)
		n.beacons[round] = b
	}
	return b
}

// SetUnreachable makes every fetch fail as if all relays failed with `err`; nil restores the network.
func (n *BeaconNetwork) SetUnreachable(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.err = err
}

// Fetches returns the number of Fetch calls so far.
func (n *BeaconNetwork) Fetches() uint64 {
	return n.fetches.Load()
}

// FetchedRounds returns the rounds requested so far, in call order.
func (n *BeaconNetwork) FetchedRounds() []uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]uint64, len(n.rounds))
	copy(out, n.rounds)
	return out
}

func (n *BeaconNetwork) Fetch(ctx context.Context, round uint64) (*drand.Beacon, error) {
	n.fetches.Inc()

	n.mu.Lock()
	defer n.mu.Unlock()

	n.rounds = append(n.rounds, round)
	if round == 0 {
		round = n.latest
	}
	if n.err != nil {
		return nil, beacon.NewUnreachableBeaconError(round, n.err, n.err)
	}
	if err := ctx.Err(); err != nil {
		return nil, beacon.NewUnreachableBeaconError(round, err, err)
	}
	if round > n.latest {
		return nil, beacon.NewUnreachableBeaconError(round, ErrFutureRound, ErrFutureRound)
	}
	return n.beacon(round), nil
}
