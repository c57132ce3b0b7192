package module

import (
	"context"

	"github.com/onflow/drand-fulfiller/model/drand"
)

// BeaconClient provides verified drand beacons for one chain.
type BeaconClient interface {
	// Info returns the parameters of the chain this client fetches from.
	Info() *drand.ChainInfo

	// Fetch returns the beacon for the given round. Round 0 requests the most
	// recent round expected to be published.
	// Expected errors during normal operations:
	//   - beacon.UnreachableBeaconError if every endpoint failed or returned an invalid beacon
	Fetch(ctx context.Context, round uint64) (*drand.Beacon, error)
}
