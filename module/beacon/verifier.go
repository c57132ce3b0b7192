package beacon

import (
	"fmt"

	"github.com/drand/drand/v2/crypto"

	"github.com/onflow/drand-fulfiller/model/drand"
)

// Verifier checks beacons against the public key of a drand chain.
type Verifier struct {
	scheme string
	verify func(b crypto.SignedBeacon) error
}

// NewVerifier returns a verifier for the scheme and public key of `info`.
// No error returns are expected during normal operation once `info` has been validated.
func NewVerifier(info *drand.ChainInfo) (*Verifier, error) {
	sch, err := crypto.SchemeFromName(info.Scheme)
	if err != nil {
		return nil, fmt.Errorf("unsupported drand scheme %q: %w", info.Scheme, err)
	}
	pub := sch.KeyGroup.Point()
	if err := pub.UnmarshalBinary(info.PublicKey); err != nil {
		return nil, fmt.Errorf("invalid public key for scheme %s: %w", sch.Name, err)
	}
	return &Verifier{
		scheme: sch.Name,
		verify: func(b crypto.SignedBeacon) error {
			return sch.VerifyBeacon(b, pub)
		},
	}, nil
}

// Verify checks that the randomness is derived from the signature and that the
// signature is valid for the round. For chained schemes the signed message covers
// the previous signature, so a valid signature also proves the linkage to the previous round.
// Returns InvalidBeaconError if any check fails.
func (v *Verifier) Verify(b *drand.Beacon) error {
	if err := b.CheckRandomness(); err != nil {
		return InvalidBeaconError{Round: b.Round, Err: err}
	}
	if err := v.verify(b); err != nil {
		return NewInvalidBeaconErrorf(b.Round, "signature verification failed (%s): %w", v.scheme, err)
	}
	return nil
}
