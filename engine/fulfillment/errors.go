package fulfillment

import (
	"errors"
	"fmt"
)

// ErrRoundNotPublished is returned when a request targets a round that the
// beacon chain cannot have produced yet.
var ErrRoundNotPublished = errors.New("beacon round not yet published")

// ProviderQueryFailedError indicates that the log provider failed while scanning.
// The scan is aborted and the checkpoint is left where it was.
type ProviderQueryFailedError struct {
	FromBlock uint64
	ToBlock   uint64
	Err       error
}

func NewProviderQueryFailedError(from, to uint64, err error) ProviderQueryFailedError {
	return ProviderQueryFailedError{FromBlock: from, ToBlock: to, Err: err}
}

func (e ProviderQueryFailedError) Error() string {
	return fmt.Sprintf("Rpc call failed: %v", e.Err)
}

func (e ProviderQueryFailedError) Unwrap() error {
	return e.Err
}

func IsProviderQueryFailedError(err error) bool {
	var target ProviderQueryFailedError
	return errors.As(err, &target)
}

// MalformedEventError indicates that a log returned for the request filter does
// not have the shape of a RandomnessRequest event.
type MalformedEventError struct {
	BlockNumber uint64
	LogIndex    uint
	Err         error
}

func NewMalformedEventErrorf(block uint64, index uint, msg string, args ...any) MalformedEventError {
	return MalformedEventError{
		BlockNumber: block,
		LogIndex:    index,
		Err:         fmt.Errorf(msg, args...),
	}
}

func (e MalformedEventError) Error() string {
	return fmt.Sprintf("malformed request event (block %d, log %d): %v", e.BlockNumber, e.LogIndex, e.Err)
}

func (e MalformedEventError) Unwrap() error {
	return e.Err
}

func IsMalformedEventError(err error) bool {
	var target MalformedEventError
	return errors.As(err, &target)
}

// BeaconResolutionFailedError indicates that the randomness of a request could
// not be resolved. It wraps beacon.UnreachableBeaconError, ErrRoundNotPublished
// or the failure to read the request's block.
type BeaconResolutionFailedError struct {
	RequestID string
	Round     uint64
	Err       error
}

func NewBeaconResolutionFailedError(requestID string, round uint64, err error) BeaconResolutionFailedError {
	return BeaconResolutionFailedError{RequestID: requestID, Round: round, Err: err}
}

func (e BeaconResolutionFailedError) Error() string {
	return fmt.Sprintf("could not resolve randomness for request %s (round %d): %v", e.RequestID, e.Round, e.Err)
}

func (e BeaconResolutionFailedError) Unwrap() error {
	return e.Err
}

func IsBeaconResolutionFailedError(err error) bool {
	var target BeaconResolutionFailedError
	return errors.As(err, &target)
}
