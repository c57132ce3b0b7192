package beacon

import (
	"errors"
	"fmt"
)

var (
	// ErrChainMismatch is returned when an endpoint serves a chain other than the configured one.
	ErrChainMismatch = errors.New("endpoint serves a different drand chain")
	// ErrRoundMismatch is returned when an endpoint answers with a round other than the requested one.
	ErrRoundMismatch = errors.New("endpoint returned an unexpected round")
	// ErrNoEndpoints is returned when the client is asked to fetch without any endpoint configured.
	ErrNoEndpoints = errors.New("no beacon endpoints configured")
	// ErrRoundNotAvailable is returned when a relay answers 404, usually for a round it has not published yet.
	ErrRoundNotAvailable = errors.New("relay does not serve the requested resource")
	// ErrAttemptTimeout is the cancellation cause of a single relay attempt that ran out of time.
	ErrAttemptTimeout = errors.New("beacon endpoint attempt timed out")
)

// InvalidBeaconError indicates that a beacon was received but failed verification.
type InvalidBeaconError struct {
	Round uint64
	Err   error
}

func NewInvalidBeaconErrorf(round uint64, msg string, args ...any) InvalidBeaconError {
	return InvalidBeaconError{
		Round: round,
		Err:   fmt.Errorf(msg, args...),
	}
}

func (e InvalidBeaconError) Error() string {
	return fmt.Sprintf("invalid beacon for round %d: %v", e.Round, e.Err)
}

func (e InvalidBeaconError) Unwrap() error {
	return e.Err
}

func IsInvalidBeaconError(err error) bool {
	var target InvalidBeaconError
	return errors.As(err, &target)
}

// UnreachableBeaconError indicates that no endpoint produced a valid beacon for a round.
// It unwraps to the error of the last endpoint tried, so callers can tell
// a verification failure apart from a transport failure.
type UnreachableBeaconError struct {
	Round uint64
	// Last is the error returned by the last endpoint tried.
	Last error
	// All accumulates the errors of every endpoint tried, in order.
	All error
}

func NewUnreachableBeaconError(round uint64, last error, all error) UnreachableBeaconError {
	return UnreachableBeaconError{Round: round, Last: last, All: all}
}

func (e UnreachableBeaconError) Error() string {
	return fmt.Sprintf("beacon round %d unreachable: %v", e.Round, e.Last)
}

func (e UnreachableBeaconError) Unwrap() error {
	return e.Last
}

func IsUnreachableBeaconError(err error) bool {
	var target UnreachableBeaconError
	return errors.As(err, &target)
}
