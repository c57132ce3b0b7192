package beacon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/onflow/drand-fulfiller/module"
	"github.com/onflow/drand-fulfiller/utils/rand"
)

// Communicator calls equivalent relays one after the other until one succeeds.
type Communicator struct {
	log       zerolog.Logger
	metrics   module.BeaconMetrics
	endpoints []*Endpoint
	shuffle   bool
	timeout   time.Duration
}

// NewCommunicator creates a communicator over `endpoints`. When `shuffle` is set, every call
// iterates the endpoints in a fresh random order to spread load; otherwise in the given order.
// `timeout` bounds each attempt separately, so a hung relay cannot starve the next one.
func NewCommunicator(
	log zerolog.Logger,
	metrics module.BeaconMetrics,
	endpoints []*Endpoint,
	shuffle bool,
	timeout time.Duration,
) *Communicator {
	return &Communicator{
		log:       log,
		metrics:   metrics,
		endpoints: endpoints,
		shuffle:   shuffle,
		timeout:   timeout,
	}
}

// CallAvailableEndpoint passes endpoints to `call` until it returns without error, and
// returns the endpoint that served the successful call.
// An open circuit breaker counts as a failed attempt and the endpoint is skipped.
// If every endpoint fails, the returned error is a *multierror.Error holding the
// error of every attempt in order; LastError extracts the final one.
func (c *Communicator) CallAvailableEndpoint(
	ctx context.Context,
	call func(ctx context.Context, endpoint *Endpoint) error,
) (*Endpoint, error) {
	if len(c.endpoints) == 0 {
		return nil, multierror.Append(nil, ErrNoEndpoints)
	}

	endpoints := c.endpoints
	if c.shuffle {
		shuffled, err := rand.Permutation(c.endpoints)
		if err != nil {
			return nil, multierror.Append(nil, fmt.Errorf("could not shuffle beacon endpoints: %w", err))
		}
		endpoints = shuffled
	}

	var errs *multierror.Error
	for _, endpoint := range endpoints {
		if ctx.Err() != nil {
			// the invocation itself is over, trying further endpoints is pointless
			errs = multierror.Append(errs, ctx.Err())
			break
		}

		start := time.Now()
		err := c.attempt(ctx, endpoint, call)
		c.metrics.BeaconFetched(endpoint.String(), time.Since(start), err)
		if err == nil {
			return endpoint, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) {
			c.log.Debug().Str("endpoint", endpoint.String()).Msg("skipping beacon endpoint with open circuit breaker")
		} else {
			c.log.Warn().Err(err).Str("endpoint", endpoint.String()).Msg("beacon endpoint failed, trying next")
		}

		errs = multierror.Append(errs, fmt.Errorf("%s: %w", endpoint, err))
	}

	return nil, errs.ErrorOrNil()
}

// LastError returns the last error accumulated in `err` if it is a *multierror.Error,
// or `err` itself otherwise.
func LastError(err error) error {
	var merr *multierror.Error
	if errors.As(err, &merr) && len(merr.Errors) > 0 {
		return merr.Errors[len(merr.Errors)-1]
	}
	return err
}

func (c *Communicator) attempt(ctx context.Context, endpoint *Endpoint, call func(context.Context, *Endpoint) error) error {
	if c.timeout <= 0 {
		return call(ctx, endpoint)
	}
	attemptCtx, cancel := context.WithTimeoutCause(ctx, c.timeout, ErrAttemptTimeout)
	defer cancel()
	return call(attemptCtx, endpoint)
}
