package beacon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/onflow/drand-fulfiller/model/drand"
)

// maxResponseSize bounds the body read from a relay; beacons and chain info are well below 4KiB.
const maxResponseSize = 64 * 1024

// Endpoint is a single drand HTTP relay serving one chain.
type Endpoint struct {
	url       string
	chainHash string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker
}

// NewEndpoint returns an endpoint for the relay at `url` serving the chain `chainHash` (hex).
// When `breaker` is nil, requests are never short-circuited.
func NewEndpoint(url string, chainHash string, client *http.Client, breaker *gobreaker.CircuitBreaker) *Endpoint {
	if client == nil {
		client = http.DefaultClient
	}
	return &Endpoint{
		url:       strings.TrimRight(url, "/"),
		chainHash: chainHash,
		client:    client,
		breaker:   breaker,
	}
}

// NewCircuitBreaker returns the breaker used for one relay. It opens after
// `maxFailures` consecutive relay failures and lets a single request through
// after `restoreTimeout`. Only errors for which isRelayFailure holds are counted.
func NewCircuitBreaker(name string, maxFailures uint32, restoreTimeout time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     restoreTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
	})
}

func (e *Endpoint) String() string {
	return e.url
}

// Info fetches the chain parameters served by the relay.
func (e *Endpoint) Info(ctx context.Context) (*drand.ChainInfo, error) {
	var info drand.ChainInfo
	err := e.get(ctx, fmt.Sprintf("%s/%s/info", e.url, e.chainHash), &info)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(info.HashString(), e.chainHash) {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrChainMismatch, e.chainHash, info.HashString())
	}
	return &info, nil
}

// Round fetches the beacon of the given round, or the latest one for round 0.
// The beacon is returned unverified.
func (e *Endpoint) Round(ctx context.Context, round uint64) (*drand.Beacon, error) {
	path := "latest"
	if round > 0 {
		path = strconv.FormatUint(round, 10)
	}

	var b drand.Beacon
	err := e.get(ctx, fmt.Sprintf("%s/%s/public/%s", e.url, e.chainHash, path), &b)
	if err != nil {
		return nil, err
	}
	if round > 0 && b.Round != round {
		return nil, fmt.Errorf("%w: requested %d, got %d", ErrRoundMismatch, round, b.Round)
	}
	return &b, nil
}

func (e *Endpoint) get(ctx context.Context, url string, target any) error {
	if e.breaker == nil {
		return e.doGet(ctx, url, target)
	}

	var callErr error
	_, err := e.breaker.Execute(func() (interface{}, error) {
		callErr = e.doGet(ctx, url, target)
		if isRelayFailure(ctx, callErr) {
			return nil, callErr
		}
		return nil, nil
	})
	if callErr != nil {
		return callErr
	}
	// the breaker refused the request without running it
	return err
}

// isRelayFailure reports whether `err` says something about the health of the relay.
// Requests abandoned by the caller and rounds the relay has not published yet do not;
// a request that exhausted its own attempt timeout does.
func isRelayFailure(ctx context.Context, err error) bool {
	if err == nil || errors.Is(err, ErrRoundNotAvailable) {
		return false
	}
	if ctx.Err() != nil && !errors.Is(context.Cause(ctx), ErrAttemptTimeout) {
		return false
	}
	return true
}

func (e *Endpoint) doGet(ctx context.Context, url string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("could not read response from %s: %w", url, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s: %s", ErrRoundNotAvailable, url, bytes.TrimSpace(body))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request to %s failed with status %d: %s", url, resp.StatusCode, bytes.TrimSpace(body))
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("could not decode response from %s: %w", url, err)
	}
	return nil
}
