package beacon

import (
	"context"
	"fmt"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/onflow/drand-fulfiller/model/drand"
	"github.com/onflow/drand-fulfiller/module"
)

const (
	DefaultRequestTimeout  = 5 * time.Second
	DefaultCacheSize       = 256
	DefaultBreakerFailures = 3
	DefaultBreakerTimeout  = 30 * time.Second
)

// Config configures a beacon Client.
type Config struct {
	// Endpoints are the base URLs of equivalent relays of the same chain.
	Endpoints []string
	// Shuffle randomizes the endpoint order for every fetch.
	Shuffle bool
	// Verify enables signature verification against the chain public key.
	Verify bool
	// RequestTimeout bounds a single attempt against one endpoint.
	RequestTimeout time.Duration
	// CacheSize is the number of verified rounds kept in memory; 0 disables the cache.
	CacheSize int
	// BreakerFailures is the number of consecutive failures after which an endpoint
	// is skipped for BreakerTimeout; 0 disables circuit breaking.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Endpoints:       drand.DefaultEndpoints,
		Shuffle:         true,
		Verify:          true,
		RequestTimeout:  DefaultRequestTimeout,
		CacheSize:       DefaultCacheSize,
		BreakerFailures: DefaultBreakerFailures,
		BreakerTimeout:  DefaultBreakerTimeout,
	}
}

// Client fetches verified beacons of one drand chain from a set of relays.
type Client struct {
	log          zerolog.Logger
	metrics      module.BeaconMetrics
	info         *drand.ChainInfo
	communicator *Communicator
	verifier     *Verifier                         // nil if verification is disabled
	cache        *lru.Cache[uint64, *drand.Beacon] // nil if caching is disabled
	now          func() time.Time
}

var _ module.BeaconClient = (*Client)(nil)

// NewClient creates a client for the chain described by `info`.
// No errors are expected during normal operation; errors indicate an invalid configuration.
func NewClient(log zerolog.Logger, metrics module.BeaconMetrics, info *drand.ChainInfo, cfg Config) (*Client, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		log:     log.With().Str("component", "beacon_client").Str("chain", info.HashString()).Logger(),
		metrics: metrics,
		info:    info,
		now:     time.Now,
	}

	if cfg.Verify {
		verifier, err := NewVerifier(info)
		if err != nil {
			return nil, fmt.Errorf("could not create beacon verifier: %w", err)
		}
		c.verifier = verifier
	}

	if cfg.CacheSize > 0 {
		cache, err := lru.New[uint64, *drand.Beacon](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("could not create beacon cache: %w", err)
		}
		c.cache = cache
	}

	httpClient := &http.Client{}
	endpoints := make([]*Endpoint, 0, len(cfg.Endpoints))
	for _, url := range cfg.Endpoints {
		var breaker *gobreaker.CircuitBreaker
		if cfg.BreakerFailures > 0 {
			breaker = NewCircuitBreaker(url, cfg.BreakerFailures, cfg.BreakerTimeout)
		}
		endpoints = append(endpoints, NewEndpoint(url, info.HashString(), httpClient, breaker))
	}
	c.communicator = NewCommunicator(c.log, metrics, endpoints, cfg.Shuffle, cfg.RequestTimeout)

	return c, nil
}

func (c *Client) Info() *drand.ChainInfo {
	return c.info
}

// Fetch returns the verified beacon of `round`. Round 0 is resolved to the most
// recent round expected at the current time.
// Expected errors during normal operations:
//   - UnreachableBeaconError if no endpoint produced a valid beacon
func (c *Client) Fetch(ctx context.Context, round uint64) (*drand.Beacon, error) {
	if round == 0 {
		round = c.info.CurrentRound(c.now())
	}

	if c.cache != nil {
		if b, ok := c.cache.Get(round); ok {
			c.metrics.BeaconCacheHit()
			return b, nil
		}
	}

	var result *drand.Beacon
	endpoint, err := c.communicator.CallAvailableEndpoint(ctx, func(ctx context.Context, endpoint *Endpoint) error {
		b, err := endpoint.Round(ctx, round)
		if err != nil {
			return err
		}
		if c.verifier != nil {
			if err := c.verifier.Verify(b); err != nil {
				return err
			}
		} else if err := b.CheckRandomness(); err != nil {
			return InvalidBeaconError{Round: round, Err: err}
		}
		result = b
		return nil
	})
	if err != nil {
		return nil, NewUnreachableBeaconError(round, LastError(err), err)
	}

	c.log.Debug().
		Uint64("round", round).
		Str("endpoint", endpoint.String()).
		Msg("fetched beacon")

	if c.cache != nil {
		c.cache.Add(round, result)
	}
	return result, nil
}

// RemoteInfo fetches the chain parameters from the relays and checks that they
// match the configured ones.
// Expected errors during normal operations:
//   - UnreachableBeaconError if no relay served the chain info
//   - ErrChainMismatch if the relays serve parameters that differ from the configuration
func (c *Client) RemoteInfo(ctx context.Context) (*drand.ChainInfo, error) {
	var info *drand.ChainInfo
	_, err := c.communicator.CallAvailableEndpoint(ctx, func(ctx context.Context, endpoint *Endpoint) error {
		remote, err := endpoint.Info(ctx)
		if err != nil {
			return err
		}
		info = remote
		return nil
	})
	if err != nil {
		return nil, NewUnreachableBeaconError(0, LastError(err), err)
	}

	if info.Period != c.info.Period || info.GenesisTime != c.info.GenesisTime {
		return info, fmt.Errorf("%w: relay reports period %d and genesis %d, configured %d and %d",
			ErrChainMismatch, info.Period, info.GenesisTime, c.info.Period, c.info.GenesisTime)
	}
	if info.PublicKey.String() != c.info.PublicKey.String() {
		return info, fmt.Errorf("%w: relay reports a different public key", ErrChainMismatch)
	}
	return info, nil
}
