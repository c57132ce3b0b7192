package provider

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/onflow/drand-fulfiller/module"
)

const (
	DefaultCallTimeout = 10 * time.Second

	dialRetryBase = 500 * time.Millisecond
)

// Client is a module.LogProvider that bounds every call to the underlying
// JSON-RPC backend with its own timeout.
type Client struct {
	log     zerolog.Logger
	backend module.LogProvider
	timeout time.Duration
}

var _ module.LogProvider = (*Client)(nil)

// NewClient wraps `backend`. A non-positive timeout disables the per-call bound.
func NewClient(log zerolog.Logger, backend module.LogProvider, timeout time.Duration) *Client {
	return &Client{
		log:     log.With().Str("component", "log_provider").Logger(),
		backend: backend,
		timeout: timeout,
	}
}

// Dial connects to the JSON-RPC endpoint at `url` and checks that it answers.
// Connection attempts are retried with exponential backoff up to `maxRetries` times;
// this happens once at startup and never within an invocation.
func Dial(ctx context.Context, log zerolog.Logger, url string, timeout time.Duration, maxRetries uint64) (*Client, *big.Int, error) {
	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(dialRetryBase))

	var client *Client
	var chainID *big.Int
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		rpc, err := ethclient.DialContext(ctx, url)
		if err != nil {
			log.Warn().Err(err).Msg("could not dial rpc endpoint, retrying")
			return retry.RetryableError(err)
		}
		c := NewClient(log, rpc, timeout)
		id, err := c.ChainID(ctx)
		if err != nil {
			rpc.Close()
			log.Warn().Err(err).Msg("rpc endpoint did not answer, retrying")
			return retry.RetryableError(err)
		}
		client, chainID = c, id
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to rpc endpoint: %w", err)
	}

	log.Info().Str("chain_id", chainID.String()).Msg("connected to rpc endpoint")
	return client, chainID, nil
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	height, err := c.backend.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("eth_blockNumber: %w", err)
	}
	return height, nil
}

func (c *Client) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	logs, err := c.backend.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("eth_getLogs: %w", err)
	}
	return logs, nil
}

func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	header, err := c.backend.HeaderByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("eth_getBlockByNumber: %w", err)
	}
	return header, nil
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	id, err := c.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("eth_chainId: %w", err)
	}
	return id, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
