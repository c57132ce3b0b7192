package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/onflow/drand-fulfiller/config"
	"github.com/onflow/drand-fulfiller/engine/fulfillment"
	"github.com/onflow/drand-fulfiller/module"
	"github.com/onflow/drand-fulfiller/module/beacon"
	"github.com/onflow/drand-fulfiller/module/provider"
	"github.com/onflow/drand-fulfiller/storage"
	bstorage "github.com/onflow/drand-fulfiller/storage/badger"
	"github.com/onflow/drand-fulfiller/storage/inmemory"
	pstorage "github.com/onflow/drand-fulfiller/storage/pebble"
	rstorage "github.com/onflow/drand-fulfiller/storage/redis"
	"github.com/onflow/drand-fulfiller/utils/logging"
)

// closers collects the resources opened while building the engine.
type closers []io.Closer

func (c closers) Close() error {
	var result *multierror.Error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i].Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// openCheckpoints opens the checkpoint store selected by the configuration.
func openCheckpoints(ctx context.Context, cfg *config.Config) (storage.Checkpoints, io.Closer, error) {
	switch cfg.CheckpointStore {
	case config.StoreMemory:
		log.Warn().Msg("using in-memory checkpoint store, progress is lost on exit")
		return inmemory.NewCheckpoints(), closers{}, nil
	case config.StoreBadger:
		db, err := bstorage.Open(filepath.Join(cfg.DataDir, "badger"))
		if err != nil {
			return nil, nil, err
		}
		return bstorage.NewCheckpoints(db), db, nil
	case config.StorePebble:
		db, err := pstorage.Open(filepath.Join(cfg.DataDir, "pebble"))
		if err != nil {
			return nil, nil, err
		}
		return pstorage.NewCheckpoints(db), db, nil
	case config.StoreRedis:
		client := rstorage.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		err := client.Ping(ctx).Err()
		if err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("could not reach redis at %s: %w", cfg.RedisAddr, err)
		}
		return rstorage.NewCheckpoints(client, cfg.RedisNamespace), client, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown checkpoint store %q", config.ErrInvalidConfig, cfg.CheckpointStore)
	}
}

// buildEngine wires the reconciliation engine from a validated configuration.
// The returned closer releases the checkpoint store.
func buildEngine(ctx context.Context, cfg *config.Config, metrics module.FulfillmentMetrics) (*fulfillment.Engine, io.Closer, error) {
	info, err := cfg.ChainInfo()
	if err != nil {
		return nil, nil, err
	}
	beacons, err := beacon.NewClient(log, metrics, info, cfg.BeaconConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("could not create beacon client: %w", err)
	}
	if err := checkBeaconChain(ctx, log, beacons); err != nil {
		return nil, nil, err
	}

	rpc, chainID, err := provider.Dial(ctx, log, cfg.RPCURL, cfg.RPCTimeout, cfg.RPCDialRetries)
	if err != nil {
		return nil, nil, err
	}

	checkpoints, closer, err := openCheckpoints(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open checkpoint store: %w", err)
	}

	engineCfg := cfg.EngineConfig()
	log.Info().
		Str("chain_id", chainID.String()).
		Str("adapter", engineCfg.Adapter.Hex()).
		Strs("allowed_senders", logging.Addresses(engineCfg.AllowedSenders)).
		Str("drand_chain", info.HashString()).
		Str("checkpoint_store", cfg.CheckpointStore).
		Msg("fulfiller configured")

	core, err := fulfillment.NewCore(log, metrics, rpc, beacons, engineCfg)
	if err != nil {
		return nil, nil, multierror.Append(err, closer.Close()).ErrorOrNil()
	}
	return fulfillment.New(log, metrics, core, checkpoints), closer, nil
}

// checkBeaconChain compares the configured drand chain with the one the relays serve.
// A mismatch aborts startup. Unreachable relays are only reported, since every
// invocation tries them again.
func checkBeaconChain(ctx context.Context, logger zerolog.Logger, beacons *beacon.Client) error {
	remote, err := beacons.RemoteInfo(ctx)
	switch {
	case errors.Is(err, beacon.ErrChainMismatch):
		return fmt.Errorf("drand relays do not serve the configured chain: %w", err)
	case err != nil:
		logger.Warn().Err(err).Msg("could not fetch drand chain info, continuing with the configured parameters")
		return nil
	}
	logger.Info().
		Str("drand_chain", remote.HashString()).
		Str("scheme", remote.Scheme).
		Msg("drand relays serve the configured chain")
	return nil
}
