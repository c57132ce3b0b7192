package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/onflow/drand-fulfiller/engine/fulfillment"
	"github.com/onflow/drand-fulfiller/model/drand"
	"github.com/onflow/drand-fulfiller/module/beacon"
	"github.com/onflow/drand-fulfiller/module/provider"
)

const (
	StoreMemory = "memory"
	StoreBadger = "badger"
	StorePebble = "pebble"
	StoreRedis  = "redis"

	// NoStartBlock marks StartBlock as unset.
	NoStartBlock int64 = -1

	DefaultInterval    = 30 * time.Second
	DefaultHTTPAddr    = ":8080"
	DefaultDialRetries = 5
)

// ErrInvalidConfig is returned for configurations that pass the struct checks
// but cannot be turned into working components.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete configuration of the fulfiller binary. Field tags name
// the flag, environment and config file key of each value.
type Config struct {
	// provider
	RPCURL         string        `mapstructure:"rpc-url" validate:"required,url"`
	RPCTimeout     time.Duration `mapstructure:"rpc-timeout" validate:"gt=0"`
	RPCDialRetries uint64        `mapstructure:"rpc-dial-retries"`

	// contract
	AdapterAddress string   `mapstructure:"adapter-address" validate:"required"`
	AllowedSenders []string `mapstructure:"allowed-senders"`

	// drand
	BeaconNetwork        string        `mapstructure:"beacon-network" validate:"oneof=quicknet fastnet"`
	BeaconURLs           []string      `mapstructure:"beacon-urls" validate:"min=1,dive,url"`
	BeaconChainHash      string        `mapstructure:"beacon-chain-hash" validate:"omitempty,hexadecimal"`
	BeaconPublicKey      string        `mapstructure:"beacon-public-key" validate:"omitempty,hexadecimal"`
	BeaconScheme         string        `mapstructure:"beacon-scheme"`
	BeaconPeriod         uint64        `mapstructure:"beacon-period"`
	BeaconGenesisTime    int64         `mapstructure:"beacon-genesis-time" validate:"gte=0"`
	BeaconVerify         bool          `mapstructure:"beacon-verify"`
	BeaconShuffle        bool          `mapstructure:"beacon-shuffle"`
	BeaconRequestTimeout time.Duration `mapstructure:"beacon-request-timeout" validate:"gt=0"`
	BeaconCacheSize      int           `mapstructure:"beacon-cache-size" validate:"gte=0"`
	BeaconConcurrency    int           `mapstructure:"beacon-concurrency" validate:"gt=0"`

	// scanning
	MaxWindow            uint64 `mapstructure:"max-window" validate:"gt=0"`
	MaxWindows           uint   `mapstructure:"max-windows" validate:"gt=0"`
	DefaultLookback      uint64 `mapstructure:"default-lookback"`
	StaleThreshold       uint64 `mapstructure:"stale-threshold"`
	StartBlock           int64  `mapstructure:"start-block" validate:"gte=-1"`
	DeadlineRounds       uint64 `mapstructure:"deadline-rounds"`
	DeliverRawRandomness bool   `mapstructure:"deliver-raw-randomness"`

	// checkpoint storage
	CheckpointStore string `mapstructure:"checkpoint-store" validate:"oneof=memory badger pebble redis"`
	DataDir         string `mapstructure:"datadir"`
	RedisAddr       string `mapstructure:"redis-addr"`
	RedisPassword   string `mapstructure:"redis-password"`
	RedisDB         int    `mapstructure:"redis-db" validate:"gte=0"`
	RedisNamespace  string `mapstructure:"redis-namespace"`

	// serve
	Interval time.Duration `mapstructure:"interval" validate:"gt=0"`
	HTTPAddr string        `mapstructure:"http-addr"`
	LogLevel string        `mapstructure:"loglevel"`
}

func DefaultConfig() *Config {
	engine := fulfillment.DefaultConfig()
	beacons := beacon.DefaultConfig()
	return &Config{
		RPCTimeout:           provider.DefaultCallTimeout,
		RPCDialRetries:       DefaultDialRetries,
		BeaconNetwork:        drand.NetworkQuicknet,
		BeaconURLs:           beacons.Endpoints,
		BeaconVerify:         beacons.Verify,
		BeaconShuffle:        beacons.Shuffle,
		BeaconRequestTimeout: beacons.RequestTimeout,
		BeaconCacheSize:      beacons.CacheSize,
		BeaconConcurrency:    engine.BeaconConcurrency,
		MaxWindow:            engine.MaxWindow,
		MaxWindows:           engine.MaxWindows,
		DefaultLookback:      engine.DefaultLookback,
		StaleThreshold:       engine.StaleThreshold,
		StartBlock:           NoStartBlock,
		CheckpointStore:      StoreMemory,
		DataDir:              "./data",
		RedisNamespace:       "drand-fulfiller",
		Interval:             DefaultInterval,
		HTTPAddr:             DefaultHTTPAddr,
		LogLevel:             zerolog.InfoLevel.String(),
	}
}

// Validate checks the struct constraints and the values that need parsing.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if !common.IsHexAddress(c.AdapterAddress) {
		return fmt.Errorf("%w: adapter address %q is not a hex address", ErrInvalidConfig, c.AdapterAddress)
	}
	for _, sender := range c.AllowedSenders {
		if !common.IsHexAddress(sender) {
			return fmt.Errorf("%w: allowed sender %q is not a hex address", ErrInvalidConfig, sender)
		}
	}

	switch c.CheckpointStore {
	case StoreBadger, StorePebble:
		if c.DataDir == "" {
			return fmt.Errorf("%w: %s checkpoint store requires a data directory", ErrInvalidConfig, c.CheckpointStore)
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis checkpoint store requires an address", ErrInvalidConfig)
		}
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	info, err := c.ChainInfo()
	if err != nil {
		return err
	}
	return info.Validate()
}

// ChainInfo returns the preset of BeaconNetwork with any of the explicitly
// configured chain parameters applied on top.
func (c *Config) ChainInfo() (*drand.ChainInfo, error) {
	info, err := drand.NetworkByName(c.BeaconNetwork)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if c.BeaconChainHash != "" {
		info.Hash, err = decodeHex(c.BeaconChainHash)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid chain hash: %v", ErrInvalidConfig, err)
		}
	}
	if c.BeaconPublicKey != "" {
		info.PublicKey, err = decodeHex(c.BeaconPublicKey)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid public key: %v", ErrInvalidConfig, err)
		}
	}
	if c.BeaconScheme != "" {
		info.Scheme = c.BeaconScheme
	}
	if c.BeaconPeriod != 0 {
		info.Period = c.BeaconPeriod
	}
	if c.BeaconGenesisTime != 0 {
		info.GenesisTime = c.BeaconGenesisTime
	}
	return info, nil
}

// EngineConfig returns the configuration of the reconciliation loop.
// Addresses must have been checked by Validate.
func (c *Config) EngineConfig() fulfillment.Config {
	cfg := fulfillment.DefaultConfig()
	cfg.Adapter = common.HexToAddress(c.AdapterAddress)
	cfg.AllowedSenders = make([]common.Address, 0, len(c.AllowedSenders))
	for _, sender := range c.AllowedSenders {
		cfg.AllowedSenders = append(cfg.AllowedSenders, common.HexToAddress(sender))
	}
	cfg.MaxWindow = c.MaxWindow
	cfg.MaxWindows = c.MaxWindows
	cfg.DefaultLookback = c.DefaultLookback
	cfg.StaleThreshold = c.StaleThreshold
	if c.StartBlock != NoStartBlock {
		start := uint64(c.StartBlock)
		cfg.StartBlock = &start
	}
	cfg.DeliverRawRandomness = c.DeliverRawRandomness
	cfg.BeaconConcurrency = c.BeaconConcurrency
	cfg.DeadlineRounds = c.DeadlineRounds
	return cfg
}

func (c *Config) BeaconConfig() beacon.Config {
	cfg := beacon.DefaultConfig()
	cfg.Endpoints = c.BeaconURLs
	cfg.Shuffle = c.BeaconShuffle
	cfg.Verify = c.BeaconVerify
	cfg.RequestTimeout = c.BeaconRequestTimeout
	cfg.CacheSize = c.BeaconCacheSize
	return cfg
}

func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}
