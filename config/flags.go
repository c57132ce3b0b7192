package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to the upper-cased flag name to form its environment variable,
// e.g. FULFILLER_RPC_URL for --rpc-url.
const EnvPrefix = "FULFILLER"

const (
	// All constant strings are used for CLI flag names and corresponding keys for config values.
	// provider
	rpcURL         = "rpc-url"
	rpcTimeout     = "rpc-timeout"
	rpcDialRetries = "rpc-dial-retries"
	// contract
	adapterAddress = "adapter-address"
	allowedSenders = "allowed-senders"
	// drand
	beaconNetwork        = "beacon-network"
	beaconURLs           = "beacon-urls"
	beaconChainHash      = "beacon-chain-hash"
	beaconPublicKey      = "beacon-public-key"
	beaconScheme         = "beacon-scheme"
	beaconPeriod         = "beacon-period"
	beaconGenesisTime    = "beacon-genesis-time"
	beaconVerify         = "beacon-verify"
	beaconShuffle        = "beacon-shuffle"
	beaconRequestTimeout = "beacon-request-timeout"
	beaconCacheSize      = "beacon-cache-size"
	beaconConcurrency    = "beacon-concurrency"
	// scanning
	maxWindow            = "max-window"
	maxWindows           = "max-windows"
	defaultLookback      = "default-lookback"
	staleThreshold       = "stale-threshold"
	startBlock           = "start-block"
	deadlineRounds       = "deadline-rounds"
	deliverRawRandomness = "deliver-raw-randomness"
	// checkpoint storage
	checkpointStore = "checkpoint-store"
	dataDir         = "datadir"
	redisAddr       = "redis-addr"
	redisPassword   = "redis-password"
	redisDB         = "redis-db"
	redisNamespace  = "redis-namespace"
	// serve
	interval = "interval"
	httpAddr = "http-addr"
	logLevel = "loglevel"

	// ConfigFileFlag names an optional YAML file holding any of the keys above.
	ConfigFileFlag = "config"
)

func AllFlagNames() []string {
	return []string{
		rpcURL, rpcTimeout, rpcDialRetries, adapterAddress, allowedSenders,
		beaconNetwork, beaconURLs, beaconChainHash, beaconPublicKey, beaconScheme, beaconPeriod, beaconGenesisTime,
		beaconVerify, beaconShuffle, beaconRequestTimeout, beaconCacheSize, beaconConcurrency,
		maxWindow, maxWindows, defaultLookback, staleThreshold, startBlock, deadlineRounds, deliverRawRandomness,
		checkpointStore, dataDir, redisAddr, redisPassword, redisDB, redisNamespace,
		interval, httpAddr, logLevel,
	}
}

// InitializeFlags registers all configuration flags on the provided pflag set.
// Args:
//
//	*pflag.FlagSet: the flag set of the command.
//	*Config: the default config used to set default values on the flags
func InitializeFlags(flags *pflag.FlagSet, config *Config) {
	flags.String(ConfigFileFlag, "", "path to a YAML config file; flags and environment variables take precedence")

	flags.String(rpcURL, config.RPCURL, "JSON-RPC endpoint of the chain the adapter is deployed on")
	flags.Duration(rpcTimeout, config.RPCTimeout, "timeout of a single JSON-RPC call")
	flags.Uint64(rpcDialRetries, config.RPCDialRetries, "number of retries when connecting to the JSON-RPC endpoint at startup")

	flags.String(adapterAddress, config.AdapterAddress, "address of the randomness adapter contract")
	flags.StringSlice(allowedSenders, config.AllowedSenders, "request senders to serve; requests of other senders are ignored")

	flags.String(beaconNetwork, config.BeaconNetwork, "drand network preset, one of quicknet or fastnet")
	flags.StringSlice(beaconURLs, config.BeaconURLs, "drand HTTP relays, tried in order (or shuffled) until one answers")
	flags.String(beaconChainHash, config.BeaconChainHash, "hex chain hash overriding the network preset")
	flags.String(beaconPublicKey, config.BeaconPublicKey, "hex group public key overriding the network preset")
	flags.String(beaconScheme, config.BeaconScheme, "signature scheme overriding the network preset")
	flags.Uint64(beaconPeriod, config.BeaconPeriod, "round period in seconds overriding the network preset")
	flags.Int64(beaconGenesisTime, config.BeaconGenesisTime, "genesis unix time overriding the network preset")
	flags.Bool(beaconVerify, config.BeaconVerify, "verify beacon signatures against the group public key")
	flags.Bool(beaconShuffle, config.BeaconShuffle, "shuffle the relay order for every fetch")
	flags.Duration(beaconRequestTimeout, config.BeaconRequestTimeout, "timeout of a single relay request")
	flags.Int(beaconCacheSize, config.BeaconCacheSize, "number of verified beacons kept in memory, 0 disables caching")
	flags.Int(beaconConcurrency, config.BeaconConcurrency, "maximum number of concurrent beacon fetches per invocation")

	flags.Uint64(maxWindow, config.MaxWindow, "number of blocks covered by one eth_getLogs query")
	flags.Uint(maxWindows, config.MaxWindows, "maximum number of eth_getLogs queries per invocation")
	flags.Uint64(defaultLookback, config.DefaultLookback, "blocks behind the head to start from when no checkpoint exists")
	flags.Uint64(staleThreshold, config.StaleThreshold, "backlog in blocks above which the scanner reports falling behind")
	flags.Int64(startBlock, config.StartBlock, "first block to scan when no checkpoint exists, -1 uses the lookback")
	flags.Uint64(deadlineRounds, config.DeadlineRounds, "rounds after its target round a request is reported late, 0 disables the check")
	flags.Bool(deliverRawRandomness, config.DeliverRawRandomness, "deliver the beacon randomness instead of the per-request seed")

	flags.String(checkpointStore, config.CheckpointStore, "checkpoint store, one of memory, badger, pebble or redis")
	flags.String(dataDir, config.DataDir, "directory of the badger or pebble checkpoint store")
	flags.String(redisAddr, config.RedisAddr, "address of the redis checkpoint store")
	flags.String(redisPassword, config.RedisPassword, "password of the redis checkpoint store")
	flags.Int(redisDB, config.RedisDB, "database of the redis checkpoint store")
	flags.String(redisNamespace, config.RedisNamespace, "key prefix in the redis checkpoint store")

	flags.Duration(interval, config.Interval, "time between two invocations in serve mode")
	flags.String(httpAddr, config.HTTPAddr, "listen address of the metrics and status server in serve mode")
	flags.String(logLevel, config.LogLevel, "log level, one of trace, debug, info, warn or error")
}

// Load reads and validates the configuration.
func Load(conf *viper.Viper, flags *pflag.FlagSet) (*Config, error) {
	config, err := Read(conf, flags)
	if err != nil {
		return nil, err
	}
	err = config.Validate()
	if err != nil {
		return nil, err
	}
	return config, nil
}

// Read builds the configuration from the flags, environment variables prefixed with
// EnvPrefix and the optional config file, in that order of precedence. Defaults come
// from the flag defaults. The result is not validated.
func Read(conf *viper.Viper, flags *pflag.FlagSet) (*Config, error) {
	err := conf.BindPFlags(flags)
	if err != nil {
		return nil, fmt.Errorf("could not bind flags: %w", err)
	}
	conf.SetEnvPrefix(EnvPrefix)
	conf.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	conf.AutomaticEnv()

	if file := conf.GetString(ConfigFileFlag); file != "" {
		conf.SetConfigFile(file)
		if err := conf.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("could not read config file %s: %w", file, err)
		}
	}

	config := &Config{}
	err = conf.Unmarshal(config)
	if err != nil {
		return nil, fmt.Errorf("could not decode configuration: %w", err)
	}
	// lists from the environment arrive as a single comma separated value
	config.AllowedSenders = splitList(config.AllowedSenders)
	config.BeaconURLs = splitList(config.BeaconURLs)
	return config, nil
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			item = strings.TrimSpace(item)
			if item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}
