package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/drand-fulfiller/config"
	"github.com/onflow/drand-fulfiller/model/drand"
)

const (
	adapter = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	sender  = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

func load(t *testing.T, args ...string) (*config.Config, error) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.InitializeFlags(flags, config.DefaultConfig())
	require.NoError(t, flags.Parse(args))
	return config.Load(viper.New(), flags)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t, "--rpc-url=http://localhost:8545", "--adapter-address="+adapter)
	require.NoError(t, err)

	assert.Equal(t, drand.NetworkQuicknet, cfg.BeaconNetwork)
	assert.Equal(t, drand.DefaultEndpoints, cfg.BeaconURLs)
	assert.Equal(t, config.StoreMemory, cfg.CheckpointStore)
	assert.Equal(t, config.NoStartBlock, cfg.StartBlock)
	assert.Empty(t, cfg.AllowedSenders)

	engine := cfg.EngineConfig()
	assert.Equal(t, common.HexToAddress(adapter), engine.Adapter)
	assert.Nil(t, engine.StartBlock)
	assert.EqualValues(t, 100, engine.MaxWindow)
	assert.EqualValues(t, 100, engine.MaxWindows)
	assert.EqualValues(t, 700, engine.DefaultLookback)

	info, err := cfg.ChainInfo()
	require.NoError(t, err)
	assert.Equal(t, drand.Quicknet(), info)
}

func TestLoad_Flags(t *testing.T) {
	cfg, err := load(t,
		"--rpc-url=http://localhost:8545",
		"--adapter-address="+adapter,
		"--allowed-senders="+sender,
		"--beacon-network=fastnet",
		"--beacon-urls=https://relay-1.example,https://relay-2.example",
		"--start-block=42",
		"--max-window=10",
		"--interval=5s",
		"--deliver-raw-randomness",
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://relay-1.example", "https://relay-2.example"}, cfg.BeaconURLs)
	assert.Equal(t, 5*time.Second, cfg.Interval)

	engine := cfg.EngineConfig()
	require.NotNil(t, engine.StartBlock)
	assert.EqualValues(t, 42, *engine.StartBlock)
	assert.EqualValues(t, 10, engine.MaxWindow)
	assert.True(t, engine.DeliverRawRandomness)
	assert.Equal(t, []common.Address{common.HexToAddress(sender)}, engine.AllowedSenders)

	beacons := cfg.BeaconConfig()
	assert.Equal(t, cfg.BeaconURLs, beacons.Endpoints)

	info, err := cfg.ChainInfo()
	require.NoError(t, err)
	assert.Equal(t, drand.Fastnet().Hash, info.Hash)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("FULFILLER_RPC_URL", "http://rpc.example:8545")
	t.Setenv("FULFILLER_ADAPTER_ADDRESS", adapter)
	t.Setenv("FULFILLER_ALLOWED_SENDERS", sender+","+adapter)
	t.Setenv("FULFILLER_DEFAULT_LOOKBACK", "50")

	// flags win over the environment
	cfg, err := load(t, "--default-lookback=60")
	require.NoError(t, err)

	assert.Equal(t, "http://rpc.example:8545", cfg.RPCURL)
	assert.Equal(t, []string{sender, adapter}, cfg.AllowedSenders)
	assert.EqualValues(t, 60, cfg.DefaultLookback)
}

func TestLoad_ConfigFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "fulfiller.yaml")
	content := []byte(`
rpc-url: http://file.example:8545
adapter-address: "` + adapter + `"
checkpoint-store: redis
redis-addr: localhost:6379
beacon-cache-size: 16
`)
	require.NoError(t, os.WriteFile(file, content, 0o600))

	cfg, err := load(t, "--config="+file)
	require.NoError(t, err)
	assert.Equal(t, "http://file.example:8545", cfg.RPCURL)
	assert.Equal(t, config.StoreRedis, cfg.CheckpointStore)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 16, cfg.BeaconCacheSize)

	_, err = load(t, "--config="+filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		cfg := config.DefaultConfig()
		cfg.RPCURL = "http://localhost:8545"
		cfg.AdapterAddress = adapter
		return cfg
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(cfg *config.Config){
		"missing rpc url":       func(cfg *config.Config) { cfg.RPCURL = "" },
		"bad adapter":           func(cfg *config.Config) { cfg.AdapterAddress = "0x1234" },
		"bad sender":            func(cfg *config.Config) { cfg.AllowedSenders = []string{"sender"} },
		"unknown network":       func(cfg *config.Config) { cfg.BeaconNetwork = "mainnet" },
		"no relays":             func(cfg *config.Config) { cfg.BeaconURLs = nil },
		"short chain hash":      func(cfg *config.Config) { cfg.BeaconChainHash = "abcd" },
		"zero window":           func(cfg *config.Config) { cfg.MaxWindow = 0 },
		"unknown store":         func(cfg *config.Config) { cfg.CheckpointStore = "sqlite" },
		"redis without address": func(cfg *config.Config) { cfg.CheckpointStore = config.StoreRedis },
		"badger without dir": func(cfg *config.Config) {
			cfg.CheckpointStore = config.StoreBadger
			cfg.DataDir = ""
		},
		"bad log level": func(cfg *config.Config) { cfg.LogLevel = "loud" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
		})
	}
}

func TestInitializeFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.InitializeFlags(flags, config.DefaultConfig())

	for _, name := range config.AllFlagNames() {
		assert.NotNil(t, flags.Lookup(name), "flag %s is not registered", name)
	}
	assert.NotNil(t, flags.Lookup(config.ConfigFileFlag))
}
