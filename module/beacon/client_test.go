package beacon_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/drand-fulfiller/model/drand"
	"github.com/onflow/drand-fulfiller/module/beacon"
	"github.com/onflow/drand-fulfiller/module/metrics"
	"github.com/onflow/drand-fulfiller/utils/unittest"
	"github.com/onflow/drand-fulfiller/utils/unittest/mocks"
)

const latestRound = 5_000

func testConfig(relays ...*mocks.Relay) beacon.Config {
	urls := make([]string, len(relays))
	for i, r := range relays {
		urls[i] = r.URL
	}
	return beacon.Config{
		Endpoints:      urls,
		Shuffle:        false,
		Verify:         false,
		RequestTimeout: time.Second,
	}
}

func newClient(t *testing.T, info *drand.ChainInfo, cfg beacon.Config) *beacon.Client {
	client, err := beacon.NewClient(unittest.Logger(), metrics.NewNoopCollector(), info, cfg)
	require.NoError(t, err)
	return client
}

func TestClient_Fetch(t *testing.T) {
	info := unittest.ChainInfoFixture()
	network := mocks.NewBeaconNetwork(info, latestRound)
	relay := mocks.NewRelay(t, network)

	client := newClient(t, info, testConfig(relay))
	b, err := client.Fetch(context.Background(), 1234)
	require.NoError(t, err)
	assert.Equal(t, network.Beacon(1234), b)
	assert.Equal(t, info, client.Info())
}

// TestClient_FetchLatest checks that round 0 resolves to the round expected at the current time.
func TestClient_FetchLatest(t *testing.T) {
	info := unittest.ChainInfoFixture()
	before := info.CurrentRound(time.Now())
	network := mocks.NewBeaconNetwork(info, before+100)
	relay := mocks.NewRelay(t, network)

	client := newClient(t, info, testConfig(relay))
	b, err := client.Fetch(context.Background(), 0)
	require.NoError(t, err)
	after := info.CurrentRound(time.Now())
	assert.GreaterOrEqual(t, b.Round, before)
	assert.LessOrEqual(t, b.Round, after)
}

func TestClient_Fallback(t *testing.T) {
	info := unittest.ChainInfoFixture()
	network := mocks.NewBeaconNetwork(info, latestRound)

	t.Run("skips failing endpoint", func(t *testing.T) {
		down := mocks.NewRelay(t, network)
		down.SetMode(mocks.RelayDown)
		healthy := mocks.NewRelay(t, network)

		client := newClient(t, info, testConfig(down, healthy))
		b, err := client.Fetch(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, network.Beacon(10), b)
		assert.Equal(t, uint64(1), down.Hits())
		assert.Equal(t, uint64(1), healthy.Hits())
	})

	t.Run("stops at first success", func(t *testing.T) {
		first := mocks.NewRelay(t, network)
		second := mocks.NewRelay(t, network)

		client := newClient(t, info, testConfig(first, second))
		_, err := client.Fetch(context.Background(), 11)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), first.Hits())
		assert.Equal(t, uint64(0), second.Hits())
	})

	t.Run("hanging endpoint does not block the next one", func(t *testing.T) {
		hanging := mocks.NewRelay(t, network)
		hanging.SetMode(mocks.RelayHanging)
		healthy := mocks.NewRelay(t, network)

		cfg := testConfig(hanging, healthy)
		cfg.RequestTimeout = 100 * time.Millisecond
		client := newClient(t, info, cfg)

		unittest.RequireReturnsBefore(t, func() {
			b, err := client.Fetch(context.Background(), 12)
			require.NoError(t, err)
			assert.Equal(t, network.Beacon(12), b)
		}, 2*time.Second, "fetch did not fall through the hanging endpoint")
	})

	t.Run("invalid beacon counts as failure", func(t *testing.T) {
		corrupt := mocks.NewRelay(t, network)
		corrupt.SetMode(mocks.RelayCorrupt)
		healthy := mocks.NewRelay(t, network)

		client := newClient(t, info, testConfig(corrupt, healthy))
		b, err := client.Fetch(context.Background(), 13)
		require.NoError(t, err)
		assert.Equal(t, network.Beacon(13), b)
		assert.Equal(t, uint64(1), corrupt.Hits())
	})

	t.Run("wrong round counts as failure", func(t *testing.T) {
		wrong := mocks.NewRelay(t, network)
		wrong.SetMode(mocks.RelayWrongRound)
		healthy := mocks.NewRelay(t, network)

		client := newClient(t, info, testConfig(wrong, healthy))
		b, err := client.Fetch(context.Background(), 14)
		require.NoError(t, err)
		assert.Equal(t, uint64(14), b.Round)
	})
}

func TestClient_Unreachable(t *testing.T) {
	info := unittest.ChainInfoFixture()
	network := mocks.NewBeaconNetwork(info, latestRound)

	t.Run("reports the last error", func(t *testing.T) {
		down := mocks.NewRelay(t, network)
		down.SetMode(mocks.RelayDown)
		corrupt := mocks.NewRelay(t, network)
		corrupt.SetMode(mocks.RelayCorrupt)

		client := newClient(t, info, testConfig(down, corrupt))
		_, err := client.Fetch(context.Background(), 20)
		require.Error(t, err)
		assert.True(t, beacon.IsUnreachableBeaconError(err))
		assert.True(t, beacon.IsInvalidBeaconError(err), "the last endpoint served an invalid beacon")

		var unreachable beacon.UnreachableBeaconError
		require.True(t, errors.As(err, &unreachable))
		assert.Equal(t, uint64(20), unreachable.Round)
		assert.True(t, strings.HasPrefix(unreachable.Last.Error(), corrupt.URL))

		var all *multierror.Error
		require.True(t, errors.As(unreachable.All, &all))
		assert.Len(t, all.Errors, 2)
	})

	t.Run("round mismatch", func(t *testing.T) {
		wrong := mocks.NewRelay(t, network)
		wrong.SetMode(mocks.RelayWrongRound)

		client := newClient(t, info, testConfig(wrong))
		_, err := client.Fetch(context.Background(), 21)
		require.Error(t, err)
		assert.ErrorIs(t, err, beacon.ErrRoundMismatch)
	})

	t.Run("no endpoints", func(t *testing.T) {
		client := newClient(t, info, testConfig())
		_, err := client.Fetch(context.Background(), 22)
		require.Error(t, err)
		assert.True(t, beacon.IsUnreachableBeaconError(err))
		assert.ErrorIs(t, err, beacon.ErrNoEndpoints)
	})

	t.Run("canceled context", func(t *testing.T) {
		relay := mocks.NewRelay(t, network)
		client := newClient(t, info, testConfig(relay))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := client.Fetch(ctx, 23)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, uint64(0), relay.Hits())
	})
}

func TestClient_Cache(t *testing.T) {
	info := unittest.ChainInfoFixture()
	network := mocks.NewBeaconNetwork(info, latestRound)
	relay := mocks.NewRelay(t, network)

	cfg := testConfig(relay)
	cfg.CacheSize = 2
	client := newClient(t, info, cfg)

	for i := 0; i < 3; i++ {
		b, err := client.Fetch(context.Background(), 30)
		require.NoError(t, err)
		assert.Equal(t, network.Beacon(30), b)
	}
	assert.Equal(t, uint64(1), relay.Hits())

	// rounds 31 and 32 evict round 30
	for _, round := range []uint64{31, 32, 30} {
		_, err := client.Fetch(context.Background(), round)
		require.NoError(t, err)
	}
	assert.Equal(t, uint64(4), relay.Hits())
}

func TestClient_CircuitBreaker(t *testing.T) {
	info := unittest.ChainInfoFixture()
	network := mocks.NewBeaconNetwork(info, latestRound)
	relay := mocks.NewRelay(t, network)
	relay.SetMode(mocks.RelayDown)

	cfg := testConfig(relay)
	cfg.BreakerFailures = 2
	cfg.BreakerTimeout = time.Hour
	client := newClient(t, info, cfg)

	for i := 0; i < 2; i++ {
		_, err := client.Fetch(context.Background(), 40)
		require.Error(t, err)
	}
	assert.Equal(t, uint64(2), relay.Hits())

	// the breaker is open, the relay is not contacted anymore
	relay.SetMode(mocks.RelayHealthy)
	_, err := client.Fetch(context.Background(), 40)
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, uint64(2), relay.Hits())
}

// TestClient_CircuitBreakerIgnoresCallerErrors checks that only errors caused by the
// relay count towards opening its breaker.
func TestClient_CircuitBreakerIgnoresCallerErrors(t *testing.T) {
	info := unittest.ChainInfoFixture()
	network := mocks.NewBeaconNetwork(info, latestRound)

	setup := func(t *testing.T) (*mocks.Relay, *beacon.Client) {
		relay := mocks.NewRelay(t, network)
		cfg := testConfig(relay)
		cfg.RequestTimeout = 10 * time.Second
		cfg.BreakerFailures = 3
		cfg.BreakerTimeout = time.Hour
		return relay, newClient(t, info, cfg)
	}

	t.Run("canceled by the caller", func(t *testing.T) {
		relay, client := setup(t)
		relay.SetMode(mocks.RelayHanging)
		for i := 0; i < 3; i++ {
			ctx, cancel := context.WithCancel(context.Background())
			timer := time.AfterFunc(20*time.Millisecond, cancel)
			_, err := client.Fetch(ctx, 60)
			timer.Stop()
			cancel()
			require.Error(t, err)
			assert.ErrorIs(t, err, context.Canceled)
		}

		relay.SetMode(mocks.RelayHealthy)
		b, err := client.Fetch(context.Background(), 60)
		require.NoError(t, err)
		assert.Equal(t, network.Beacon(60), b)
	})

	t.Run("caller deadline", func(t *testing.T) {
		relay, client := setup(t)
		relay.SetMode(mocks.RelayHanging)
		for i := 0; i < 3; i++ {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			_, err := client.Fetch(ctx, 61)
			cancel()
			require.Error(t, err)
			assert.ErrorIs(t, err, context.DeadlineExceeded)
		}

		relay.SetMode(mocks.RelayHealthy)
		b, err := client.Fetch(context.Background(), 61)
		require.NoError(t, err)
		assert.Equal(t, network.Beacon(61), b)
	})

	t.Run("round not yet published", func(t *testing.T) {
		relay, client := setup(t)
		for i := 0; i < 3; i++ {
			_, err := client.Fetch(context.Background(), latestRound+1)
			require.Error(t, err)
			assert.ErrorIs(t, err, beacon.ErrRoundNotAvailable)
		}

		b, err := client.Fetch(context.Background(), 62)
		require.NoError(t, err)
		assert.Equal(t, network.Beacon(62), b)
		assert.Equal(t, uint64(4), relay.Hits())
	})

	t.Run("attempt timeout counts", func(t *testing.T) {
		relay := mocks.NewRelay(t, network)
		relay.SetMode(mocks.RelayHanging)
		cfg := testConfig(relay)
		cfg.RequestTimeout = 20 * time.Millisecond
		cfg.BreakerFailures = 3
		cfg.BreakerTimeout = time.Hour
		client := newClient(t, info, cfg)

		for i := 0; i < 3; i++ {
			_, err := client.Fetch(context.Background(), 63)
			require.Error(t, err)
		}

		relay.SetMode(mocks.RelayHealthy)
		_, err := client.Fetch(context.Background(), 63)
		require.Error(t, err)
		assert.ErrorIs(t, err, gobreaker.ErrOpenState)
		assert.Equal(t, uint64(3), relay.Hits())
	})
}

func TestClient_Verify(t *testing.T) {
	info := unittest.ChainInfoFixture()
	network := mocks.NewBeaconNetwork(info, latestRound)
	relay := mocks.NewRelay(t, network)

	cfg := testConfig(relay)
	cfg.Verify = true
	client := newClient(t, info, cfg)

	// fixtures carry random signatures, which can never verify against the chain key
	_, err := client.Fetch(context.Background(), 50)
	require.Error(t, err)
	assert.True(t, beacon.IsInvalidBeaconError(err))

	t.Run("unknown scheme", func(t *testing.T) {
		bad := unittest.ChainInfoFixture()
		bad.Scheme = "no-such-scheme"
		_, err := beacon.NewClient(unittest.Logger(), metrics.NewNoopCollector(), bad, cfg)
		require.Error(t, err)
	})

	t.Run("invalid chain info", func(t *testing.T) {
		bad := unittest.ChainInfoFixture()
		bad.Period = 0
		_, err := beacon.NewClient(unittest.Logger(), metrics.NewNoopCollector(), bad, cfg)
		require.ErrorIs(t, err, drand.ErrInvalidChainInfo)
	})
}

func TestClient_RemoteInfo(t *testing.T) {
	info := unittest.ChainInfoFixture()
	network := mocks.NewBeaconNetwork(info, latestRound)
	relay := mocks.NewRelay(t, network)

	client := newClient(t, info, testConfig(relay))
	remote, err := client.RemoteInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, info.HashString(), remote.HashString())

	t.Run("mismatching parameters", func(t *testing.T) {
		local := *info
		local.Period = info.Period + 1
		client := newClient(t, &local, testConfig(relay))
		_, err := client.RemoteInfo(context.Background())
		require.ErrorIs(t, err, beacon.ErrChainMismatch)
	})

	t.Run("unknown chain", func(t *testing.T) {
		other := unittest.ChainInfoFixture()
		client := newClient(t, other, testConfig(relay))
		_, err := client.RemoteInfo(context.Background())
		require.Error(t, err)
		assert.True(t, beacon.IsUnreachableBeaconError(err))
	})
}
