package module

import (
	"time"
)

// FulfillmentMetrics tracks the reconciliation loop of the fulfiller.
type FulfillmentMetrics interface {
	ScannerMetrics
	BeaconMetrics

	// InvocationFinished records the terminal state of one invocation
	// ("ready" or "blocked") and how long it took.
	InvocationFinished(state string, duration time.Duration)

	// CheckpointAdvanced records the highest fully scanned block after a persisted update.
	CheckpointAdvanced(height uint64)

	// CallsBuilt records the number of fulfillment calls emitted by one invocation.
	CallsBuilt(count int)
}

// ScannerMetrics tracks the event scanner.
type ScannerMetrics interface {
	// LogQuery records a single provider log query spanning `blocks` blocks.
	LogQuery(blocks uint64, logs int, duration time.Duration, err error)

	// Backlog records how many blocks the scanner is behind the chain head.
	Backlog(blocks uint64)
}

// BeaconMetrics tracks beacon fetches.
type BeaconMetrics interface {
	// BeaconFetched records a single attempt against one beacon endpoint.
	BeaconFetched(endpoint string, duration time.Duration, err error)

	// BeaconCacheHit records a round served from the in-process cache.
	BeaconCacheHit()
}
