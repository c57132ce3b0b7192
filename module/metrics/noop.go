package metrics

import (
	"time"

	"github.com/onflow/drand-fulfiller/module"
)

type NoopCollector struct{}

var _ module.FulfillmentMetrics = (*NoopCollector)(nil)

func NewNoopCollector() *NoopCollector {
	nc := &NoopCollector{}
	return nc
}

func (nc *NoopCollector) InvocationFinished(state string, duration time.Duration)             {}
func (nc *NoopCollector) CheckpointAdvanced(height uint64)                                    {}
func (nc *NoopCollector) CallsBuilt(count int)                                                {}
func (nc *NoopCollector) LogQuery(blocks uint64, logs int, duration time.Duration, err error) {}
func (nc *NoopCollector) Backlog(blocks uint64)                                               {}
func (nc *NoopCollector) BeaconFetched(endpoint string, duration time.Duration, err error)    {}
func (nc *NoopCollector) BeaconCacheHit()                                                     {}
