package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/onflow/drand-fulfiller/module"
)

// FulfillmentCollector reports the reconciliation loop to prometheus.
type FulfillmentCollector struct {
	invocations        *prometheus.CounterVec
	invocationDuration prometheus.Histogram
	checkpoint         prometheus.Gauge
	callsBuilt         prometheus.Counter
	lastCalls          prometheus.Gauge

	logQueries       *prometheus.CounterVec
	logQueryDuration prometheus.Histogram
	blocksScanned    prometheus.Counter
	logsScanned      prometheus.Counter
	backlog          prometheus.Gauge

	beaconFetches       *prometheus.CounterVec
	beaconFetchDuration *prometheus.HistogramVec
	beaconCacheHits     prometheus.Counter
}

var _ module.FulfillmentMetrics = (*FulfillmentCollector)(nil)

// NewFulfillmentCollector registers the collector with the default prometheus registerer.
func NewFulfillmentCollector() *FulfillmentCollector {
	return NewFulfillmentCollectorWith(prometheus.DefaultRegisterer)
}

// NewFulfillmentCollectorWith registers the collector with `registerer`.
func NewFulfillmentCollectorWith(registerer prometheus.Registerer) *FulfillmentCollector {
	factory := promauto.With(registerer)
	return &FulfillmentCollector{
		invocations: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "invocations_total",
			Namespace: namespaceVRF,
			Subsystem: subsystemFulfillment,
			Help:      "number of invocations by terminal state",
		}, []string{LabelState}),
		invocationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:      "invocation_duration_seconds",
			Namespace: namespaceVRF,
			Subsystem: subsystemFulfillment,
			Help:      "duration of one invocation",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		checkpoint: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "checkpoint_height",
			Namespace: namespaceVRF,
			Subsystem: subsystemFulfillment,
			Help:      "highest block fully scanned and persisted",
		}),
		callsBuilt: factory.NewCounter(prometheus.CounterOpts{
			Name:      "calls_built_total",
			Namespace: namespaceVRF,
			Subsystem: subsystemFulfillment,
			Help:      "number of fulfillment calls proposed",
		}),
		lastCalls: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "last_invocation_calls",
			Namespace: namespaceVRF,
			Subsystem: subsystemFulfillment,
			Help:      "number of fulfillment calls proposed by the last invocation",
		}),

		logQueries: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "log_queries_total",
			Namespace: namespaceVRF,
			Subsystem: subsystemScanner,
			Help:      "number of log queries sent to the provider by result",
		}, []string{LabelResult}),
		logQueryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:      "log_query_duration_seconds",
			Namespace: namespaceVRF,
			Subsystem: subsystemScanner,
			Help:      "duration of a single log query",
			Buckets:   prometheus.DefBuckets,
		}),
		blocksScanned: factory.NewCounter(prometheus.CounterOpts{
			Name:      "blocks_scanned_total",
			Namespace: namespaceVRF,
			Subsystem: subsystemScanner,
			Help:      "number of blocks covered by successful log queries",
		}),
		logsScanned: factory.NewCounter(prometheus.CounterOpts{
			Name:      "logs_scanned_total",
			Namespace: namespaceVRF,
			Subsystem: subsystemScanner,
			Help:      "number of request logs returned by the provider",
		}),
		backlog: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "backlog_blocks",
			Namespace: namespaceVRF,
			Subsystem: subsystemScanner,
			Help:      "number of blocks between the checkpoint and the chain head",
		}),

		beaconFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "fetches_total",
			Namespace: namespaceVRF,
			Subsystem: subsystemBeacon,
			Help:      "number of beacon fetch attempts by endpoint and result",
		}, []string{LabelEndpoint, LabelResult}),
		beaconFetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:      "fetch_duration_seconds",
			Namespace: namespaceVRF,
			Subsystem: subsystemBeacon,
			Help:      "duration of a single beacon fetch attempt",
			Buckets:   prometheus.DefBuckets,
		}, []string{LabelEndpoint}),
		beaconCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name:      "cache_hits_total",
			Namespace: namespaceVRF,
			Subsystem: subsystemBeacon,
			Help:      "number of beacon rounds served from memory",
		}),
	}
}

func (c *FulfillmentCollector) InvocationFinished(state string, duration time.Duration) {
	c.invocations.WithLabelValues(state).Inc()
	c.invocationDuration.Observe(duration.Seconds())
}

func (c *FulfillmentCollector) CheckpointAdvanced(height uint64) {
	c.checkpoint.Set(float64(height))
}

func (c *FulfillmentCollector) CallsBuilt(count int) {
	c.callsBuilt.Add(float64(count))
	c.lastCalls.Set(float64(count))
}

func (c *FulfillmentCollector) LogQuery(blocks uint64, logs int, duration time.Duration, err error) {
	c.logQueries.WithLabelValues(resultLabel(err)).Inc()
	c.logQueryDuration.Observe(duration.Seconds())
	if err != nil {
		return
	}
	c.blocksScanned.Add(float64(blocks))
	c.logsScanned.Add(float64(logs))
}

func (c *FulfillmentCollector) Backlog(blocks uint64) {
	c.backlog.Set(float64(blocks))
}

func (c *FulfillmentCollector) BeaconFetched(endpoint string, duration time.Duration, err error) {
	c.beaconFetches.WithLabelValues(endpoint, resultLabel(err)).Inc()
	c.beaconFetchDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (c *FulfillmentCollector) BeaconCacheHit() {
	c.beaconCacheHits.Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
