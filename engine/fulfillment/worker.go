package fulfillment

import (
	"context"
	"time"
)

// IntervalWorker runs a task periodically until its context is canceled.
// Runs never overlap: the next run is scheduled `interval` after the previous one
// returned, which gives the single-flight guarantee the reconciliation loop relies on.
type IntervalWorker struct {
	interval time.Duration
}

func NewIntervalWorker(interval time.Duration) *IntervalWorker {
	return &IntervalWorker{interval: interval}
}

// Run calls f immediately and then once per interval. It returns when ctx is canceled.
func (iw *IntervalWorker) Run(ctx context.Context, f func(ctx context.Context)) {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			f(ctx)
			timer.Reset(iw.interval)
		}
	}
}
