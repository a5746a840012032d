package metrics

import (
	"sync/atomic"
	"time"
)

// Collector tracks the HTTP surface plus the two numbers operators actually
// watch on this service: how many SSE streams are attached and how often the
// global mode flips.
type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64
	modeChanges     uint64
	activeStreams   int64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) StreamOpened() {
	atomic.AddInt64(&c.activeStreams, 1)
}

func (c *Collector) StreamClosed() {
	atomic.AddInt64(&c.activeStreams, -1)
}

func (c *Collector) ModeChanged() {
	atomic.AddUint64(&c.modeChanges, 1)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":    total,
		"errorsTotal":      atomic.LoadUint64(&c.errorRequests),
		"rateLimitedTotal": atomic.LoadUint64(&c.rateLimited),
		"avgDurationMs":    avg,
		"totalDurationMs":  totalMs,
		"modeChangesTotal": atomic.LoadUint64(&c.modeChanges),
		"activeStreams":    atomic.LoadInt64(&c.activeStreams),
	}
}
