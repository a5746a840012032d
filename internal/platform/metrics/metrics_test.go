package metrics

import (
	"testing"
	"time"
)

func TestCollectorSnapshot(t *testing.T) {
	c := New()
	c.Record(200, 10*time.Millisecond)
	c.Record(503, 30*time.Millisecond)
	c.Record(429, 0)
	c.ModeChanged()
	c.ModeChanged()
	c.StreamOpened()
	c.StreamOpened()
	c.StreamClosed()

	snap := c.Snapshot()
	if snap["requestsTotal"] != uint64(3) {
		t.Fatalf("requestsTotal = %v", snap["requestsTotal"])
	}
	if snap["errorsTotal"] != uint64(1) {
		t.Fatalf("errorsTotal = %v", snap["errorsTotal"])
	}
	if snap["rateLimitedTotal"] != uint64(1) {
		t.Fatalf("rateLimitedTotal = %v", snap["rateLimitedTotal"])
	}
	if snap["modeChangesTotal"] != uint64(2) {
		t.Fatalf("modeChangesTotal = %v", snap["modeChangesTotal"])
	}
	if snap["activeStreams"] != int64(1) {
		t.Fatalf("activeStreams = %v", snap["activeStreams"])
	}
}
