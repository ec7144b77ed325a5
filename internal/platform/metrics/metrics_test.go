package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollectorSnapshot(t *testing.T) {
	c := New()
	c.Record(200, 10*time.Millisecond)
	c.Record(503, 30*time.Millisecond)
	c.Record(429, 0)
	c.PayslipCreated()
	c.DocumentRendered("loaded")
	c.DocumentRendered("timed_out")
	c.DocumentRendered("failed")
	c.IdempotentReplay()

	snap := c.Snapshot()
	assert.Equal(t, uint64(3), snap["requestsTotal"])
	assert.Equal(t, uint64(1), snap["errorsTotal"])
	assert.Equal(t, uint64(1), snap["rateLimitedTotal"])
	assert.InDelta(t, 13.33, snap["avgDurationMs"], 0.01)
	assert.Equal(t, uint64(1), snap["payslipsCreatedTotal"])
	assert.Equal(t, uint64(3), snap["documentsRenderedTotal"])
	assert.Equal(t, uint64(1), snap["logoFailuresTotal"])
	assert.Equal(t, uint64(1), snap["logoTimeoutsTotal"])
	assert.Equal(t, uint64(1), snap["idempotentReplaysTotal"])
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.Record(200, time.Millisecond)
		c.PayslipCreated()
		c.DocumentRendered("loaded")
	})
}
