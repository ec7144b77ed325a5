package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests    uint64
	errorRequests    uint64
	rateLimited      uint64
	totalDurationMs  uint64
	payslipsCreated  uint64
	documentsRender  uint64
	logoFailures     uint64
	logoTimeouts     uint64
	idempotentReplay uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) PayslipCreated() {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.payslipsCreated, 1)
}

// DocumentRendered counts a finished render and how its logo step ended.
func (c *Collector) DocumentRendered(logoOutcome string) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.documentsRender, 1)
	switch logoOutcome {
	case "failed":
		atomic.AddUint64(&c.logoFailures, 1)
	case "timed_out":
		atomic.AddUint64(&c.logoTimeouts, 1)
	}
}

func (c *Collector) IdempotentReplay() {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.idempotentReplay, 1)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":          total,
		"errorsTotal":            errs,
		"rateLimitedTotal":       limited,
		"avgDurationMs":          avg,
		"totalDurationMs":        totalMs,
		"payslipsCreatedTotal":   atomic.LoadUint64(&c.payslipsCreated),
		"documentsRenderedTotal": atomic.LoadUint64(&c.documentsRender),
		"logoFailuresTotal":      atomic.LoadUint64(&c.logoFailures),
		"logoTimeoutsTotal":      atomic.LoadUint64(&c.logoTimeouts),
		"idempotentReplaysTotal": atomic.LoadUint64(&c.idempotentReplay),
	}
}
