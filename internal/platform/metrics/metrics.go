package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	notificationsPersisted uint64
	pushesDelivered        uint64
	pushesDropped          uint64
	conversions            uint64
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

func (c *Collector) RecordNotification(persisted, delivered bool) {
	if c == nil {
		return
	}
	if persisted {
		atomic.AddUint64(&c.notificationsPersisted, 1)
	}
	if delivered {
		atomic.AddUint64(&c.pushesDelivered, 1)
	} else {
		atomic.AddUint64(&c.pushesDropped, 1)
	}
}

func (c *Collector) RecordConversion() {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.conversions, 1)
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
		"requestsTotal":               total,
		"errorsTotal":                 errs,
		"rateLimitedTotal":            limited,
		"avgDurationMs":               avg,
		"totalDurationMs":             totalMs,
		"notificationsPersistedTotal": atomic.LoadUint64(&c.notificationsPersisted),
		"pushesDeliveredTotal":        atomic.LoadUint64(&c.pushesDelivered),
		"pushesDroppedTotal":          atomic.LoadUint64(&c.pushesDropped),
		"leadConversionsTotal":        atomic.LoadUint64(&c.conversions),
	}
}
