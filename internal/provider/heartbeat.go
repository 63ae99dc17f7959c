package provider

import "time"

// heartbeatClock tracks when the last heartbeat went out. The zero value has
// never sent one, so the first check is always due.
type heartbeatClock struct {
	interval time.Duration
	last     time.Time
	sent     bool
}

func newHeartbeatClock(interval time.Duration) *heartbeatClock {
	return &heartbeatClock{interval: interval}
}

func (c *heartbeatClock) due(now time.Time) bool {
	if !c.sent {
		return true
	}
	return now.Sub(c.last) >= c.interval
}

func (c *heartbeatClock) mark(now time.Time) {
	c.last = now
	c.sent = true
}
