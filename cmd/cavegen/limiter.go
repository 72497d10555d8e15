package main

import (
	"context"
	"time"
)

// tickLimiter paces the driver loop at a fixed interval.
type tickLimiter struct {
	interval time.Duration
	next     time.Time
}

func newTickLimiter(interval time.Duration) *tickLimiter {
	return &tickLimiter{interval: interval}
}

// Wait blocks until the next tick is due or ctx ends. A zero interval
// never blocks.
func (l *tickLimiter) Wait(ctx context.Context) {
	if l.interval <= 0 {
		l.next = time.Time{}
		return
	}
	if l.next.IsZero() {
		l.next = time.Now().Add(l.interval)
	} else {
		l.next = l.next.Add(l.interval)
	}

	if remaining := time.Until(l.next); remaining > 0 {
		t := time.NewTimer(remaining)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return
		}
	}

	// resync after a long tick instead of bursting to catch up
	if late := -time.Until(l.next); late > l.interval {
		l.next = time.Now().Add(l.interval)
	}
}
