package main

import (
	"context"
	"testing"
	"time"
)

func TestTickLimiterPaces(t *testing.T) {
	l := newTickLimiter(5 * time.Millisecond)
	start := time.Now()
	for range 4 {
		l.Wait(context.Background())
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("4 ticks took %v, want at least 20ms", elapsed)
	}
}

func TestTickLimiterZeroInterval(t *testing.T) {
	l := newTickLimiter(0)
	start := time.Now()
	for range 1000 {
		l.Wait(context.Background())
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("unpaced limiter blocked for %v", elapsed)
	}
}

func TestTickLimiterCancel(t *testing.T) {
	l := newTickLimiter(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		l.Wait(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait ignored cancelled context")
	}
}
