package extractor

import (
	"context"
	"sync"
	"time"
)

// Gate enforces the minimum interval between consecutive outbound requests
// to the extraction service. One Gate is shared by every orchestrator that
// draws on the same service quota; the interval is measured from the end of
// the previous request, wherever it was issued.
type Gate struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewGate creates a gate with the given minimum inter-request interval.
func NewGate(interval time.Duration) *Gate {
	return &Gate{interval: interval, now: time.Now, sleep: sleepCtx}
}

// Wait blocks until the interval since the previous request has elapsed,
// or the context is done.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	var wait time.Duration
	if !g.last.IsZero() {
		wait = g.interval - g.now().Sub(g.last)
	}
	g.mu.Unlock()
	return g.sleep(ctx, wait)
}

// Done records the completion time of a request. Callers must invoke it
// once per request, immediately after the response (or failure) arrives.
func (g *Gate) Done() {
	g.mu.Lock()
	g.last = g.now()
	g.mu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
