package flush

import (
	"context"
	"time"
)

// Pacer computes the wait between flushes from the current backlog
// depth. Deep backlogs cut the wait short; an empty queue keeps the
// worker waiting until a log arrives or the context is cancelled.
type Pacer struct {
	BurstDepth int           // backlog above which the wait breaks immediately
	HighDepth  int           // backlog that breaks after HighWait
	HighWait   time.Duration // minimum wait before HighDepth applies
	MaxWait    time.Duration // wait after which any backlog breaks
	PollEvery  time.Duration // poll granularity
}

// Wait blocks until the backlog warrants the next flush or ctx is
// cancelled. backlog is sampled once per poll. With an empty queue the
// wait continues indefinitely (bounded only by cancellation).
func (p *Pacer) Wait(ctx context.Context, backlog func() int64) {
	start := time.Now()
	ticker := time.NewTicker(p.PollEvery)
	defer ticker.Stop()

	for {
		n := backlog()
		w := time.Since(start)
		switch {
		case n > int64(p.BurstDepth):
			return
		case n >= int64(p.HighDepth) && w >= p.HighWait:
			return
		case n >= 1 && w >= p.MaxWait:
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
