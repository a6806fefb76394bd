package source

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Pacer injects the politeness delay between history pages. It is a
// resource-sharing courtesy to the external source, not a correctness
// requirement; tests use NopPacer.
type Pacer interface {
	Pause(ctx context.Context) error
}

// JitterPacer sleeps a uniformly random duration in [min, max].
type JitterPacer struct {
	min time.Duration
	max time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewJitterPacer creates a randomized pacer. A max at or below min collapses
// to a fixed min delay.
func NewJitterPacer(min, max time.Duration) *JitterPacer {
	if max < min {
		max = min
	}
	return &JitterPacer{
		min: min,
		max: max,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Pause blocks for the randomized delay or until ctx is done.
func (p *JitterPacer) Pause(ctx context.Context) error {
	d := p.min
	if span := p.max - p.min; span > 0 {
		p.mu.Lock()
		d += time.Duration(p.rng.Int63n(int64(span) + 1))
		p.mu.Unlock()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NopPacer never waits.
type NopPacer struct{}

// Pause returns immediately.
func (NopPacer) Pause(context.Context) error { return nil }
