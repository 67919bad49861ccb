// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Clock abstracts time so pacing and backoff can be tested without real
// sleeps.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, whichever comes first.
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is the wall-clock implementation of Clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Sleep waits for d unless ctx is cancelled first.
func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Pacer spaces consecutive calls at least interval apart. One Pacer is
// shared by every stream of a client, so the spacing holds client-wide.
type Pacer struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	clock    Clock
	interval time.Duration
	last     time.Time
}

// NewPacer returns a Pacer allowing one call per interval. The first call
// proceeds immediately.
func NewPacer(interval time.Duration, clock Clock) *Pacer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Pacer{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		clock:    clock,
		interval: interval,
	}
}

// Interval returns the minimum spacing between calls.
func (p *Pacer) Interval() time.Duration { return p.interval }

// Wait blocks until the next call slot and returns how long it waited.
// If ctx ends first the slot is given back and ctx.Err() is returned.
func (p *Pacer) Wait(ctx context.Context) (time.Duration, error) {
	p.mu.Lock()
	now := p.clock.Now()
	r := p.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	// The limiter works in float tokens and can land a nanosecond early.
	if !p.last.IsZero() {
		if gap := now.Add(delay).Sub(p.last); gap < p.interval {
			delay += p.interval - gap
		}
	}
	prev := p.last
	p.last = now.Add(delay)
	p.mu.Unlock()

	if delay <= 0 {
		return 0, ctx.Err()
	}
	if err := p.clock.Sleep(ctx, delay); err != nil {
		p.mu.Lock()
		r.CancelAt(p.clock.Now())
		if p.last.Equal(now.Add(delay)) {
			p.last = prev
		}
		p.mu.Unlock()
		return 0, err
	}
	return delay, nil
}
