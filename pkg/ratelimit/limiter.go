package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Class groups venue calls that share one throttle.
type Class string

const (
	Read  Class = "read"
	Write Class = "write"
)

// PerSecond converts a call rate into the minimum interval between calls.
func PerSecond(n float64) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / n)
}

type gate struct {
	interval time.Duration
	next     time.Time
}

// Limiter is a minimum-interval gate per Class. Times come from time.Now and
// keep their monotonic reading, so wall clock jumps do not affect spacing.
type Limiter struct {
	mu    sync.Mutex
	gates map[Class]*gate
}

func New(intervals map[Class]time.Duration) *Limiter {
	l := &Limiter{gates: make(map[Class]*gate, len(intervals))}
	for c, d := range intervals {
		l.gates[c] = &gate{interval: d}
	}
	return l
}

// Acquire blocks until a call of the class is permitted. Classes without a
// configured interval pass through. A caller that gives up on ctx hands its
// slot back when nobody has booked after it.
func (l *Limiter) Acquire(ctx context.Context, class Class) error {
	wait, slot := l.reserve(class)
	if wait <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		l.release(class, slot)
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// reserve books the next slot of the class. It returns how long to sleep for
// the slot and the gate's next value after the booking.
func (l *Limiter) reserve(class Class) (time.Duration, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	g, ok := l.gates[class]
	if !ok || g.interval <= 0 {
		return 0, time.Time{}
	}

	now := time.Now()
	if g.next.IsZero() || !now.Before(g.next) {
		g.next = now.Add(g.interval)
		return 0, g.next
	}
	wait := g.next.Sub(now)
	g.next = g.next.Add(g.interval)
	return wait, g.next
}

func (l *Limiter) release(class Class, slot time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	g, ok := l.gates[class]
	if !ok || !g.next.Equal(slot) {
		return
	}
	g.next = g.next.Add(-g.interval)
}

// Interval reports the configured interval of a class.
func (l *Limiter) Interval(class Class) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if g, ok := l.gates[class]; ok {
		return g.interval
	}
	return 0
}
