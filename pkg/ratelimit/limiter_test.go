package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerSecond(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, PerSecond(10))
	assert.Equal(t, time.Duration(0), PerSecond(0))
}

func TestLimiter_ConsecutiveAcquireSpacing(t *testing.T) {
	const interval = 20 * time.Millisecond
	l := New(map[Class]time.Duration{Write: interval})

	const n = 5
	start := time.Now()
	for i := 0; i < n; i++ {
		require.NoError(t, l.Acquire(context.Background(), Write))
	}
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, (n-1)*interval)
}

func TestLimiter_FirstCallImmediate(t *testing.T) {
	l := New(map[Class]time.Duration{Read: time.Second})

	start := time.Now()
	require.NoError(t, l.Acquire(context.Background(), Read))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestLimiter_ClassesAreIndependent(t *testing.T) {
	l := New(map[Class]time.Duration{
		Read:  time.Second,
		Write: time.Second,
	})

	start := time.Now()
	require.NoError(t, l.Acquire(context.Background(), Read))
	require.NoError(t, l.Acquire(context.Background(), Write))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestLimiter_UnknownClassPassesThrough(t *testing.T) {
	l := New(map[Class]time.Duration{Write: time.Second})

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Acquire(context.Background(), Class("other")))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, time.Duration(0), l.Interval(Class("other")))
	assert.Equal(t, time.Second, l.Interval(Write))
}

func TestLimiter_ContextCancelled(t *testing.T) {
	l := New(map[Class]time.Duration{Write: time.Hour})
	require.NoError(t, l.Acquire(context.Background(), Write))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := l.Acquire(ctx, Write)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLimiter_CancelledCallerReturnsSlot(t *testing.T) {
	const interval = 200 * time.Millisecond
	l := New(map[Class]time.Duration{Write: interval})

	start := time.Now()
	require.NoError(t, l.Acquire(context.Background(), Write))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, l.Acquire(ctx, Write), context.DeadlineExceeded)

	require.NoError(t, l.Acquire(context.Background(), Write))
	elapsed := time.Since(start)

	// the third call takes the abandoned slot, not the one after it
	assert.GreaterOrEqual(t, elapsed, interval-10*time.Millisecond)
	assert.Less(t, elapsed, 2*interval-50*time.Millisecond)
}

func TestLimiter_ReleaseKeepsLaterBookings(t *testing.T) {
	const interval = time.Hour
	l := New(map[Class]time.Duration{Write: interval})

	_, first := l.reserve(Write)
	_, second := l.reserve(Write)
	_, third := l.reserve(Write)
	require.Equal(t, interval, second.Sub(first))

	// the middle caller gives up: its slot stays booked since a later one exists
	l.release(Write, second)
	assert.True(t, l.gates[Write].next.Equal(third))

	// the last caller gives up: the gate steps back
	l.release(Write, third)
	assert.True(t, l.gates[Write].next.Equal(second))
}
