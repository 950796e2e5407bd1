package results

import (
	"context"
	"sync"
	"time"

	"alert_relay/internal/models"
	"alert_relay/pkg/logger"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type entry struct {
	ch        chan models.ExecutionResult // cap 1, holds the published result
	createdAt time.Time
	waiters   int
}

// Correlator hands one ExecutionResult from the worker to whoever waits on its
// correlation id. A result is delivered at most once, then forgotten.
type Correlator struct {
	mu        sync.Mutex
	entries   map[string]*entry
	retention time.Duration
	now       func() time.Time
}

func New(retention time.Duration) *Correlator {
	return &Correlator{
		entries:   make(map[string]*entry),
		retention: retention,
		now:       time.Now,
	}
}

// slot returns the entry for id, creating it if needed. Caller holds mu.
func (c *Correlator) slot(id string) *entry {
	e, ok := c.entries[id]
	if !ok {
		e = &entry{ch: make(chan models.ExecutionResult, 1), createdAt: c.now()}
		c.entries[id] = e
	}
	return e
}

// Publish stores the result of id and wakes its waiter. A result that is
// still unclaimed under the same id is overwritten.
func (c *Correlator) Publish(id string, res models.ExecutionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.slot(id)
	select {
	case old := <-e.ch:
		logger.L().Warn("correlation id collision, pending result overwritten",
			zap.String("clientId", id),
			zap.Time("previousStartedAt", old.StartedAt))
	default:
	}
	e.ch <- res
	e.createdAt = c.now()
}

// Await blocks until the result of id is published, timeout elapses or ctx is
// done. A delivered result is removed; a second Await on the same id waits for
// a new Publish.
func (c *Correlator) Await(ctx context.Context, id string, timeout time.Duration) (models.ExecutionResult, error) {
	c.mu.Lock()
	e := c.slot(id)
	e.waiters++
	c.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-e.ch:
		c.mu.Lock()
		e.waiters--
		if e.waiters == 0 && len(e.ch) == 0 && c.entries[id] == e {
			delete(c.entries, id)
		}
		c.mu.Unlock()
		return res, nil
	case <-timer.C:
		c.release(id, e)
		return models.ExecutionResult{}, errors.Wrapf(models.ErrTimeout, "clientId %s after %s", id, timeout)
	case <-ctx.Done():
		c.release(id, e)
		return models.ExecutionResult{}, errors.Wrapf(models.ErrTimeout, "clientId %s: %v", id, ctx.Err())
	}
}

// release drops a waiter. The entry itself stays so a late Publish can still
// be collected with Take.
func (c *Correlator) release(id string, e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e.waiters--
	if e.waiters == 0 && len(e.ch) == 0 && c.entries[id] == e {
		delete(c.entries, id)
	}
}

// Take returns the published result of id without blocking and removes it.
func (c *Correlator) Take(id string) (models.ExecutionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return models.ExecutionResult{}, errors.Wrapf(models.ErrNotFound, "clientId %s", id)
	}
	select {
	case res := <-e.ch:
		if e.waiters == 0 {
			delete(c.entries, id)
		}
		return res, nil
	default:
		return models.ExecutionResult{}, errors.Wrapf(models.ErrNotFound, "clientId %s", id)
	}
}

// Len is the number of ids with a pending result or waiter.
func (c *Correlator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep drops unclaimed results older than the retention period and returns
// how many were dropped.
func (c *Correlator) Sweep() int {
	if c.retention <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-c.retention)
	n := 0
	for id, e := range c.entries {
		if e.waiters == 0 && e.createdAt.Before(cutoff) {
			delete(c.entries, id)
			n++
		}
	}
	return n
}

// Run sweeps periodically until ctx is done.
func (c *Correlator) Run(ctx context.Context) {
	if c.retention <= 0 {
		return
	}
	interval := c.retention / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				logger.L().Info("expired unclaimed results", zap.Int("count", n))
			}
		}
	}
}
