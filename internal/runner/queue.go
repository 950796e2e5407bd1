package runner

import (
	"sync"

	"alert_relay/internal/models"

	"github.com/pkg/errors"
)

// Queue is the bounded FIFO between the ingress and the single worker.
type Queue struct {
	mu     sync.RWMutex
	closed bool
	ch     chan models.Alert
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{ch: make(chan models.Alert, size)}
}

// Enqueue never blocks: a full queue is ErrQueueFull, a closed one ErrQueueClosed.
func (q *Queue) Enqueue(alert models.Alert) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return errors.Wrapf(models.ErrQueueClosed, "clientId %s", alert.CorrelationID)
	}
	select {
	case q.ch <- alert:
		return nil
	default:
		return errors.Wrapf(models.ErrQueueFull, "clientId %s, capacity %d", alert.CorrelationID, cap(q.ch))
	}
}

// Close stops accepting alerts. Alerts already queued stay readable.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}

func (q *Queue) Len() int { return len(q.ch) }
func (q *Queue) Cap() int { return cap(q.ch) }

func (q *Queue) alerts() <-chan models.Alert { return q.ch }
