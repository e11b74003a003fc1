package coordinator

import (
	"context"
	"sync"
)

// queue is an unbounded FIFO with many producers and one consumer.
// push never blocks; pop blocks only the consumer.
type queue struct {
	mu     sync.Mutex
	items  []Command
	closed bool
	ready  chan struct{}
}

func newQueue() *queue {
	return &queue{ready: make(chan struct{}, 1)}
}

// push appends cmd and reports false once the queue is closed.
func (q *queue) push(cmd Command) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, cmd)
	q.mu.Unlock()

	q.signal()
	return true
}

// pop returns the oldest command, draining remaining items after close.
func (q *queue) pop(ctx context.Context) (Command, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			cmd := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			q.mu.Unlock()
			return cmd, true
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return nil, false
		}

		select {
		case <-q.ready:
		case <-ctx.Done():
			return nil, false
		}
	}
}

func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

func (q *queue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
