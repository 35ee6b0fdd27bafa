package pipeline

import "sync"

// queue is an unbounded FIFO hand-off between the single pipeline consumer
// and a downstream reader. Push never blocks: a slow reader grows the backing
// slice instead of dropping samples, since sample loss would corrupt the
// plotted record. The memory cost of a stalled reader is the accepted scaling
// limit.
type queue[T any] struct {
	mu     sync.Mutex
	items  []T
	notify chan struct{}
	out    chan T
	closed bool
}

func newQueue[T any]() *queue[T] {
	q := &queue[T]{
		notify: make(chan struct{}, 1),
		out:    make(chan T),
	}
	go q.pump()
	return q
}

// Push enqueues v without blocking.
func (q *queue[T]) Push(v T) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, v)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Out returns the channel on which queued values are delivered in order.
// The channel is closed after Close once all queued values are drained.
func (q *queue[T]) Out() <-chan T {
	return q.out
}

// Close stops the queue. Values already queued are still delivered.
func (q *queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *queue[T]) pump() {
	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			if q.closed {
				q.mu.Unlock()
				close(q.out)
				return
			}
			q.mu.Unlock()
			<-q.notify
			continue
		}
		v := q.items[0]
		q.items = q.items[1:]
		if len(q.items) == 0 {
			q.items = nil
		}
		q.mu.Unlock()

		q.out <- v
	}
}
