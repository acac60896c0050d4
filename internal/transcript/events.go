package transcript

import "sync"

// eventQueue is an unbounded FIFO of renderer calls drained by one goroutine.
// Producers never block, so renderers may call back into the session.
type eventQueue struct {
	mu      sync.Mutex
	pending []func(Renderer)
	closed  bool
	wake    chan struct{}
	done    chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (q *eventQueue) push(fn func(Renderer)) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
	q.signal()
}

func (q *eventQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// run delivers events to r until close is called and the queue is drained.
func (q *eventQueue) run(r Renderer) {
	defer close(q.done)
	for range q.wake {
		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		closed := q.closed
		q.mu.Unlock()

		for _, fn := range batch {
			fn(r)
		}
		if closed {
			q.mu.Lock()
			remaining := len(q.pending)
			q.mu.Unlock()
			if remaining == 0 {
				return
			}
		}
	}
}

// close stops accepting events and lets run drain what is pending.
func (q *eventQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}
