package core

import (
	"errors"
	"sync"
)

var ErrOutboxClosed = errors.New("outbox closed")

// Outbox is an unbounded multi-producer, single-consumer FIFO of frames.
// Producers never block; a stalled consumer lets the queue grow without limit.
type Outbox struct {
	mu     sync.Mutex
	queue  []Frame
	closed bool
	ready  chan struct{}
}

func NewOutbox() *Outbox {
	return &Outbox{ready: make(chan struct{}, 1)}
}

func (o *Outbox) Send(f Frame) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrOutboxClosed
	}
	o.queue = append(o.queue, f)
	o.mu.Unlock()

	select {
	case o.ready <- struct{}{}:
	default:
	}
	return nil
}

// Ready fires at least once after frames become available.
func (o *Outbox) Ready() <-chan struct{} { return o.ready }

// Drain removes and returns every queued frame in enqueue order.
func (o *Outbox) Drain() []Frame {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.queue
	o.queue = nil
	return out
}

func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}

// Close rejects further sends and drops anything still queued.
func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.queue = nil
}
