package courtroom

import "sync"

// Dispatcher collects actions produced on arbitrary goroutines and replays
// them, in order, on whichever goroutine drains it. Network callbacks and
// device callbacks enqueue; the owner's loop drains once per tick, so all
// consumer-visible work happens on a single goroutine.
type Dispatcher struct {
	mu     sync.Mutex
	queue  []func()
	closed bool
}

// NewDispatcher creates an empty open dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Enqueue appends an action to the queue. It never blocks and is safe to
// call from any goroutine. Actions enqueued after Close are discarded.
func (d *Dispatcher) Enqueue(action func()) {
	if d == nil || action == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.queue = append(d.queue, action)
}

// Drain runs every action queued before the call, in enqueue order, and
// returns how many ran. Actions enqueued while draining wait for the next
// Drain, so a self-enqueueing action cannot starve the caller.
func (d *Dispatcher) Drain() int {
	if d == nil {
		return 0
	}

	d.mu.Lock()
	if d.closed || len(d.queue) == 0 {
		d.mu.Unlock()
		return 0
	}
	batch := d.queue
	d.queue = nil
	d.mu.Unlock()

	for _, action := range batch {
		action()
	}
	return len(batch)
}

// Close discards all queued actions and makes every later Enqueue a no-op.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.queue = nil
}

// Len reports the number of currently queued actions.
func (d *Dispatcher) Len() int {
	if d == nil {
		return 0
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}
