// Package poll implements canopy's deferred-wakeup scheduler (spec.md
// §4.9): widgets ask to be woken after a duration, and a background
// timer goroutine coalesces due wakeups into a single delivery. It is
// generic over the node id type so it has no dependency on arena or
// Widget, matching the teacher's RequestRefresh idiom (a non-blocking
// send on a notification channel, uimanager.go) generalized from a
// boolean "something changed" pulse to a typed due-set payload.
package poll

import (
	"container/heap"
	"sync"
	"time"
)

// Poller schedules per-node wakeups and coalesces due ones into
// batched deliveries on Due. It is safe for concurrent use: Schedule is
// typically called from the main engine goroutine while the internal
// timer goroutine drives delivery.
type Poller[ID comparable] struct {
	mu       sync.Mutex
	pq       *pqueue[ID]
	due      chan []ID
	stopped  bool
	timer    *time.Timer
	wake     chan struct{}
	stopOnce sync.Once
	stopCh   chan struct{}
}

type entry[ID comparable] struct {
	deadline time.Time
	node     ID
}

// New creates a Poller and starts its background timer goroutine. Call
// Stop to release it.
func New[ID comparable]() *Poller[ID] {
	p := &Poller[ID]{
		pq:     &pqueue[ID]{},
		due:    make(chan []ID, 1),
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
	}
	heap.Init(p.pq)
	go p.run()
	return p
}

// Due is the channel on which coalesced due-node batches are delivered.
// The engine's driver loop selects on this alongside its input event
// source and turns each batch into an Event::Poll(set) (spec.md §4.9).
func (p *Poller[ID]) Due() <-chan []ID { return p.due }

// Schedule requests node be woken after d elapses. Calling Schedule
// again for the same node before it fires adds a second, independent
// wakeup rather than replacing the first — widgets that want
// "reschedule, don't duplicate" semantics should track their own
// pending state and avoid redundant calls.
func (p *Poller[ID]) Schedule(node ID, d time.Duration) {
	p.mu.Lock()
	heap.Push(p.pq, entry[ID]{deadline: time.Now().Add(d), node: node})
	p.mu.Unlock()
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Stop halts the background goroutine, which then closes Due(); a batch
// already buffered on it can still be received. Safe to call more than
// once.
func (p *Poller[ID]) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

func (p *Poller[ID]) run() {
	defer close(p.due)
	for {
		p.mu.Lock()
		var wait time.Duration
		hasNext := p.pq.Len() > 0
		if hasNext {
			wait = time.Until((*p.pq)[0].deadline)
		}
		p.mu.Unlock()

		var timerC <-chan time.Time
		if hasNext {
			if wait < 0 {
				wait = 0
			}
			t := time.NewTimer(wait)
			timerC = t.C
			defer t.Stop()
		}

		select {
		case <-p.stopCh:
			return
		case <-p.wake:
			continue
		case <-timerC:
			batch := p.drainDue()
			if len(batch) > 0 {
				p.deliver(batch)
			}
		}
	}
}

func (p *Poller[ID]) drainDue() []ID {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	var batch []ID
	for p.pq.Len() > 0 && !(*p.pq)[0].deadline.After(now) {
		e := heap.Pop(p.pq).(entry[ID])
		batch = append(batch, e.node)
	}
	return batch
}

// deliver sends batch on due without blocking the timer goroutine: a
// batch the receiver has not taken yet is merged with the new one and
// the merged batch is sent in its place.
func (p *Poller[ID]) deliver(batch []ID) {
	select {
	case pending := <-p.due:
		batch = append(pending, batch...)
	default:
	}
	select {
	case p.due <- batch:
	default:
	}
}

// pqueue is a container/heap min-heap of entries ordered by deadline.
type pqueue[ID comparable] []entry[ID]

func (q pqueue[ID]) Len() int            { return len(q) }
func (q pqueue[ID]) Less(i, j int) bool  { return q[i].deadline.Before(q[j].deadline) }
func (q pqueue[ID]) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *pqueue[ID]) Push(x interface{}) { *q = append(*q, x.(entry[ID])) }
func (q *pqueue[ID]) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
