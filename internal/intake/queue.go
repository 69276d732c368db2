// Package intake holds logs between the producer-facing API and the
// flush worker. Producers push without locks and never block; the
// worker drains whole batches at once.
package intake

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/ticklog/ticklog/internal/model"
)

type node struct {
	log  *model.Log
	next *node
}

// buffer is an unbounded multi-producer single-consumer stack. Pushes
// CAS the head; the drain swaps the head out wholesale and reverses the
// chain to restore arrival order.
type buffer struct {
	head atomic.Pointer[node]
	size *xsync.Counter
}

func newBuffer() *buffer {
	return &buffer{size: xsync.NewCounter()}
}

func (b *buffer) push(l *model.Log) {
	n := &node{log: l}
	for {
		old := b.head.Load()
		n.next = old
		if b.head.CompareAndSwap(old, n) {
			b.size.Inc()
			return
		}
	}
}

// drain detaches the whole chain and returns the logs oldest-first.
func (b *buffer) drain() []*model.Log {
	head := b.head.Swap(nil)
	if head == nil {
		return nil
	}
	var count int64
	var reversed *node
	for n := head; n != nil; {
		next := n.next
		n.next = reversed
		reversed = n
		n = next
		count++
	}
	logs := make([]*model.Log, 0, count)
	for n := reversed; n != nil; n = n.next {
		logs = append(logs, n.log)
	}
	b.size.Add(-count)
	return logs
}

// Queue is the double-buffered intake. Producers append to the active
// buffer; the worker swaps the buffers and drains the retired one, so a
// drain never races with pushes into the same buffer for long.
type Queue struct {
	active atomic.Pointer[buffer]
	spare  atomic.Pointer[buffer]
}

// NewQueue returns an empty intake queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.active.Store(newBuffer())
	q.spare.Store(newBuffer())
	return q
}

// Push appends a log. Safe for any number of concurrent callers; never
// blocks and never fails.
func (q *Queue) Push(l *model.Log) {
	q.active.Load().push(l)
}

// Len reports the number of logs currently buffered across both sides.
func (q *Queue) Len() int64 {
	return q.active.Load().size.Value() + q.spare.Load().size.Value()
}

// DrainAll swaps the buffers and empties the retired side, returning
// its logs oldest-first. Producers that loaded the old active pointer
// mid-swap still land in the retired buffer: a push that completes
// before the drain is in this batch, a later one is collected from
// the spare side at the start of the next DrainAll. Pushes after the
// swap go to the new active side and wait for the next cycle. Only the
// flush worker may call it.
func (q *Queue) DrainAll() []*model.Log {
	retired := q.active.Load()
	fresh := q.spare.Load()
	stragglers := fresh.drain()
	q.active.Store(fresh)
	q.spare.Store(retired)
	return append(stragglers, retired.drain()...)
}
