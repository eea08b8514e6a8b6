package dualcache

import (
	"sync/atomic"

	"github.com/facebookgo/stackerr"

	"github.com/skipor/dualcache/internal/tag"
)

// Pre and post conditions (Invariants) for probation methods:
// * probation owns exactly the live slots of the arena.
// * owned entries linked from head to tail form a correct doubly linked
//   list threaded through entry.prev/next, ordered by ascending epoch.
// * size equals the number of owned slots.
// * links of owned entries are mutated only through arena.writable.
//
// The queue is intrusive: links live inside arena entries, so admission
// order costs no allocation per entry even at large capacities.
type probation[K comparable, V any] struct {
	arena *arena[K, V]
	size  int
	// callbacks called by evictOne.
	// A callback must keep the invariants: re-queue the slot or make it
	// free and unindexed.
	callbacks
	head, tail slotIndex
}

type callbacks struct {
	// onFrequent is called for a scanned slot whose access count reached
	// the promotion threshold. The slot is already detached.
	onFrequent func(slotIndex)
	// onEvict is called for the chosen eviction victim, already detached.
	onEvict func(slotIndex)
}

func newProbation[K comparable, V any](a *arena[K, V]) *probation[K, V] {
	return &probation[K, V]{
		arena: a,
		head:  noSlot,
		tail:  noSlot,
	}
}

// pushTail admits a slot at the young end of the queue.
// The slot's entry must have its epoch already refreshed.
func (q *probation[K, V]) pushTail(s slotIndex) {
	e := q.arena.writable(s)
	e.prev, e.next = q.tail, noSlot
	if q.tail == noSlot {
		q.head = s
	} else {
		q.arena.writable(q.tail).next = s
	}
	q.tail = s
	q.size++
}

// popHead detaches and returns the oldest slot, or noSlot when empty.
func (q *probation[K, V]) popHead() slotIndex {
	s := q.head
	if s == noSlot {
		return noSlot
	}
	q.remove(s)
	return s
}

// remove detaches a slot from anywhere in the queue.
func (q *probation[K, V]) remove(s slotIndex) {
	e := q.arena.writable(s)
	prev, next := e.prev, e.next
	if prev == noSlot {
		q.head = next
	} else {
		q.arena.writable(prev).next = next
	}
	if next == noSlot {
		q.tail = prev
	} else {
		q.arena.writable(next).prev = prev
	}
	if tag.Debug {
		e = q.arena.writable(s) // Links above could have copied the page.
		e.prev = noSlot
		e.next = noSlot
	}
	q.size--
}

// evictOne walks the queue from the old end and frees exactly one slot.
// Frequent survivors get a second chance: onFrequent re-queues them with a
// refreshed epoch and a cleared counter, so the scan terminates within one
// full lap even if every entry is frequent.
func (q *probation[K, V]) evictOne(threshold uint32) error {
	// One extra step: if the whole queue is frequent, the first lap clears
	// every counter and the extra step evicts the oldest survivor.
	for steps := q.size + 1; steps > 0; steps-- {
		s := q.popHead()
		if s == noSlot {
			return stackerr.Wrap(ErrPolicyViolation)
		}
		e := q.arena.entry(s)
		if atomic.LoadUint32(&e.access) >= threshold {
			q.onFrequent(s)
			continue
		}
		q.onEvict(s)
		return nil
	}
	return stackerr.Wrap(ErrPolicyViolation)
}
