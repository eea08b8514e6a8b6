//go:build debug
// +build debug

// Gomega should not be dependency in non-debug build.

package dualcache

import (
	"errors"
	"log"

	"github.com/facebookgo/stackerr"
	. "github.com/onsi/gomega"
)

var _ = func() (_ struct{}) {
	RegisterFailHandler(GomegaFailHandler)
	return
}()

func GomegaFailHandler(message string, callerSkip ...int) {
	skip := callerSkip[0] + 1
	log.Fatal("FATAL: invariants are broken:", stackerr.WrapSkip(errors.New(message), skip))
}

// checkInvariants verifies the index/arena/queue bijection. Deferred in
// every facade mutation in debug builds; read-only, so safe under RLock.
func (c *Cache[K, V]) checkInvariants() {
	Expect(c.index.len()).To(BeNumerically("<=", c.conf.Capacity), "capacity overflow")
	Expect(c.queue.size).To(Equal(c.index.len()), "queue does not own every live slot")

	var walked int
	var lastEpoch uint64
	prev := noSlot
	for s := c.queue.head; s != noSlot; s = c.arena.entry(s).next {
		e := c.arena.entry(s)
		Expect(e.live).To(BeTrue(), "dead slot in probation queue")
		Expect(e.prev).To(Equal(prev), "broken queue back link")
		Expect(e.epoch).To(BeNumerically(">", lastEpoch), "queue not in epoch order")
		lastEpoch = e.epoch
		ts, ok := c.index.lookup(e.key)
		Expect(ok).To(BeTrue(), "no index ref to queued item")
		Expect(ts).To(Equal(s), "index refs another slot")
		prev = s
		walked++
	}
	Expect(c.queue.tail).To(Equal(prev), "queue tail mismatch")
	Expect(walked).To(Equal(c.queue.size), "queue size mismatch")

	for _, s := range c.arena.freeList {
		Expect(c.arena.entry(s).live).To(BeFalse(), "live slot on free list")
	}
	Expect(c.arena.slotsAllocated()).To(Equal(c.index.len() + len(c.arena.freeList)),
		"arena slots not partitioned into live and free")
}
