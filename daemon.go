package dualcache

import (
	"sync"
	"time"

	"github.com/skipor/dualcache/log"
)

type noticeOp uint8

const (
	opPut noticeOp = iota
	opTouch
	opEvict
)

// notice is a lightweight slot-touched notification. The authoritative
// structure is always updated before the notice is sent, so losing one only
// delays mirror bookkeeping, never corrupts state.
type notice[K comparable] struct {
	op   noticeOp
	key  K
	slot slotIndex
}

// daemon is the single background worker doing bookkeeping that must not
// block Put and Get: it folds notices into the mirror key index and
// republishes the snapshot on a cadence. It never touches the authoritative
// arena or index except under the cache lock inside republish.
type daemon[K comparable, V any] struct {
	cache   *Cache[K, V]
	log     log.Logger
	metrics *Metrics

	notices chan notice[K]
	done    chan struct{}

	interval int
	period   time.Duration

	// keys is the mirror index, owned by the daemon and shared by
	// reference with every published snapshot. See snapshot doc on why
	// sharing a live hint map is sound.
	keys    *sync.Map
	pending int
	seq     uint64
}

func newDaemon[K comparable, V any](c *Cache[K, V], l log.Logger, conf Config) *daemon[K, V] {
	return &daemon[K, V]{
		cache:    c,
		log:      l,
		metrics:  c.metrics,
		notices:  make(chan notice[K], conf.NotifyQueueSize),
		done:     make(chan struct{}),
		interval: conf.SnapshotRefreshInterval,
		period:   conf.SnapshotRefreshPeriod,
		keys:     new(sync.Map),
	}
}

// run consumes notices until the sending side is closed, then drains the
// remainder, makes a final publication and terminates.
func (d *daemon[K, V]) run() {
	defer close(d.done)
	ticker := time.NewTicker(d.period)
	defer ticker.Stop()
	for {
		select {
		case n, ok := <-d.notices:
			if !ok {
				d.republish()
				d.log.Debug("Maintenance daemon stopped.")
				return
			}
			d.apply(n)
			if d.pending >= d.interval {
				d.republish()
			}
		case <-ticker.C:
			if d.pending > 0 {
				d.republish()
			}
		}
	}
}

func (d *daemon[K, V]) apply(n notice[K]) {
	d.pending++
	switch n.op {
	case opPut:
		d.keys.Store(n.key, n.slot)
	case opEvict:
		// Guard against reordering with a later put of the same key to a
		// different slot. Notices are FIFO, so equal slot means this evict
		// is the latest word on the key.
		if cur, ok := d.keys.Load(n.key); ok && cur.(slotIndex) == n.slot {
			d.keys.Delete(n.key)
		}
	case opTouch:
		// Counts toward the republish cadence only: the access counter is
		// authoritative and already updated by the read path.
	default:
		d.log.Errorf("Unknown notice op %v.", n.op)
	}
}

// republish captures the page table under the cache lock and swaps the
// mirror reference. Cost is O(pages), not O(entries).
func (d *daemon[K, V]) republish() {
	c := d.cache
	c.mu.Lock()
	pages := c.arena.seal()
	live := c.index.len()
	c.mu.Unlock()

	d.seq++
	c.mirror.publish(&snapshot[K, V]{
		pages: pages,
		keys:  d.keys,
		live:  live,
		seq:   d.seq,
	})
	d.pending = 0
	d.metrics.Republishes.Inc(1)
	d.log.Debugf("Snapshot %v published: %v pages, %v live entries.", d.seq, len(pages), live)
}
