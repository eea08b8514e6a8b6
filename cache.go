package dualcache

import (
	"sync"
	"sync/atomic"

	"github.com/facebookgo/stackerr"

	"github.com/skipor/dualcache/log"
)

// Cache is a capacity-bounded key/value cache with hybrid
// recency/frequency eviction. See the package doc for the design.
//
// Two access modes are supported: the synchronous path (Put, Get, Delete)
// serialized by an internal lock, and the lock-free path through Snapshot
// for unlimited concurrent readers that tolerate bounded staleness.
type Cache[K comparable, V any] struct {
	// mu serializes the synchronous path: mutations under Lock, Get under
	// RLock with an atomic access-counter bump.
	mu        sync.RWMutex
	arena     *arena[K, V]
	index     *index[K]
	queue     *probation[K, V]
	mirror    mirror[K, V]
	daemon    *daemon[K, V]
	metrics   *Metrics
	log       log.Logger
	conf      Config
	threshold uint32
	epoch     uint64
	closed    bool
}

func New[K comparable, V any](l log.Logger, conf Config) (*Cache[K, V], error) {
	c, err := newCache[K, V](l, conf)
	if err != nil {
		return nil, err
	}
	go c.daemon.run()
	return c, nil
}

// newCache builds the cache without starting the daemon goroutine.
// Tests drive the daemon synchronously.
func newCache[K comparable, V any](l log.Logger, conf Config) (*Cache[K, V], error) {
	conf.setDefaults()
	if err := conf.validate(); err != nil {
		return nil, err
	}
	a := &arena[K, V]{}
	c := &Cache[K, V]{
		arena:     a,
		index:     newIndex[K](conf.Capacity),
		queue:     newProbation(a),
		metrics:   newMetrics(),
		log:       l,
		conf:      conf,
		threshold: uint32(conf.PromotionThreshold),
	}
	c.queue.onFrequent = c.ageForward
	c.queue.onEvict = c.evictScanned
	c.daemon = newDaemon(c, l, conf)
	// Publish an empty capture so Snapshot is usable before the first
	// republication.
	c.mirror.publish(&snapshot[K, V]{keys: c.daemon.keys})
	return c, nil
}

// Put stores value under key. An existing key is overwritten in place with
// a refreshed epoch and a reset access counter. A new key is admitted to
// the probation queue, evicting exactly one entry first if the cache is at
// capacity. Either both the arena and the index are updated and a
// notification is sent, or the call fails with no visible mutation.
func (c *Cache[K, V]) Put(key K, value V) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.checkInvariants()
	if c.closed {
		return ErrClosed
	}
	if s, ok := c.index.lookup(key); ok {
		c.log.Debugf("Overwrite item %v.", key)
		e := c.arena.writable(s)
		e.value = value
		e.epoch = c.nextEpoch()
		atomic.StoreUint32(&e.access, 0)
		c.queue.remove(s)
		c.queue.pushTail(s)
		c.notify(notice[K]{op: opPut, key: key, slot: s})
		return nil
	}
	if c.index.len() >= c.conf.Capacity {
		if err := c.queue.evictOne(c.threshold); err != nil {
			return err
		}
	}
	s, err := c.arena.allocSlot()
	if err != nil {
		return err
	}
	c.log.Debugf("Add item %v.", key)
	e := c.arena.writable(s)
	e.key = key
	e.value = value
	e.epoch = c.nextEpoch()
	atomic.StoreUint32(&e.access, 0)
	e.live = true
	e.prev, e.next = noSlot, noSlot
	c.index.insert(key, s)
	c.queue.pushTail(s)
	c.notify(notice[K]{op: opPut, key: key, slot: s})
	return nil
}

// Get returns the value stored under key and counts the access toward
// frequency promotion. Misses fail with ErrNotFound.
func (c *Cache[K, V]) Get(key K) (V, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var zero V
	if c.closed {
		return zero, ErrClosed
	}
	s, ok := c.index.lookup(key)
	if !ok {
		c.metrics.Misses.Inc(1)
		return zero, ErrNotFound
	}
	e := c.arena.entry(s)
	if !e.live || e.key != key {
		return zero, stackerr.Wrap(ErrPolicyViolation)
	}
	atomic.AddUint32(&e.access, 1)
	c.metrics.Hits.Inc(1)
	c.notify(notice[K]{op: opTouch, key: key, slot: s})
	return e.value, nil
}

// Delete removes key if present and reports whether it was.
func (c *Cache[K, V]) Delete(key K) (deleted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.checkInvariants()
	if c.closed {
		return false
	}
	s, ok := c.index.lookup(key)
	if !ok {
		return false
	}
	c.log.Debugf("Delete item %v.", key)
	c.queue.remove(s)
	c.removeSlot(s)
	return true
}

// Snapshot returns the current lock-free read view. O(1), never blocks.
func (c *Cache[K, V]) Snapshot() *View[K, V] {
	return &View[K, V]{snap: c.mirror.load()}
}

// Len returns the number of live entries.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.len()
}

// Metrics returns the per-cache counters registry.
func (c *Cache[K, V]) Metrics() *Metrics { return c.metrics }

// Close stops the maintenance daemon. Remaining notifications are drained
// and a final snapshot is published before Close returns. Subsequent
// operations fail with ErrClosed.
func (c *Cache[K, V]) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.closed = true
	// Senders hold mu, so no notify is in flight here.
	close(c.daemon.notices)
	c.mu.Unlock()
	<-c.daemon.done
	return nil
}

// ageForward gives a frequent entry its second chance: refreshed epoch,
// cleared counter, re-queued at the young end.
func (c *Cache[K, V]) ageForward(s slotIndex) {
	e := c.arena.writable(s)
	c.log.Debugf("Item %v survived eviction scan.", e.key)
	e.epoch = c.nextEpoch()
	atomic.StoreUint32(&e.access, 0)
	c.queue.pushTail(s)
	c.metrics.Promotions.Inc(1)
}

func (c *Cache[K, V]) evictScanned(s slotIndex) {
	c.log.Debugf("Item %v evicted.", c.arena.entry(s).key)
	c.removeSlot(s)
	c.metrics.Evictions.Inc(1)
}

// removeSlot frees a detached slot and its index entry as a pair.
func (c *Cache[K, V]) removeSlot(s slotIndex) {
	key := c.arena.entry(s).key
	c.index.remove(key)
	c.arena.free(s)
	c.notify(notice[K]{op: opEvict, key: key, slot: s})
}

// notify enqueues a slot-touched notification without ever blocking the
// caller: on a full queue the notification is dropped and counted.
func (c *Cache[K, V]) notify(n notice[K]) {
	select {
	case c.daemon.notices <- n:
	default:
		c.metrics.Drops.Inc(1)
		c.log.Debug("Notification dropped: queue is full.")
	}
}

func (c *Cache[K, V]) nextEpoch() uint64 {
	c.epoch++
	return c.epoch
}
