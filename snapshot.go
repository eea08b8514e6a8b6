package dualcache

import (
	"sync"
	"sync/atomic"
)

// snapshot is an immutable point-in-time capture of the arena's page table.
// Only page references are copied at publish time; page contents are
// duplicated lazily by the writer, at page granularity, on the first
// mutation after sealing. Pages reachable from a snapshot never change.
//
// keys is the daemon's mirror index. It is shared, not frozen: the daemon
// keeps folding notifications into it after publish. Readers treat it as a
// routing hint and validate the landed entry against the immutable pages,
// so a stale or early hint degrades to a miss, never to a wrong value.
type snapshot[K comparable, V any] struct {
	pages []*page[K, V]
	keys  *sync.Map
	live  int
	seq   uint64
}

// lookup resolves a key through the mirror index against the captured
// pages. It can miss keys written after capture; that is the documented
// staleness bound, not an error.
func (s *snapshot[K, V]) lookup(key K) (*entry[K, V], bool) {
	v, ok := s.keys.Load(key)
	if !ok {
		return nil, false
	}
	sl := v.(slotIndex)
	n := sl.pageNum()
	if n >= len(s.pages) {
		// The slot was allocated after this capture.
		return nil, false
	}
	e := &s.pages[n].slots[sl.offset()]
	if !e.live || e.key != key {
		return nil, false
	}
	return e, true
}

// mirror holds the single atomically replaceable snapshot reference.
// current is O(1) and lock-free; a previously returned snapshot stays
// valid for any reader still holding it.
type mirror[K comparable, V any] struct {
	current atomic.Pointer[snapshot[K, V]]
}

func (m *mirror[K, V]) publish(s *snapshot[K, V]) { m.current.Store(s) }
func (m *mirror[K, V]) load() *snapshot[K, V]     { return m.current.Load() }
