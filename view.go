package dualcache

// View is the lock-free read surface over a published snapshot. It is safe
// for unlimited concurrent readers and never blocks the writer. A View
// observes a consistent past state of the cache; staleness is bounded by
// the snapshot refresh knobs in Config.
//
// External collaborators (metrics exporters, HTTP handlers) consume this
// surface only; they must not coordinate with writers.
type View[K comparable, V any] struct {
	snap *snapshot[K, V]
}

// Get returns the value captured for key, or false if the key was absent
// or not yet visible at capture time.
func (v *View[K, V]) Get(key K) (V, bool) {
	e, ok := v.snap.lookup(key)
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Len returns the number of live entries at capture time.
func (v *View[K, V]) Len() int { return v.snap.live }

// Seq returns the publish sequence number, increasing with every
// republication. Two Views with equal Seq share the same capture.
func (v *View[K, V]) Seq() uint64 { return v.snap.seq }

// Range calls f for every entry captured in the snapshot, in arena order,
// until f returns false. The iterated set is consistent: concurrent writes
// are never partially visible.
func (v *View[K, V]) Range(f func(key K, value V) bool) {
	for _, p := range v.snap.pages {
		for i := range p.slots {
			e := &p.slots[i]
			if !e.live {
				continue
			}
			if !f(e.key, e.value) {
				return
			}
		}
	}
}
