package dualcache

// index maps a key to the slot holding its current value.
// Invariant: every indexed key has a live entry at that slot, and every
// live entry's key is indexed back to it. Index and arena slot are always
// created and destroyed as a pair.
type index[K comparable] struct {
	table map[K]slotIndex
}

func newIndex[K comparable](capHint int) *index[K] {
	return &index[K]{table: make(map[K]slotIndex, capHint)}
}

func (i *index[K]) lookup(key K) (slotIndex, bool) {
	s, ok := i.table[key]
	return s, ok
}

func (i *index[K]) insert(key K, s slotIndex) { i.table[key] = s }
func (i *index[K]) remove(key K)              { delete(i.table, key) }
func (i *index[K]) len() int                  { return len(i.table) }
