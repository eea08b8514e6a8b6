package dualcache

const (
	pageShift = 10
	pageSize  = 1 << pageShift
	pageMask  = pageSize - 1
)

type slotIndex uint32

// noSlot terminates queue links and marks empty queue heads.
// It is also the arena high-water limit: the last representable slot
// index is reserved, so the arena holds at most 2^32-1 entries.
const noSlot = ^slotIndex(0)

func (s slotIndex) pageNum() int { return int(s >> pageShift) }
func (s slotIndex) offset() int  { return int(s & pageMask) }

// entry is one cached association plus its policy bookkeeping.
// On a sealed page key, value, epoch, live and the queue links are
// immutable; access is advisory and always read and written atomically.
type entry[K comparable, V any] struct {
	key   K
	value V
	// epoch is assigned at insertion or refresh and defines FIFO order.
	epoch uint64
	// access counts successful reads since the last epoch refresh. Atomic.
	access uint32
	live   bool
	// Probation queue links. noSlot terminates.
	prev, next slotIndex
}

// page is a fixed block of entry storage. Pages never move or shrink, so a
// slot index stays valid for the arena's lifetime. A page included in a
// published snapshot is sealed: the writer duplicates it before mutation.
type page[K comparable, V any] struct {
	slots  [pageSize]entry[K, V]
	sealed bool
}

// dup bulk-copies the whole slot block. Array assignment compiles to a
// single memmove, so snapshot cost stays proportional to touched pages.
func (p *page[K, V]) dup() *page[K, V] {
	d := new(page[K, V])
	d.slots = p.slots
	return d
}

// arena is dense storage for entries, growable by whole pages.
// It is owned by the synchronous path: all calls except sealed-page reads
// require the cache write lock.
type arena[K comparable, V any] struct {
	pages []*page[K, V]
	// next is the high-water slot: first never-allocated index.
	next slotIndex
	// freeList holds slots reclaimed by eviction, reused LIFO.
	freeList []slotIndex
}

// allocSlot returns a free slot, reclaimed from the free list or newly
// appended. The returned slot may lie on a sealed page; callers must write
// through writable.
func (a *arena[K, V]) allocSlot() (slotIndex, error) {
	if n := len(a.freeList); n > 0 {
		s := a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
		return s, nil
	}
	if a.next == noSlot {
		return 0, ErrResourceExhausted
	}
	s := a.next
	if s.pageNum() == len(a.pages) {
		a.pages = append(a.pages, new(page[K, V]))
	}
	a.next++
	return s, nil
}

// entry returns the authoritative entry without copy-on-write.
// Safe for reads and for atomic access-counter updates only.
func (a *arena[K, V]) entry(s slotIndex) *entry[K, V] {
	return &a.pages[s.pageNum()].slots[s.offset()]
}

// writable returns the entry for mutation, duplicating its page first if
// the page was captured by a published snapshot. Entry pointers obtained
// earlier for the same page are stale after the copy: always re-fetch
// through writable before mutating.
func (a *arena[K, V]) writable(s slotIndex) *entry[K, V] {
	n := s.pageNum()
	p := a.pages[n]
	if p.sealed {
		p = p.dup()
		a.pages[n] = p
	}
	return &p.slots[s.offset()]
}

// free marks the slot's entry dead and queues the slot for reuse.
func (a *arena[K, V]) free(s slotIndex) {
	e := a.writable(s)
	*e = entry[K, V]{live: false, prev: noSlot, next: noSlot}
	a.freeList = append(a.freeList, s)
}

// seal marks every page immutable and returns a copy of the page table.
// The next write to any sealed page goes through a duplicate, so the
// returned table can back a snapshot published to lock-free readers.
func (a *arena[K, V]) seal() []*page[K, V] {
	pages := make([]*page[K, V], len(a.pages))
	copy(pages, a.pages)
	for _, p := range a.pages {
		p.sealed = true
	}
	return pages
}

func (a *arena[K, V]) slotsAllocated() int { return int(a.next) }
