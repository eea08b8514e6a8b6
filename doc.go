// Package dualcache provides a capacity-bounded in-memory key/value cache
// that combines two eviction signals: FIFO admission order (recency) and an
// access counter (frequency).
//
// New keys enter a FIFO probation queue ordered by insertion epoch. An entry
// whose access counter reaches the promotion threshold is treated as frequent:
// when the eviction cursor reaches it, it is re-queued with a refreshed epoch
// instead of evicted. Items touched once and never again age out quickly, so
// a small hot working set survives scans of cold data.
//
// The primary goal is to keep eviction bookkeeping off the hot path. Put and
// Get mutate the authoritative arena and index synchronously, then send a
// lightweight notification to a maintenance daemon over a bounded queue.
// The daemon maintains a lock-free read path: an immutable, atomically
// swapped snapshot of the arena's page table, republished on a cadence.
// Readers holding a View never block writers and never observe a torn page.
package dualcache
