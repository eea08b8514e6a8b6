package dualcache

import (
	"github.com/rcrowley/go-metrics"
)

// Metrics exposes per-cache counters for external exporters.
// Counters are updated on the synchronous path and by the daemon;
// reading them never blocks cache operations.
type Metrics struct {
	Registry metrics.Registry

	Hits        metrics.Counter
	Misses      metrics.Counter
	Evictions   metrics.Counter
	Promotions  metrics.Counter
	Drops       metrics.Counter // Notifications dropped on queue overflow.
	Republishes metrics.Counter
}

func newMetrics() *Metrics {
	r := metrics.NewRegistry()
	return &Metrics{
		Registry:    r,
		Hits:        metrics.NewRegisteredCounter("hits", r),
		Misses:      metrics.NewRegisteredCounter("misses", r),
		Evictions:   metrics.NewRegisteredCounter("evictions", r),
		Promotions:  metrics.NewRegisteredCounter("promotions", r),
		Drops:       metrics.NewRegisteredCounter("notify.drops", r),
		Republishes: metrics.NewRegisteredCounter("snapshot.republishes", r),
	}
}
