package dualcache

import (
	"time"

	"github.com/pkg/errors"

	"github.com/skipor/dualcache/internal/util"
)

const (
	// DefaultCapacity targets hot sets in the ten-million-entry range.
	DefaultCapacity                = 10 * 1000 * 1000
	DefaultPromotionThreshold      = 2
	DefaultSnapshotRefreshInterval = 1000
	DefaultSnapshotRefreshPeriod   = time.Second
	DefaultNotifyQueueSize         = 1000
)

type Config struct {
	// Capacity is the maximum number of live entries.
	Capacity int
	// PromotionThreshold is the access count at which an entry is treated
	// as frequent and survives eviction scans.
	PromotionThreshold int
	// SnapshotRefreshInterval is the number of daemon-processed
	// notifications after which the snapshot is republished.
	SnapshotRefreshInterval int
	// SnapshotRefreshPeriod bounds snapshot staleness in time: the daemon
	// republishes after this period even if the interval was not reached.
	SnapshotRefreshPeriod time.Duration
	// NotifyQueueSize is the capacity of the bounded notification queue
	// between the synchronous path and the maintenance daemon.
	// On overflow notifications are dropped, never blocking the caller.
	NotifyQueueSize int
}

func (c *Config) setDefaults() {
	if util.IsZero(c.Capacity) {
		c.Capacity = DefaultCapacity
	}
	if util.IsZero(c.PromotionThreshold) {
		c.PromotionThreshold = DefaultPromotionThreshold
	}
	if util.IsZero(c.SnapshotRefreshInterval) {
		c.SnapshotRefreshInterval = DefaultSnapshotRefreshInterval
	}
	if util.IsZero(c.SnapshotRefreshPeriod) {
		c.SnapshotRefreshPeriod = DefaultSnapshotRefreshPeriod
	}
	if util.IsZero(c.NotifyQueueSize) {
		c.NotifyQueueSize = DefaultNotifyQueueSize
	}
}

func (c *Config) validate() error {
	if c.Capacity < 1 {
		return errors.Errorf("non positive capacity %v", c.Capacity)
	}
	if c.PromotionThreshold < 1 {
		return errors.Errorf("non positive promotion threshold %v", c.PromotionThreshold)
	}
	if c.SnapshotRefreshInterval < 1 {
		return errors.Errorf("non positive snapshot refresh interval %v", c.SnapshotRefreshInterval)
	}
	if c.SnapshotRefreshPeriod < 0 {
		return errors.Errorf("negative snapshot refresh period %v", c.SnapshotRefreshPeriod)
	}
	if c.NotifyQueueSize < 1 {
		return errors.Errorf("non positive notify queue size %v", c.NotifyQueueSize)
	}
	return nil
}
