package dualcache

import (
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Daemon", func() {
	var c *Cache[string, int]
	BeforeEach(func() {
		resetTestKeys()
		c = testCache(Config{Capacity: 4})
	})

	Describe("apply", func() {
		d := func() *daemon[string, int] { return c.daemon }
		mirrorSlot := func(key string) (slotIndex, bool) {
			v, ok := d().keys.Load(key)
			if !ok {
				return 0, false
			}
			return v.(slotIndex), true
		}

		It("folds a put into the mirror index", func() {
			d().apply(notice[string]{op: opPut, key: "k", slot: 3})
			s, ok := mirrorSlot("k")
			Expect(ok).To(BeTrue())
			Expect(s).To(Equal(slotIndex(3)))
			Expect(d().pending).To(Equal(1))
		})

		It("drops the key on a matching evict", func() {
			d().apply(notice[string]{op: opPut, key: "k", slot: 3})
			d().apply(notice[string]{op: opEvict, key: "k", slot: 3})
			_, ok := mirrorSlot("k")
			Expect(ok).To(BeFalse())
		})

		It("keeps a newer slot on a stale evict", func() {
			d().apply(notice[string]{op: opPut, key: "k", slot: 3})
			d().apply(notice[string]{op: opPut, key: "k", slot: 5})
			d().apply(notice[string]{op: opEvict, key: "k", slot: 3})
			s, ok := mirrorSlot("k")
			Expect(ok).To(BeTrue())
			Expect(s).To(Equal(slotIndex(5)))
		})

		It("counts touches toward the cadence only", func() {
			d().apply(notice[string]{op: opTouch, key: "k", slot: 3})
			_, ok := mirrorSlot("k")
			Expect(ok).To(BeFalse())
			Expect(d().pending).To(Equal(1))
		})
	})

	Describe("republish", func() {
		It("captures live count and bumps the sequence", func() {
			Expect(c.Put("a", 1)).To(Succeed())
			Expect(c.Put("b", 2)).To(Succeed())
			before := c.Snapshot().Seq()
			c.daemon.apply(notice[string]{op: opPut, key: "a", slot: 0})
			c.daemon.republish()
			v := c.Snapshot()
			Expect(v.Seq()).To(Equal(before + 1))
			Expect(v.Len()).To(Equal(2))
			Expect(c.daemon.pending).To(BeZero())
			Expect(c.metrics.Republishes.Count()).To(BeEquivalentTo(1))
		})
	})

	Describe("drain on close", func() {
		It("publishes every surviving put", func() {
			Expect(c.Put("a", 1)).To(Succeed())
			Expect(c.Put("b", 2)).To(Succeed())
			c.drainDaemon()

			v := c.Snapshot()
			Expect(v.Len()).To(Equal(2))
			got, ok := v.Get("a")
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(1))
			got, ok = v.Get("b")
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(2))
		})

		It("drops evicted keys from the mirror", func() {
			for i, k := range []string{"a", "b", "c", "d"} {
				Expect(c.Put(k, i)).To(Succeed())
			}
			Expect(c.Put("e", 4)).To(Succeed()) // Evicts "a".
			c.drainDaemon()

			v := c.Snapshot()
			_, ok := v.Get("a")
			Expect(ok).To(BeFalse())
			got, ok := v.Get("e")
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(4))
		})
	})

	Describe("backpressure", func() {
		It("drops notifications instead of blocking on a full queue", func() {
			c = testCache(Config{Capacity: 8, NotifyQueueSize: 2})
			done := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				defer close(done)
				for i, k := range []string{"a", "b", "c", "d"} {
					Expect(c.Put(k, i)).To(Succeed())
				}
			}()
			// No daemon is consuming: only a drop policy lets this finish.
			Eventually(done).Should(BeClosed())
			Expect(c.metrics.Drops.Count()).To(BeEquivalentTo(2))
			Expect(c.Len()).To(Equal(4), "drops must not touch authoritative state")
		})
	})

	Describe("time budget", func() {
		It("republishes on the refresh period without new notices", func() {
			running, err := New[string, int](testLogger(), Config{
				Capacity:                4,
				SnapshotRefreshInterval: 1000,
				SnapshotRefreshPeriod:   10 * time.Millisecond,
			})
			Expect(err).To(BeNil())
			defer running.Close()

			Expect(running.Put("k", 1)).To(Succeed())
			Eventually(func() bool {
				_, ok := running.Snapshot().Get("k")
				return ok
			}).Should(BeTrue())
		})
	})
})
