package dualcache

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Probation", func() {
	var (
		a     *arena[string, int]
		q     *probation[string, int]
		epoch uint64
	)
	BeforeEach(func() {
		a = &arena[string, int]{}
		q = newProbation(a)
		epoch = 0
	})

	newSlot := func(access uint32) slotIndex {
		s, err := a.allocSlot()
		Expect(err).To(BeNil())
		epoch++
		e := a.writable(s)
		e.epoch = epoch
		e.access = access
		e.live = true
		return s
	}
	push := func(access uint32) slotIndex {
		s := newSlot(access)
		q.pushTail(s)
		return s
	}

	It("init", func() {
		Expect(q.size).To(BeZero())
		Expect(q.popHead()).To(Equal(noSlot))
	})

	It("pops in admission order", func() {
		s0, s1, s2 := push(0), push(0), push(0)
		Expect(q.slots()).To(Equal([]slotIndex{s0, s1, s2}))
		Expect(q.popHead()).To(Equal(s0))
		Expect(q.popHead()).To(Equal(s1))
		Expect(q.popHead()).To(Equal(s2))
		Expect(q.popHead()).To(Equal(noSlot))
		Expect(q.size).To(BeZero())
	})

	It("removes from the middle", func() {
		s0, s1, s2 := push(0), push(0), push(0)
		q.remove(s1)
		Expect(q.slots()).To(Equal([]slotIndex{s0, s2}))
		Expect(q.size).To(Equal(2))
	})

	It("removes head and tail", func() {
		s0, s1, s2 := push(0), push(0), push(0)
		q.remove(s0)
		q.remove(s2)
		Expect(q.slots()).To(Equal([]slotIndex{s1}))
		Expect(q.head).To(Equal(s1))
		Expect(q.tail).To(Equal(s1))
	})

	Context("evictOne", func() {
		var mc *MockCallback
		BeforeEach(func() {
			mc = &MockCallback{}
			mc.queue = q
			q.onEvict = mc.Evict
			q.onFrequent = mc.Requeue
		})
		AfterEach(func() { mc.AssertExpectations(GinkgoT()) })

		const threshold = 2

		It("evicts the oldest infrequent entry", func() {
			s0, s1 := push(0), push(0)
			mc.On("Evict", s0).Once()
			Expect(q.evictOne(threshold)).To(Succeed())
			Expect(q.slots()).To(Equal([]slotIndex{s1}))
		})

		It("gives a frequent head a second chance", func() {
			s0, s1, s2 := push(threshold), push(0), push(0)
			mc.On("Requeue", s0).Once()
			mc.On("Evict", s1).Once()
			Expect(q.evictOne(threshold)).To(Succeed())
			Expect(q.slots()).To(Equal([]slotIndex{s2, s0}))
		})

		It("evicts exactly one entry per call", func() {
			s0, s1, s2 := push(0), push(0), push(0)
			mc.On("Evict", s0).Once()
			Expect(q.evictOne(threshold)).To(Succeed())
			mc.On("Evict", s1).Once()
			Expect(q.evictOne(threshold)).To(Succeed())
			Expect(q.slots()).To(Equal([]slotIndex{s2}))
		})

		It("terminates when every entry is frequent", func() {
			s0, s1 := push(threshold), push(threshold)
			mc.On("Requeue", s0).Once()
			mc.On("Requeue", s1).Once()
			// Counters are cleared on requeue, so the extra lap step
			// evicts the oldest survivor.
			mc.On("Evict", s0).Once()
			Expect(q.evictOne(threshold)).To(Succeed())
			Expect(q.slots()).To(Equal([]slotIndex{s1}))
		})

		It("fails loud on an empty queue", func() {
			err := q.evictOne(threshold)
			Expect(err).To(HaveOccurred())
			Expect(IsPolicyViolation(err)).To(BeTrue())
		})
	})
})
