package params_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/linsim/internal/params"
)

var _ = Describe("Bus", func() {
	var bus *params.Bus

	BeforeEach(func() {
		bus = params.NewBus()
	})

	It("stores values", func() {
		bus.Commit("beta", 0.5, "test")

		v, ok := bus.Get("beta")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(0.5))

		_, ok = bus.Get("alpha")
		Expect(ok).To(BeFalse())
	})

	It("stores previews too", func() {
		bus.Set("alpha", 3, "slider", true)
		Expect(bus.Snapshot()).To(HaveKeyWithValue("alpha", 3.0))
	})

	Context("with subscribers", func() {
		var live, committed []params.Change

		BeforeEach(func() {
			live, committed = nil, nil
			bus.Subscribe("alpha", func(c params.Change) { live = append(live, c) }, true)
			bus.Subscribe("alpha", func(c params.Change) { committed = append(committed, c) }, false)
		})

		It("sends previews only to subscribers that allow them", func() {
			bus.Set("alpha", 1, "slider", true)
			bus.Set("alpha", 2, "slider", true)
			bus.Set("alpha", 2, "slider", false)

			Expect(live).To(HaveLen(3))
			Expect(committed).To(HaveLen(1))
			Expect(committed[0]).To(Equal(params.Change{Name: "alpha", Value: 2, Source: "slider"}))
		})

		It("ignores other names", func() {
			bus.Commit("beta", 1, "slider")
			Expect(live).To(BeEmpty())
			Expect(committed).To(BeEmpty())
		})

		It("stops notifying after unsubscribe", func() {
			var extra int
			cancel := bus.Subscribe("alpha", func(params.Change) { extra++ }, true)
			bus.Commit("alpha", 1, "a")
			cancel()
			bus.Commit("alpha", 2, "a")

			Expect(extra).To(Equal(1))
			Expect(live).To(HaveLen(2))
		})
	})

	It("lets subscribers read the bus", func() {
		var seen map[string]float64
		bus.Commit("beta", 7, "init")
		bus.Subscribe("alpha", func(params.Change) { seen = bus.Snapshot() }, false)

		bus.Commit("alpha", 1, "slider")
		Expect(seen).To(Equal(map[string]float64{"alpha": 1, "beta": 7}))
	})

	It("returns independent snapshots", func() {
		bus.Commit("alpha", 1, "a")
		snap := bus.Snapshot()
		snap["alpha"] = 99

		v, _ := bus.Get("alpha")
		Expect(v).To(Equal(1.0))
		Expect(bus.Names()).To(Equal([]string{"alpha"}))
	})

	It("is safe for concurrent use", func() {
		var wg sync.WaitGroup
		var mu sync.Mutex
		count := 0
		bus.Subscribe("x", func(params.Change) {
			mu.Lock()
			count++
			mu.Unlock()
		}, true)

		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				bus.Set("x", float64(i), "worker", i%2 == 0)
				bus.Snapshot()
			}(i)
		}
		wg.Wait()

		Expect(count).To(Equal(50))
	})
})
