package state_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rmanohar/actsim-go/state"
)

type countingTarget struct{ calls int }

func (c *countingTarget) Propagate(g state.GlobalOffset) { c.calls++ }

type denyAllExclusivity struct{}

func (denyAllExclusivity) SafeChange(g state.GlobalOffset, v state.Bit) bool { return false }

var _ = Describe("Vector", func() {
	var v *state.Vector

	BeforeEach(func() {
		v = state.NewVector(4, 2, 1)
	})

	It("starts every boolean cell at Unknown", func() {
		for i := 0; i < v.NumBools(); i++ {
			Expect(v.GetBool(state.GlobalOffset(i))).To(Equal(state.Unknown))
		}
	})

	It("is idempotent: writing the current value does not fire fanout", func() {
		target := &countingTarget{}
		v.IncBoolFanout(0, target)
		v.SetBool(0, state.One, 0)
		Expect(target.calls).To(Equal(1))

		v.SetBool(0, state.One, 1) // no change
		Expect(target.calls).To(Equal(1))
	})

	It("notifies every registered fanout target on a real change", func() {
		t1, t2 := &countingTarget{}, &countingTarget{}
		v.IncBoolFanout(2, t1)
		v.IncBoolFanout(2, t2)
		v.SetBool(2, state.Zero, 0)
		Expect(t1.calls).To(Equal(1))
		Expect(t2.calls).To(Equal(1))
	})

	It("de-dups repeated fanout registration over the recent tail", func() {
		target := &countingTarget{}
		for i := 0; i < 5; i++ {
			v.IncBoolFanout(1, target)
		}
		v.SetBool(1, state.One, 0)
		Expect(target.calls).To(Equal(1))
	})

	It("promotes to the geometric-growth representation past the small-list threshold", func() {
		Expect(v.BoolFanoutCapacity(3)).To(Equal(0))
		for i := 0; i < 20; i++ {
			v.IncBoolFanout(3, &countingTarget{})
		}
		Expect(v.BoolFanoutCapacity(3)).To(BeNumerically(">", 0))
	})

	It("denies a special cell's write when the exclusivity checker refuses it", func() {
		v.MarkSpecial(0)
		v.SetExclusivityChecker(denyAllExclusivity{})
		ok := v.SetBool(0, state.One, 0)
		Expect(ok).To(BeFalse())
		Expect(v.GetBool(0)).To(Equal(state.Unknown))
	})

	It("round-trips integer cells and fires integer fanout", func() {
		target := &countingTarget{}
		v.IncIntFanout(0, target)
		val := v.GetInt(0).SetWidth(8)
		v.SetInt(0, val, 0)
		Expect(v.GetInt(0).Width()).To(Equal(uint(8)))
		Expect(target.calls).To(Equal(1))
	})
})
