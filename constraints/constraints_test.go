package constraints_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rmanohar/actsim-go/constraints"
	"github.com/rmanohar/actsim-go/simkernel"
	"github.com/rmanohar/actsim-go/state"
)

type fakePending struct {
	wantsValue state.Bit
	flushed    bool
}

func (p *fakePending) HasPendingTo(v state.Bit) bool { return !p.flushed && p.wantsValue == v }
func (p *fakePending) FlushPending()                 { p.flushed = true }

var _ = Describe("Arbiter", func() {
	It("never allows two exclhi members to both read 1", func() {
		vec := state.NewVector(2, 0, 0)
		arb := constraints.NewArbiter(vec, false, 1)
		vec.MarkSpecial(0)
		vec.MarkSpecial(1)
		vec.SetExclusivityChecker(arb)
		vec.SetBool(0, state.Zero, 0)
		vec.SetBool(1, state.Zero, 0)
		arb.AddGroup(&constraints.Group{
			Direction: constraints.Hi,
			Members:   []state.GlobalOffset{0, 1},
			Pending:   []constraints.PendingSource{nil, nil},
		})

		Expect(vec.SetBool(0, state.One, 0)).To(BeTrue())
		Expect(vec.SetBool(1, state.One, 0)).To(BeFalse())
		Expect(vec.GetBool(0)).To(Equal(state.One))
		Expect(vec.GetBool(1)).ToNot(Equal(state.One))
	})

	It("flushes the pending events of other group members once one member wins", func() {
		vec := state.NewVector(2, 0, 0)
		arb := constraints.NewArbiter(vec, false, 1)
		vec.MarkSpecial(0)
		vec.SetExclusivityChecker(arb)
		vec.SetBool(0, state.Zero, 0)
		vec.SetBool(1, state.Zero, 0)
		p1 := &fakePending{wantsValue: state.One}
		arb.AddGroup(&constraints.Group{
			Direction: constraints.Hi,
			Members:   []state.GlobalOffset{0, 1},
			Pending:   []constraints.PendingSource{nil, p1},
		})

		vec.SetBool(0, state.One, 0)
		Expect(p1.flushed).To(BeTrue())
	})
})

var _ = Describe("ObservingMonitor", func() {
	It("reports but does not block a violation", func() {
		vec := state.NewVector(2, 0, 0)
		var violations []constraints.Violation
		mon := constraints.NewObservingMonitor(vec, func(v constraints.Violation) {
			violations = append(violations, v)
		})
		grp := &constraints.Group{Direction: constraints.Hi, Members: []state.GlobalOffset{0, 1}}
		mon.AddGroup(grp)
		vec.AddTimingMonitor(0, mon)
		vec.AddTimingMonitor(1, mon)

		vec.SetBool(0, state.One, 0)
		vec.SetBool(1, state.One, 0) // would be illegal under Arbiter, but monitor only observes

		Expect(vec.GetBool(1)).To(Equal(state.One))
		Expect(violations).To(HaveLen(1))
	})
})

var _ = Describe("TimingForkMonitor", func() {
	It("reports a violation exactly when b follows a by less than the margin", func() {
		vec := state.NewVector(3, 0, 0)
		var msgs []string
		mon := constraints.NewTimingForkMonitor(vec, "top.fork", 0, 1, 2, 10, nil, func(_, msg string) {
			msgs = append(msgs, msg)
		})
		vec.AddTimingMonitor(0, mon)
		vec.AddTimingMonitor(1, mon)
		vec.AddTimingMonitor(2, mon)

		vec.SetBool(0, state.Zero, 0)
		vec.SetBool(1, state.Zero, 0)
		vec.SetBool(2, state.Zero, 0)
		vec.SetBool(0, state.One, simkernel.VTime(0))  // root
		vec.SetBool(1, state.One, simkernel.VTime(5))  // a
		vec.SetBool(2, state.One, simkernel.VTime(8))  // b, elapsed=3 < margin=10

		Expect(msgs).To(HaveLen(1))
	})

	It("reports nothing when the margin is satisfied", func() {
		vec := state.NewVector(3, 0, 0)
		var msgs []string
		mon := constraints.NewTimingForkMonitor(vec, "top.fork", 0, 1, 2, 10, nil, func(_, msg string) {
			msgs = append(msgs, msg)
		})
		vec.AddTimingMonitor(0, mon)
		vec.AddTimingMonitor(1, mon)
		vec.AddTimingMonitor(2, mon)

		vec.SetBool(0, state.Zero, 0)
		vec.SetBool(1, state.Zero, 0)
		vec.SetBool(2, state.Zero, 0)
		vec.SetBool(0, state.One, simkernel.VTime(0))
		vec.SetBool(1, state.One, simkernel.VTime(5))
		vec.SetBool(2, state.One, simkernel.VTime(20))

		Expect(msgs).To(BeEmpty())
	})

	It("stays quiescent while reset mode is asserted", func() {
		vec := state.NewVector(3, 0, 0)
		reset := true
		var msgs []string
		mon := constraints.NewTimingForkMonitor(vec, "top.fork", 0, 1, 2, 10, &reset, func(_, msg string) {
			msgs = append(msgs, msg)
		})
		vec.AddTimingMonitor(0, mon)
		vec.AddTimingMonitor(1, mon)
		vec.AddTimingMonitor(2, mon)

		vec.SetBool(0, state.Zero, 0)
		vec.SetBool(1, state.Zero, 0)
		vec.SetBool(2, state.Zero, 0)
		vec.SetBool(0, state.One, 0)
		vec.SetBool(1, state.One, 1)
		vec.SetBool(2, state.One, 2)

		Expect(msgs).To(BeEmpty())
	})
})
