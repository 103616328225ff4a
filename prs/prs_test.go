package prs_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rmanohar/actsim-go/constraints"
	"github.com/rmanohar/actsim-go/prs"
	"github.com/rmanohar/actsim-go/simkernel"
	"github.com/rmanohar/actsim-go/state"
)

var _ = Describe("Eval", func() {
	It("computes the weak-logic AND/OR/NOT tables", func() {
		vec := state.NewVector(2, 0, 0)
		vec.SetBool(0, state.One, 0)
		// cell 1 stays Unknown.
		Expect(prs.Eval(vec, prs.And(prs.Var(0), prs.Var(1)))).To(Equal(state.Unknown))
		Expect(prs.Eval(vec, prs.Or(prs.Var(0), prs.Var(1)))).To(Equal(state.One))
		Expect(prs.Eval(vec, prs.Not(prs.Var(0)))).To(Equal(state.Zero))
		Expect(prs.Eval(vec, prs.And(prs.Var(0), prs.False()))).To(Equal(state.Zero))
	})
})

var _ = Describe("Node", func() {
	It("schedules and fires a write when up resolves and dn does not", func() {
		vec := state.NewVector(3, 0, 0)
		eng := simkernel.NewEngine()
		node := prs.NewNode("g", 2, vec, eng, 1, nil)
		node.UpNormal = prs.Var(0)
		node.DnNormal = prs.Var(1)
		vec.IncBoolFanout(0, node)
		vec.IncBoolFanout(1, node)

		vec.SetBool(0, state.One, eng.Now())
		Expect(eng.Pending()).To(Equal(1))
		eng.RunUntilEmpty()
		Expect(vec.GetBool(2)).To(Equal(state.One))
	})

	It("treats a conflicting re-schedule as an instability, settling on X", func() {
		vec := state.NewVector(3, 0, 0)
		eng := simkernel.NewEngine()
		node := prs.NewNode("g", 2, vec, eng, 5, nil)
		node.UpNormal = prs.Var(0)
		node.DnNormal = prs.Var(1)
		vec.IncBoolFanout(0, node)
		vec.IncBoolFanout(1, node)

		vec.SetBool(0, state.One, eng.Now()) // schedules 1 at delay 5
		vec.SetBool(1, state.One, eng.Now()) // interference -> conflicting re-schedule of X

		Expect(eng.Pending()).To(Equal(1))
		eng.RunUntilEmpty()
		Expect(vec.GetBool(2)).To(Equal(state.Unknown))
	})

	It("does not duplicate a pending event already headed to the same value", func() {
		vec := state.NewVector(3, 0, 0)
		eng := simkernel.NewEngine()
		node := prs.NewNode("g", 2, vec, eng, 3, nil)
		node.UpNormal = prs.Var(0)
		node.DnNormal = prs.Var(1)
		vec.IncBoolFanout(0, node)
		vec.IncBoolFanout(1, node)

		vec.SetBool(0, state.One, eng.Now())
		node.Propagate(0) // re-evaluate without any cell actually changing
		Expect(eng.Pending()).To(Equal(1))
	})
})

var _ = Describe("PassGate", func() {
	It("drives D from S only while conducting", func() {
		vec := state.NewVector(4, 0, 0) // 0=g 1=s 2=d 3=unused
		eng := simkernel.NewEngine()
		gate := prs.NewPassGate(prs.PassN, 0, 0, 1, 2, vec, eng, 1, nil)
		vec.IncBoolFanout(0, gate)
		vec.IncBoolFanout(1, gate)

		vec.SetBool(1, state.One, eng.Now())
		gate.Propagate(1) // s changed while g is still X: not conducting
		eng.RunUntilEmpty()
		Expect(vec.GetBool(2)).To(Equal(state.Unknown))

		vec.SetBool(0, state.One, eng.Now())
		eng.RunUntilEmpty()
		Expect(vec.GetBool(2)).To(Equal(state.One))
	})
})

var _ = Describe("MultiPrs", func() {
	It("resolves agreeing drivers and flags conflicting ones as X", func() {
		vec := state.NewVector(1, 0, 0)
		eng := simkernel.NewEngine()
		m := prs.NewMultiPrs(0, vec, eng, 1, nil)
		a, b := state.Zero, state.Unknown
		m.AddDriver(func() state.Bit { return a })
		m.AddDriver(func() state.Bit { return b })

		m.Propagate(0)
		eng.RunUntilEmpty()
		Expect(vec.GetBool(0)).To(Equal(state.Zero))

		b = state.One
		m.Propagate(0)
		eng.RunUntilEmpty()
		Expect(vec.GetBool(0)).To(Equal(state.Unknown))
	})
})

var _ = Describe("RegisterExclusivity", func() {
	It("lets the arbiter flush a losing node's pending event", func() {
		vec := state.NewVector(3, 0, 0)
		eng := simkernel.NewEngine()
		arb := constraints.NewArbiter(vec, false, 1)
		vec.MarkSpecial(0)
		vec.MarkSpecial(1)
		vec.SetExclusivityChecker(arb)
		vec.SetBool(0, state.Zero, 0)
		vec.SetBool(1, state.Zero, 0)

		n0 := prs.NewNode("g0", 0, vec, eng, 1, nil)
		n0.UpNormal = prs.True()
		n1 := prs.NewNode("g1", 1, vec, eng, 1, nil)
		n1.UpNormal = prs.True()
		prs.RegisterExclusivity(arb, constraints.Hi, []*prs.Node{n0, n1})

		n0.Propagate(0)
		Expect(n0.HasPendingTo(state.One)).To(BeTrue())
		Expect(vec.SetBool(0, state.One, eng.Now())).To(BeTrue())

		n1.Propagate(1)
		Expect(n1.HasPendingTo(state.One)).To(BeTrue())
		Expect(vec.SetBool(1, state.One, eng.Now())).To(BeFalse())
	})
})
