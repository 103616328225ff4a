package simulator_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rmanohar/actsim-go/chp"
	"github.com/rmanohar/actsim-go/glue"
	"github.com/rmanohar/actsim-go/hierarchy"
	"github.com/rmanohar/actsim-go/simconfig"
	"github.com/rmanohar/actsim-go/simulator"
	"github.com/rmanohar/actsim-go/wideint"
)

const leafWidth = 8

// counterDesign is a minimal single-process hierarchy.Design: one leaf
// with no ports and one local int cell, running x := 1; x := x + 1.
type counterDesign struct{}

func (counterDesign) PortList(string) ([]hierarchy.PortDecl, error) { return nil, nil }
func (counterDesign) StateOffsetsFor(string) (hierarchy.ProcessOffsets, error) {
	return hierarchy.ProcessOffsets{Ints: 1}, nil
}
func (counterDesign) TypeOffsetFor(string) (hierarchy.ConnType, error) {
	return hierarchy.ConnType{}, fmt.Errorf("no channels")
}
func (counterDesign) GetBNL(string) (*hierarchy.BNL, error) { return nil, nil }
func (counterDesign) ChpBody(string) (*chp.Stmt, error) {
	target := chp.DerefDesc{Offset: 0, Width: leafWidth}
	x := chp.VarExpr(0, leafWidth)
	return &chp.Stmt{Kind: chp.SSemi, Children: []*chp.Stmt{
		{Kind: chp.SAssign, Target: target, RHS: chp.ConstExpr(wideint.FromUint64(leafWidth, 1))},
		{Kind: chp.SAssign, Target: target, RHS: chp.BinExpr(chp.OpAdd, x, chp.ConstExpr(wideint.FromUint64(leafWidth, 1)))},
	}}, nil
}
func (counterDesign) Children(string) ([]hierarchy.Instantiation, error) { return nil, nil }
func (counterDesign) HasLevel(process string, lvl hierarchy.Level) bool {
	return process == "Leaf" && lvl == hierarchy.LevelChp
}
func (counterDesign) Directives(string) ([]hierarchy.Directive, error) { return nil, nil }

var _ = Describe("Simulator", func() {
	It("elaborates, runs init, and steps the actor to completion", func() {
		root := hierarchy.Instantiation{InstName: "leaf", Process: "Leaf", Level: hierarchy.LevelChp}
		sim, err := simulator.New(counterDesign{}, root, simconfig.NewBuilder().WithQuiescenceBudget(100).Build(), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(sim.Root.Level).To(Equal(hierarchy.LevelChp))
		Expect(sim.Root.ChpActor).NotTo(BeNil())

		Expect(sim.RunInit(nil, nil)).To(Succeed())
		sim.Eng.RunUntilEmpty()

		Expect(sim.Vec.GetInt(0).Uint64()).To(Equal(uint64(2)))
	})

	It("wires the extern registry onto every CHP actor", func() {
		root := hierarchy.Instantiation{InstName: "leaf", Process: "Leaf", Level: hierarchy.LevelChp}
		sim, err := simulator.New(counterDesign{}, root, simconfig.NewBuilder().Build(), nil)
		Expect(err).NotTo(HaveOccurred())

		sim.Extern.Register("double", func(args []wideint.Value) (wideint.Value, error) {
			return args[0].Add(args[0]), nil
		})

		v, err := sim.Root.ChpActor.Extern("double", []wideint.Value{wideint.FromUint64(8, 5)})
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Uint64()).To(Equal(uint64(10)))
	})

	It("rejects binding a fragmentation program onto an unknown channel", func() {
		root := hierarchy.Instantiation{InstName: "leaf", Process: "Leaf", Level: hierarchy.LevelChp}
		sim, err := simulator.New(counterDesign{}, root, simconfig.NewBuilder().Build(), nil)
		Expect(err).NotTo(HaveOccurred())

		var spec glue.TypeSpec
		err = sim.BindFragmentedChannel(sim.Root, "nope", spec)
		Expect(err).To(HaveOccurred())
	})
})
