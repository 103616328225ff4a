package hierarchy_test

import (
	"errors"

	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rmanohar/actsim-go/constraints"
	"github.com/rmanohar/actsim-go/hierarchy"
	"github.com/rmanohar/actsim-go/prs"
	"github.com/rmanohar/actsim-go/simkernel"
	"github.com/rmanohar/actsim-go/state"
)

var _ = Describe("Builder", func() {
	var ctrl *gomock.Controller

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
	})

	It("elaborates a two-level tree and wires PRS fanout across the instance boundary", func() {
		design := NewMockDesign(ctrl)

		// Top: one child instance "g" of process "Gate", requested at PRS.
		design.EXPECT().PortList("Top").Return(nil, nil).AnyTimes()
		design.EXPECT().StateOffsetsFor("Top").Return(hierarchy.ProcessOffsets{}, nil).AnyTimes()
		design.EXPECT().Directives("Top").Return(nil, nil).AnyTimes()
		design.EXPECT().Children("Top").Return([]hierarchy.Instantiation{
			{InstName: "g", Process: "Gate", Level: hierarchy.LevelPrs},
		}, nil).AnyTimes()
		design.EXPECT().HasLevel("Top", hierarchy.LevelChp).Return(true).AnyTimes()
		design.EXPECT().ChpBody("Top").Return(nil, nil).AnyTimes()

		// Gate: an inverter, in=port, out=port, driven Target="out".
		design.EXPECT().PortList("Gate").Return([]hierarchy.PortDecl{
			{Name: "in", Dir: hierarchy.PortIn, Kind: hierarchy.PortBool},
			{Name: "out", Dir: hierarchy.PortOut, Kind: hierarchy.PortBool},
		}, nil).AnyTimes()
		design.EXPECT().StateOffsetsFor("Gate").Return(hierarchy.ProcessOffsets{}, nil).AnyTimes()
		design.EXPECT().Directives("Gate").Return(nil, nil).AnyTimes()
		design.EXPECT().Children("Gate").Return(nil, nil).AnyTimes()
		design.EXPECT().HasLevel("Gate", hierarchy.LevelPrs).Return(true).AnyTimes()
		design.EXPECT().GetBNL("Gate").Return(&hierarchy.BNL{
			Rules: []hierarchy.RuleSpec{
				{
					Name:   "inv",
					Target: "out",
					UpNormal: &hierarchy.RuleExpr{Kind: prs.ExprNot, Children: []*hierarchy.RuleExpr{
						{Kind: prs.ExprVar, Name: "in"},
					}},
					DnNormal: &hierarchy.RuleExpr{Kind: prs.ExprVar, Name: "in"},
					Delay:    1,
				},
			},
		}, nil).AnyTimes()

		vec := state.NewVector(4, 0, 0)
		eng := simkernel.NewEngine()
		arb := constraints.NewArbiter(vec, false, 1)
		vec.SetExclusivityChecker(arb)

		b := hierarchy.NewBuilder(design, vec, eng, arb, 1, 0, nil)
		root, err := b.Elaborate(hierarchy.Instantiation{InstName: "top", Process: "Top", Level: hierarchy.LevelChp})
		Expect(err).NotTo(HaveOccurred())
		Expect(root.Level).To(Equal(hierarchy.LevelChp))
		Expect(root.Children).To(HaveLen(1))

		gate := root.Children[0]
		Expect(gate.Level).To(Equal(hierarchy.LevelPrs))
		Expect(gate.PrsNodes).To(HaveLen(1))

		inOff := gate.Bools["in"]
		outOff := gate.Bools["out"]

		vec.SetBool(inOff, state.Zero, 0)
		eng.RunUntilEmpty()
		Expect(vec.GetBool(outOff)).To(Equal(state.One))

		vec.SetBool(inOff, state.One, eng.Now())
		eng.RunUntilEmpty()
		Expect(vec.GetBool(outOff)).To(Equal(state.Zero))
	})

	It("falls back prs -> hse -> chp when the requested level is unavailable", func() {
		design := NewMockDesign(ctrl)
		design.EXPECT().PortList("Leaf").Return(nil, nil).AnyTimes()
		design.EXPECT().StateOffsetsFor("Leaf").Return(hierarchy.ProcessOffsets{}, nil).AnyTimes()
		design.EXPECT().Directives("Leaf").Return(nil, nil).AnyTimes()
		design.EXPECT().Children("Leaf").Return(nil, nil).AnyTimes()
		design.EXPECT().HasLevel("Leaf", hierarchy.LevelChp).Return(false)
		design.EXPECT().HasLevel("Leaf", hierarchy.LevelPrs).Return(false)
		design.EXPECT().HasLevel("Leaf", hierarchy.LevelHse).Return(true)
		design.EXPECT().ChpBody("Leaf").Return(nil, nil).AnyTimes()

		vec := state.NewVector(0, 0, 0)
		eng := simkernel.NewEngine()
		b := hierarchy.NewBuilder(design, vec, eng, nil, 1, 0, nil)
		inst, err := b.Elaborate(hierarchy.Instantiation{InstName: "leaf", Process: "Leaf", Level: hierarchy.LevelChp})
		Expect(err).NotTo(HaveOccurred())
		Expect(inst.Level).To(Equal(hierarchy.LevelHse))
	})

	It("reports ErrNoLevel when device-level is requested but unavailable", func() {
		design := NewMockDesign(ctrl)
		design.EXPECT().HasLevel("Analog", hierarchy.LevelDevice).Return(false)

		vec := state.NewVector(0, 0, 0)
		eng := simkernel.NewEngine()
		b := hierarchy.NewBuilder(design, vec, eng, nil, 1, 0, nil)
		_, err := b.Elaborate(hierarchy.Instantiation{InstName: "a", Process: "Analog", Level: hierarchy.LevelDevice})
		Expect(err).To(HaveOccurred())
		var noLevel *hierarchy.ErrNoLevel
		Expect(errors.As(err, &noLevel)).To(BeTrue())
	})
})
