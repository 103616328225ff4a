package chp_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rmanohar/actsim-go/chp"
	"github.com/rmanohar/actsim-go/simkernel"
	"github.com/rmanohar/actsim-go/state"
	"github.com/rmanohar/actsim-go/wideint"
)

var _ = Describe("Actor", func() {
	It("runs a straight-line ASSIGN to completion", func() {
		vec := state.NewVector(0, 1, 0)
		eng := simkernel.NewEngine()
		stop := &chp.Node{Kind: chp.NStop}
		assign := &chp.Node{
			Kind:   chp.NAssign,
			Next:   stop,
			Target: chp.DerefDesc{Offset: 0, Width: 8},
			RHS:    chp.ConstExpr(wideint.FromUint64(8, 9)),
		}
		graph := &chp.Graph{Entry: assign, MaxPCs: 1}
		actor := chp.NewActor("a", graph, vec, eng, nil)
		actor.Start()
		eng.RunUntilEmpty()

		Expect(vec.GetInt(0).Uint64()).To(Equal(uint64(9)))
	})

	It("forks two branches and resumes only after both join", func() {
		vec := state.NewVector(0, 2, 0)
		eng := simkernel.NewEngine()
		stop := &chp.Node{Kind: chp.NStop}
		join := &chp.Node{Kind: chp.NJoin, JoinWait: 2, JoinTotIdx: 1, Next: stop}
		left := &chp.Node{Kind: chp.NAssign, Next: join, Target: chp.DerefDesc{Offset: 0, Width: 8}, RHS: chp.ConstExpr(wideint.FromUint64(8, 1))}
		right := &chp.Node{Kind: chp.NAssign, Next: join, Target: chp.DerefDesc{Offset: 1, Width: 8}, RHS: chp.ConstExpr(wideint.FromUint64(8, 2))}
		fork := &chp.Node{Kind: chp.NFork, Branches: []*chp.Node{left, right}, JoinNode: join}
		graph := &chp.Graph{Entry: fork, MaxPCs: 2}
		actor := chp.NewActor("a", graph, vec, eng, nil)
		actor.Start()
		eng.RunUntilEmpty()

		Expect(vec.GetInt(0).Uint64()).To(Equal(uint64(1)))
		Expect(vec.GetInt(1).Uint64()).To(Equal(uint64(2)))
	})

	It("rendezvous-synchronizes a SEND actor against a RECV actor", func() {
		vec := state.NewVector(0, 1, 1)
		eng := simkernel.NewEngine()
		cs := vec.GetChan(0)

		sendStop := &chp.Node{Kind: chp.NStop}
		sendNode := &chp.Node{Kind: chp.NSend, Next: sendStop, ChanOffset: 0, ValueExpr: chp.ConstExpr(wideint.FromUint64(8, 7))}
		sender := chp.NewActor("sender", &chp.Graph{Entry: sendNode, MaxPCs: 1}, vec, eng, nil)
		sender.BindChan(0, cs, nil)

		recvStop := &chp.Node{Kind: chp.NStop}
		into := chp.DerefDesc{Offset: 0, Width: 8}
		recvNode := &chp.Node{Kind: chp.NRecv, Next: recvStop, ChanOffset: 0, RecvInto: &into}
		receiver := chp.NewActor("receiver", &chp.Graph{Entry: recvNode, MaxPCs: 1}, vec, eng, nil)
		receiver.BindChan(0, cs, nil)

		sender.Start()
		receiver.Start()
		eng.RunUntilEmpty()

		Expect(vec.GetInt(0).Uint64()).To(Equal(uint64(7)))
	})
})
