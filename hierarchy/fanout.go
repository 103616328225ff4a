package hierarchy

import (
	"github.com/rmanohar/actsim-go/chp"
	"github.com/rmanohar/actsim-go/prs"
	"github.com/rmanohar/actsim-go/state"
)

// computeFanout implements Phase 2 of spec.md §4.11: walk the constructed
// actor tree and register every variable each actor reads as a fanout
// source. PRS nodes and pass-gates report their inputs directly; CHP actors
// are swept by static analysis of their compiled graph.
func (b *Builder) computeFanout(inst *Instance) {
	for _, n := range inst.PrsNodes {
		for _, g := range n.InputVars() {
			b.Vec.IncBoolFanout(g, n)
		}
	}
	for _, pg := range inst.PassGates {
		for _, g := range pg.InputVars() {
			b.Vec.IncBoolFanout(g, pg)
		}
	}
	if inst.ChpActor != nil {
		bools, ints := chpGraphVars(inst.ChpActor.Graph)
		for _, g := range bools {
			b.Vec.IncBoolFanout(g, inst.ChpActor)
		}
		for _, g := range ints {
			b.Vec.IncIntFanout(g, inst.ChpActor)
		}
	}
	for _, c := range inst.Children {
		b.computeFanout(c)
	}
}

// chpGraphVars statically walks a compiled CHP graph, collecting every
// global offset read by a guard, RHS expression, or dynamic index — the
// "static analysis of its graph" spec.md §4.11 assigns to process-scope
// actors. Channel-fragment variables are not collected here.
func chpGraphVars(g *chp.Graph) (bools, ints []state.GlobalOffset) {
	if g == nil {
		return nil, nil
	}
	seenBool := make(map[state.GlobalOffset]bool)
	seenInt := make(map[state.GlobalOffset]bool)
	visited := make(map[*chp.Node]bool)

	var walkExpr func(e *chp.Expr)
	walkExpr = func(e *chp.Expr) {
		if e == nil {
			return
		}
		switch e.Kind {
		case chp.EVar:
			if !seenInt[e.Offset] {
				seenInt[e.Offset] = true
				ints = append(ints, e.Offset)
			}
		case chp.EDeref:
			if !seenInt[e.Base] {
				seenInt[e.Base] = true
				ints = append(ints, e.Base)
			}
			walkExpr(e.Index)
		case chp.EField:
			walkExpr(e.Rec)
		case chp.EBitfield:
			walkExpr(e.Child)
		case chp.EBinOp:
			walkExpr(e.L)
			walkExpr(e.R)
		case chp.EUnOp:
			walkExpr(e.L)
		case chp.EBoolToInt:
			if !seenBool[e.Offset] {
				seenBool[e.Offset] = true
				bools = append(bools, e.Offset)
			}
		case chp.EIntToBool:
			walkExpr(e.Child)
		case chp.EFuncCall:
			for _, a := range e.Args {
				walkExpr(a)
			}
		}
	}

	// walkGuards only collects boolean-wire reads out of GuardBool guards
	// (spec.md §4.11's fanout pass registers shared-variable readers; a
	// GuardProbe guard's readiness depends on rendezvous state, not a vector
	// offset, and GuardLocalExpr never appears in a process-scope graph).
	var walkGuards func(guards []*chp.Guard)
	walkGuards = func(guards []*chp.Guard) {
		var out []state.GlobalOffset
		for _, gd := range guards {
			if gd == nil || gd.Kind != chp.GuardBool {
				continue
			}
			out = prs.Vars(gd.Expr, out)
		}
		for _, off := range out {
			if !seenBool[off] {
				seenBool[off] = true
				bools = append(bools, off)
			}
		}
	}

	var walk func(n *chp.Node)
	walk = func(n *chp.Node) {
		if n == nil || visited[n] {
			return
		}
		visited[n] = true
		switch n.Kind {
		case chp.NAssign:
			walkExpr(n.RHS)
			walkExpr(n.Target.Index)
		case chp.NSend:
			walkExpr(n.ValueExpr)
		case chp.NRecv:
			if n.RecvInto != nil {
				walkExpr(n.RecvInto.Index)
			}
		case chp.NCond, chp.NCondArb, chp.NLoop:
			walkGuards(n.Guards)
			for _, s := range n.Succs {
				walk(s)
			}
		case chp.NFork:
			for _, br := range n.Branches {
				walk(br)
			}
		case chp.NFunc:
			for _, a := range n.FuncArgs {
				walkExpr(a.Expr)
			}
		}
		walk(n.Next)
	}
	walk(g.Entry)
	return bools, ints
}
