package hierarchy

import (
	"fmt"

	"github.com/rmanohar/actsim-go/chp"
	"github.com/rmanohar/actsim-go/prs"
	"github.com/rmanohar/actsim-go/simkernel"
	"github.com/rmanohar/actsim-go/state"
)

// realizePrs builds the prs.Node/PassGate set named by the process's
// boolean netlist (spec.md §4.8, §4.11), rewriting each RuleSpec's local
// VAR offsets to the instance's allocated globals.
func (b *Builder) realizePrs(inst *Instance) error {
	bnl, err := b.Design.GetBNL(inst.Process)
	if err != nil {
		return fmt.Errorf("hierarchy: get_bnl(%q): %w", inst.Process, err)
	}
	if bnl == nil {
		return nil
	}

	for _, r := range bnl.Rules {
		target, err := b.resolveBoolName(inst, r.Target)
		if err != nil {
			return err
		}
		node := prs.NewNode(fmt.Sprintf("%s.%s", inst.Name, r.Name), target, b.Vec, b.Eng, simkernel.VTime(r.Delay), nil)
		var rerr error
		node.UpNormal, rerr = b.resolveRuleExpr(inst, r.UpNormal)
		if rerr == nil {
			node.UpWeak, rerr = b.resolveRuleExpr(inst, r.UpWeak)
		}
		if rerr == nil {
			node.DnNormal, rerr = b.resolveRuleExpr(inst, r.DnNormal)
		}
		if rerr == nil {
			node.DnWeak, rerr = b.resolveRuleExpr(inst, r.DnWeak)
		}
		if rerr != nil {
			return rerr
		}
		inst.PrsNodes = append(inst.PrsNodes, node)
	}

	for _, pg := range bnl.PassGates {
		g, err := b.resolveBoolName(inst, pg.Control)
		if err != nil {
			return err
		}
		s, err := b.resolveBoolName(inst, pg.Source)
		if err != nil {
			return err
		}
		d, err := b.resolveBoolName(inst, pg.Drain)
		if err != nil {
			return err
		}
		var gbar state.GlobalOffset
		if pg.Kind == prs.TGate {
			gbar, err = b.resolveBoolName(inst, pg.Control+"_bar")
			if err != nil {
				return err
			}
		}
		gate := prs.NewPassGate(pg.Kind, g, gbar, s, d, b.Vec, b.Eng, simkernel.VTime(pg.Delay), nil)
		inst.PassGates = append(inst.PassGates, gate)
	}

	return nil
}

// resolveRuleExpr compiles one RuleExpr (over local signal names) into a
// *prs.Expr (over this instance's global offsets). A nil RuleExpr (an
// absent weak half) compiles to nil, preserved by prs.Eval as X.
func (b *Builder) resolveRuleExpr(inst *Instance, e *RuleExpr) (*prs.Expr, error) {
	if e == nil {
		return nil, nil
	}
	switch e.Kind {
	case prs.ExprTrue:
		return prs.True(), nil
	case prs.ExprFalse:
		return prs.False(), nil
	case prs.ExprVar:
		g, err := b.resolveBoolName(inst, e.Name)
		if err != nil {
			return nil, err
		}
		return prs.Var(g), nil
	case prs.ExprNot:
		child, err := b.resolveRuleExpr(inst, e.Children[0])
		if err != nil {
			return nil, err
		}
		return prs.Not(child), nil
	case prs.ExprAnd, prs.ExprOr:
		children := make([]*prs.Expr, len(e.Children))
		for i, c := range e.Children {
			rc, err := b.resolveRuleExpr(inst, c)
			if err != nil {
				return nil, err
			}
			children[i] = rc
		}
		if e.Kind == prs.ExprAnd {
			return prs.And(children...), nil
		}
		return prs.Or(children...), nil
	default:
		return nil, fmt.Errorf("hierarchy: unknown rule expression kind %v", e.Kind)
	}
}

// realizeChp builds the chp.Actor for a CHP (or HSE, compiled to the same
// statement IR) realization and binds it against every channel port/local
// the process declares.
func (b *Builder) realizeChp(inst *Instance) error {
	stmt, err := b.Design.ChpBody(inst.Process)
	if err != nil {
		return fmt.Errorf("hierarchy: chp_body(%q): %w", inst.Process, err)
	}
	if stmt == nil {
		return nil
	}
	graph := chp.Build(stmt, b.defaultDelay, b.defaultBWCost)
	actor := chp.NewActor(inst.Name, graph, b.Vec, b.Eng, nil)
	for _, g := range inst.Chans {
		actor.BindChan(g, b.Vec.GetChan(g), nil)
	}
	inst.ChpActor = actor
	return nil
}
