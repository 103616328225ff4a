// Package prs implements the production-rule-set engine of spec.md §4.8:
// one PrsNode models one gate's up/dn expression pair, reacting to fanout
// notifications on its VAR inputs and scheduling/stepping boolean writes
// back through the state vector.
package prs

import "github.com/rmanohar/actsim-go/state"

// ExprKind names one node of the PRS boolean-expression tree.
type ExprKind int

const (
	ExprAnd ExprKind = iota
	ExprOr
	ExprNot
	ExprVar
	ExprTrue
	ExprFalse
)

// Expr is a PRS expression tree node (spec.md §4.8: "AND, OR, NOT, VAR,
// TRUE, FALSE").
type Expr struct {
	Kind     ExprKind
	Children []*Expr
	Var      state.GlobalOffset
}

// And, Or, Not, Var, True and False are constructors kept terse enough that
// a gate's up/dn expressions read as a small literal tree.
func And(children ...*Expr) *Expr { return &Expr{Kind: ExprAnd, Children: children} }
func Or(children ...*Expr) *Expr  { return &Expr{Kind: ExprOr, Children: children} }
func Not(child *Expr) *Expr       { return &Expr{Kind: ExprNot, Children: []*Expr{child}} }
func Var(g state.GlobalOffset) *Expr { return &Expr{Kind: ExprVar, Var: g} }
func True() *Expr                 { return &Expr{Kind: ExprTrue} }
func False() *Expr                { return &Expr{Kind: ExprFalse} }

// Eval implements the weak-logic tables of spec.md §4.8: AND is zero-
// dominant, OR is one-dominant, and anything not fully resolved one way is
// X. A nil expression (an absent weak half) evaluates to X.
func Eval(vec *state.Vector, e *Expr) state.Bit {
	if e == nil {
		return state.Unknown
	}
	switch e.Kind {
	case ExprTrue:
		return state.One
	case ExprFalse:
		return state.Zero
	case ExprVar:
		return vec.GetBool(e.Var)
	case ExprNot:
		switch Eval(vec, e.Children[0]) {
		case state.Zero:
			return state.One
		case state.One:
			return state.Zero
		default:
			return state.Unknown
		}
	case ExprAnd:
		sawX := false
		for _, c := range e.Children {
			switch Eval(vec, c) {
			case state.Zero:
				return state.Zero
			case state.Unknown:
				sawX = true
			}
		}
		if sawX {
			return state.Unknown
		}
		return state.One
	case ExprOr:
		sawX := false
		for _, c := range e.Children {
			switch Eval(vec, c) {
			case state.One:
				return state.One
			case state.Unknown:
				sawX = true
			}
		}
		if sawX {
			return state.Unknown
		}
		return state.Zero
	default:
		return state.Unknown
	}
}

// Vars appends every VAR leaf reachable from e to out, for fanout
// registration during hierarchy wiring (spec.md §4.11: "PRS collects
// variables referenced by any expression").
func Vars(e *Expr, out []state.GlobalOffset) []state.GlobalOffset {
	if e == nil {
		return out
	}
	if e.Kind == ExprVar {
		out = append(out, e.Var)
	}
	for _, c := range e.Children {
		out = Vars(c, out)
	}
	return out
}
