package chp

import (
	"fmt"

	"github.com/rmanohar/actsim-go/wideint"
)

// FuncLocal declares one local-frame slot: a parameter binding or a
// zero-initialized local (spec.md §4.10 "User functions", step 1:
// "initialize declared locals (zero for scalars...)").
type FuncLocal struct {
	Name  string
	Width uint
}

// UserFunc is a restricted CHP program usable as a function body (spec.md
// §4.10: "no communication, no comma, labeled blocks or recursion banned").
// Body may only use SSemi/SSkip/SAssign/SFunc/SSelect/SSelectNondet/SLoop
// nodes whose
// targets/expressions address the local frame (DerefDesc.LocalName,
// ELocal) rather than the global state vector.
type UserFunc struct {
	Name      string
	Params    []FuncLocal
	Locals    []FuncLocal
	SelfWidth uint
	Body      *Stmt
}

// CallUserFunc interprets fn against args synchronously -- a restricted body
// never suspends, since it cannot communicate -- and returns the local named
// "self" (spec.md §4.10 steps 1-5).
func CallUserFunc(ctx *EvalContext, fn *UserFunc, args []wideint.Value) (wideint.Value, error) {
	if len(args) < len(fn.Params) {
		return wideint.Value{}, fmt.Errorf("chp: %s: too few arguments (want %d, got %d)", fn.Name, len(fn.Params), len(args))
	}
	frame := make(map[string]wideint.Value, len(fn.Params)+len(fn.Locals)+1)
	for _, l := range fn.Locals {
		frame[l.Name] = wideint.Zero(l.Width)
	}
	selfWidth := fn.SelfWidth
	if selfWidth == 0 {
		selfWidth = 1
	}
	frame["self"] = wideint.Zero(selfWidth)
	for i, p := range fn.Params {
		frame[p.Name] = args[i].SetWidth(p.Width)
	}

	fctx := &EvalContext{Vec: ctx.Vec, Chan: ctx.Chan, Extern: ctx.Extern, Funcs: ctx.Funcs, Warn: ctx.Warn, Locals: frame}
	if err := execRestricted(fctx, fn.Body); err != nil {
		return wideint.Value{}, fmt.Errorf("chp: %s: %w", fn.Name, err)
	}
	self, ok := fctx.Locals["self"]
	if !ok {
		return wideint.Value{}, fmt.Errorf("chp: %s: function did not assign self", fn.Name)
	}
	return self, nil
}

// execRestricted runs a restricted-CHP statement tree synchronously,
// rejecting the constructs spec.md §4.10 bans inside a function body (SEND,
// RECV, COMMA, FRAGMENTS -- anything involving communication or concurrency).
func execRestricted(ctx *EvalContext, stmt *Stmt) error {
	if stmt == nil {
		return nil
	}
	switch stmt.Kind {
	case SSkip:
		return nil

	case SSemi:
		for _, c := range stmt.Children {
			if err := execRestricted(ctx, c); err != nil {
				return err
			}
		}
		return nil

	case SAssign:
		return execRestrictedAssign(ctx, stmt)

	case SFunc:
		_, err := evalFuncCall(ctx, &Expr{Kind: EFuncCall, FuncName: stmt.FuncName, Args: exprArgsOf(stmt.FuncArgs)})
		return err

	case SSelect, SSelectNondet:
		for _, br := range stmt.Branches {
			ok, err := evalLocalGuard(ctx, br.Guard)
			if err != nil {
				return err
			}
			if ok {
				return execRestricted(ctx, br.Body)
			}
		}
		return fmt.Errorf("no guard matched in restricted select")

	case SLoop:
		for {
			matched := false
			for _, br := range stmt.Branches {
				ok, err := evalLocalGuard(ctx, br.Guard)
				if err != nil {
					return err
				}
				if ok {
					matched = true
					if err := execRestricted(ctx, br.Body); err != nil {
						return err
					}
					break
				}
			}
			if !matched {
				return nil
			}
		}

	default:
		return fmt.Errorf("statement kind %d is not permitted in a restricted function body", stmt.Kind)
	}
}

func execRestrictedAssign(ctx *EvalContext, stmt *Stmt) error {
	v, err := Eval(ctx, stmt.RHS)
	if err != nil {
		return err
	}
	name := stmt.Target.LocalName
	if name == "" {
		return fmt.Errorf("restricted function assign must target a local (got a global deref)")
	}
	width := stmt.Target.Width
	if width == 0 {
		if cur, ok := ctx.Locals[name]; ok {
			width = cur.Width()
		} else {
			width = v.Width()
		}
	}
	ctx.Locals[name] = v.SetWidth(width)
	return nil
}

// evalLocalGuard evaluates a GuardLocalExpr guard, true when the integer
// expression is non-zero; any other guard kind is invalid inside a
// restricted function body.
func evalLocalGuard(ctx *EvalContext, g *Guard) (bool, error) {
	if g == nil {
		return true, nil
	}
	if g.Kind != GuardLocalExpr {
		return false, fmt.Errorf("a restricted function guard must be a local expression")
	}
	v, err := Eval(ctx, g.LocalExpr)
	if err != nil {
		return false, err
	}
	return v.Cmp(wideint.Zero(v.Width())) != 0, nil
}

// exprArgsOf projects a FuncArg list down to its expression arguments for
// EFuncCall.Args, used for nested (non-intrinsic) calls inside FUNC/SFunc.
// A string-literal argument has no expression form and becomes nil, which
// Eval rejects -- correct, since user/extern functions take numeric args.
func exprArgsOf(args []FuncArg) []*Expr {
	out := make([]*Expr, len(args))
	for i, a := range args {
		out[i] = a.Expr
	}
	return out
}
