// Package chp implements the CHP graph builder (spec.md §4.9) and
// interpreter (spec.md §4.10): the graph IR, its expression sub-language,
// and the per-instance pc-slot stepping machine.
package chp

import (
	"fmt"

	"github.com/rmanohar/actsim-go/state"
	"github.com/rmanohar/actsim-go/wideint"
)

// BinOp names a CHP arithmetic/relational/bitwise operator.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpAsr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

// UnOp names a CHP unary operator.
type UnOp int

const (
	OpNeg UnOp = iota
	OpNot
	OpBoolNot
)

// ExprKind discriminates the CHP expression IR node kinds spec.md §4.10
// lists under "Expression evaluation": constants, big-int literals,
// variables (scalar or deref), structure references, channel-value reads,
// bitfields, builtin bool/int, function calls, self/self_ack.
type ExprKind int

const (
	EConst ExprKind = iota
	EVar
	EDeref
	EField
	EBitfield
	EBinOp
	EUnOp
	EBoolToInt
	EIntToBool
	EFuncCall
	ESelf
	ESelfAck
	EChanVal
	ELocal
)

// Expr is one node of the CHP expression tree. Which fields are
// meaningful depends on Kind, following the same tagged-struct style the
// teacher's instruction-operand IR uses rather than an interface hierarchy.
type Expr struct {
	Kind ExprKind

	// EConst
	Const wideint.Value

	// EVar: resolved at graph-build time to a flat global offset (spec.md
	// §4.9: "All identifier lookups resolve to (local_offset, type, width,
	// ...) at graph-build time").
	Offset state.GlobalOffset
	Width  uint

	// EDeref: Base resolves the array/struct's first leaf offset; Index, if
	// non-nil, is added to it (a dynamic index expression); static array and
	// struct references collapse Index to a constant EConst at build time.
	Base  state.GlobalOffset
	Index *Expr

	// EField: a structure projection, Rec the record-valued child, Field
	// the leaf name.
	Rec   *Expr
	Field string

	// EBitfield: Child shifted right by Lo and masked to width (Hi-Lo+1).
	Child  *Expr
	Hi, Lo uint

	// EBinOp/EUnOp
	BOp     BinOp
	UOp     UnOp
	L, R    *Expr

	// EFuncCall
	FuncName string
	Args     []*Expr

	// EChanVal: only valid while a sender is blocked on this channel
	// (spec.md §4.10); the interpreter resolves it against the blocked
	// sender's deposited payload.
	ChanOffset state.GlobalOffset

	// ELocal: reads a named slot of a user function's local frame (spec.md
	// §4.10 "User functions"); only meaningful inside a restricted function
	// body, resolved through EvalContext.Locals rather than a global offset.
	LocalName string
}

// LocalExpr is a convenience constructor for a local-frame read.
func LocalExpr(name string) *Expr { return &Expr{Kind: ELocal, LocalName: name} }

// ConstExpr is a convenience constructor for a literal.
func ConstExpr(v wideint.Value) *Expr { return &Expr{Kind: EConst, Const: v, Width: v.Width()} }

// VarExpr is a convenience constructor for a resolved scalar variable read.
func VarExpr(g state.GlobalOffset, width uint) *Expr {
	return &Expr{Kind: EVar, Offset: g, Width: width}
}

// BinExpr builds a binary-operator node.
func BinExpr(op BinOp, l, r *Expr) *Expr { return &Expr{Kind: EBinOp, BOp: op, L: l, R: r} }

// EvalContext supplies the interpreter-side state an expression evaluation
// may need beyond the global vector: function-call locals, and, while
// evaluating one of the ten fragmented-channel methods or a plain
// self/self_ack reference, the channel record in play.
type EvalContext struct {
	Vec     *state.Vector
	Locals  map[string]wideint.Value
	Records map[string]state.MultiValue
	Chan    *state.ChanState
	// PendingSend, when non-nil, is the payload an ESelf read returns; an
	// ESelf read without it fails with ErrUnboundChanVal.
	PendingSend *state.MultiValue
	// Extern dispatches an external function call by flat (width, value)
	// argument tuples (spec.md §4.10 "User functions", step 3).
	Extern func(name string, args []wideint.Value) (wideint.Value, error)
	// Funcs resolves a non-external user function by name, interpreted as a
	// restricted CHP program over its own local frame (spec.md §4.10 "User
	// functions", step 4).
	Funcs map[string]*UserFunc
	// Warn reports a non-fatal runtime-semantic diagnostic (e.g. a boolean
	// X read), spec.md §7.
	Warn func(format string, args ...any)
}

// ErrUnboundChanVal is returned when an EChanVal expression is evaluated
// outside an active sender-blocked context (spec.md §4.10: "only valid
// while a sender is blocked on this channel -- else an error is logged").
var ErrUnboundChanVal = fmt.Errorf("chp: channel-value read with no sender blocked")

// Eval recursively evaluates e (spec.md §4.10 "Expression evaluation").
func Eval(ctx *EvalContext, e *Expr) (wideint.Value, error) {
	if e == nil {
		return wideint.Value{}, fmt.Errorf("chp: nil expression")
	}
	switch e.Kind {
	case EConst:
		return e.Const, nil

	case EVar:
		v := ctx.Vec.GetInt(e.Offset)
		return v, nil

	case EDeref:
		off := e.Base
		if e.Index != nil {
			idx, err := Eval(ctx, e.Index)
			if err != nil {
				return wideint.Value{}, err
			}
			off += state.GlobalOffset(idx.Uint64())
		}
		return ctx.Vec.GetInt(off), nil

	case EField:
		rec, err := evalRecord(ctx, e.Rec)
		if err != nil {
			return wideint.Value{}, err
		}
		leaves, ferr := rec.Field(e.Field)
		if ferr != nil {
			return wideint.Value{}, ferr
		}
		if len(leaves) == 0 {
			return wideint.Value{}, fmt.Errorf("chp: empty field %q", e.Field)
		}
		return leaves[0], nil

	case EBitfield:
		v, err := Eval(ctx, e.Child)
		if err != nil {
			return wideint.Value{}, err
		}
		width := e.Hi - e.Lo + 1
		shifted := v.Shr(wideint.FromUint64(v.Width(), uint64(e.Lo)))
		return shifted.SetWidth(width), nil

	case EBinOp:
		return evalBinOp(ctx, e)

	case EUnOp:
		return evalUnOp(ctx, e)

	case EBoolToInt:
		b := ctx.Vec.GetBool(e.Offset)
		if b == state.Unknown {
			if ctx.Warn != nil {
				ctx.Warn("boolean X read promoted to int at global %d", e.Offset)
			}
			return wideint.X(1), nil
		}
		return wideint.FromUint64(1, uint64(b)), nil

	case EFuncCall:
		return evalFuncCall(ctx, e)

	case ESelf:
		if ctx.PendingSend == nil || len(ctx.PendingSend.Leaves) == 0 {
			return wideint.Value{}, ErrUnboundChanVal
		}
		return ctx.PendingSend.Leaves[0], nil

	case ESelfAck:
		if ctx.Chan == nil || len(ctx.Chan.DataForSend.Leaves) == 0 {
			return wideint.Value{}, ErrUnboundChanVal
		}
		return ctx.Chan.DataForSend.Leaves[0], nil

	case EChanVal:
		if ctx.Chan == nil || len(ctx.Chan.DataForSend.Leaves) == 0 {
			return wideint.Value{}, ErrUnboundChanVal
		}
		return ctx.Chan.DataForSend.Leaves[0], nil

	case ELocal:
		v, ok := ctx.Locals[e.LocalName]
		if !ok {
			return wideint.Value{}, fmt.Errorf("chp: unbound local %q", e.LocalName)
		}
		return v, nil

	default:
		return wideint.Value{}, fmt.Errorf("chp: unhandled expression kind %d", e.Kind)
	}
}

func evalRecord(ctx *EvalContext, e *Expr) (state.MultiValue, error) {
	if e.Kind == EVar {
		if rec, ok := ctx.Records[fmt.Sprintf("g%d", e.Offset)]; ok {
			return rec, nil
		}
	}
	return state.MultiValue{}, fmt.Errorf("chp: expression does not denote a record")
}

func evalBinOp(ctx *EvalContext, e *Expr) (wideint.Value, error) {
	l, err := Eval(ctx, e.L)
	if err != nil {
		return wideint.Value{}, err
	}
	r, err := Eval(ctx, e.R)
	if err != nil {
		return wideint.Value{}, err
	}
	switch e.BOp {
	case OpAdd:
		return l.Add(r), nil
	case OpSub:
		// A subtraction widens both operands to one bit past the wider
		// operand's width (wideint.WidenForSub) before the truncating
		// subtract, so a negative difference keeps its two's-complement
		// value at that width instead of wrapping at either operand's
		// width (spec.md §4.1).
		lw, rw := wideint.WidenForSub(l, r)
		return lw.Sub(rw), nil
	case OpMul:
		return l.Mul(r), nil
	case OpDiv:
		return l.Div(r), nil
	case OpMod:
		return l.Mod(r), nil
	case OpAnd:
		return l.And(r), nil
	case OpOr:
		return l.Or(r), nil
	case OpXor:
		return l.Xor(r), nil
	case OpShl:
		return l.Shl(r), nil
	case OpShr:
		return l.Shr(r), nil
	case OpAsr:
		return l.Asr(r), nil
	case OpEq:
		return boolValue(l.Cmp(r) == 0), nil
	case OpNe:
		return boolValue(l.Cmp(r) != 0), nil
	case OpLt:
		return boolValue(l.Cmp(r) < 0), nil
	case OpLe:
		return boolValue(l.Cmp(r) <= 0), nil
	case OpGt:
		return boolValue(l.Cmp(r) > 0), nil
	case OpGe:
		return boolValue(l.Cmp(r) >= 0), nil
	default:
		return wideint.Value{}, fmt.Errorf("chp: unhandled binary operator %d", e.BOp)
	}
}

func boolValue(b bool) wideint.Value {
	if b {
		return wideint.FromUint64(1, 1)
	}
	return wideint.FromUint64(1, 0)
}

func evalUnOp(ctx *EvalContext, e *Expr) (wideint.Value, error) {
	v, err := Eval(ctx, e.L)
	if err != nil {
		return wideint.Value{}, err
	}
	switch e.UOp {
	case OpNeg:
		return wideint.Zero(v.Width()).Sub(v), nil
	case OpNot:
		return v.Not(), nil
	case OpBoolNot:
		return boolValue(v.Cmp(wideint.Zero(v.Width())) == 0), nil
	default:
		return wideint.Value{}, fmt.Errorf("chp: unhandled unary operator %d", e.UOp)
	}
}

// evalFuncCall resolves a function call per spec.md §4.10 "User functions",
// step 3: try external dispatch first, then a registered non-external user
// function, interpreted over its own local frame (CallUserFunc).
func evalFuncCall(ctx *EvalContext, e *Expr) (wideint.Value, error) {
	args := make([]wideint.Value, len(e.Args))
	for i, a := range e.Args {
		v, err := Eval(ctx, a)
		if err != nil {
			return wideint.Value{}, err
		}
		args[i] = v
	}
	if ctx.Extern != nil {
		if v, err := ctx.Extern(e.FuncName, args); err == nil {
			return v, nil
		}
	}
	if fn, ok := ctx.Funcs[e.FuncName]; ok {
		return CallUserFunc(ctx, fn, args)
	}
	return wideint.Value{}, fmt.Errorf("chp: unresolved function call %q", e.FuncName)
}
