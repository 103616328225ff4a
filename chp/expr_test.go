package chp_test

import (
	"testing"

	"github.com/rmanohar/actsim-go/chp"
	"github.com/rmanohar/actsim-go/state"
	"github.com/rmanohar/actsim-go/wideint"
)

func TestEvalConstAndVar(t *testing.T) {
	vec := state.NewVector(0, 1, 0)
	vec.SetInt(0, wideint.FromUint64(8, 42), 0)
	ctx := &chp.EvalContext{Vec: vec}

	v, err := chp.Eval(ctx, chp.VarExpr(0, 8))
	if err != nil {
		t.Fatal(err)
	}
	if v.Uint64() != 42 {
		t.Fatalf("got %d, want 42", v.Uint64())
	}
}

func TestEvalSubtractionWidensBeforeBorrow(t *testing.T) {
	vec := state.NewVector(0, 0, 0)
	ctx := &chp.EvalContext{Vec: vec}
	l := chp.ConstExpr(wideint.FromUint64(4, 2))
	r := chp.ConstExpr(wideint.FromUint64(8, 3))

	v, err := chp.Eval(ctx, chp.BinExpr(chp.OpSub, l, r))
	if err != nil {
		t.Fatal(err)
	}
	// 2 - 3 widened to 9 bits (the wider 8-bit operand, plus one guard bit)
	// truncates to 511, not the narrower operand's 4-bit wraparound (15).
	if v.Uint64() != 511 {
		t.Fatalf("got %d, want 511", v.Uint64())
	}
}

func TestEvalBitfieldExtractsRange(t *testing.T) {
	vec := state.NewVector(0, 0, 0)
	ctx := &chp.EvalContext{Vec: vec}
	e := &chp.Expr{Kind: chp.EBitfield, Child: chp.ConstExpr(wideint.FromUint64(8, 0b10110100)), Hi: 5, Lo: 2}
	v, err := chp.Eval(ctx, e)
	if err != nil {
		t.Fatal(err)
	}
	if v.Uint64() != 0b1101 {
		t.Fatalf("got %#b, want %#b", v.Uint64(), 0b1101)
	}
}

func TestEvalSelfRequiresPendingSend(t *testing.T) {
	vec := state.NewVector(0, 0, 0)
	ctx := &chp.EvalContext{Vec: vec}
	_, err := chp.Eval(ctx, &chp.Expr{Kind: chp.ESelf})
	if err != chp.ErrUnboundChanVal {
		t.Fatalf("expected ErrUnboundChanVal, got %v", err)
	}
}
