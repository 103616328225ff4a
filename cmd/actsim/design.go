package main

import (
	"fmt"

	"github.com/rmanohar/actsim-go/chp"
	"github.com/rmanohar/actsim-go/hierarchy"
	"github.com/rmanohar/actsim-go/wideint"
)

// counterDesign is a hand-built hierarchy.Design with a single leaf
// process, standing in for the front-end parse tree spec.md §6 says a
// real Design implementation is generated from. It exists only to give
// this binary something concrete to elaborate and run.
type counterDesign struct{}

const counterWidth = 8

func (counterDesign) PortList(process string) ([]hierarchy.PortDecl, error) {
	if process != "Counter" {
		return nil, fmt.Errorf("design: unknown process %q", process)
	}
	return nil, nil
}

func (counterDesign) StateOffsetsFor(process string) (hierarchy.ProcessOffsets, error) {
	if process != "Counter" {
		return hierarchy.ProcessOffsets{}, fmt.Errorf("design: unknown process %q", process)
	}
	return hierarchy.ProcessOffsets{Ints: 1}, nil
}

func (counterDesign) TypeOffsetFor(connection string) (hierarchy.ConnType, error) {
	return hierarchy.ConnType{}, fmt.Errorf("design: %q has no channel connections", connection)
}

func (counterDesign) GetBNL(process string) (*hierarchy.BNL, error) {
	return nil, nil
}

// ChpBody builds `x := 1; x := x + 1; x := x + 2` addressed against the
// instance's one local int cell, which build() always allocates as
// offset 0 of a leaf instance with no declared ports (spec.md §4.11's
// reverse-emission port tables only reorder port cells; an instance with
// no ports and one own-int always gets offset 0 for that int). A chain
// of plain assignments keeps the demo free of guard-expression plumbing
// (CHP SELECT/LOOP guards are boolean-wire expressions, spec.md §4.10),
// while still exercising ASSIGN, expression evaluation and trace
// delivery end to end.
func (counterDesign) ChpBody(process string) (*chp.Stmt, error) {
	if process != "Counter" {
		return nil, fmt.Errorf("design: unknown process %q", process)
	}
	x := chp.VarExpr(0, counterWidth)
	target := chp.DerefDesc{Offset: 0, Width: counterWidth}

	steps := []*chp.Stmt{
		{Kind: chp.SAssign, Target: target, RHS: chp.ConstExpr(wideint.FromUint64(counterWidth, 1))},
		{Kind: chp.SAssign, Target: target, RHS: chp.BinExpr(chp.OpAdd, x, chp.ConstExpr(wideint.FromUint64(counterWidth, 1)))},
		{Kind: chp.SAssign, Target: target, RHS: chp.BinExpr(chp.OpAdd, x, chp.ConstExpr(wideint.FromUint64(counterWidth, 2)))},
	}
	return &chp.Stmt{Kind: chp.SSemi, Children: steps}, nil
}

func (counterDesign) Children(process string) ([]hierarchy.Instantiation, error) {
	return nil, nil
}

func (counterDesign) HasLevel(process string, lvl hierarchy.Level) bool {
	return process == "Counter" && lvl == hierarchy.LevelChp
}

func (counterDesign) Directives(process string) ([]hierarchy.Directive, error) {
	return nil, nil
}
