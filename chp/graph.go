package chp

import (
	"github.com/rmanohar/actsim-go/simkernel"
	"github.com/rmanohar/actsim-go/state"
)

// NodeKind names one CHP graph node kind (spec.md §4.9's statement-tree
// vocabulary lowered to a graph: FORK/ASSIGN/SEND/RECV/COND/CONDARB/LOOP/
// NOP/FUNC, plus an internal Join and terminal Stop).
type NodeKind int

const (
	NFork NodeKind = iota
	NJoin
	NAssign
	NSend
	NRecv
	NCond
	NCondArb
	NLoop
	NNop
	NFunc
	NStop
)

// DerefDesc is the compiled write-target of an ASSIGN or a RECV's
// receive-into variable: a scalar collapses to a bare Offset; an array
// keeps a symbolic index expression; a struct is either an in-line list of
// (offset, width) leaf descriptors when fully static, or a dynamic base
// resolved at execution time (spec.md §4.9).
type DerefDesc struct {
	IsStruct bool
	IsArray  bool

	Offset state.GlobalOffset // scalar, or struct/array static base
	Width  uint

	Index *Expr // array dynamic index, nil if statically resolved

	// Leaves describes a static struct write as a flat list of leaf
	// (offset, width) pairs in field order.
	Leaves []StructLeaf

	// LocalName, when non-empty, targets a user function's local frame
	// instead of the global state vector (spec.md §4.10 "User functions");
	// only meaningful inside a restricted function body.
	LocalName string
}

// LocalTarget builds a DerefDesc addressing a user function's local frame.
func LocalTarget(name string, width uint) DerefDesc {
	return DerefDesc{LocalName: name, Width: width}
}

// StructLeaf is one static leaf slot of a struct write target.
type StructLeaf struct {
	Offset state.GlobalOffset
	Width  uint
}

// resolvedOffset returns the scalar/array global offset to write, evaluating
// a dynamic index if present.
func (d *DerefDesc) resolvedOffset(ctx *EvalContext) (state.GlobalOffset, error) {
	if d.Index == nil {
		return d.Offset, nil
	}
	idx, err := Eval(ctx, d.Index)
	if err != nil {
		return 0, err
	}
	return d.Offset + state.GlobalOffset(idx.Uint64()), nil
}

// Node is one CHP graph node. As with Expr, a single tagged struct plays
// the role of a small sum type; which fields apply depends on Kind.
type Node struct {
	ID    int
	Kind  NodeKind
	Delay simkernel.VTime
	BWCost simkernel.VTime

	// SEMI chaining / single-successor kinds (ASSIGN, SEND, RECV, FUNC, NOP).
	Next *Node

	// FORK
	Branches []*Node
	JoinNode *Node

	// JOIN
	JoinWait   int
	JoinTotIdx int

	// ASSIGN
	Target    DerefDesc
	RHS       *Expr
	IsStruct  bool

	// SEND / RECV
	ChanOffset state.GlobalOffset
	ValueExpr  *Expr      // SEND's outgoing expression
	RecvInto   *DerefDesc // RECV's optional receive-into target
	IsBidir    bool
	IsStructX  bool
	ChanWidth  uint
	Fragmented bool

	// COND / CONDARB / LOOP. Guards are either boolean expressions over the
	// state vector, sharing package prs's weak-logic expression language
	// rather than duplicating a second boolean IR (spec.md §4.8's eval
	// tables apply unchanged to a CHP guard read), or channel-probe tests
	// (spec.md §4.6 "Probes").
	Guards   []*Guard
	Succs    []*Node
	LoopBack bool // true for LOOP: every branch body leads back to self

	// FUNC
	FuncName string
	FuncArgs []FuncArg

	// NOP
	IsWatchdog bool
	Message    string
}

// Graph is a built CHP program: an entry node and the precomputed pc-slot
// pool size (spec.md §4.9 "max_program_counters").
type Graph struct {
	Entry       *Node
	MaxPCs      int
	Labels      map[string]*Node
}

// maxPCs implements spec.md §4.9's traversal: COMMA (here, a built FORK)
// sums its branches' requirements; everything else takes the max across
// its own requirement and its successors'.
func maxPCs(n *Node, visited map[*Node]int) int {
	if n == nil {
		return 0
	}
	if v, ok := visited[n]; ok {
		return v
	}
	visited[n] = 1 // break cycles (LOOP) conservatively at 1 during recursion
	var result int
	switch n.Kind {
	case NFork:
		sum := 0
		for _, b := range n.Branches {
			sum += maxPCs(b, visited)
		}
		result = max(sum, maxPCs(n.Next, visited))
	case NCond, NCondArb, NLoop:
		m := 0
		for _, s := range n.Succs {
			if c := maxPCs(s, visited); c > m {
				m = c
			}
		}
		result = max(m, maxPCs(n.Next, visited))
	default:
		result = max(1, maxPCs(n.Next, visited))
	}
	visited[n] = result
	return result
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
