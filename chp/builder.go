package chp

import (
	"github.com/rmanohar/actsim-go/prs"
	"github.com/rmanohar/actsim-go/simkernel"
	"github.com/rmanohar/actsim-go/state"
)

// StmtKind names one node of the input statement tree spec.md §4.9 lowers
// from: SEMI, COMMA, SELECT, SELECT_NONDET, LOOP, DOLOOP, SEND, RECV,
// ASSIGN, FUNC, SKIP, FRAGMENTS.
type StmtKind int

const (
	SSemi StmtKind = iota
	SComma
	SSelect
	SSelectNondet
	SLoop
	SDoLoop
	SSend
	SRecv
	SAssign
	SFunc
	SSkip
)

// GuardKind discriminates how a selection guard is evaluated: a boolean-wire
// read shared with the PRS/HSE evaluator, a channel-probe readiness test, or
// (only inside a restricted user-function body) an integer expression over
// the local frame (spec.md §4.9 "Guards may reference probes and/or shared
// variables (flags is_probe, is_shared)").
type GuardKind int

const (
	GuardBool GuardKind = iota
	GuardProbe
	GuardLocalExpr
)

// Guard is one SELECT/SELECT_NONDET/LOOP branch guard.
type Guard struct {
	Kind GuardKind

	// GuardBool: a pure boolean-wire expression (package prs).
	Expr *prs.Expr

	// GuardProbe: probe(c) tests whether the opposite side of ChanOffset is
	// already blocked without committing to the transfer; ProbeSend selects
	// which side this actor is testing as (spec.md §4.6 "Probes").
	ChanOffset state.GlobalOffset
	ProbeSend  bool

	// GuardLocalExpr: an integer CHP expression over a user function's local
	// frame, true when non-zero (spec.md §4.10 "User functions").
	LocalExpr *Expr
}

// BoolGuard, ProbeGuard and LocalGuard are convenience constructors.
func BoolGuard(e *prs.Expr) *Guard { return &Guard{Kind: GuardBool, Expr: e} }
func ProbeGuard(chanOffset state.GlobalOffset, isSend bool) *Guard {
	return &Guard{Kind: GuardProbe, ChanOffset: chanOffset, ProbeSend: isSend}
}
func LocalGuard(e *Expr) *Guard { return &Guard{Kind: GuardLocalExpr, LocalExpr: e} }

// GuardedStmt pairs a guard with its branch body for
// SELECT/SELECT_NONDET/LOOP.
type GuardedStmt struct {
	Guard *Guard // nil means "else"/unconditional
	Body  *Stmt
}

// FuncArg is one FUNC statement argument: either a string literal preserved
// verbatim, or a CHP expression lowered into the expression IR (spec.md
// §4.9 "FUNC(name, args): compiled argument list — strings preserved,
// expressions lowered into the CHP expression IR").
type FuncArg struct {
	Str  string
	Expr *Expr // nil when this argument is a string literal
}

// StrArg and ExprArg are convenience constructors for FuncArg.
func StrArg(s string) FuncArg { return FuncArg{Str: s} }
func ExprArg(e *Expr) FuncArg { return FuncArg{Expr: e} }

// Stmt is the input statement tree. As with Node, one tagged struct serves
// every kind; only the fields relevant to Kind are populated.
type Stmt struct {
	Kind     StmtKind
	Children []*Stmt // SEMI, COMMA
	Branches []GuardedStmt // SELECT, SELECT_NONDET, LOOP (one unconditional branch), DOLOOP

	Target   DerefDesc
	RHS      *Expr
	IsStruct bool

	ChanOffset state.GlobalOffset
	ValueExpr  *Expr
	RecvInto   *DerefDesc
	IsBidir    bool
	ChanWidth  uint
	Fragmented bool

	FuncName string
	FuncArgs []FuncArg
}

// builder accumulates node IDs and label bindings while lowering one Stmt
// tree into a Graph (spec.md §4.9).
type builder struct {
	nextID int
	labels map[string]*Node
}

// Build lowers stmt into a Graph rooted at a single entry node with a
// single terminal Stop node, computing the pc-slot pool size
// (spec.md §4.9).
func Build(stmt *Stmt, defaultDelay, defaultBWCost int64) *Graph {
	b := &builder{labels: make(map[string]*Node)}
	stop := &Node{ID: b.alloc(), Kind: NStop}
	entry := b.lower(stmt, stop, defaultDelay, defaultBWCost)
	g := &Graph{Entry: entry, Labels: b.labels}
	g.MaxPCs = maxPCs(entry, make(map[*Node]int))
	return g
}

func (b *builder) alloc() int {
	id := b.nextID
	b.nextID++
	return id
}

// lower compiles stmt, threading its successor(s) to tail, and returns the
// entry node of the compiled fragment.
func (b *builder) lower(stmt *Stmt, tail *Node, delay, bw int64) *Node {
	if stmt == nil {
		return tail
	}
	switch stmt.Kind {
	case SSkip:
		return tail

	case SSemi:
		// SEMI([s1..sn]): chain next pointers (spec.md §4.9).
		next := tail
		for i := len(stmt.Children) - 1; i >= 0; i-- {
			next = b.lower(stmt.Children[i], next, delay, bw)
		}
		return next

	case SComma:
		// COMMA with n>1: a FORK node plus a join carrying a wait count and
		// a unique totidx (spec.md §4.9).
		join := &Node{ID: b.alloc(), Kind: NJoin, JoinWait: len(stmt.Children), JoinTotIdx: b.alloc(), Next: tail}
		fork := &Node{ID: b.alloc(), Kind: NFork, JoinNode: join}
		for _, c := range stmt.Children {
			fork.Branches = append(fork.Branches, b.lower(c, join, delay, bw))
		}
		return fork

	case SSelect, SSelectNondet:
		n := &Node{ID: b.alloc(), Kind: NCond, Delay: simkernel.VTime(delay), BWCost: simkernel.VTime(bw)}
		if stmt.Kind == SSelectNondet {
			n.Kind = NCondArb
		}
		for _, br := range stmt.Branches {
			n.Guards = append(n.Guards, br.Guard)
			n.Succs = append(n.Succs, b.lower(br.Body, tail, delay, bw))
		}
		return n

	case SLoop:
		n := &Node{ID: b.alloc(), Kind: NLoop, LoopBack: true, Delay: simkernel.VTime(delay), BWCost: simkernel.VTime(bw)}
		if len(stmt.Branches) == 0 {
			// An empty body gets a NOP with delay=1 that is always marked as
			// the infinite-loop watchdog: stepping it logs a warning and ends
			// the thread.
			nop := &Node{ID: b.alloc(), Kind: NNop, Delay: 1, IsWatchdog: true, Message: "infinite loop (empty LOOP body)"}
			nop.Next = nop
			return nop
		}
		for _, br := range stmt.Branches {
			n.Guards = append(n.Guards, br.Guard)
			n.Succs = append(n.Succs, b.lower(br.Body, n, delay, bw))
		}
		return n

	case SDoLoop:
		// First iteration runs the body once, then behaves as LOOP
		// (spec.md §4.9). The "body" is still the guarded selection, not a
		// fixed branch, so the first pass is lowered as its own COND node
		// feeding into the steady-state LOOP rather than running
		// Branches[0] unconditionally.
		loopStmt := &Stmt{Kind: SLoop, Branches: stmt.Branches}
		loopNode := b.lower(loopStmt, tail, delay, bw)
		firstPass := &Stmt{Kind: SSelect, Branches: stmt.Branches}
		return b.lower(firstPass, loopNode, delay, bw)

	case SSend:
		n := &Node{
			ID: b.alloc(), Kind: NSend, Next: tail,
			Delay: simkernel.VTime(delay), BWCost: simkernel.VTime(bw),
			ChanOffset: stmt.ChanOffset, ValueExpr: stmt.ValueExpr,
			IsBidir: stmt.IsBidir, ChanWidth: stmt.ChanWidth, Fragmented: stmt.Fragmented,
		}
		return n

	case SRecv:
		n := &Node{
			ID: b.alloc(), Kind: NRecv, Next: tail,
			Delay: simkernel.VTime(delay), BWCost: simkernel.VTime(bw),
			ChanOffset: stmt.ChanOffset, RecvInto: stmt.RecvInto,
			IsBidir: stmt.IsBidir, ChanWidth: stmt.ChanWidth, Fragmented: stmt.Fragmented,
		}
		return n

	case SAssign:
		return &Node{
			ID: b.alloc(), Kind: NAssign, Next: tail,
			Delay: simkernel.VTime(delay), BWCost: simkernel.VTime(bw),
			Target: stmt.Target, RHS: stmt.RHS, IsStruct: stmt.IsStruct,
		}

	case SFunc:
		return &Node{
			ID: b.alloc(), Kind: NFunc, Next: tail,
			Delay: simkernel.VTime(delay), BWCost: simkernel.VTime(bw),
			FuncName: stmt.FuncName, FuncArgs: stmt.FuncArgs,
		}

	default:
		return tail
	}
}
