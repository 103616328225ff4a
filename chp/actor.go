package chp

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/rmanohar/actsim-go/prs"
	"github.com/rmanohar/actsim-go/rendezvous"
	"github.com/rmanohar/actsim-go/simkernel"
	"github.com/rmanohar/actsim-go/state"
	"github.com/rmanohar/actsim-go/wideint"
)

// ChanBinding supplies, per channel offset a node communicates on, the
// state.ChanState record and (for fragmented channels) the compiled
// fragment-method programs (spec.md §4.7).
type ChanBinding struct {
	State *state.ChanState
	Frag  *rendezvous.Methods
}

// Actor is one CHP process instance: the pc-slot array and free-list of
// spec.md §4.10, stepping a single compiled Graph.
type Actor struct {
	Name  string
	Graph *Graph

	vec *state.Vector
	eng *simkernel.Engine
	log *slog.Logger
	rng *rand.Rand

	chans map[state.GlobalOffset]*ChanBinding

	pcs    []*Node
	holes  []int
	tot    map[int]int
	pcused int

	// probes tracks, per stalled pc slot, the channel probes this actor's
	// last guard scan registered (spec.md §4.10: "release any probe/shared-
	// variable waits added on the previous visit").
	probes map[int][]probeReg

	// logBuf accumulates log_p output until a log_nl/log_st flush (spec.md
	// §4.9 FUNC intrinsics).
	logBuf strings.Builder

	ResetMode bool

	// Extern dispatches an external function call, threaded into every
	// EvalContext this actor builds (spec.md §4.10 "User functions", step
	// 3: "if the function is marked external, look it up in a symbol table
	// and dispatch with flat (width, value) argument tuples").
	Extern func(name string, args []wideint.Value) (wideint.Value, error)

	// Funcs resolves a non-external user function by name (spec.md §4.10
	// "User functions", step 4).
	Funcs map[string]*UserFunc
}

// NewActor constructs an actor ready to run graph, with npc pc slots
// (spec.md §4.9 "max_program_counters" sizes this pool).
func NewActor(name string, graph *Graph, vec *state.Vector, eng *simkernel.Engine, logger *slog.Logger) *Actor {
	if logger == nil {
		logger = slog.Default()
	}
	npc := graph.MaxPCs
	if npc < 1 {
		npc = 1
	}
	a := &Actor{
		Name: name, Graph: graph, vec: vec, eng: eng, log: logger,
		rng:    rand.New(rand.NewSource(1)),
		chans:  make(map[state.GlobalOffset]*ChanBinding),
		pcs:    make([]*Node, npc),
		holes:  make([]int, npc),
		tot:    make(map[int]int),
		probes: make(map[int][]probeReg),
		Funcs:  make(map[string]*UserFunc),
	}
	// Pre-seed the free list with every slot in the precomputed pool,
	// highest index first so allocSlot hands out slot 0 first.
	for i := range a.holes {
		a.holes[i] = npc - 1 - i
	}
	return a
}

// BindChan registers the runtime channel record (and, for fragmented
// channels, the compiled method programs) an actor's SEND/RECV nodes will
// reference by global offset.
func (a *Actor) BindChan(g state.GlobalOffset, cs *state.ChanState, frag *rendezvous.Methods) {
	a.chans[g] = &ChanBinding{State: cs, Frag: frag}
}

// BindFunc registers a non-external user function an EFuncCall/FUNC node
// may resolve to once Extern has been tried and failed (spec.md §4.10
// "User functions").
func (a *Actor) BindFunc(name string, fn *UserFunc) {
	a.Funcs[name] = fn
}

func (a *Actor) allocSlot() int {
	if n := len(a.holes); n > 0 {
		slot := a.holes[n-1]
		a.holes = a.holes[:n-1]
		a.pcused++
		return slot
	}
	a.pcs = append(a.pcs, nil)
	a.pcused++
	return len(a.pcs) - 1
}

func (a *Actor) freeSlot(slot int) {
	a.pcs[slot] = nil
	a.holes = append(a.holes, slot)
	a.pcused--
}

// Start allocates the entry slot and schedules its first step at t=0.
func (a *Actor) Start() {
	slot := a.allocSlot()
	a.pcs[slot] = a.Graph.Entry
	a.eng.NewEvent(a, simkernel.Tag{PC: slot}, 0)
}

// Propagate implements state.FanoutTarget for shared variables a stalled
// guard depends on: it posts a zero-delay wake-up event (Flag=1) for every
// slot currently parked at a COND/CONDARB/LOOP node, so the next Step of
// that slot re-checks its guards (spec.md §4.10 step 3's "MAX_LOCAL_PCS
// dummy event" wake-up path, with the slot index carried in the event tag
// rather than a separate dummy slot).
func (a *Actor) Propagate(state.GlobalOffset) {
	for slot, n := range a.pcs {
		if n != nil && (n.Kind == NCond || n.Kind == NCondArb || n.Kind == NLoop) {
			a.eng.NewEvent(a, simkernel.Tag{PC: slot, Flag: 1}, 0)
		}
	}
}

// Step implements simkernel.Steppable (spec.md §4.10 "step(event)
// algorithm").
func (a *Actor) Step(now simkernel.VTime, tag simkernel.Tag) simkernel.Disposition {
	if a.ResetMode {
		return simkernel.Continue
	}
	slot := tag.PC
	n := a.pcs[slot]
	if n == nil {
		return simkernel.Continue // stale wakeup for an already-freed slot
	}

	forceret := false
	switch n.Kind {
	case NFork:
		for _, branch := range n.Branches {
			bslot := a.allocSlot()
			a.pcs[bslot] = branch
			a.eng.NewEvent(a, simkernel.Tag{PC: bslot}, n.Delay+n.BWCost)
		}
		a.freeSlot(slot)
		return simkernel.Continue

	case NJoin:
		a.tot[n.JoinTotIdx]++
		if a.tot[n.JoinTotIdx] < n.JoinWait {
			a.freeSlot(slot)
			return simkernel.Continue
		}
		delete(a.tot, n.JoinTotIdx)
		n = n.Next

	case NNop:
		if n.IsWatchdog {
			a.log.Warn(n.Message, "actor", a.Name)
			a.freeSlot(slot)
			return simkernel.Continue
		}
		n = n.Next

	case NAssign:
		if err := a.execAssign(n); err != nil {
			a.log.Error("assign failed", "actor", a.Name, "err", err)
		}
		n = n.Next

	case NSend:
		done, err := a.execSend(slot, n, now, tag.Flag == 1)
		if err != nil {
			a.log.Error("send failed", "actor", a.Name, "err", err)
		}
		if !done {
			forceret = true
		} else {
			n = n.Next
		}

	case NRecv:
		done, err := a.execRecv(slot, n, now, tag.Flag == 1)
		if err != nil {
			a.log.Error("recv failed", "actor", a.Name, "err", err)
		}
		if !done {
			forceret = true
		} else {
			n = n.Next
		}

	case NCond, NCondArb, NLoop:
		winner, stall := a.evalGuards(slot, n, tag.Flag == 1)
		if stall {
			// Leave pcs[slot] pointing at n and schedule nothing further:
			// Propagate re-enters Step for this slot once a guard variable
			// changes (spec.md §4.10: "re-arm all probe/shared waits and
			// stall").
			return simkernel.Continue
		}
		n = winner

	case NFunc:
		if err := a.execFunc(n); err != nil {
			a.log.Error("function call failed", "actor", a.Name, "err", err)
			if errors.Is(err, ErrAssertFailed) {
				a.freeSlot(slot)
				return simkernel.Breakpoint
			}
		}
		n = n.Next

	case NStop:
		a.freeSlot(slot)
		return simkernel.Continue
	}

	if forceret {
		return simkernel.Continue
	}
	if n == nil {
		a.freeSlot(slot)
		return simkernel.Continue
	}
	a.pcs[slot] = n
	a.eng.NewEvent(a, simkernel.Tag{PC: slot}, n.Delay+n.BWCost)
	return simkernel.Continue
}

func (a *Actor) ctx() *EvalContext {
	return &EvalContext{
		Vec:    a.vec,
		Extern: a.Extern,
		Funcs:  a.Funcs,
		Warn: func(format string, args ...any) {
			a.log.Warn(fmt.Sprintf(format, args...), "actor", a.Name)
		},
	}
}

func (a *Actor) execAssign(n *Node) error {
	ctx := a.ctx()
	if n.IsStruct {
		rec, err := evalRecord(ctx, n.RHS)
		if err != nil {
			return err
		}
		for i, leaf := range n.Target.Leaves {
			if i >= len(rec.Leaves) {
				break
			}
			a.vec.SetInt(leaf.Offset, rec.Leaves[i].SetWidth(leaf.Width), a.eng.Now())
		}
		return nil
	}
	v, err := Eval(ctx, n.RHS)
	if err != nil {
		return err
	}
	off, err := n.Target.resolvedOffset(ctx)
	if err != nil {
		return err
	}
	a.vec.SetInt(off, v.SetWidth(n.Target.Width), a.eng.Now())
	return nil
}

func (a *Actor) execSend(slot int, n *Node, now simkernel.VTime, wakeup bool) (bool, error) {
	binding, ok := a.chans[n.ChanOffset]
	if !ok {
		return false, fmt.Errorf("chp: no channel bound at offset %d", n.ChanOffset)
	}
	if n.Fragmented && binding.Frag != nil {
		done := binding.Frag.DriveSend(a.vec, now, binding.State)
		return done, nil
	}
	ctx := a.ctx()
	payload := state.MultiValue{}
	if !wakeup {
		v, err := Eval(ctx, n.ValueExpr)
		if err != nil {
			return false, err
		}
		payload = state.MultiValue{Leaves: []wideint.Value{v}}
	}
	res, err := rendezvous.VarSend(a.eng, binding.State, now, slot, wakeup, payload, n.IsBidir, a)
	if err != nil {
		return false, err
	}
	return !res.Blocked, nil
}

func (a *Actor) execRecv(slot int, n *Node, now simkernel.VTime, wakeup bool) (bool, error) {
	binding, ok := a.chans[n.ChanOffset]
	if !ok {
		return false, fmt.Errorf("chp: no channel bound at offset %d", n.ChanOffset)
	}
	if n.Fragmented && binding.Frag != nil {
		done := binding.Frag.DriveRecv(a.vec, now, binding.State)
		return done, nil
	}
	res, err := rendezvous.VarRecv(a.eng, binding.State, now, slot, wakeup, state.MultiValue{}, n.IsBidir, a)
	if err != nil {
		return false, err
	}
	if !res.Blocked && n.RecvInto != nil && len(res.Received.Leaves) > 0 {
		ctx := a.ctx()
		off, err := n.RecvInto.resolvedOffset(ctx)
		if err != nil {
			return true, err
		}
		a.vec.SetInt(off, res.Received.Leaves[0].SetWidth(n.RecvInto.Width), now)
	}
	return !res.Blocked, nil
}

// probeReg records one channel this actor has a live, non-committing probe
// registered on while stalled at a given pc slot (spec.md §4.6 "Probes").
type probeReg struct {
	offset state.GlobalOffset
	isSend bool
}

// releaseProbes withdraws every probe this actor registered the last time
// slot stalled, before re-scanning its guards (spec.md §4.10: "if this is a
// wake-up, first release any probe/shared-variable waits added on the
// previous visit").
func (a *Actor) releaseProbes(slot int) {
	for _, r := range a.probes[slot] {
		if binding, ok := a.chans[r.offset]; ok {
			rendezvous.CancelProbe(binding.State, r.isSend)
		}
	}
	delete(a.probes, slot)
}

// evalGuard reports whether g currently holds. A GuardProbe guard that is
// not yet ready registers a non-committing probe wait on the channel and
// hands the registration back via reg so the caller can track (and later
// release) it.
func (a *Actor) evalGuard(slot int, g *Guard) (ready bool, reg *probeReg) {
	if g == nil {
		return true, nil // "else"/unconditional branch
	}
	switch g.Kind {
	case GuardProbe:
		binding, ok := a.chans[g.ChanOffset]
		if !ok {
			a.log.Warn("probe guard on unbound channel", "actor", a.Name)
			return false, nil
		}
		if binding.Frag != nil {
			// A fragmented channel's SEND_PROBE/RECV_PROBE is a single-shot
			// poll of the method VM (spec.md §4.7): it never suspends, so
			// there is no waiter to register or later release. A false
			// result gets re-checked the ordinary way, through Propagate,
			// once a BOOL_T/BOOL_F it depends on changes.
			if g.ProbeSend {
				return binding.Frag.RunSendProbe(a.vec, a.eng.Now(), binding.State), nil
			}
			return binding.Frag.RunRecvProbe(a.vec, a.eng.Now(), binding.State), nil
		}
		var hit bool
		if g.ProbeSend {
			hit = rendezvous.ProbeSend(binding.State, slot, a)
		} else {
			hit = rendezvous.ProbeRecv(binding.State, slot, a)
		}
		if hit {
			return true, nil
		}
		return false, &probeReg{offset: g.ChanOffset, isSend: g.ProbeSend}
	case GuardBool:
		return prs.Eval(a.vec, g.Expr) == state.One, nil
	default:
		a.log.Warn("guard kind not valid in a process-scope selection", "actor", a.Name)
		return false, nil
	}
}

// evalGuards scans a COND/CONDARB/LOOP's guards, reporting the winning
// successor or stall=true if none are ready (spec.md §4.10).
func (a *Actor) evalGuards(slot int, n *Node, wakeup bool) (winner *Node, stall bool) {
	if wakeup {
		a.releaseProbes(slot)
	}

	var trueIdx []int
	var live []probeReg
	for i, g := range n.Guards {
		ready, reg := a.evalGuard(slot, g)
		if ready {
			trueIdx = append(trueIdx, i)
		}
		if reg != nil {
			live = append(live, *reg)
		}
	}

	if len(trueIdx) == 0 {
		a.probes[slot] = live
		return nil, true
	}

	if len(live) > 0 {
		// Commit: withdraw every probe this scan registered, winning and
		// losing guards alike, and purge any wake-up event a racing
		// rendezvous already queued for this slot before the action fires
		// (spec.md §4.6: "the probe wake-up event is removed before the
		// action fires -- match_pending purges it").
		for _, r := range live {
			if binding, ok := a.chans[r.offset]; ok {
				rendezvous.CancelProbe(binding.State, r.isSend)
			}
		}
		delete(a.probes, slot)
		a.eng.MatchPending(func(target simkernel.Steppable, tag simkernel.Tag) bool {
			other, ok := target.(*Actor)
			return ok && other == a && tag.PC == slot
		})
	}

	if len(trueIdx) > 1 {
		if n.Kind == NCondArb {
			pick := trueIdx[a.rng.Intn(len(trueIdx))]
			return n.Succs[pick], false
		}
		a.log.Warn("multiple true guards on a deterministic select", "actor", a.Name)
	}
	return n.Succs[trueIdx[0]], false
}

// ErrAssertFailed marks a FUNC "assert" intrinsic whose condition evaluated
// to false (spec.md §4.9 "assert").
var ErrAssertFailed = errors.New("chp: assert failed")

// execFunc dispatches a FUNC node: the fixed intrinsics spec.md §4.9 lists
// by name, falling back to external/user-function resolution for anything
// else (spec.md §4.10 "User functions").
func (a *Actor) execFunc(n *Node) error {
	ctx := a.ctx()
	switch n.FuncName {
	case "log":
		msg, err := formatFuncArgs(ctx, n.FuncArgs)
		if err != nil {
			return err
		}
		a.log.Info(msg, "actor", a.Name)
		return nil

	case "log_p":
		msg, err := formatFuncArgs(ctx, n.FuncArgs)
		if err != nil {
			return err
		}
		a.logBuf.WriteString(msg)
		return nil

	case "log_nl":
		msg, err := formatFuncArgs(ctx, n.FuncArgs)
		if err != nil {
			return err
		}
		a.logBuf.WriteString(msg)
		a.log.Info(a.logBuf.String(), "actor", a.Name)
		a.logBuf.Reset()
		return nil

	case "log_st":
		msg, err := formatFuncArgs(ctx, n.FuncArgs)
		if err != nil {
			return err
		}
		a.logBuf.WriteString(msg)
		a.log.Info(a.logBuf.String(), "actor", a.Name, "t", a.eng.Now())
		a.logBuf.Reset()
		return nil

	case "warn":
		msg, err := formatFuncArgs(ctx, n.FuncArgs)
		if err != nil {
			return err
		}
		a.log.Warn(msg, "actor", a.Name)
		return nil

	case "assert":
		return a.execAssert(ctx, n)

	default:
		_, err := evalFuncCall(ctx, &Expr{Kind: EFuncCall, FuncName: n.FuncName, Args: exprArgsOf(n.FuncArgs)})
		return err
	}
}

// execAssert implements the "assert" intrinsic: the first argument is the
// condition (non-zero is true), any remaining arguments are a diagnostic
// message logged on failure.
func (a *Actor) execAssert(ctx *EvalContext, n *Node) error {
	if len(n.FuncArgs) == 0 || n.FuncArgs[0].Expr == nil {
		return fmt.Errorf("chp: assert requires a condition expression")
	}
	v, err := Eval(ctx, n.FuncArgs[0].Expr)
	if err != nil {
		return err
	}
	if v.Cmp(wideint.Zero(v.Width())) == 0 {
		msg, _ := formatFuncArgs(ctx, n.FuncArgs[1:])
		a.log.Error("assertion failed", "actor", a.Name, "msg", msg)
		return ErrAssertFailed
	}
	return nil
}

// formatFuncArgs renders a FUNC intrinsic's argument list: string literals
// pass through verbatim, expressions are evaluated and decimal-printed
// (spec.md §4.9 "FUNC(name, args): strings preserved...").
func formatFuncArgs(ctx *EvalContext, args []FuncArg) (string, error) {
	var b strings.Builder
	for i, arg := range args {
		if i > 0 {
			b.WriteByte(' ')
		}
		if arg.Expr == nil {
			b.WriteString(arg.Str)
			continue
		}
		v, err := Eval(ctx, arg.Expr)
		if err != nil {
			return "", err
		}
		b.WriteString(v.DecPrint())
	}
	return b.String(), nil
}
