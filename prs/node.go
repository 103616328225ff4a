package prs

import (
	"log/slog"

	"github.com/rmanohar/actsim-go/simkernel"
	"github.com/rmanohar/actsim-go/state"
)

// LevelUnstable sits above slog.LevelWarn, the way the teacher's trace
// scaffolding layers custom verbosity levels on top of the standard ones,
// for interference/instability diagnostics that are semantically warnings
// but belong to a distinct, filterable class (spec.md §7, §4.8).
const LevelUnstable = slog.LevelWarn + 1

// Node is one gate instance: the up/dn normal/weak expression quadruple of
// spec.md §4.8, plus the single pending-event bookkeeping needed to detect
// instability (a second distinct target scheduled before the first fires).
type Node struct {
	Name   string
	Target state.GlobalOffset
	UpNormal, UpWeak, DnNormal, DnWeak *Expr
	Delay  simkernel.VTime

	vec *state.Vector
	eng *simkernel.Engine
	log *slog.Logger

	hasPending    bool
	pendingValue  state.Bit
	pendingHandle simkernel.Handle
}

// NewNode constructs a gate node wired against vec/eng, logging diagnostics
// through logger (slog.Default() if nil).
func NewNode(name string, target state.GlobalOffset, vec *state.Vector, eng *simkernel.Engine, delay simkernel.VTime, logger *slog.Logger) *Node {
	if logger == nil {
		logger = slog.Default()
	}
	return &Node{Name: name, Target: target, vec: vec, eng: eng, Delay: delay, log: logger}
}

// Propagate implements state.FanoutTarget: any VAR input changing re-runs
// the gate's up/dn evaluation and dispatch table.
func (n *Node) Propagate(state.GlobalOffset) {
	n.reevaluate(n.eng.Now())
}

func (n *Node) reevaluate(now simkernel.VTime) {
	u := Eval(n.vec, n.UpNormal)
	if u == state.Zero {
		u = Eval(n.vec, n.UpWeak)
	}
	d := Eval(n.vec, n.DnNormal)
	if d == state.Zero {
		d = Eval(n.vec, n.DnWeak)
	}

	switch {
	case u == state.Zero && d == state.Zero:
		// no change
	case u == state.Zero && (d == state.One || d == state.Unknown):
		n.schedule(now, state.Zero)
	case u == state.One && (d == state.Zero || d == state.Unknown):
		n.schedule(now, state.One)
	case u == state.One && d == state.One:
		n.log.Log(nil, LevelUnstable, "prs interference: both pull-up and pull-down active", "gate", n.Name)
		n.schedule(now, state.Unknown)
	case u == state.Unknown && d == state.Zero:
		n.schedule(now, state.One)
	case u == state.Unknown && d == state.One:
		n.schedule(now, state.Zero)
	default: // X, X
		n.log.Log(nil, LevelUnstable, "prs weak interference: neither rail resolved", "gate", n.Name)
		n.schedule(now, state.Unknown)
	}
}

// schedule implements spec.md §4.8's "Schedule v": idempotent against an
// identical pending target, an instability (cancel + X at delay 1) against
// a conflicting one, and a fresh scheduled write otherwise.
func (n *Node) schedule(now simkernel.VTime, v state.Bit) {
	if n.hasPending && n.pendingValue == v {
		return
	}
	if n.hasPending {
		n.eng.Remove(n.pendingHandle)
		n.log.Log(nil, LevelUnstable, "prs instability: pending event superseded before it fired", "gate", n.Name)
		n.pendingValue = state.Unknown
		n.pendingHandle = n.eng.NewEvent(n, simkernel.Tag{Flag: int(state.Unknown)}, 1)
		return
	}
	n.hasPending = true
	n.pendingValue = v
	n.pendingHandle = n.eng.NewEvent(n, simkernel.Tag{Flag: int(v)}, n.Delay)
}

// Step implements simkernel.Steppable: it fires the pending write, ignoring
// the event if a later reschedule already moved the pending target
// elsewhere (spec.md §4.8: "Clearing the pending flag happens only when the
// event-type matches the current pending value").
func (n *Node) Step(now simkernel.VTime, tag simkernel.Tag) simkernel.Disposition {
	v := state.Bit(tag.Flag)
	if !n.hasPending || v != n.pendingValue {
		return simkernel.Continue
	}
	n.hasPending = false
	n.vec.SetBool(n.Target, v, now)
	return simkernel.Continue
}

// HasPendingTo implements constraints.PendingSource.
func (n *Node) HasPendingTo(v state.Bit) bool {
	return n.hasPending && n.pendingValue == v
}

// FlushPending implements constraints.PendingSource: the arbiter calls this
// on a losing group member once another member has committed to the
// exclusive value (spec.md §4.4).
func (n *Node) FlushPending() {
	if !n.hasPending {
		return
	}
	n.eng.Remove(n.pendingHandle)
	n.hasPending = false
}

// InputVars reports every VAR leaf across the node's four expressions, for
// fanout registration during hierarchy wiring (spec.md §4.11).
func (n *Node) InputVars() []state.GlobalOffset {
	var out []state.GlobalOffset
	out = Vars(n.UpNormal, out)
	out = Vars(n.UpWeak, out)
	out = Vars(n.DnNormal, out)
	out = Vars(n.DnWeak, out)
	return out
}
