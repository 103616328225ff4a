package prs

import (
	"log/slog"

	"github.com/rmanohar/actsim-go/simkernel"
	"github.com/rmanohar/actsim-go/state"
)

// GateKind selects the pass/transmission-gate flavor of spec.md §4.8.
type GateKind int

const (
	PassN GateKind = iota // n-type pass transistor: conducts when gate == 1
	PassP                 // p-type pass transistor: conducts when gate == 1 (on _g's inverse sense)
	TGate                 // transmission gate: conducts when g == 1 and _g == 0
)

// PassGate models PASSN(g, s, d), PASSP(g, s, d) and TGATE(g, _g, s, d):
// fanout spans the gate control(s) and the driven source, and on any change
// the effective driven value is recomputed and scheduled exactly like a
// Node's up/dn dispatch (spec.md §4.8).
type PassGate struct {
	Kind           GateKind
	G, GBar, S, D  state.GlobalOffset
	Delay          simkernel.VTime

	vec *state.Vector
	eng *simkernel.Engine
	log *slog.Logger

	hasPending    bool
	pendingValue  state.Bit
	pendingHandle simkernel.Handle
}

// NewPassGate constructs a pass/transmission gate driving D from S.
func NewPassGate(kind GateKind, g, gbar, s, d state.GlobalOffset, vec *state.Vector, eng *simkernel.Engine, delay simkernel.VTime, logger *slog.Logger) *PassGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &PassGate{Kind: kind, G: g, GBar: gbar, S: s, D: d, Delay: delay, vec: vec, eng: eng, log: logger}
}

func (p *PassGate) conducting() bool {
	switch p.Kind {
	case PassN, PassP:
		return p.vec.GetBool(p.G) == state.One
	default: // TGate
		return p.vec.GetBool(p.G) == state.One && p.vec.GetBool(p.GBar) == state.Zero
	}
}

// Propagate implements state.FanoutTarget.
func (p *PassGate) Propagate(state.GlobalOffset) {
	now := p.eng.Now()
	if !p.conducting() {
		p.schedule(now, state.Unknown)
		return
	}
	p.schedule(now, p.vec.GetBool(p.S))
}

func (p *PassGate) schedule(now simkernel.VTime, v state.Bit) {
	if p.hasPending && p.pendingValue == v {
		return
	}
	if p.hasPending {
		p.eng.Remove(p.pendingHandle)
		p.log.Log(nil, LevelUnstable, "pass-gate instability: pending event superseded before it fired")
		p.pendingValue = state.Unknown
		p.pendingHandle = p.eng.NewEvent(p, simkernel.Tag{Flag: int(state.Unknown)}, 1)
		return
	}
	p.hasPending = true
	p.pendingValue = v
	p.pendingHandle = p.eng.NewEvent(p, simkernel.Tag{Flag: int(v)}, p.Delay)
}

// Step implements simkernel.Steppable.
func (p *PassGate) Step(now simkernel.VTime, tag simkernel.Tag) simkernel.Disposition {
	v := state.Bit(tag.Flag)
	if !p.hasPending || v != p.pendingValue {
		return simkernel.Continue
	}
	p.hasPending = false
	p.vec.SetBool(p.D, v, now)
	return simkernel.Continue
}

// HasPendingTo/FlushPending implement constraints.PendingSource.
func (p *PassGate) HasPendingTo(v state.Bit) bool { return p.hasPending && p.pendingValue == v }
func (p *PassGate) FlushPending() {
	if !p.hasPending {
		return
	}
	p.eng.Remove(p.pendingHandle)
	p.hasPending = false
}

// InputVars reports the gate's control and source pins for fanout
// registration.
func (p *PassGate) InputVars() []state.GlobalOffset {
	vars := []state.GlobalOffset{p.G, p.S}
	if p.Kind == TGate {
		vars = append(vars, p.GBar)
	}
	return vars
}

// MultiPrs aggregates several independently-driven contributions (e.g.
// multiple pass gates or PRS nodes) onto a single target, per spec.md §4.8
// "Multi-driver nodes aggregate contributions through a MultiPrs node that
// combines drivers and feeds a single target." A driver contributes
// Unknown when it is not currently conducting; the aggregate is the OR of
// all One contributions, the AND (as "all Zero") of all Zero contributions,
// and Unknown (with an interference warning) when drivers disagree.
type MultiPrs struct {
	Target state.GlobalOffset
	Delay  simkernel.VTime

	vec *state.Vector
	eng *simkernel.Engine
	log *slog.Logger

	drivers []func() state.Bit

	hasPending    bool
	pendingValue  state.Bit
	pendingHandle simkernel.Handle
}

// NewMultiPrs constructs a multi-driver aggregator for target.
func NewMultiPrs(target state.GlobalOffset, vec *state.Vector, eng *simkernel.Engine, delay simkernel.VTime, logger *slog.Logger) *MultiPrs {
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiPrs{Target: target, Delay: delay, vec: vec, eng: eng, log: logger}
}

// AddDriver registers one contributing driver's current-value function.
func (m *MultiPrs) AddDriver(read func() state.Bit) { m.drivers = append(m.drivers, read) }

// Propagate implements state.FanoutTarget.
func (m *MultiPrs) Propagate(state.GlobalOffset) {
	now := m.eng.Now()
	sawZero, sawOne := false, false
	for _, d := range m.drivers {
		switch d() {
		case state.Zero:
			sawZero = true
		case state.One:
			sawOne = true
		}
	}
	switch {
	case sawZero && sawOne:
		m.log.Log(nil, LevelUnstable, "multi-driver interference: conflicting drivers", "target", m.Target)
		m.schedule(now, state.Unknown)
	case sawOne:
		m.schedule(now, state.One)
	case sawZero:
		m.schedule(now, state.Zero)
	default:
		m.schedule(now, state.Unknown)
	}
}

func (m *MultiPrs) schedule(now simkernel.VTime, v state.Bit) {
	if m.hasPending && m.pendingValue == v {
		return
	}
	if m.hasPending {
		m.eng.Remove(m.pendingHandle)
		m.pendingValue = state.Unknown
		m.pendingHandle = m.eng.NewEvent(m, simkernel.Tag{Flag: int(state.Unknown)}, 1)
		return
	}
	m.hasPending = true
	m.pendingValue = v
	m.pendingHandle = m.eng.NewEvent(m, simkernel.Tag{Flag: int(v)}, m.Delay)
}

// Step implements simkernel.Steppable.
func (m *MultiPrs) Step(now simkernel.VTime, tag simkernel.Tag) simkernel.Disposition {
	v := state.Bit(tag.Flag)
	if !m.hasPending || v != m.pendingValue {
		return simkernel.Continue
	}
	m.hasPending = false
	m.vec.SetBool(m.Target, v, now)
	return simkernel.Continue
}
