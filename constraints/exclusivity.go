// Package constraints implements the exclusivity (arbiter) and timing-fork
// monitors that attach to boolean state cells (spec.md §4.4, §4.5). Both
// are consulted from package state's SetBool hot path through the
// ExclusivityChecker and TimingMonitor interfaces state.go defines.
package constraints

import (
	"math/rand"

	"github.com/rmanohar/actsim-go/simkernel"
	"github.com/rmanohar/actsim-go/state"
)

// Direction distinguishes an exclhi group (members may not simultaneously
// be 1) from an excllo group (members may not simultaneously be 0).
type Direction int

const (
	Hi Direction = iota
	Lo
)

func (d Direction) targetValue() state.Bit {
	if d == Hi {
		return state.One
	}
	return state.Zero
}

func (d Direction) restValue() state.Bit {
	if d == Hi {
		return state.Zero
	}
	return state.One
}

// PendingSource is implemented by the PRS node backing a group member, so
// the arbiter can flush (cancel) a competing pending event once it knows
// that node can no longer legally fire (spec.md §4.4).
type PendingSource interface {
	HasPendingTo(v state.Bit) bool
	FlushPending()
}

// Group is one exclusion group: a set of globals that may not
// simultaneously hold the group's target value, each optionally paired
// with the PRS node whose pending event would drive it there.
type Group struct {
	Direction Direction
	Members   []state.GlobalOffset
	Pending   []PendingSource // parallel to Members; nil entries allowed
}

// Arbiter is the enforcing exclusivity constraint: mk_exclhi/mk_excllo
// groups that deny a write outright when the invariant would be violated
// (spec.md §4.4).
type Arbiter struct {
	vec        *state.Vector
	byMember   map[state.GlobalOffset][]*Group
	randomized bool
	rng        *rand.Rand
}

// NewArbiter constructs an Arbiter reading cell values from vec. When
// randomized is true, a group with multiple members simultaneously able to
// fire to the same value picks one uniformly at random (seeded by seed)
// rather than denying all but the first encountered.
func NewArbiter(vec *state.Vector, randomized bool, seed int64) *Arbiter {
	return &Arbiter{
		vec:        vec,
		byMember:   make(map[state.GlobalOffset][]*Group),
		randomized: randomized,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// AddGroup registers an exclusion group against every one of its members.
func (a *Arbiter) AddGroup(g *Group) {
	for _, m := range g.Members {
		a.byMember[m] = append(a.byMember[m], g)
	}
}

// SafeChange implements state.ExclusivityChecker: it is invoked before
// setting g := v only when v is 0 or 1 (spec.md §4.4).
func (a *Arbiter) SafeChange(g state.GlobalOffset, v state.Bit) bool {
	groups := a.byMember[g]
	if len(groups) == 0 {
		return true
	}

	var relevant []*Group
	for _, grp := range groups {
		if grp.Direction.targetValue() != v {
			continue
		}
		for _, m := range grp.Members {
			if m == g {
				continue
			}
			if a.vec.GetBool(m) != grp.Direction.restValue() {
				return false
			}
		}
		relevant = append(relevant, grp)
	}

	for _, grp := range relevant {
		a.resolveGroup(grp, g, v)
	}
	return true
}

func (a *Arbiter) resolveGroup(grp *Group, g state.GlobalOffset, v state.Bit) {
	if a.randomized {
		var pendingIdx []int
		for i, m := range grp.Members {
			if m == g {
				continue
			}
			if p := grp.Pending[i]; p != nil && p.HasPendingTo(v) {
				pendingIdx = append(pendingIdx, i)
			}
		}
		if len(pendingIdx) > 1 {
			winner := pendingIdx[a.rng.Intn(len(pendingIdx))]
			for _, idx := range pendingIdx {
				if idx != winner {
					grp.Pending[idx].FlushPending()
				}
			}
			return
		}
	}

	for i, m := range grp.Members {
		if m == g {
			continue
		}
		if p := grp.Pending[i]; p != nil {
			p.FlushPending()
		}
	}
}

// Violation describes a mutex violation reported by an observing monitor.
type Violation struct {
	Group     *Group
	Triggered state.GlobalOffset
}

// ObservingMonitor is the non-enforcing exclusivity variant used on
// circuit outputs to flag design bugs: it reports a violation if the
// invariant is already broken rather than denying the write (spec.md
// §4.4).
type ObservingMonitor struct {
	vec      *state.Vector
	byMember map[state.GlobalOffset][]*Group
	Report   func(Violation)
}

// NewObservingMonitor constructs an ObservingMonitor reading values from
// vec and reporting violations through report.
func NewObservingMonitor(vec *state.Vector, report func(Violation)) *ObservingMonitor {
	return &ObservingMonitor{vec: vec, byMember: make(map[state.GlobalOffset][]*Group), Report: report}
}

// AddGroup registers a group to observe.
func (m *ObservingMonitor) AddGroup(g *Group) {
	for _, mem := range g.Members {
		m.byMember[mem] = append(m.byMember[mem], g)
	}
}

// OnTransition implements state.TimingMonitor so an ObservingMonitor can be
// attached the same way a timing-fork monitor is: the hook fires before
// the new value is stored, so m.vec still reflects every other member's
// current value. If the invariant is already broken — some other member of
// a group targeting v already holds v — a violation is reported; unlike
// Arbiter.SafeChange, the write is never denied.
func (m *ObservingMonitor) OnTransition(g state.GlobalOffset, v state.Bit, _ simkernel.VTime) {
	if v != state.Zero && v != state.One {
		return
	}
	for _, grp := range m.byMember[g] {
		if grp.Direction.targetValue() != v {
			continue
		}
		for _, mem := range grp.Members {
			if mem == g {
				continue
			}
			if m.vec.GetBool(mem) == v {
				if m.Report != nil {
					m.Report(Violation{Group: grp, Triggered: g})
				}
				return
			}
		}
	}
}
