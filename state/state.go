// Package state implements the global state vector (spec.md §3, §4.3): the
// simulator's only shared mutable store of booleans, wide integers and
// channel records, addressed by flat global offsets, together with the
// fanout table that drives propagation on write.
package state

import (
	"github.com/rmanohar/actsim-go/simkernel"
	"github.com/rmanohar/actsim-go/wideint"
)

// ExclusivityChecker is consulted by SetBool before writing a "special"
// boolean cell (spec.md §4.3 step 1, §4.4). Implemented by package
// constraints; kept as an interface here so state does not import it.
type ExclusivityChecker interface {
	// SafeChange reports whether g may change to v, flushing or denying
	// competing pending events on other members of g's exclusion groups as
	// a side effect (spec.md §4.4).
	SafeChange(g GlobalOffset, v Bit) bool
}

// TimingMonitor observes boolean transitions for timing-fork constraint
// checking (spec.md §4.5). Implemented by package constraints.
type TimingMonitor interface {
	OnTransition(g GlobalOffset, v Bit, now simkernel.VTime)
}

// TraceListener receives a callback for every observable boolean or
// integer change, the "digital_change"/"wide_digital_change" family of
// spec.md §6. Implemented by package glue.
type TraceListener interface {
	BoolChange(g GlobalOffset, now simkernel.VTime, v Bit)
	IntChange(g GlobalOffset, now simkernel.VTime, v wideint.Value)
}

// Vector is the simulator's flat state store. It owns its storage for the
// process lifetime (spec.md §3).
type Vector struct {
	bools   []Bit
	special []bool
	hazard  []bool

	ints []wideint.Value

	chans []ChanState

	boolFanout fanoutTable
	intFanout  fanoutTable

	exclusivity     ExclusivityChecker
	timingMonitors  map[GlobalOffset][]TimingMonitor
	traceListeners  []TraceListener
}

// NewVector allocates a vector with the given number of boolean, integer
// and channel cells. Integer cells start at width 1 and must be widened by
// the caller (e.g. hierarchy wiring) before use.
func NewVector(numBools, numInts, numChans int) *Vector {
	v := &Vector{
		bools:          make([]Bit, numBools),
		special:        make([]bool, numBools),
		hazard:         make([]bool, numBools),
		ints:           make([]wideint.Value, numInts),
		chans:          make([]ChanState, numChans),
		boolFanout:     newFanoutTable(numBools),
		intFanout:      newFanoutTable(numInts),
		timingMonitors: make(map[GlobalOffset][]TimingMonitor),
	}
	for i := range v.bools {
		v.bools[i] = Unknown
	}
	for i := range v.ints {
		v.ints[i] = wideint.X(1)
	}
	return v
}

// SetExclusivityChecker installs the exclusivity (arbiter) checker
// consulted for every "special" boolean write.
func (v *Vector) SetExclusivityChecker(c ExclusivityChecker) { v.exclusivity = c }

// AddTraceListener registers a listener notified of every boolean/integer
// change.
func (v *Vector) AddTraceListener(l TraceListener) { v.traceListeners = append(v.traceListeners, l) }

// AddTimingMonitor attaches a timing-fork monitor to transitions of g.
func (v *Vector) AddTimingMonitor(g GlobalOffset, m TimingMonitor) {
	v.timingMonitors[g] = append(v.timingMonitors[g], m)
}

// MarkSpecial flags g as subject to the exclusivity constraint.
func (v *Vector) MarkSpecial(g GlobalOffset) { v.special[g] = true }

// IsSpecial reports whether g is subject to the exclusivity constraint.
func (v *Vector) IsSpecial(g GlobalOffset) bool { return v.special[g] }

// SetHazard marks/clears g's hazard flag.
func (v *Vector) SetHazard(g GlobalOffset, on bool) { v.hazard[g] = on }

// Hazard reports g's hazard flag.
func (v *Vector) Hazard(g GlobalOffset) bool { return v.hazard[g] }

// GetBool returns the current value of boolean cell g.
func (v *Vector) GetBool(g GlobalOffset) Bit { return v.bools[g] }

// SetBool implements the hot path of spec.md §4.3:
//  1. if g is special, attempt the exclusivity check; deny without writing
//     on failure.
//  2. run attached timing-fork monitors for the transition.
//  3. store v.
//  4. notify every actor in fanout(g, bool).
//
// Section 5's ordering guarantee ("all fanout propagate calls complete
// before set_bool returns") is implemented by running step 4 synchronously
// within this call rather than leaving it to the caller, resolving the
// apparent tension between §4.3's "caller-side" phrasing and §5's
// invariant in favor of the testable property (see DESIGN.md).
func (v *Vector) SetBool(g GlobalOffset, val Bit, now simkernel.VTime) bool {
	old := v.bools[g]
	if old == val {
		return true
	}

	if val != Unknown && v.special[g] && v.exclusivity != nil {
		if !v.exclusivity.SafeChange(g, val) {
			return false
		}
	}

	for _, m := range v.timingMonitors[g] {
		m.OnTransition(g, val, now)
	}

	v.bools[g] = val

	for _, l := range v.traceListeners {
		l.BoolChange(g, now, val)
	}

	for _, actor := range v.boolFanout.get(g) {
		actor.Propagate(g)
	}

	return true
}

// GetInt returns the current value of integer cell g.
func (v *Vector) GetInt(g GlobalOffset) wideint.Value { return v.ints[g] }

// SetInt stores val at integer cell g and notifies fanout.
func (v *Vector) SetInt(g GlobalOffset, val wideint.Value, now simkernel.VTime) {
	v.ints[g] = val

	for _, l := range v.traceListeners {
		l.IntChange(g, now, val)
	}

	for _, actor := range v.intFanout.get(g) {
		actor.Propagate(g)
	}
}

// GetChan returns a mutable pointer to channel cell g's rendezvous record.
func (v *Vector) GetChan(g GlobalOffset) *ChanState { return &v.chans[g] }

// IncBoolFanout registers actor to be notified when boolean cell g
// changes. Idempotent over the last few insertions (spec.md §4.3).
func (v *Vector) IncBoolFanout(g GlobalOffset, actor FanoutTarget) { v.boolFanout.incFanout(g, actor) }

// IncIntFanout registers actor to be notified when integer cell g changes.
func (v *Vector) IncIntFanout(g GlobalOffset, actor FanoutTarget) { v.intFanout.incFanout(g, actor) }

// BoolFanoutCapacity reports the tracked allocated capacity of g's
// boolean fanout list once it has promoted past the small-list
// representation (spec.md §3), or 0 if it never promoted. Exposed for
// testing the geometric-growth invariant.
func (v *Vector) BoolFanoutCapacity(g GlobalOffset) int { return v.boolFanout.AllocatedCapacity(g) }

// NumBools, NumInts, NumChans report the vector's fixed cell counts.
func (v *Vector) NumBools() int { return len(v.bools) }
func (v *Vector) NumInts() int  { return len(v.ints) }
func (v *Vector) NumChans() int { return len(v.chans) }
