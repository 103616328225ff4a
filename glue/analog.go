package glue

import (
	"math"

	"github.com/rmanohar/actsim-go/simkernel"
	"github.com/rmanohar/actsim-go/state"
	"github.com/rmanohar/actsim-go/wideint"
)

// DACNotifier is the outward half of the analog bridge (spec.md §6): a
// DAC(var -> external) notification fired on every boolean change for a
// bridged signal, carrying the post-change value.
type DACNotifier interface {
	DAC(g state.GlobalOffset, now simkernel.VTime, v bool)
}

// ConfirmedTimeSource reports the analog simulator's confirmed virtual
// time, the ceiling the digital core may advance to (spec.md §6 "the
// bridge owns time reconciliation").
type ConfirmedTimeSource interface {
	ConfirmedTime() simkernel.VTime
}

// AnalogBridge implements state.TraceListener but only acts on the subset
// of boolean cells explicitly marked Bridge()'d; every other change passes
// through untouched. It is the home for both halves of spec.md §6's
// analog-bridge contract: DAC notification outward, ADC injection inward.
type AnalogBridge struct {
	vec      *state.Vector
	notifier DACNotifier
	source   ConfirmedTimeSource

	bridged map[state.GlobalOffset]bool
}

// NewAnalogBridge constructs a bridge writing into vec. notifier may be nil
// (no outward DAC delivery); source may be nil (no advance ceiling, i.e. no
// analog simulator attached).
func NewAnalogBridge(vec *state.Vector, notifier DACNotifier, source ConfirmedTimeSource) *AnalogBridge {
	return &AnalogBridge{vec: vec, notifier: notifier, source: source, bridged: make(map[state.GlobalOffset]bool)}
}

// Bridge marks g as analog-bridged: its boolean transitions are forwarded
// outward via DAC, and it becomes a legal target for ADC injection.
func (b *AnalogBridge) Bridge(g state.GlobalOffset) { b.bridged[g] = true }

// BoolChange implements state.TraceListener, filtering to bridged cells
// and dropping the X value (spec.md §6's DAC payload is a plain bool).
func (b *AnalogBridge) BoolChange(g state.GlobalOffset, now simkernel.VTime, v state.Bit) {
	if !b.bridged[g] || v == state.Unknown || b.notifier == nil {
		return
	}
	b.notifier.DAC(g, now, v == state.One)
}

// IntChange implements state.TraceListener; the analog bridge of spec.md
// §6 only ever carries boolean values.
func (b *AnalogBridge) IntChange(state.GlobalOffset, simkernel.VTime, wideint.Value) {}

// ADC is the inward callback: it writes v into g and lets Vector.SetBool's
// synchronous fanout propagate the change (spec.md §6 "writes a boolean
// into the state vector and triggers fanout").
func (b *AnalogBridge) ADC(g state.GlobalOffset, v bool, now simkernel.VTime) {
	bit := state.Zero
	if v {
		bit = state.One
	}
	b.vec.SetBool(g, bit, now)
}

// AdvanceCeiling reports the latest virtual time the digital core may
// advance to: the analog simulator's last confirmed time, or no ceiling
// (math.MaxInt64) when no analog simulator is attached.
func (b *AnalogBridge) AdvanceCeiling() simkernel.VTime {
	if b.source == nil {
		return simkernel.VTime(math.MaxInt64)
	}
	return b.source.ConfirmedTime()
}
