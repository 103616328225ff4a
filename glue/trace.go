// Package glue implements the cross-level wiring spec.md §4.11/§6 assigns
// to "the core touches but does not own": trace-event emission, the
// external-function dispatch table, channel-fragment method compilation,
// and the analog DAC/ADC bridge. Nothing here drives simulation itself;
// it all hangs off package state's hooks (TraceListener, FanoutTarget) and
// package chp's extern dispatch field.
package glue

import (
	"log/slog"

	"github.com/rs/xid"

	"github.com/rmanohar/actsim-go/simkernel"
	"github.com/rmanohar/actsim-go/state"
	"github.com/rmanohar/actsim-go/wideint"
)

// Custom log levels above slog.LevelWarn, the way the teacher's core/util.go
// adds LevelTrace/LevelWaveform above slog.LevelInfo: a runtime-semantic
// warning (spec.md §7) logs at LevelWarn; a genuinely unstable/racy
// transition (weak interference, weak-unstable) logs one notch above it so
// it can be filtered independently.
const LevelUnstable slog.Level = slog.LevelWarn + 1

// NodeID identifies a traced signal to a trace back-end. Issued at
// registration time (spec.md §6), never derived from the GlobalOffset so a
// back-end can rename/reorder without touching the state vector.
type NodeID string

// BoolValue is the trace encoding of a boolean cell: spec.md §6's
// {FALSE, TRUE, X} sentinel set, kept distinct from state.Bit so a trace
// sink never needs to import package state.
type BoolValue int

const (
	TraceFalse BoolValue = iota
	TraceTrue
	TraceX
)

func boolValueOf(b state.Bit) BoolValue {
	switch b {
	case state.Zero:
		return TraceFalse
	case state.One:
		return TraceTrue
	default:
		return TraceX
	}
}

// ChanValue is the trace encoding of a channel's rendezvous state (spec.md
// §6): {IDLE, SEND_BLOCKED, RECV_BLOCKED, VALUE}, with an optional wide-limb
// payload attached when the state is ChanValueState.
type ChanValue int

const (
	ChanIdle ChanValue = iota
	ChanSendBlocked
	ChanRecvBlocked
	ChanValueState
)

// Format identifies one of the (up to three) trace streams that may be
// open simultaneously (spec.md §6).
type Format int

const (
	FormatA Format = iota
	FormatB
	FormatC
	numFormats
)

// Sink receives trace callbacks for one open format stream. The alt-time
// methods carry the same event but with time expressed as wideint limbs
// instead of a plain VTime, for a back-end that tracks time as a big
// integer (spec.md §6 "a parallel alt-time family").
type Sink interface {
	DigitalChange(node NodeID, now simkernel.VTime, v BoolValue)
	WideDigitalChange(node NodeID, now simkernel.VTime, limbs []uint64)
	ChanChange(node NodeID, now simkernel.VTime, st ChanValue, limbs []uint64)

	DigitalChangeAltTime(node NodeID, limbs []uint64, v BoolValue)
	WideDigitalChangeAltTime(node NodeID, timeLimbs, valueLimbs []uint64)
	ChanChangeAltTime(node NodeID, timeLimbs []uint64, st ChanValue, valueLimbs []uint64)
}

// Registry issues NodeIDs for traced cells and fans callbacks out to up to
// three concurrently open format streams, each independently mutable via a
// per-watchpoint bitmask (spec.md §6). It implements state.TraceListener,
// so installing it is a single Vector.AddTraceListener(registry) call.
type Registry struct {
	log *slog.Logger

	boolNodes map[state.GlobalOffset]NodeID
	intNodes  map[state.GlobalOffset]NodeID

	sinks [numFormats]Sink
	// mute[f] holds the set of GlobalOffsets muted on format f (spec.md §6
	// "individually muted via a per-watchpoint bitmask" — a set serves the
	// same selective-mute role without committing to a fixed-width word).
	mute [numFormats]map[state.GlobalOffset]bool
}

// NewRegistry constructs an empty trace registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		log:       logger,
		boolNodes: make(map[state.GlobalOffset]NodeID),
		intNodes:  make(map[state.GlobalOffset]NodeID),
	}
	for f := range r.mute {
		r.mute[f] = make(map[state.GlobalOffset]bool)
	}
	return r
}

// RegisterBool/RegisterInt issue a fresh NodeID for g, the "registration
// time" spec.md §6 says node identifiers are minted at.
func (r *Registry) RegisterBool(g state.GlobalOffset) NodeID {
	id := NodeID(xid.New().String())
	r.boolNodes[g] = id
	return id
}

func (r *Registry) RegisterInt(g state.GlobalOffset) NodeID {
	id := NodeID(xid.New().String())
	r.intNodes[g] = id
	return id
}

// OpenStream installs sink as the listener for format f, replacing any
// previous sink on that stream.
func (r *Registry) OpenStream(f Format, sink Sink) {
	if f < 0 || f >= numFormats {
		r.log.Warn("glue: trace stream failure, ignoring open on out-of-range format", "format", f)
		return
	}
	r.sinks[f] = sink
}

// CloseStream mutes format f by detaching its sink (spec.md §7
// "trace-back-end failures: muting that format stream and continuing").
func (r *Registry) CloseStream(f Format) {
	if f < 0 || f >= numFormats {
		return
	}
	r.sinks[f] = nil
}

// Mute/Unmute toggle delivery of g's events on format f without closing
// the whole stream.
func (r *Registry) Mute(f Format, g state.GlobalOffset)   { r.mute[f][g] = true }
func (r *Registry) Unmute(f Format, g state.GlobalOffset) { delete(r.mute[f], g) }

func limbsOf(v wideint.Value) []uint64 {
	words := v.BigInt().Bits()
	out := make([]uint64, len(words))
	for i, w := range words {
		out[i] = uint64(w)
	}
	return out
}

func timeLimbs(t simkernel.VTime) []uint64 {
	return []uint64{uint64(t)}
}

// BoolChange implements state.TraceListener.
func (r *Registry) BoolChange(g state.GlobalOffset, now simkernel.VTime, v state.Bit) {
	node, ok := r.boolNodes[g]
	if !ok {
		return
	}
	bv := boolValueOf(v)
	for f, sink := range r.sinks {
		if sink == nil || r.mute[f][g] {
			continue
		}
		func() {
			defer r.recoverSink(Format(f))
			sink.DigitalChange(node, now, bv)
			sink.DigitalChangeAltTime(node, timeLimbs(now), bv)
		}()
	}
}

// IntChange implements state.TraceListener.
func (r *Registry) IntChange(g state.GlobalOffset, now simkernel.VTime, v wideint.Value) {
	node, ok := r.intNodes[g]
	if !ok {
		return
	}
	limbs := limbsOf(v)
	for f, sink := range r.sinks {
		if sink == nil || r.mute[f][g] {
			continue
		}
		func() {
			defer r.recoverSink(Format(f))
			sink.WideDigitalChange(node, now, limbs)
			sink.WideDigitalChangeAltTime(node, timeLimbs(now), limbs)
		}()
	}
}

// ChanChange reports a channel rendezvous-state transition to every open,
// unmuted stream. Callers (package simulator, driving the channel
// protocol) supply the ChanValue and optional payload directly since
// package state does not itself classify a ChanState into this enum.
func (r *Registry) ChanChange(g state.GlobalOffset, now simkernel.VTime, st ChanValue, payload wideint.Value) {
	node, ok := r.intNodes[g]
	if !ok {
		node, ok = r.boolNodes[g]
		if !ok {
			return
		}
	}
	var limbs []uint64
	if st == ChanValueState {
		limbs = limbsOf(payload)
	}
	for f, sink := range r.sinks {
		if sink == nil || r.mute[f][g] {
			continue
		}
		func() {
			defer r.recoverSink(Format(f))
			sink.ChanChange(node, now, st, limbs)
			sink.ChanChangeAltTime(node, timeLimbs(now), st, limbs)
		}()
	}
}

// recoverSink implements spec.md §7's trace-back-end failure policy: a
// sink that panics only mutes its own stream, it never takes down the
// simulation.
func (r *Registry) recoverSink(f Format) {
	if rec := recover(); rec != nil {
		r.log.Warn("glue: trace sink panicked, muting stream", "format", f, "recovered", rec)
		r.sinks[f] = nil
	}
}
