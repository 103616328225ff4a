package rendezvous

import (
	"github.com/rmanohar/actsim-go/simkernel"
	"github.com/rmanohar/actsim-go/state"
	"github.com/rmanohar/actsim-go/wideint"
)

// FragOpCode names one instruction of the fragmented-channel step VM
// (spec.md §4.7).
type FragOpCode int

const (
	OpSkip FragOpCode = iota
	OpBoolT
	OpBoolF
	OpSelf
	OpSelfAck
	OpGoto
	OpSel
)

// FragOp is one straight-line instruction of a compiled fragment method
// program. Eval/Cond are closures the graph builder (package chp) bakes in
// at elaboration time so this package never needs to know how to evaluate a
// CHP expression.
type FragOp struct {
	Code   FragOpCode
	Var    state.GlobalOffset    // BOOL_T / BOOL_F target
	Eval   func() wideint.Value  // SELF / SELFACK source
	Cond   func() bool           // SEL guard
	Target int                   // GOTO / SEL
}

// FragMethod is one compiled method (e.g. the straight-line program behind
// SEND_UP) as a flat instruction slice addressed by index.
type FragMethod []FragOp

// ActionKind names one of the ten fragmented-channel methods spec.md §4.7
// lists (SEND_INIT, RECV_INIT, SET, GET, SEND_UP, SEND_REST, RECV_UP,
// RECV_REST, SEND_PROBE, RECV_PROBE).
type ActionKind int

const (
	ActionSendInit ActionKind = iota
	ActionRecvInit
	ActionSet
	ActionGet
	ActionSendUp
	ActionSendRest
	ActionRecvUp
	ActionRecvRest
	ActionSendProbe
	ActionRecvProbe
	numActions
)

// Methods holds the compiled program for each ActionKind of one fragmented
// channel type.
type Methods struct {
	Programs [numActions]FragMethod
}

// RunMethod executes prog starting at instruction pc, writing BOOL_T/BOOL_F
// results into vec and SELF/SELFACK results into cs, until it either falls
// off the end (returns -1, "method complete") or a backwards SEL with a
// false guard forces it to suspend (returns the resumption index, spec.md
// §4.7 "run_method").
func RunMethod(prog FragMethod, pc int, vec *state.Vector, now simkernel.VTime, cs *state.ChanState) int {
	for {
		if pc < 0 || pc >= len(prog) {
			return -1
		}
		op := prog[pc]
		switch op.Code {
		case OpSkip:
			pc++
		case OpBoolT:
			vec.SetBool(op.Var, state.One, now)
			pc++
		case OpBoolF:
			vec.SetBool(op.Var, state.Zero, now)
			pc++
		case OpSelf:
			cs.DataForRecv = state.MultiValue{Leaves: []wideint.Value{op.Eval()}}
			pc++
		case OpSelfAck:
			cs.DataForSend = state.MultiValue{Leaves: []wideint.Value{op.Eval()}}
			pc++
		case OpGoto:
			pc = op.Target
		case OpSel:
			if op.Cond() {
				pc++
			} else if op.Target <= pc {
				return op.Target // backwards jump on a false guard: suspend here
			} else {
				pc = op.Target
			}
		}
	}
}

// sendSequence/recvSequence are the fixed method orders spec.md §4.7 gives
// for driving a full (non-probe) fragmented send/receive to completion.
var sendSequence = []ActionKind{ActionSet, ActionSendUp, ActionSendRest}
var recvSequence = []ActionKind{ActionGet, ActionRecvUp, ActionRecvRest}

// DriveSend advances the sender's fragmented-method sequence by one
// runnable step, using cs.SFragSt/cs.SUFragSt as the (method index,
// micro-pc) resumption state. It returns true once SEND_REST has fully
// completed.
func (m *Methods) DriveSend(vec *state.Vector, now simkernel.VTime, cs *state.ChanState) bool {
	for cs.SFragSt < len(sendSequence) {
		kind := sendSequence[cs.SFragSt]
		resume := RunMethod(m.Programs[kind], cs.SUFragSt, vec, now, cs)
		if resume >= 0 {
			cs.SUFragSt = resume
			return false
		}
		cs.SUFragSt = 0
		cs.SFragSt++
	}
	cs.SFragSt = 0
	return true
}

// DriveRecv is DriveSend's receiver-side counterpart.
func (m *Methods) DriveRecv(vec *state.Vector, now simkernel.VTime, cs *state.ChanState) bool {
	for cs.RFragSt < len(recvSequence) {
		kind := recvSequence[cs.RFragSt]
		resume := RunMethod(m.Programs[kind], cs.RUFragSt, vec, now, cs)
		if resume >= 0 {
			cs.RUFragSt = resume
			return false
		}
		cs.RUFragSt = 0
		cs.RFragSt++
	}
	cs.RFragSt = 0
	return true
}

// RunSendProbe/RunRecvProbe run the single-shot SEND_PROBE/RECV_PROBE
// program to completion (they are not expected to suspend) and report
// whether the probe indicates the rendezvous is currently ready.
func (m *Methods) RunSendProbe(vec *state.Vector, now simkernel.VTime, cs *state.ChanState) bool {
	return RunMethod(m.Programs[ActionSendProbe], 0, vec, now, cs) < 0
}

func (m *Methods) RunRecvProbe(vec *state.Vector, now simkernel.VTime, cs *state.ChanState) bool {
	return RunMethod(m.Programs[ActionRecvProbe], 0, vec, now, cs) < 0
}
