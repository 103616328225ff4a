// Package rendezvous implements the channel handshake protocol of spec.md
// §4.6 (plain var_send/var_recv) and §4.7 (the fragmented-channel step VM,
// see fragment.go). It operates purely on state.ChanState and state.Vector;
// the calling actor (package chp) supplies its own simkernel.Steppable so
// the protocol can schedule a wakeup event.
package rendezvous

import (
	"errors"

	"github.com/rmanohar/actsim-go/simkernel"
	"github.com/rmanohar/actsim-go/state"
)

// ErrConcurrentAccess is returned when two parties attempt to block as the
// same side (two senders, or two receivers) of a channel simultaneously —
// a hard program error under the "exactly one sender, one receiver" model
// spec.md §4.6 assumes.
var ErrConcurrentAccess = errors.New("rendezvous: concurrent access from the same side of a channel")

// ErrFlavorDiscipline is returned when a +/- fragmented half-action is
// attempted out of alternation (spec.md §4.6 "flavor discipline").
var ErrFlavorDiscipline = errors.New("rendezvous: +/- flavor discipline violated")

// Result carries what a completed (non-blocking) or woken rendezvous
// handed back to its caller.
type Result struct {
	Blocked  bool
	Received state.MultiValue // var_recv's payload, or var_send's bidirectional reply
}

// VarSend performs one sender-side step of the protocol (spec.md §4.6). pc
// is the sender's current program counter (used to compute the resumption
// point stored in cs.SendPC); wakeupFlag is true when this call is the
// resumption of a previously blocked send, reached via the notification
// event scheduled the first time around.
func VarSend(eng *simkernel.Engine, cs *state.ChanState, now simkernel.VTime, pc int, wakeupFlag bool, payload state.MultiValue, bidir bool, self simkernel.Steppable) (Result, error) {
	if wakeupFlag {
		r := Result{Blocked: false}
		if bidir {
			r.Received = cs.DataForRecv
		}
		cs.SendPC = 0
		cs.SendWaiter = nil
		cs.Count++
		return r, nil
	}

	if cs.SendPC != 0 && !cs.SenderProbe {
		return Result{}, ErrConcurrentAccess
	}

	if cs.IsReceiverWaiting() {
		cs.DataForRecv = payload
		r := Result{Blocked: false}
		if bidir {
			r.Received = cs.DataForSend
		}
		waiter := cs.RecvWaiter
		wakePC := cs.RecvPC - 1
		cs.RecvPC = 0
		cs.RecvWaiter = nil
		cs.Count++
		if waiter != nil {
			eng.NewEvent(waiter, simkernel.Tag{PC: wakePC, Flag: 1}, 0)
		}
		return r, nil
	}

	if cs.ReceiverProbe {
		waiter := cs.RecvWaiter
		wakePC := cs.RecvPC - 1
		cs.ReceiverProbe = false
		cs.RecvPC = 0
		cs.RecvWaiter = nil
		if waiter != nil {
			eng.NewEvent(waiter, simkernel.Tag{PC: wakePC, Flag: 1}, 0)
		}
	}

	cs.DataForSend = payload
	cs.SendPC = pc + 1
	cs.SendWaiter = self
	return Result{Blocked: true}, nil
}

// VarRecv performs one receiver-side step of the protocol, symmetric to
// VarSend (spec.md §4.6 "Symmetric for var_recv"). replyPayload is only
// consulted when bidir is true.
func VarRecv(eng *simkernel.Engine, cs *state.ChanState, now simkernel.VTime, pc int, wakeupFlag bool, replyPayload state.MultiValue, bidir bool, self simkernel.Steppable) (Result, error) {
	if wakeupFlag {
		r := Result{Blocked: false, Received: cs.DataForRecv}
		cs.RecvPC = 0
		cs.RecvWaiter = nil
		cs.Count++
		return r, nil
	}

	if cs.RecvPC != 0 && !cs.ReceiverProbe {
		return Result{}, ErrConcurrentAccess
	}

	if cs.IsSenderWaiting() {
		received := cs.DataForSend
		if bidir {
			cs.DataForRecv = replyPayload
		}
		waiter := cs.SendWaiter
		wakePC := cs.SendPC - 1
		cs.SendPC = 0
		cs.SendWaiter = nil
		cs.Count++
		if waiter != nil {
			eng.NewEvent(waiter, simkernel.Tag{PC: wakePC, Flag: 1}, 0)
		}
		return Result{Blocked: false, Received: received}, nil
	}

	if cs.SenderProbe {
		waiter := cs.SendWaiter
		wakePC := cs.SendPC - 1
		cs.SenderProbe = false
		cs.SendPC = 0
		cs.SendWaiter = nil
		if waiter != nil {
			eng.NewEvent(waiter, simkernel.Tag{PC: wakePC, Flag: 1}, 0)
		}
	}

	if bidir {
		cs.DataForSend = replyPayload
	}
	cs.RecvPC = pc + 1
	cs.RecvWaiter = self
	return Result{Blocked: true}, nil
}

// ProbeSend reports whether a send on cs would complete without blocking,
// registering self as a probe waiter so that a later matching recv can
// cancel it and wake self instead of completing silently (spec.md §4.6
// "probes").
func ProbeSend(cs *state.ChanState, pc int, self simkernel.Steppable) bool {
	if cs.IsReceiverWaiting() {
		return true
	}
	cs.SenderProbe = true
	cs.SendPC = pc + 1
	cs.SendWaiter = self
	return false
}

// ProbeRecv is ProbeSend's receiver-side counterpart.
func ProbeRecv(cs *state.ChanState, pc int, self simkernel.Steppable) bool {
	if cs.IsSenderWaiting() {
		return true
	}
	cs.ReceiverProbe = true
	cs.RecvPC = pc + 1
	cs.RecvWaiter = self
	return false
}

// CancelProbe withdraws a probe registered by ProbeSend/ProbeRecv, e.g.
// when the surrounding CONDARB commits to a different guard.
func CancelProbe(cs *state.ChanState, isSend bool) {
	if isSend {
		cs.SenderProbe = false
		cs.SendPC = 0
		cs.SendWaiter = nil
	} else {
		cs.ReceiverProbe = false
		cs.RecvPC = 0
		cs.RecvWaiter = nil
	}
}

// CheckFlavor enforces the +/- alternation discipline: once either side has
// used a flavor, every subsequent action on either side must alternate
// +, -, +, -, ... (spec.md §4.6). isSend selects which side's last flavor
// to update.
func CheckFlavor(cs *state.ChanState, isSend bool, flavor state.Flavor) error {
	if flavor == state.FlavorNone {
		return nil
	}
	cs.UseFlavors = true
	if isSend {
		if cs.SendFlavor != state.FlavorNone && cs.SendFlavor == flavor {
			return ErrFlavorDiscipline
		}
		cs.SendFlavor = flavor
		return nil
	}
	if cs.RecvFlavor != state.FlavorNone && cs.RecvFlavor == flavor {
		return ErrFlavorDiscipline
	}
	cs.RecvFlavor = flavor
	return nil
}
