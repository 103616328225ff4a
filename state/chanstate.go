package state

import "github.com/rmanohar/actsim-go/simkernel"

// Flavor distinguishes the two-phase +/- half-action discipline some
// channels use (spec.md §4.6 "Flavor discipline").
type Flavor int

const (
	FlavorNone Flavor = iota
	FlavorPlus
	FlavorMinus
)

// FragSide identifies the sender or receiver half of a fragmented channel's
// bitmask (spec.md §3 "fragmented: two-bit mask").
type FragSide uint8

const (
	FragInput  FragSide = 1 << 0 // input-side (receiver) fragmented
	FragOutput FragSide = 1 << 1 // output-side (sender) fragmented
)

// ChanState is the rendezvous protocol record for one channel instance
// (spec.md §3 "Channel state"). Mutating methods live in package
// rendezvous, which treats ChanState as the data half of the protocol; this
// package only owns the storage, exactly as the state vector "owns"
// channel records per spec.md §5.
type ChanState struct {
	// SendPC/RecvPC: zero means "no party waiting"; nonzero encodes
	// (waiting pc + 1).
	SendPC, RecvPC int

	// SendWaiter/RecvWaiter: the actor to notify when the matching PC field
	// is nonzero.
	SendWaiter, RecvWaiter simkernel.Steppable

	SenderProbe, ReceiverProbe bool

	DataForRecv, DataForSend MultiValue

	// Fragmented is the two-bit mask {FragInput, FragOutput}.
	Fragmented FragSide

	// Send/recv micro-state: step of the fragmented-method program, and
	// micro-step within that step.
	SFragSt, RFragSt   int
	SUFragSt, RUFragSt int

	// SkipAction, when true, skips one post-rendezvous write.
	SkipAction bool

	UseFlavors             bool
	SendFlavor, RecvFlavor Flavor

	TypeName   string
	InstanceID int

	// Count is the completed-transfer counter.
	Count int
}

// IsSenderWaiting reports whether a non-probe sender is currently blocked.
func (c *ChanState) IsSenderWaiting() bool {
	return c.SendPC != 0 && !c.SenderProbe
}

// IsReceiverWaiting reports whether a non-probe receiver is currently
// blocked.
func (c *ChanState) IsReceiverWaiting() bool {
	return c.RecvPC != 0 && !c.ReceiverProbe
}
