package prs

import (
	"github.com/rmanohar/actsim-go/constraints"
	"github.com/rmanohar/actsim-go/state"
)

// RegisterExclusivity implements spec.md §4.8's "Exclhi/Excllo directives":
// it builds a constraints.Group over members (in direction dir) backed by
// each node's PendingSource implementation, so the arbiter can flush a
// losing member's pending event once another member wins the exclusion,
// and registers the group with arb.
func RegisterExclusivity(arb *constraints.Arbiter, dir constraints.Direction, nodes []*Node) {
	members := make([]state.GlobalOffset, len(nodes))
	pending := make([]constraints.PendingSource, len(nodes))
	for i, n := range nodes {
		members[i] = n.Target
		pending[i] = n
	}
	arb.AddGroup(&constraints.Group{Direction: dir, Members: members, Pending: pending})
}

// RegisterPassGateExclusivity is RegisterExclusivity's pass-gate/MultiPrs
// counterpart, taking the already-built PendingSource list directly since
// those node kinds don't share a common concrete type with *Node.
func RegisterPassGateExclusivity(arb *constraints.Arbiter, dir constraints.Direction, members []state.GlobalOffset, pending []constraints.PendingSource) {
	arb.AddGroup(&constraints.Group{Direction: dir, Members: members, Pending: pending})
}
