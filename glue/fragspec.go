package glue

import (
	"fmt"

	"github.com/rmanohar/actsim-go/rendezvous"
	"github.com/rmanohar/actsim-go/state"
	"github.com/rmanohar/actsim-go/wideint"
)

// OpSpec is one instruction of a channel type's fragmentation program,
// addressed over local boolean names rather than resolved global offsets —
// the form a channel type's fragmentation body is declared in before
// hierarchy wiring allocates an instance's cells. It mirrors
// rendezvous.FragOp one field at a time; Eval/Cond are supplied as
// callbacks rather than closures baked in ahead of time, since a channel
// type's SELF/SELFACK and SEL expressions are themselves small CHP
// expressions the caller (package chp) already knows how to evaluate.
type OpSpec struct {
	Code   rendezvous.FragOpCode
	Var    string // local bool name, OpBoolT/OpBoolF
	Eval   func() wideint.Value
	Cond   func() bool
	Target int
}

// MethodSpec is one compiled-from-source fragmentation method (e.g.
// SEND_UP) as a flat instruction list.
type MethodSpec []OpSpec

// TypeSpec is the declared fragmentation body of one channel type: one
// MethodSpec per rendezvous.ActionKind (spec.md §4.7's ten methods),
// supplied by the front end the way get_bnl supplies a process's PRS
// rules.
type TypeSpec [10]MethodSpec

// CompileMethods resolves every OpSpec's local Var against resolve and
// builds the rendezvous.Methods a chp.Actor.BindChan call installs on a
// fragmented channel instance. resolve maps a local signal name to its
// global offset; simulator.BindFragmentedChannel builds it from one
// instance's Bools table, and this package only depends on the callback
// shape so it never needs to import hierarchy.
func CompileMethods(spec TypeSpec, resolve func(name string) (state.GlobalOffset, error)) (*rendezvous.Methods, error) {
	var methods rendezvous.Methods
	for kind, m := range spec {
		compiled := make(rendezvous.FragMethod, len(m))
		for i, op := range m {
			c := rendezvous.FragOp{Code: op.Code, Eval: op.Eval, Cond: op.Cond, Target: op.Target}
			if op.Code == rendezvous.OpBoolT || op.Code == rendezvous.OpBoolF {
				g, err := resolve(op.Var)
				if err != nil {
					return nil, fmt.Errorf("glue: compiling fragment method %d instruction %d: %w", kind, i, err)
				}
				c.Var = g
			}
			compiled[i] = c
		}
		methods.Programs[kind] = compiled
	}
	return &methods, nil
}
