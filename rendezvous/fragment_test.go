package rendezvous_test

import (
	"testing"

	"github.com/rmanohar/actsim-go/rendezvous"
	"github.com/rmanohar/actsim-go/state"
	"github.com/rmanohar/actsim-go/wideint"
)

func TestRunMethodStraightLine(t *testing.T) {
	vec := state.NewVector(2, 0, 0)
	cs := &state.ChanState{}
	prog := rendezvous.FragMethod{
		{Code: rendezvous.OpBoolT, Var: 0},
		{Code: rendezvous.OpBoolF, Var: 1},
		{Code: rendezvous.OpSelf, Eval: func() wideint.Value { return wideint.FromUint64(8, 5) }},
	}

	next := rendezvous.RunMethod(prog, 0, vec, 0, cs)
	if next != -1 {
		t.Fatalf("expected completion, got resume index %d", next)
	}
	if vec.GetBool(0) != state.One || vec.GetBool(1) != state.Zero {
		t.Fatal("BOOL_T/BOOL_F did not reach the state vector")
	}
	if cs.DataForRecv.Leaves[0].Uint64() != 5 {
		t.Fatalf("SELF did not deposit into DataForRecv: %v", cs.DataForRecv)
	}
}

func TestRunMethodGotoSkipsForward(t *testing.T) {
	vec := state.NewVector(1, 0, 0)
	cs := &state.ChanState{}
	prog := rendezvous.FragMethod{
		{Code: rendezvous.OpGoto, Target: 2},
		{Code: rendezvous.OpBoolT, Var: 0}, // skipped
		{Code: rendezvous.OpSkip},
	}
	rendezvous.RunMethod(prog, 0, vec, 0, cs)
	if vec.GetBool(0) == state.One {
		t.Fatal("GOTO should have skipped the BOOL_T instruction")
	}
}

func TestBackwardsSelWithFalseGuardSuspends(t *testing.T) {
	vec := state.NewVector(1, 0, 0)
	cs := &state.ChanState{}
	ready := false
	prog := rendezvous.FragMethod{
		{Code: rendezvous.OpSkip},
		{Code: rendezvous.OpSel, Cond: func() bool { return ready }, Target: 0},
		{Code: rendezvous.OpBoolT, Var: 0},
	}

	resume := rendezvous.RunMethod(prog, 1, vec, 0, cs)
	if resume != 0 {
		t.Fatalf("expected suspend at index 0, got %d", resume)
	}

	ready = true
	next := rendezvous.RunMethod(prog, resume, vec, 0, cs)
	if next != -1 {
		t.Fatalf("expected completion once guard is true, got %d", next)
	}
	if vec.GetBool(0) != state.One {
		t.Fatal("method did not run to completion after resuming")
	}
}

func TestDriveSendRunsFullSequence(t *testing.T) {
	vec := state.NewVector(3, 0, 0)
	cs := &state.ChanState{}
	var methods rendezvous.Methods
	methods.Programs[rendezvous.ActionSet] = rendezvous.FragMethod{{Code: rendezvous.OpBoolT, Var: 0}}
	methods.Programs[rendezvous.ActionSendUp] = rendezvous.FragMethod{{Code: rendezvous.OpBoolT, Var: 1}}
	methods.Programs[rendezvous.ActionSendRest] = rendezvous.FragMethod{{Code: rendezvous.OpBoolT, Var: 2}}

	done := methods.DriveSend(vec, 0, cs)
	if !done {
		t.Fatal("expected the full SET/SEND_UP/SEND_REST sequence to complete in one drive")
	}
	for g := state.GlobalOffset(0); g < 3; g++ {
		if vec.GetBool(g) != state.One {
			t.Fatalf("cell %d not driven by sequence", g)
		}
	}
	if cs.SFragSt != 0 {
		t.Fatal("SFragSt should reset to 0 once the sequence completes")
	}
}

func TestDriveSendSuspendsMidSequence(t *testing.T) {
	vec := state.NewVector(1, 0, 0)
	cs := &state.ChanState{}
	var methods rendezvous.Methods
	ready := false
	methods.Programs[rendezvous.ActionSet] = rendezvous.FragMethod{{Code: rendezvous.OpSkip}}
	methods.Programs[rendezvous.ActionSendUp] = rendezvous.FragMethod{
		{Code: rendezvous.OpSel, Cond: func() bool { return ready }, Target: 0},
		{Code: rendezvous.OpBoolT, Var: 0},
	}
	methods.Programs[rendezvous.ActionSendRest] = rendezvous.FragMethod{{Code: rendezvous.OpSkip}}

	if methods.DriveSend(vec, 0, cs) {
		t.Fatal("expected the drive to suspend inside SEND_UP")
	}
	if cs.SFragSt != 1 {
		t.Fatalf("expected to be parked on method index 1 (SEND_UP), got %d", cs.SFragSt)
	}

	ready = true
	if !methods.DriveSend(vec, 0, cs) {
		t.Fatal("expected the drive to complete once the guard clears")
	}
}
