package simulator

import (
	"fmt"
	"math/rand"

	"github.com/rmanohar/actsim-go/chp"
	"github.com/rmanohar/actsim-go/hierarchy"
	"github.com/rmanohar/actsim-go/rendezvous"
	"github.com/rmanohar/actsim-go/simkernel"
	"github.com/rmanohar/actsim-go/state"
)

// AnalogStarter starts the external analog simulator process RunInit's
// step 2 optionally launches (spec.md §4.12); nil means no analog
// co-simulation is attached.
type AnalogStarter func() error

// RunInit drives the elaborated design through spec.md §4.12's
// initialization sequence: enter reset mode, optionally start the analog
// co-simulator, drive every rand_init-marked signal, reset asymmetric
// fragmented channels to their idle handshake state, run the optional
// global-scope init graph to quiescence (bounded by
// Params.QuiescenceBudget so a misbehaving init block cannot hang the
// run), leave reset mode, and finally wake every CHP/HSE actor.
func (s *Simulator) RunInit(start AnalogStarter, globalInit *chp.Stmt) error {
	s.Builder.SetResetMode(true)

	if start != nil {
		if err := start(); err != nil {
			return fmt.Errorf("simulator: starting analog co-simulator: %w", err)
		}
	}

	s.driveRandInit()
	s.resetAsymmetricChannels()

	if globalInit != nil {
		graph := chp.Build(globalInit, s.Params.DefaultDelay, 0)
		actor := chp.NewActor("$init", graph, s.Vec, s.Eng, s.Log)
		actor.Start()
	}
	// Step, not RunUntilEmpty: a global init block that never quiesces
	// must not hang the run (spec.md §4.12 "bounded quiescence loop").
	// simkernel.Engine.Step reports Continue both when the queue drains
	// and when the budget runs out, so a stuck init is silent here and
	// surfaces only as leftover activity once actors start.
	if disp := s.Eng.Step(s.Params.QuiescenceBudget); disp != simkernel.Continue {
		return fmt.Errorf("simulator: runInit halted (%v) before reaching quiescence", disp)
	}

	s.Builder.SetResetMode(false)
	for _, a := range chpActors(s.Root) {
		a.ResetMode = false
		a.Start()
	}
	return nil
}

// driveRandInit assigns every rand_init-directive boolean that is still
// Unknown a deterministic pseudo-random value (spec.md §4.12 step 3),
// seeded fixed so a run is reproducible rather than from the wall clock.
func (s *Simulator) driveRandInit() {
	now := s.Eng.Now()
	rng := rand.New(rand.NewSource(1))
	for _, g := range s.Builder.RandInitSet() {
		if s.Vec.GetBool(g) != state.Unknown {
			continue
		}
		v := state.Zero
		if rng.Intn(2) == 1 {
			v = state.One
		}
		s.Vec.SetBool(g, v, now)
	}
}

// resetAsymmetricChannels runs SEND_INIT/RECV_INIT on every channel whose
// Fragmented mask names a side with a compiled method program (spec.md
// §4.12 "reset asymmetric-fragmentation channels"), bringing each
// boolean-wire handshake to its idle state before any actor can drive it.
func (s *Simulator) resetAsymmetricChannels() {
	now := s.Eng.Now()
	walkInstances(s.Root, func(inst *hierarchy.Instance) {
		for _, g := range inst.Chans {
			methods, ok := s.chanMethods[g]
			if !ok {
				continue
			}
			cs := s.Vec.GetChan(g)
			if cs.Fragmented&state.FragOutput != 0 {
				rendezvous.RunMethod(methods.Programs[rendezvous.ActionSendInit], 0, s.Vec, now, cs)
			}
			if cs.Fragmented&state.FragInput != 0 {
				rendezvous.RunMethod(methods.Programs[rendezvous.ActionRecvInit], 0, s.Vec, now, cs)
			}
		}
	})
}
