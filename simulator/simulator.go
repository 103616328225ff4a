// Package simulator groups the global, process-wide state spec.md §7's
// Design Notes call out (the state vector, the event engine, the
// exclusivity/timing singleton tables, the external-function table) into
// one explicitly-passed Simulator context, in the facade style of the
// teacher's api.Driver: a constructed object wrapping the lower packages
// rather than hidden package-level globals.
package simulator

import (
	"fmt"
	"log/slog"

	"github.com/rmanohar/actsim-go/chp"
	"github.com/rmanohar/actsim-go/constraints"
	"github.com/rmanohar/actsim-go/glue"
	"github.com/rmanohar/actsim-go/hierarchy"
	"github.com/rmanohar/actsim-go/rendezvous"
	"github.com/rmanohar/actsim-go/report"
	"github.com/rmanohar/actsim-go/simconfig"
	"github.com/rmanohar/actsim-go/simkernel"
	"github.com/rmanohar/actsim-go/state"
)

// Simulator is the top-level context a driver (package cmd/actsim or a
// test) holds: every process-wide singleton the lower packages need,
// already wired together against one elaborated instance tree.
type Simulator struct {
	Design hierarchy.Design
	Params simconfig.Params

	Vec      *state.Vector
	Eng      *simkernel.Engine
	Arbiter  *constraints.Arbiter
	Observer *constraints.ObservingMonitor
	Builder  *hierarchy.Builder
	Root     *hierarchy.Instance

	Trace  *glue.Registry
	Analog *glue.AnalogBridge
	Extern *glue.ExternRegistry
	Report *report.Collector

	Log *slog.Logger

	chanMethods map[state.GlobalOffset]*rendezvous.Methods
}

// New elaborates root against design, sizing the state vector from
// hierarchy.CountOffsets, then wires every ambient singleton (arbiter,
// observing monitor, trace registry, extern table) in before returning.
func New(design hierarchy.Design, root hierarchy.Instantiation, params simconfig.Params, logger *slog.Logger) (*Simulator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	offsets, err := hierarchy.CountOffsets(design, root.Process)
	if err != nil {
		return nil, fmt.Errorf("simulator: sizing state vector: %w", err)
	}

	vec := state.NewVector(offsets.Bools, offsets.Ints, offsets.Chans)
	eng := simkernel.NewEngine()
	arb := constraints.NewArbiter(vec, false, 1)
	vec.SetExclusivityChecker(arb)

	collector := report.NewCollector()
	obs := constraints.NewObservingMonitor(vec, func(v constraints.Violation) {
		collector.ReportExclusivityViolation(eng.Now(), v)
	})

	trace := glue.NewRegistry(logger)
	vec.AddTraceListener(trace)
	extern := glue.NewExternRegistry()

	builder := hierarchy.NewBuilder(design, vec, eng, arb, params.DefaultDelay, 0, logger)
	builder.Obs = obs

	rootInst, err := builder.Elaborate(root)
	if err != nil {
		return nil, fmt.Errorf("simulator: elaborating %q: %w", root.Process, err)
	}

	s := &Simulator{
		Design: design, Params: params,
		Vec: vec, Eng: eng, Arbiter: arb, Observer: obs, Builder: builder, Root: rootInst,
		Trace: trace, Extern: extern, Report: collector, Log: logger,
		chanMethods: make(map[state.GlobalOffset]*rendezvous.Methods),
	}
	s.wireExtern(rootInst)
	return s, nil
}

// SetAnalogBridge installs the analog DAC/ADC bridge (spec.md §6) and
// registers it as a trace listener so every bridged boolean's transitions
// reach it.
func (s *Simulator) SetAnalogBridge(notifier glue.DACNotifier, source glue.ConfirmedTimeSource) *glue.AnalogBridge {
	s.Analog = glue.NewAnalogBridge(s.Vec, notifier, source)
	s.Vec.AddTraceListener(s.Analog)
	return s.Analog
}

// BindFragmentedChannel compiles spec against inst's own local boolean
// names and rebinds chanLocalName's owning CHP actor channel binding to
// the result, routing that channel's SEND/RECV nodes through the
// fragmented boolean-wire protocol (spec.md §4.7) instead of the plain
// variable rendezvous realizeChp binds by default. The Design IR carries
// only a channel's wire shape (hierarchy.ConnType), not a type name, so
// the caller names the channel explicitly rather than this package
// guessing a type match from shape alone.
func (s *Simulator) BindFragmentedChannel(inst *hierarchy.Instance, chanLocalName string, spec glue.TypeSpec) error {
	g, ok := inst.Chans[chanLocalName]
	if !ok {
		return fmt.Errorf("simulator: instance %q has no channel %q", inst.Name, chanLocalName)
	}
	resolve := func(local string) (state.GlobalOffset, error) {
		gg, ok := inst.Bools[local]
		if !ok {
			return 0, fmt.Errorf("simulator: channel %q references unknown local signal %q", chanLocalName, local)
		}
		return gg, nil
	}
	methods, err := glue.CompileMethods(spec, resolve)
	if err != nil {
		return fmt.Errorf("simulator: compiling fragmentation for %q: %w", chanLocalName, err)
	}
	s.chanMethods[g] = methods
	if inst.ChpActor != nil {
		inst.ChpActor.BindChan(g, s.Vec.GetChan(g), methods)
	}
	return nil
}

// wireExtern installs the shared extern registry's dispatcher onto every
// CHP actor in the tree (spec.md §4.10 step 3).
func (s *Simulator) wireExtern(inst *hierarchy.Instance) {
	if inst.ChpActor != nil {
		inst.ChpActor.Extern = s.Extern.Dispatch
	}
	for _, c := range inst.Children {
		s.wireExtern(c)
	}
}

func walkInstances(inst *hierarchy.Instance, visit func(*hierarchy.Instance)) {
	visit(inst)
	for _, c := range inst.Children {
		walkInstances(c, visit)
	}
}

// chpActors collects every CHP/HSE actor in the tree, the set RunInit's
// final "wake all CHP actors" step iterates.
func chpActors(inst *hierarchy.Instance) []*chp.Actor {
	var out []*chp.Actor
	walkInstances(inst, func(i *hierarchy.Instance) {
		if i.ChpActor != nil {
			out = append(out, i.ChpActor)
		}
	})
	return out
}
