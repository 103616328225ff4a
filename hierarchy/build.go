package hierarchy

import (
	"fmt"
	"log/slog"

	"github.com/rmanohar/actsim-go/chp"
	"github.com/rmanohar/actsim-go/constraints"
	"github.com/rmanohar/actsim-go/prs"
	"github.com/rmanohar/actsim-go/simkernel"
	"github.com/rmanohar/actsim-go/state"
)

// Instance is one node of the built actor tree: the global offset tables
// bound to an instantiation, together with whatever realization (PRS
// nodes, a CHP actor) its resolved Level produced.
type Instance struct {
	Name    string
	Process string
	Level   Level

	Bools map[string]state.GlobalOffset
	Ints  map[string]state.GlobalOffset
	Chans map[string]state.GlobalOffset

	// ChanTypes records the type_offset_for result for every channel cell
	// this instance owns, keyed the same as Chans (spec.md §6).
	ChanTypes map[string]ConnType

	// BoolPortOrder/IntPortOrder/ChanPortOrder record the reverse-of-
	// declaration emission order of spec.md §4.11 ("Port tables are
	// emitted in reverse order within each type (calling convention)"),
	// for a caller binding actual arguments positionally against formals.
	BoolPortOrder []string
	IntPortOrder  []string
	ChanPortOrder []string

	PrsNodes  []*prs.Node
	PassGates []*prs.PassGate
	ChpActor  *chp.Actor

	Children []*Instance
}

// Builder runs the two-phase traversal of spec.md §4.11 against a Design,
// allocating global offsets out of a caller-sized state.Vector and wiring
// constructed actors against a shared simkernel.Engine and
// constraints.Arbiter.
type Builder struct {
	Design Design
	Vec    *state.Vector
	Eng    *simkernel.Engine
	Arb    *constraints.Arbiter
	Obs    *constraints.ObservingMonitor
	Log    *slog.Logger

	defaultDelay  int64
	defaultBWCost int64

	nextBool state.GlobalOffset
	nextInt  state.GlobalOffset
	nextChan state.GlobalOffset

	randInit  []state.GlobalOffset
	resetMode bool
}

// RandInitSet reports every boolean directive-marked rand_init across the
// whole elaborated tree, for runInit step 3 (spec.md §4.12).
func (b *Builder) RandInitSet() []state.GlobalOffset { return b.randInit }

// SetResetMode flips the shared reset-mode flag timing-fork monitors
// consult (spec.md §4.5 "in reset mode the machine is quiescent").
func (b *Builder) SetResetMode(on bool) { b.resetMode = on }

// NewBuilder constructs a Builder. vec must already be sized to hold every
// cell CountOffsets(design, rootProcess) reports; eng and arb are shared
// across every actor the traversal constructs. defaultDelay/defaultBWCost
// are the fallback per-node timing Build() uses for a CHP realization
// (spec.md §4.9).
func NewBuilder(design Design, vec *state.Vector, eng *simkernel.Engine, arb *constraints.Arbiter, defaultDelay, defaultBWCost int64, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{Design: design, Vec: vec, Eng: eng, Arb: arb, Log: logger, defaultDelay: defaultDelay, defaultBWCost: defaultBWCost}
}

// CountOffsets recursively sums the bool/int/chan cells process and its
// full instance subtree need (its own ports and local state, plus every
// child's), for sizing a state.Vector before Elaborate runs.
func CountOffsets(d Design, process string) (ProcessOffsets, error) {
	ports, err := d.PortList(process)
	if err != nil {
		return ProcessOffsets{}, fmt.Errorf("hierarchy: port_list(%q): %w", process, err)
	}
	own, err := d.StateOffsetsFor(process)
	if err != nil {
		return ProcessOffsets{}, fmt.Errorf("hierarchy: state_offsets_for(%q): %w", process, err)
	}
	total := own
	for _, p := range ports {
		switch p.Kind {
		case PortBool:
			total.Bools++
		case PortInt:
			total.Ints++
		case PortChan:
			total.Chans++
		}
	}

	children, err := d.Children(process)
	if err != nil {
		return ProcessOffsets{}, fmt.Errorf("hierarchy: children(%q): %w", process, err)
	}
	for _, c := range children {
		sub, err := CountOffsets(d, c.Process)
		if err != nil {
			return ProcessOffsets{}, err
		}
		total.Bools += sub.Bools
		total.Ints += sub.Ints
		total.Chans += sub.Chans
	}
	return total, nil
}

func (b *Builder) allocBool() state.GlobalOffset {
	g := b.nextBool
	b.nextBool++
	return g
}

func (b *Builder) allocInt() state.GlobalOffset {
	g := b.nextInt
	b.nextInt++
	return g
}

func (b *Builder) allocChan() state.GlobalOffset {
	g := b.nextChan
	b.nextChan++
	return g
}

// resolveLevel implements spec.md §4.11's level substitution: try the
// requested level; if unavailable, fall back through the fixed sequence
// prs -> hse -> chp with a warning. Device-level never substitutes.
func (b *Builder) resolveLevel(process string, requested Level) (Level, error) {
	if b.Design.HasLevel(process, requested) {
		return requested, nil
	}
	if requested == LevelDevice {
		return 0, &ErrNoLevel{Process: process, Requested: requested}
	}
	for _, lvl := range []Level{LevelPrs, LevelHse, LevelChp} {
		if b.Design.HasLevel(process, lvl) {
			b.Log.Warn("hierarchy: level substitution", "process", process, "requested", requested, "substituted", lvl)
			return lvl, nil
		}
	}
	return 0, &ErrNoLevel{Process: process, Requested: requested}
}

// Elaborate runs both phases of spec.md §4.11 against the root
// instantiation: Phase 1 (bottom-up, recursive build of the actor tree)
// followed by Phase 2 (compute_fanout over the whole tree).
func (b *Builder) Elaborate(root Instantiation) (*Instance, error) {
	inst, err := b.build(root)
	if err != nil {
		return nil, err
	}
	b.computeFanout(inst)
	return inst, nil
}

// build implements Phase 1 for one instantiation: allocate the port/local
// offset tables, apply spec directives, recurse into children (unless the
// resolved level is device, which bottoms the recursion out), then realize
// the instance's own actor(s) at its resolved level.
func (b *Builder) build(inst Instantiation) (*Instance, error) {
	lvl, err := b.resolveLevel(inst.Process, inst.Level)
	if err != nil {
		return nil, err
	}

	ports, err := b.Design.PortList(inst.Process)
	if err != nil {
		return nil, fmt.Errorf("hierarchy: port_list(%q): %w", inst.Process, err)
	}
	own, err := b.Design.StateOffsetsFor(inst.Process)
	if err != nil {
		return nil, fmt.Errorf("hierarchy: state_offsets_for(%q): %w", inst.Process, err)
	}

	built := &Instance{
		Name: inst.InstName, Process: inst.Process, Level: lvl,
		Bools:     make(map[string]state.GlobalOffset),
		Ints:      make(map[string]state.GlobalOffset),
		Chans:     make(map[string]state.GlobalOffset),
		ChanTypes: make(map[string]ConnType),
	}

	// Port tables are emitted in reverse declaration order within each
	// type (spec.md §4.11's calling convention); walk ports once to bucket
	// by kind, preserving declared order, then allocate each bucket back
	// to front.
	var boolPorts, intPorts, chanPorts []string
	for _, p := range ports {
		switch p.Kind {
		case PortBool:
			boolPorts = append(boolPorts, p.Name)
		case PortInt:
			intPorts = append(intPorts, p.Name)
		case PortChan:
			chanPorts = append(chanPorts, p.Name)
		}
	}
	for i := len(boolPorts) - 1; i >= 0; i-- {
		name := boolPorts[i]
		built.Bools[name] = b.allocBool()
		built.BoolPortOrder = append(built.BoolPortOrder, name)
	}
	for i := len(intPorts) - 1; i >= 0; i-- {
		name := intPorts[i]
		built.Ints[name] = b.allocInt()
		built.IntPortOrder = append(built.IntPortOrder, name)
	}
	for i := len(chanPorts) - 1; i >= 0; i-- {
		name := chanPorts[i]
		g := b.allocChan()
		built.Chans[name] = g
		built.ChanPortOrder = append(built.ChanPortOrder, name)
		b.bindChanType(built, name, g)
	}

	for i := 0; i < own.Bools; i++ {
		name := fmt.Sprintf("$b%d", i)
		built.Bools[name] = b.allocBool()
	}
	for i := 0; i < own.Ints; i++ {
		name := fmt.Sprintf("$i%d", i)
		built.Ints[name] = b.allocInt()
	}
	for i := 0; i < own.Chans; i++ {
		name := fmt.Sprintf("$c%d", i)
		g := b.allocChan()
		built.Chans[name] = g
		b.bindChanType(built, name, g)
	}

	directives, err := b.Design.Directives(inst.Process)
	if err != nil {
		return nil, fmt.Errorf("hierarchy: directives(%q): %w", inst.Process, err)
	}
	b.applyDirectives(built, directives)

	if lvl != LevelDevice {
		children, err := b.Design.Children(inst.Process)
		if err != nil {
			return nil, fmt.Errorf("hierarchy: children(%q): %w", inst.Process, err)
		}
		for _, c := range children {
			child, err := b.build(c)
			if err != nil {
				return nil, err
			}
			built.Children = append(built.Children, child)
		}
	}

	switch lvl {
	case LevelPrs:
		if err := b.realizePrs(built); err != nil {
			return nil, err
		}
	case LevelHse, LevelChp:
		if err := b.realizeChp(built); err != nil {
			return nil, err
		}
	case LevelDevice:
		// Realized by the analog bridge (package glue), not here; the
		// directive application above still applies transitively per
		// spec.md §4.11.
	}

	return built, nil
}

// bindChanType looks up the connection's wire shape via type_offset_for
// (spec.md §6), records it in inst.ChanTypes, and stamps the underlying
// ChanState's TypeName with the connection's local name.
func (b *Builder) bindChanType(inst *Instance, name string, g state.GlobalOffset) {
	ct, err := b.Design.TypeOffsetFor(fmt.Sprintf("%s.%s", inst.Process, name))
	if err != nil {
		b.Log.Warn("hierarchy: type_offset_for lookup failed", "connection", name, "err", err)
		return
	}
	inst.ChanTypes[name] = ct
	b.Vec.GetChan(g).TypeName = name
}

func (b *Builder) resolveBoolName(inst *Instance, name string) (state.GlobalOffset, error) {
	if g, ok := inst.Bools[name]; ok {
		return g, nil
	}
	return 0, fmt.Errorf("hierarchy: process %q has no boolean signal %q", inst.Process, name)
}

// applyDirectives implements the `spec` directive step of Phase 1
// (spec.md §4.11). mk_exclhi/mk_excllo mark their members special and
// register an enforcing Arbiter group (spec.md §4.4, deny on violation);
// plain exclhi/excllo register the same group against the non-denying
// ObservingMonitor instead. rand_init defers to runInit step 3; hazard
// sets the vector's hazard flag; timing forks install a
// TimingForkMonitor.
func (b *Builder) applyDirectives(inst *Instance, directives []Directive) {
	for _, d := range directives {
		switch d.Kind {
		case DirExclHi, DirMkExclHi, DirExclLo, DirMkExclLo:
			enforcing := d.Kind == DirMkExclHi || d.Kind == DirMkExclLo
			dir := constraints.Hi
			if d.Kind == DirExclLo || d.Kind == DirMkExclLo {
				dir = constraints.Lo
			}
			var members []state.GlobalOffset
			for _, name := range d.Bools {
				g, err := b.resolveBoolName(inst, name)
				if err != nil {
					b.Log.Warn("hierarchy: skipping directive member", "err", err)
					continue
				}
				members = append(members, g)
				if enforcing {
					b.Vec.MarkSpecial(g)
				}
			}
			if len(members) <= 1 {
				continue
			}
			// Pending is sized (not left nil) even though no PRS node backs
			// these members yet: Arbiter.resolveGroup indexes it parallel
			// to Members regardless of group size.
			grp := &constraints.Group{Direction: dir, Members: members, Pending: make([]constraints.PendingSource, len(members))}
			if enforcing {
				if b.Arb != nil {
					b.Arb.AddGroup(grp)
				}
			} else if b.Obs != nil {
				b.Obs.AddGroup(grp)
				for _, g := range members {
					b.Vec.AddTimingMonitor(g, b.Obs)
				}
			}

		case DirRandInit:
			for _, name := range d.Bools {
				g, err := b.resolveBoolName(inst, name)
				if err != nil {
					b.Log.Warn("hierarchy: skipping directive member", "err", err)
					continue
				}
				b.randInit = append(b.randInit, g)
			}

		case DirHazard:
			for _, name := range d.Bools {
				g, err := b.resolveBoolName(inst, name)
				if err != nil {
					b.Log.Warn("hierarchy: skipping directive member", "err", err)
					continue
				}
				b.Vec.SetHazard(g, true)
			}

		case DirTimingFork:
			if len(d.Bools) != 3 {
				b.Log.Warn("hierarchy: timing fork directive needs exactly 3 signals (root, a, b)", "process", inst.Process)
				continue
			}
			root, err1 := b.resolveBoolName(inst, d.Bools[0])
			a, err2 := b.resolveBoolName(inst, d.Bools[1])
			bb, err3 := b.resolveBoolName(inst, d.Bools[2])
			if err1 != nil || err2 != nil || err3 != nil {
				b.Log.Warn("hierarchy: skipping malformed timing fork directive", "process", inst.Process)
				continue
			}
			path := fmt.Sprintf("%s.%s->%s->%s", inst.Name, d.Bools[0], d.Bools[1], d.Bools[2])
			mon := constraints.NewTimingForkMonitor(b.Vec, path, root, a, bb, simkernel.VTime(d.MinDelay), &b.resetMode, b.reportTimingViolation)
			b.Vec.AddTimingMonitor(root, mon)
			b.Vec.AddTimingMonitor(a, mon)
			b.Vec.AddTimingMonitor(bb, mon)
		}
	}
}

func (b *Builder) reportTimingViolation(path, msg string) {
	b.Log.Warn("hierarchy: timing fork violation", "path", path, "detail", msg)
}
