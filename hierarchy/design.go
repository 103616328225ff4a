// Package hierarchy implements the two-phase instance-tree traversal of
// spec.md §4.11: bottom-up actor construction with port binding and
// directive application, followed by a fanout-registration pass.
//
// The elaborated design itself — process port lists, boolean netlists,
// statement trees, instance trees — is supplied by the caller through the
// Design interface (spec.md §6's "small set of typed queries"); this
// package never parses source files.
package hierarchy

import (
	"fmt"

	"github.com/rmanohar/actsim-go/chp"
	"github.com/rmanohar/actsim-go/prs"
)

// Level names one of the four simulation abstraction levels a process
// instance may be realized at (spec.md §1, §4.11).
type Level int

const (
	LevelChp Level = iota
	LevelHse
	LevelPrs
	LevelDevice
)

func (l Level) String() string {
	switch l {
	case LevelChp:
		return "chp"
	case LevelHse:
		return "hse"
	case LevelPrs:
		return "prs"
	case LevelDevice:
		return "device"
	default:
		return "unknown"
	}
}

// PortKind distinguishes the three cell families a port can expose.
type PortKind int

const (
	PortBool PortKind = iota
	PortInt
	PortChan
)

// PortDir is the direction a port is declared with.
type PortDir int

const (
	PortIn PortDir = iota
	PortOut
	PortInOut
)

// PortDecl describes one named port of a process (spec.md §6 "port lists,
// direction-tagged").
type PortDecl struct {
	Name  string
	Dir   PortDir
	Kind  PortKind
	Width uint // meaningful for PortInt/PortChan
}

// ProcessOffsets counts cells by kind. As returned by `state_offsets_for`
// (spec.md §6) it is the number of local cells a process needs beyond its
// ports; CountOffsets reuses it for a whole subtree's total, ports
// included.
type ProcessOffsets struct {
	Bools int
	Ints  int
	Chans int
}

// DirectiveKind names one of the `spec` directives Phase 1 applies
// (spec.md §4.11).
type DirectiveKind int

const (
	DirExclHi DirectiveKind = iota
	DirExclLo
	DirMkExclHi
	DirMkExclLo
	DirRandInit
	DirHazard
	DirTimingFork
)

// Directive is one `spec` block entry, naming the local ports/signals (by
// name, resolved to local offsets by the caller building Design) it
// applies to.
type Directive struct {
	Kind DirectiveKind
	// Bools lists the local boolean signal names the directive covers.
	// DirTimingFork requires exactly 3, in root/a/b order.
	Bools []string

	// MinDelay is the required minimum separation (DirTimingFork only)
	// between the a-edge and the b-edge.
	MinDelay int64
}

// Instantiation is one child instance named inside a process body:
// `process_type inst_name(...)` together with its requested level.
type Instantiation struct {
	InstName string
	Process  string
	Level    Level
}

// BNL is the boolean netlist of a process realized at the PRS level
// (spec.md §6): one production-rule quadruple per driven signal, plus
// pass-gate and multi-driver descriptors. Names are local to the process;
// the builder resolves them to global offsets via the instance's port and
// local tables.
type BNL struct {
	Rules     []RuleSpec
	PassGates []PassGateSpec
}

// RuleExpr is a PRS guard expression over local signal names, the form a
// process's boolean netlist carries before hierarchy wiring resolves each
// name to a global offset and builds the corresponding *prs.Expr.
type RuleExpr struct {
	Kind     prs.ExprKind
	Name     string      // populated for an ExprVar leaf
	Children []*RuleExpr // ExprAnd/ExprOr (any arity) and ExprNot (exactly one)
}

// RuleSpec names one PRS gate's four guard expressions (spec.md §4.8),
// addressed over the owning process's own local signal names; the builder
// resolves Target and every RuleExpr leaf to the instance's allocated
// global offsets.
type RuleSpec struct {
	Name              string
	Target            string // local bool name driven
	UpNormal, UpWeak  *RuleExpr
	DnNormal, DnWeak  *RuleExpr
	Delay             int64
}

// PassGateSpec names one pass-gate or transmission-gate rule.
type PassGateSpec struct {
	Name        string
	Kind        prs.GateKind
	Control     string
	Source      string
	Drain       string
	Delay       int64
}

// ConnType describes a channel or record connection's wire shape: its
// scalar width, or (for a record) the flat leaf widths in field order,
// the form `type_offset_for` reports (spec.md §6).
type ConnType struct {
	Width  uint
	Leaves []uint // non-empty for a record/structured channel
}

// Design is the elaborated-design input interface of spec.md §6:
// `state_offsets_for`, `type_offset_for`, `get_bnl`, `port_list`, plus the
// instance-tree and per-level-body accessors Phase 1/2 need to actually
// construct actors. Implementations are generated from a front-end parse
// tree; this package only consumes it.
type Design interface {
	// PortList is §6's `port_list(process)`.
	PortList(process string) ([]PortDecl, error)
	// StateOffsetsFor is §6's `state_offsets_for(process)`.
	StateOffsetsFor(process string) (ProcessOffsets, error)
	// TypeOffsetFor is §6's `type_offset_for(connection)`: the wire shape
	// of a named channel/record connection.
	TypeOffsetFor(connection string) (ConnType, error)
	// GetBNL is §6's `get_bnl(process)`: the boolean netlist, present only
	// for processes with a PRS realization.
	GetBNL(process string) (*BNL, error)
	// ChpBody returns the CHP statement tree, present only for processes
	// with a CHP (or HSE, compiled down to the same Stmt IR) realization.
	ChpBody(process string) (*chp.Stmt, error)
	// Children lists the sub-instances declared directly inside process.
	Children(process string) ([]Instantiation, error)
	// HasLevel reports whether process has a realization at lvl, for
	// level-substitution fallback.
	HasLevel(process string, lvl Level) bool
	// Directives lists the `spec` block entries attached to process.
	Directives(process string) ([]Directive, error)
}

// ErrNoLevel reports that level substitution exhausted every fallback
// without finding a usable realization (spec.md §4.11).
type ErrNoLevel struct {
	Process   string
	Requested Level
}

func (e *ErrNoLevel) Error() string {
	return fmt.Sprintf("hierarchy: process %q has no realization reachable from requested level %s", e.Process, e.Requested)
}
