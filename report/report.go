// Package report implements the run-summary diagnostics spec.md's
// ambient stack calls for: a table-rendered digest of warnings,
// exclusivity/timing violations and trace volume for one simulation run,
// grounded on the teacher's verify/report.go summary-report shape and
// core/util.go's go-pretty table rendering.
package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/rmanohar/actsim-go/constraints"
	"github.com/rmanohar/actsim-go/simkernel"
)

// Violation is one reported exclusivity or timing-fork violation, kept
// independent of which monitor raised it so Summary can list both kinds in
// one table.
type Violation struct {
	Time simkernel.VTime
	Kind string // "exclusivity" or "timing-fork"
	Path string
	Note string
}

// Collector accumulates diagnostics over one run. It is not safe for
// concurrent use; the simulator is single-threaded (spec.md §5), and so is
// this.
type Collector struct {
	traceEvents int
	warnings    int
	violations  []Violation
	lastTime    simkernel.VTime
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector { return &Collector{} }

// RecordTrace increments the emitted-trace-event tally; wire it into
// package glue's Registry alongside (or in place of) an actual trace sink
// when only volume, not content, matters for the run summary.
func (c *Collector) RecordTrace(now simkernel.VTime) {
	c.traceEvents++
	c.advance(now)
}

// RecordWarning counts a runtime-semantic warning (spec.md §7).
func (c *Collector) RecordWarning(now simkernel.VTime) {
	c.warnings++
	c.advance(now)
}

// ReportExclusivityViolation records a constraints.Violation raised by
// constraints.ObservingMonitor, stamped with the time it was seen, for the
// violation table. Its signature differs from the monitor's func(Violation)
// callback; simulator.New adapts it with a closure that supplies the time.
func (c *Collector) ReportExclusivityViolation(now simkernel.VTime, v constraints.Violation) {
	c.violations = append(c.violations, Violation{
		Time: now,
		Kind: "exclusivity",
		Path: fmt.Sprintf("member %d", v.Triggered),
		Note: fmt.Sprintf("group direction=%v", v.Group.Direction),
	})
	c.advance(now)
}

// ReportTimingViolation matches the report-func signature
// constraints.NewTimingForkMonitor takes.
func (c *Collector) ReportTimingViolation(path, msg string) {
	c.violations = append(c.violations, Violation{Kind: "timing-fork", Path: path, Note: msg})
}

func (c *Collector) advance(now simkernel.VTime) {
	if now > c.lastTime {
		c.lastTime = now
	}
}

// Summary is an immutable snapshot of a Collector's accumulated state.
type Summary struct {
	TraceEvents int
	Warnings    int
	Violations  []Violation
	LastTime    simkernel.VTime
}

// Snapshot copies the Collector's current counters into a Summary.
func (c *Collector) Snapshot() Summary {
	violations := make([]Violation, len(c.violations))
	copy(violations, c.violations)
	return Summary{
		TraceEvents: c.traceEvents,
		Warnings:    c.warnings,
		Violations:  violations,
		LastTime:    c.lastTime,
	}
}

// WriteTable renders the summary as two go-pretty tables: run counters and
// (if any) the violation list, in the titled-table style of
// core/util.go's PrintState.
func (s Summary) WriteTable(w io.Writer) {
	counters := table.NewWriter()
	counters.SetOutputMirror(w)
	counters.SetTitle("Run Summary")
	counters.AppendHeader(table.Row{"Metric", "Value"})
	counters.AppendRow(table.Row{"Last virtual time", s.LastTime})
	counters.AppendRow(table.Row{"Trace events", s.TraceEvents})
	counters.AppendRow(table.Row{"Warnings", s.Warnings})
	counters.AppendRow(table.Row{"Violations", len(s.Violations)})
	counters.Render()

	if len(s.Violations) == 0 {
		return
	}

	violations := table.NewWriter()
	violations.SetOutputMirror(w)
	violations.SetTitle("Violations")
	violations.AppendHeader(table.Row{"Time", "Kind", "Path", "Detail"})
	for _, v := range s.Violations {
		violations.AppendRow(table.Row{v.Time, v.Kind, v.Path, v.Note})
	}
	violations.Render()
}
