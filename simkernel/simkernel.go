// Package simkernel is the event-scheduling layer underneath both the CHP
// interpreter and the PRS engine (spec.md §4.2). It is deliberately shaped
// like the teacher's simulation-engine idiom (an Engine that schedules
// Handlers reacting to Events carrying a virtual time) even though it does
// not import the teacher's actual engine package: akita's source was not
// part of the retrieved pack, and spec.md assigns this exact component —
// the event queue — to this module to build, not delegate (see DESIGN.md).
package simkernel

import (
	"container/heap"
)

// VTime is non-decreasing virtual simulation time, expressed in integer
// simulator ticks (spec.md §5: "Virtual time is a non-decreasing integer").
type VTime int64

// Disposition is the result of stepping one event, returned up through
// Engine.AdvanceUntil/Step to decide whether the scheduler should keep
// draining, pause, or stop (spec.md §4.2, §5 "Timeouts").
type Disposition int

const (
	// Continue tells the engine to keep processing further events.
	Continue Disposition = iota
	// Breakpoint tells the engine to stop and report a pause (spec.md §7).
	Breakpoint
	// Stop tells the engine to halt the run entirely.
	Stop
)

// Steppable is implemented by anything an event can be targeted at. Step is
// called synchronously from within the engine's drain loop and must never
// block on external I/O (spec.md §5).
type Steppable interface {
	Step(now VTime, tag Tag) Disposition
}

// Tag is the event's payload, typically a packed (pc, flag) pair as
// spec.md §4.2 describes, but left opaque to the engine itself.
type Tag struct {
	PC   int
	Flag int
}

// Handle identifies a scheduled event so it can later be cancelled.
type Handle uint64

type event struct {
	time   VTime
	seq    uint64
	handle Handle
	target Steppable
	tag    Tag
	// live is cleared by Remove; the heap lazily skips dead events rather
	// than doing an O(N) splice, keeping Remove at O(log N) amortized.
	live bool
	idx  int
}

type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].idx = i
	h[j].idx = j
}
func (h *eventHeap) Push(x any) {
	e := x.(*event)
	e.idx = len(*h)
	*h = append(*h, e)
}
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.idx = -1
	*h = old[:n-1]
	return e
}

// Engine is a single priority queue over (virtual_time, sequence), ties
// broken by FIFO sequence (spec.md §4.2). It is not safe for concurrent
// use: the simulator is single-threaded cooperative (spec.md §5).
type Engine struct {
	now    VTime
	seq    uint64
	nextID uint64
	heap   eventHeap
	byID   map[Handle]*event
}

// NewEngine constructs an empty engine starting at virtual time zero.
func NewEngine() *Engine {
	return &Engine{byID: make(map[Handle]*event)}
}

// Now returns the engine's current virtual time.
func (e *Engine) Now() VTime { return e.now }

// NewEvent schedules target to be stepped at now+dt with the given tag and
// returns a handle that can later be passed to Remove.
func (e *Engine) NewEvent(target Steppable, tag Tag, dt VTime) Handle {
	if dt < 0 {
		panic("simkernel: negative delay")
	}
	e.nextID++
	ev := &event{
		time:   e.now + dt,
		seq:    e.seq,
		handle: Handle(e.nextID),
		target: target,
		tag:    tag,
		live:   true,
	}
	e.seq++
	heap.Push(&e.heap, ev)
	e.byID[ev.handle] = ev
	return ev.handle
}

// Remove cancels a pending event. It is a no-op if the handle has already
// fired or was already removed. Guarantees the target's Step will not be
// called for that event (spec.md §4.2 cancellation semantics).
func (e *Engine) Remove(h Handle) {
	ev, ok := e.byID[h]
	if !ok {
		return
	}
	ev.live = false
	delete(e.byID, h)
}

// MatchPending scans pending (not yet fired) events and cancels the first
// one for which predicate returns true, reporting whether a match was
// cancelled. Used by CHP to discard a probe wake-up event once a competing
// event fires (spec.md §4.6).
func (e *Engine) MatchPending(predicate func(target Steppable, tag Tag) bool) bool {
	for _, ev := range e.heap {
		if !ev.live {
			continue
		}
		if predicate(ev.target, ev.tag) {
			ev.live = false
			delete(e.byID, ev.handle)
			return true
		}
	}
	return false
}

// popLive pops and returns the next live event, or nil if the queue holds
// nothing but already-cancelled entries.
func (e *Engine) popLive() *event {
	for e.heap.Len() > 0 {
		ev := heap.Pop(&e.heap).(*event)
		if !ev.live {
			continue
		}
		delete(e.byID, ev.handle)
		return ev
	}
	return nil
}

// AdvanceUntil dequeues and steps events until the head's time exceeds
// tTarget, invoking each event's Step and honoring its disposition. It
// returns the disposition that ended the run (Continue if the queue
// drained empty, Breakpoint or Stop if a step returned one).
func (e *Engine) AdvanceUntil(tTarget VTime) Disposition {
	for {
		if e.heap.Len() == 0 {
			return Continue
		}
		if e.heap[0].time > tTarget {
			e.now = tTarget
			return Continue
		}
		ev := e.popLive()
		if ev == nil {
			continue
		}
		e.now = ev.time
		switch d := ev.target.Step(e.now, ev.tag); d {
		case Continue:
			continue
		default:
			return d
		}
	}
}

// Step advances by at most n dequeued (live) events, returning the
// disposition that ended the run.
func (e *Engine) Step(n int) Disposition {
	for i := 0; i < n; {
		ev := e.popLive()
		if ev == nil {
			return Continue
		}
		e.now = ev.time
		i++
		switch d := ev.target.Step(e.now, ev.tag); d {
		case Continue:
			continue
		default:
			return d
		}
	}
	return Continue
}

// RunUntilEmpty drains the queue completely, honoring breakpoints and
// stops raised by individual steps.
func (e *Engine) RunUntilEmpty() Disposition {
	for e.heap.Len() > 0 {
		ev := e.popLive()
		if ev == nil {
			continue
		}
		e.now = ev.time
		switch d := ev.target.Step(e.now, ev.tag); d {
		case Continue:
			continue
		default:
			return d
		}
	}
	return Continue
}

// Pending reports how many live events remain scheduled.
func (e *Engine) Pending() int {
	return len(e.byID)
}
