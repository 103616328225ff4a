package state

// FanoutTarget is notified when a boolean or integer cell it reads changes.
// CHP/HSE actors, PRS nodes and pass-gate nodes all implement this
// (spec.md §3 "Fanout table").
type FanoutTarget interface {
	Propagate(g GlobalOffset)
}

// fanoutSmallCap is the size of the in-place small-list representation
// before a cell's fanout set promotes to the geometric-growth
// representation (spec.md §3: "Small-list representation grows in place;
// above a threshold it promotes to a doubled-capacity geometric-growth
// representation").
const fanoutSmallCap = 8

// dedupTail bounds how far back inc_fanout scans for an existing
// registration, matching spec.md §4.3's "linear de-dup up to a bounded
// tail" rather than a full O(N) scan on every insertion.
const dedupTail = 4

// fanoutList holds the actors registered against one global offset. Below
// fanoutSmallCap entries it is a plain growing slice; once it crosses the
// threshold, growth switches to explicit capacity doubling so the
// allocated capacity can be recorded in Vector's auxiliary map, mirroring
// the arena-style reallocation the original core performs once a cell's
// fanout outgrows its inline storage.
type fanoutList struct {
	targets []FanoutTarget
}

func (l *fanoutList) recentlyContains(t FanoutTarget) bool {
	n := len(l.targets)
	start := n - dedupTail
	if start < 0 {
		start = 0
	}
	for i := start; i < n; i++ {
		if l.targets[i] == t {
			return true
		}
	}
	return false
}

// add appends t if it was not one of the last dedupTail insertions,
// reporting the fanout list's new allocated capacity (used by Vector to
// maintain its auxiliary capacity map once promoted past fanoutSmallCap).
func (l *fanoutList) add(t FanoutTarget) (newCap int, grew bool) {
	if l.recentlyContains(t) {
		return cap(l.targets), false
	}
	before := cap(l.targets)
	if len(l.targets) < fanoutSmallCap {
		l.targets = append(l.targets, t)
		return cap(l.targets), cap(l.targets) != before
	}
	// Promoted: grow geometrically by explicit doubling instead of
	// relying on append's built-in growth factor, so the capacity is a
	// deterministic power-of-two-from-threshold sequence worth recording.
	if len(l.targets) == cap(l.targets) {
		newSlice := make([]FanoutTarget, len(l.targets), cap(l.targets)*2)
		copy(newSlice, l.targets)
		l.targets = newSlice
	}
	l.targets = append(l.targets, t)
	return cap(l.targets), cap(l.targets) != before
}

// fanoutTable maps a dense array of GlobalOffset-indexed fanout lists, plus
// the auxiliary capacity map spec.md §3 calls for once a cell promotes past
// the small-list representation.
type fanoutTable struct {
	lists []fanoutList
	caps  map[GlobalOffset]int
}

func newFanoutTable(n int) fanoutTable {
	return fanoutTable{lists: make([]fanoutList, n), caps: make(map[GlobalOffset]int)}
}

// incFanout registers actor against g. It is idempotent over the last few
// insertions so repeated registration during hierarchy traversal is safe
// (spec.md §4.3).
func (t *fanoutTable) incFanout(g GlobalOffset, actor FanoutTarget) {
	newCap, grew := t.lists[g].add(actor)
	if grew && len(t.lists[g].targets) > fanoutSmallCap {
		t.caps[g] = newCap
	}
}

func (t *fanoutTable) get(g GlobalOffset) []FanoutTarget {
	return t.lists[g].targets
}

// AllocatedCapacity reports the tracked allocated capacity for g's fanout
// list once it has promoted past the small-list representation, or 0 if it
// never promoted.
func (t *fanoutTable) AllocatedCapacity(g GlobalOffset) int {
	return t.caps[g]
}
