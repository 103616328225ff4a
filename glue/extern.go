package glue

import (
	"fmt"

	"github.com/rmanohar/actsim-go/wideint"
)

// ExternFunc is one registered external symbol: a function marked external
// in a user-function body (spec.md §4.10 step 3), dispatched with flat
// (width, value) argument tuples rather than a CHP call frame.
type ExternFunc func(args []wideint.Value) (wideint.Value, error)

// ExternRegistry is the flat symbol table spec.md §4.10 calls for,
// mirroring the original's actsim_ext.h dispatch table. A missing symbol is
// runtime-fatal (spec.md §7), surfaced as an error rather than a panic so
// the caller can decide how to terminate.
type ExternRegistry struct {
	funcs map[string]ExternFunc
}

// NewExternRegistry constructs an empty registry.
func NewExternRegistry() *ExternRegistry {
	return &ExternRegistry{funcs: make(map[string]ExternFunc)}
}

// Register installs fn under name, overwriting any previous registration.
func (r *ExternRegistry) Register(name string, fn ExternFunc) {
	r.funcs[name] = fn
}

// Dispatch matches chp.Actor's Extern field signature, so wiring a
// registry onto an elaborated actor is one assignment:
// actor.Extern = registry.Dispatch.
func (r *ExternRegistry) Dispatch(name string, args []wideint.Value) (wideint.Value, error) {
	fn, ok := r.funcs[name]
	if !ok {
		return wideint.Value{}, &ErrMissingSymbol{Name: name}
	}
	return fn(args)
}

// ErrMissingSymbol reports that an external function call named a symbol
// this registry has no entry for (spec.md §7 "external-function failures:
// missing symbol -> fatal").
type ErrMissingSymbol struct {
	Name string
}

func (e *ErrMissingSymbol) Error() string {
	return fmt.Sprintf("glue: no external function registered for %q", e.Name)
}
