package script

import (
	"context"
	"os"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/object"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/vex/internal/diagnostics"
)

// Runtime owns one Host for the lifetime of an engine run and drives
// scripts through Load -> Init -> Quiescent -> Dispatch (spec §4.4,
// §4.5). Grounded on the Runtime/RunSource shape demonstrated in
// other_examples' canopy runtime_test.go (NewRuntime, RunSource,
// LoadScript), adapted to this spec's phase-gated vex.* API instead of
// canopy's parse/query/node_text globals.
type Runtime struct {
	host *Host
}

// NewRuntime returns a runtime whose scripts will see the run-wide
// lenient flag via vex.lenient and whose warnings are forwarded to
// collector.
func NewRuntime(collector *diagnostics.Collector, lenient bool) *Runtime {
	return &Runtime{host: NewHost(collector, lenient)}
}

// Host exposes the underlying host for Runtime's callers that need to
// drive dispatch directly (internal/dispatch).
func (rt *Runtime) Host() *Host { return rt.host }

// InitScript evaluates one script's source during the Init phase.
// The dispatcher calls this once per script, in script-path
// lexicographic order (spec §4.5 Initializing); a failure here — a
// parse error or a phase violation raised by the script's top-level
// code — aborts the run before any file is scanned (spec §4.4).
// Top-level statements in a Risor script run immediately, which is
// where this spec's scripts call vex.add_trigger/vex.observe; there is
// no separate script-defined `init` function to look up.
func (rt *Runtime) InitScript(ctx context.Context, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return &ScriptLoadError{ScriptPath: path, Cause: err}
	}

	rt.host.beginScript(path)
	rt.host.SetPhase(PhaseInit)

	_, err = risor.Eval(ctx, string(src), risor.WithGlobals(rt.host.Globals()))
	if v := rt.host.Violation(); v != nil {
		rt.host.violation = nil
		return v
	}
	if err != nil {
		return &ScriptLoadError{ScriptPath: path, Cause: err}
	}
	return nil
}

// Freeze transitions every loaded script's shared host to Quiescent,
// between Init and the first dispatched event (spec §4.5).
func (rt *Runtime) Freeze() { rt.host.SetPhase(PhaseQuiescent) }

// BeginDispatch transitions the host into Dispatch, where emit and
// read-only operations are permitted and registration becomes a
// phase violation.
func (rt *Runtime) BeginDispatch() { rt.host.SetPhase(PhaseDispatch) }

// BeginFile primes the host with the file an event is about to be
// fired for, so vex.warn can resolve locations.
func (rt *Runtime) BeginFile(path string, src []byte) { rt.host.beginFile(path, src) }

// Fire invokes fn (a script-side function value obtained from
// vex.observe or from a trigger's own observer argument) with args,
// surfacing a phase violation if the callback attempted a disallowed
// registration, or a plain error for any other script-side failure.
// scriptPath attributes the call for error messages and for vex.warn's
// vex-id resolution.
func (rt *Runtime) Fire(ctx context.Context, scriptPath string, fn object.Object, args ...object.Object) error {
	rt.host.beginScript(scriptPath)
	_, err := risor.Call(ctx, fn, args)
	if v := rt.host.Violation(); v != nil {
		rt.host.violation = nil
		return v
	}
	return err
}

// FireObserver invokes a registered Observer with args.
func (rt *Runtime) FireObserver(ctx context.Context, o Observer, args ...object.Object) error {
	return rt.Fire(ctx, o.ScriptPath, o.Fn, args...)
}

// NewQueryMatchEvent builds the payload passed to a query_match
// observer: a map exposing `.captures[name]` per spec §4.4.
func NewQueryMatchEvent(captures map[string]*sitter.Node, src []byte) object.Object {
	capObjs := make(map[string]object.Object, len(captures))
	for name, n := range captures {
		capObjs[name] = NewNodeView(n, src)
	}
	return object.NewMap(map[string]object.Object{
		"captures": object.NewMap(capObjs),
	})
}

// NewFileEvent builds the payload passed to open_file/close_file
// observers.
func NewFileEvent(path string) object.Object {
	return object.NewMap(map[string]object.Object{
		"path": object.NewString(path),
	})
}
