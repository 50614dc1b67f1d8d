// Package script implements the script host (component E): loading,
// validating, and executing user scripts in a sandboxed Risor
// evaluator exposing the restricted host API of spec §4.4.
package script

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor/object"

	"github.com/oxhq/vex/internal/diagnostics"
)

// Phase is the script lifecycle state spec §4.4 enumerates: Load,
// Init, Quiescent, Dispatch. Quiescent and Dispatch share enforcement
// (registration ops are rejected in both), so Quiescent never needs
// its own branch in phase checks below — it exists only to describe
// the moment registrations freeze between Init and the first event.
type Phase int

const (
	PhaseLoad Phase = iota
	PhaseInit
	PhaseQuiescent
	PhaseDispatch
)

func (p Phase) String() string {
	switch p {
	case PhaseLoad:
		return "load"
	case PhaseInit:
		return "init"
	case PhaseQuiescent:
		return "quiescent"
	case PhaseDispatch:
		return "dispatch"
	default:
		return "unknown"
	}
}

// PhaseViolationError is fatal (spec §7): a script called a host
// operation not permitted in the phase it was in.
type PhaseViolationError struct {
	ScriptPath string
	Operation  string
	Phase      Phase
}

func (e *PhaseViolationError) Error() string {
	return fmt.Sprintf("%s: %s is not permitted during the %s phase", e.ScriptPath, e.Operation, e.Phase)
}

// ScriptLoadError is fatal (spec §7): a script failed to parse or its
// registration phase raised an error.
type ScriptLoadError struct {
	ScriptPath string
	Cause      error
}

func (e *ScriptLoadError) Error() string {
	return fmt.Sprintf("failed to load script %s: %v", e.ScriptPath, e.Cause)
}

func (e *ScriptLoadError) Unwrap() error { return e.Cause }

// Trigger is a (language, query, observer) registration (spec §3),
// tagged with the script that registered it for ordering and error
// reporting.
type Trigger struct {
	ID         int
	ScriptPath string
	Language   string
	QueryText  string
	Observer   object.Object
}

// Observer is a script-side function bound to a dispatcher event.
type Observer struct {
	ID         int
	ScriptPath string
	Event      string
	Fn         object.Object
}

// Recognized event names (spec §3, §4.5).
const (
	EventOpenProject = "open_project"
	EventOpenFile    = "open_file"
	EventQueryMatch  = "query_match"
	EventCloseFile   = "close_file"
	EventCloseProject = "close_project"
)

// Host is the sandboxed evaluation context shared across every script
// loaded in one engine run: it owns the phase-enforced host API,
// accumulates triggers/observers into the flat tables spec §9
// recommends (indices, not a cyclic ownership graph), and forwards
// vex.warn calls into the diagnostic collector.
//
// Grounded on other_examples' canopy hostfuncs.go for the shape of
// host-function registration and Go<->Risor value conversion; the
// phase state machine and flat-table registries are spec-original
// since the teacher's pack has no scripting host to begin with.
type Host struct {
	phase     Phase
	lenient   bool
	collector *diagnostics.Collector

	currentScript string
	currentFile   string
	currentSrc    []byte

	triggers  []Trigger
	observers []Observer

	nextTriggerID  int
	nextObserverID int

	violation *PhaseViolationError
}

// NewHost returns a host bound to collector, with the run-wide lenient
// flag scripts read via vex.lenient.
func NewHost(collector *diagnostics.Collector, lenient bool) *Host {
	return &Host{phase: PhaseLoad, lenient: lenient, collector: collector}
}

// SetPhase transitions the host. Called by Runtime as the dispatcher's
// state machine advances (spec §4.5).
func (h *Host) SetPhase(p Phase) { h.phase = p }

// Violation returns the first phase violation recorded by a host
// builtin, if any; Risor surfaces the same failure as an evaluation
// error, but the typed error here lets the caller report the precise
// spec §7 error kind instead of a generic script failure.
func (h *Host) Violation() *PhaseViolationError { return h.violation }

// beginScript marks which script is currently executing, for
// attributing triggers/observers/warnings and error messages.
func (h *Host) beginScript(path string) { h.currentScript = path }

// beginFile records the file the dispatcher is about to fire
// open_file/query_match/close_file for, so vex.warn can resolve
// locations without scripts ever handling a path themselves.
func (h *Host) beginFile(path string, src []byte) {
	h.currentFile = path
	h.currentSrc = src
}

// Triggers returns every registered trigger, in registration order.
func (h *Host) Triggers() []Trigger { return h.triggers }

// ObserversFor returns every observer registered for event, in
// registration order — which, because scripts are loaded in
// script-path lexicographic order (spec §4.5 Initializing), is also
// script-path lexicographic order.
func (h *Host) ObserversFor(event string) []Observer {
	var out []Observer
	for _, o := range h.observers {
		if o.Event == event {
			out = append(out, o)
		}
	}
	return out
}

func vexIDFor(scriptPath string) string {
	base := filepath.Base(scriptPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Globals builds the "vex" namespace exposed to every script: a map
// whose function-valued entries are phase-gated builtins and whose
// vex.lenient entry is a plain read-only value, matching spec §4.4's
// distinction between properties (no parens) and operations (parens).
func (h *Host) Globals() map[string]object.Object {
	return map[string]object.Object{
		"vex": object.NewMap(map[string]object.Object{
			"lenient":     object.NewBool(h.lenient),
			"add_trigger": object.NewBuiltin("vex.add_trigger", h.addTrigger),
			"observe":     object.NewBuiltin("vex.observe", h.observe),
			"warn":        object.NewBuiltin("vex.warn", h.warn),
		}),
	}
}

func (h *Host) addTrigger(ctx context.Context, args ...object.Object) object.Object {
	if h.phase != PhaseInit {
		return h.fail("add_trigger")
	}
	if len(args) != 3 {
		return object.NewArgsError("add_trigger", 3, len(args))
	}
	langArg, ok := args[0].(*object.String)
	if !ok {
		return object.Errorf("add_trigger: language must be a string, got %s", args[0].Type())
	}
	queryArg, ok := args[1].(*object.String)
	if !ok {
		return object.Errorf("add_trigger: query must be a string, got %s", args[1].Type())
	}

	t := Trigger{
		ID:         h.nextTriggerID,
		ScriptPath: h.currentScript,
		Language:   langArg.Value(),
		QueryText:  queryArg.Value(),
		Observer:   args[2],
	}
	h.nextTriggerID++
	h.triggers = append(h.triggers, t)
	return object.Nil
}

func (h *Host) observe(ctx context.Context, args ...object.Object) object.Object {
	if h.phase != PhaseInit {
		return h.fail("observe")
	}
	if len(args) != 2 {
		return object.NewArgsError("observe", 2, len(args))
	}
	eventArg, ok := args[0].(*object.String)
	if !ok {
		return object.Errorf("observe: event name must be a string, got %s", args[0].Type())
	}

	o := Observer{
		ID:         h.nextObserverID,
		ScriptPath: h.currentScript,
		Event:      eventArg.Value(),
		Fn:         args[1],
	}
	h.nextObserverID++
	h.observers = append(h.observers, o)
	return object.Nil
}

func (h *Host) warn(ctx context.Context, args ...object.Object) object.Object {
	if h.phase != PhaseDispatch {
		return h.fail("warn")
	}
	if len(args) < 1 || len(args) > 2 {
		return object.Errorf("warn: expected 1 or 2 arguments, got %d", len(args))
	}
	messageArg, ok := args[0].(*object.String)
	if !ok {
		return object.Errorf("warn: message must be a string, got %s", args[0].Type())
	}

	w := diagnostics.Warning{
		VexID:   vexIDFor(h.currentScript),
		Message: messageArg.Value(),
		Primary: diagnostics.Location{Path: h.currentFile},
	}

	if len(args) == 2 {
		opts, ok := args[1].(*object.Map)
		if !ok {
			return object.Errorf("warn: options must be a map, got %s", args[1].Type())
		}
		applyWarnOptions(&w, opts.Value())
	}

	h.collector.Warn(w)
	return object.Nil
}

func applyWarnOptions(w *diagnostics.Warning, opts map[string]object.Object) {
	if at, ok := opts["at"]; ok {
		w.Primary = locationFrom(w.Primary.Path, at)
	}
	if extra, ok := opts["extra_info"].(*object.String); ok {
		w.ExtraInfo = extra.Value()
	}
	if lenient, ok := opts["lenient"].(*object.Bool); ok {
		w.Lenient = lenient.Value()
	}
	if seeAlso, ok := opts["see_also"].(*object.List); ok {
		for _, item := range seeAlso.Value() {
			w.Secondary = append(w.Secondary, locationFrom(w.Primary.Path, item))
		}
	}
}

// locationFrom accepts either a bare node view or a [node, label]
// pair, matching spec §4.4's `at=(node,label)` shorthand.
func locationFrom(path string, v object.Object) diagnostics.Location {
	node := v
	label := ""
	if lst, ok := v.(*object.List); ok && len(lst.Value()) == 2 {
		node = lst.Value()[0]
		if s, ok := lst.Value()[1].(*object.String); ok {
			label = s.Value()
		}
	}

	sb, eb, sr, sc, er, ec, ok := locationFromNodeView(node)
	if !ok {
		return diagnostics.Location{Path: path, Label: label}
	}
	return diagnostics.Location{
		Path: path, StartByte: sb, EndByte: eb,
		StartRow: sr, StartCol: sc, EndRow: er, EndCol: ec,
		Label: label,
	}
}

func (h *Host) fail(operation string) object.Object {
	h.violation = &PhaseViolationError{ScriptPath: h.currentScript, Operation: operation, Phase: h.phase}
	return object.Errorf("phase violation: %s is not permitted during the %s phase", operation, h.phase)
}
