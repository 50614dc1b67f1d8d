// Package dispatch implements the event dispatcher (component F): the
// state machine that loads scripts, walks the project, and invokes
// observers in the strict serial order spec §4.5 and §5 require.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/vex/internal/config"
	"github.com/oxhq/vex/internal/core"
	"github.com/oxhq/vex/internal/diagnostics"
	"github.com/oxhq/vex/internal/lang"
	"github.com/oxhq/vex/internal/parser"
	"github.com/oxhq/vex/internal/query"
	"github.com/oxhq/vex/internal/script"
	"github.com/oxhq/vex/internal/walker"
)

// State is the dispatcher's lifecycle state (spec §4.5).
type State int

const (
	StateLoading State = iota
	StateInitializing
	StateWalking
	StateFinalizing
	StateDone
	StateFailed
)

// FileError is a non-fatal per-file I/O failure, recorded and
// reported after the run without aborting it (spec §7).
type FileError struct {
	Path string
	Err  error
}

// EngineError is a fatal error that aborts the run (spec §7): one of
// configuration, script-load, phase-violation, bad-query, parser
// failure, or I/O failure reading vex.toml/a script. Code is the
// stable ERR_* identifier a front-end can switch on; Error() renders
// through core.CLIError so the message/detail split matches the
// teacher's CLIError/Wrap idiom.
type EngineError struct {
	Kind  string
	Code  string
	Cause error
}

func (e *EngineError) Error() string { return core.Wrap(e.Code, e.Kind, e.Cause).Error() }
func (e *EngineError) Unwrap() error { return e.Cause }

// engineErrorCodes maps each fatal Kind string (used throughout this
// package and asserted on directly in tests) to its stable ERR_* code.
var engineErrorCodes = map[string]string{
	"configuration error": core.ErrConfig,
	"script load error":   core.ErrScriptLoad,
	"phase violation":     core.ErrPhaseViolation,
	"bad query":           core.ErrBadQuery,
	"parser failure":      core.ErrParserCrash,
	"I/O error":           core.ErrIO,
}

// newEngineError builds an EngineError for kind, resolving its stable
// code from engineErrorCodes.
func newEngineError(kind string, cause error) *EngineError {
	return &EngineError{Kind: kind, Code: engineErrorCodes[kind], Cause: cause}
}

// Result is the outcome of one engine run.
type Result struct {
	Warnings  []diagnostics.Warning
	ExitCode  int
	FileErrors []FileError
}

// Options configures one engine run.
type Options struct {
	Root    string
	Config  *config.Config
	Verbose bool
	Out     *os.File // destination for --verbose logging; defaults to os.Stderr
}

// Engine wires every core component together for a single run. Two
// runs must not share an Engine (spec §9: "two runs in the same
// process must not share parser pools or registries unless explicitly
// isolated").
type Engine struct {
	opts      Options
	state     State
	runID     uuid.UUID
	registry  *lang.Registry
	parsers   *parser.Pool
	compiler  *query.Compiler
	collector *diagnostics.Collector
	runtime   *script.Runtime
	ignore    *walker.CompiledGlobs
	logger    *log.Logger
}

// New constructs an engine for one run, compiling the configured
// ignore globs and wiring the shared glob matcher used by both the
// walker and the language resolver's use-for rule (spec §4.1, §4.6).
func New(opts Options) (*Engine, error) {
	if opts.Out == nil {
		opts.Out = os.Stderr
	}
	ignore, err := walker.Compile(opts.Config.Ignore)
	if err != nil {
		return nil, newEngineError("configuration error", err)
	}

	registry := lang.New()
	lang.RegisterBuiltins(registry)
	lang.SetGlobMatcher(walker.Match)

	for name, override := range opts.Config.Language {
		if !registry.Has(name) {
			return nil, newEngineError("configuration error", fmt.Errorf("unknown language %q", name))
		}
		if len(override.UseFor) > 0 {
			globs, err := walker.Compile(override.UseFor)
			if err != nil {
				return nil, newEngineError("configuration error", err)
			}
			registry.SetUseFor(name, globs.Patterns())
		}
		if len(override.Extensions) > 0 {
			registry.SetExtensions(name, override.Extensions)
		}
	}

	collector := diagnostics.NewCollector()
	return &Engine{
		opts:      opts,
		state:     StateLoading,
		runID:     uuid.New(),
		registry:  registry,
		parsers:   parser.New(),
		compiler:  query.NewCompiler(),
		collector: collector,
		runtime:   script.NewRuntime(collector, opts.Config.Lenient),
		ignore:    ignore,
		logger:    log.New(opts.Out, "", 0),
	}, nil
}

// Close releases the engine's parser pool.
func (e *Engine) Close() { e.parsers.Close() }

func (e *Engine) verbosef(format string, args ...interface{}) {
	if e.opts.Verbose {
		e.logger.Printf("[vex %s] "+format, append([]interface{}{e.runID}, args...)...)
	}
}

// Run drives the engine through its full state machine and returns
// the collected, sorted diagnostics and exit code. A non-nil error is
// always an *EngineError and means the run reached StateFailed.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	scripts, err := walker.WalkScripts(e.opts.Root, e.opts.Config.VexesDir)
	if err != nil {
		e.state = StateFailed
		return nil, newEngineError("I/O error", err)
	}

	e.state = StateInitializing
	if err := e.initializeScripts(ctx, scripts); err != nil {
		e.state = StateFailed
		return nil, err
	}

	e.runtime.Freeze()
	e.runtime.BeginDispatch()
	if err := e.fireProjectEvent(ctx, script.EventOpenProject); err != nil {
		e.state = StateFailed
		return nil, err
	}

	e.state = StateWalking
	fileErrors, err := e.walkFiles(ctx)
	if err != nil {
		e.state = StateFailed
		return nil, err
	}

	e.state = StateFinalizing
	if err := e.fireProjectEvent(ctx, script.EventCloseProject); err != nil {
		e.state = StateFailed
		return nil, err
	}
	e.state = StateDone

	survivors := e.collector.Finalize(e.opts.Config.Lenient)
	return &Result{
		Warnings:   survivors,
		ExitCode:   diagnostics.ExitCode(survivors, false),
		FileErrors: fileErrors,
	}, nil
}

func (e *Engine) initializeScripts(ctx context.Context, scripts []string) error {
	for _, path := range scripts {
		if err := e.runtime.InitScript(ctx, path); err != nil {
			return classifyScriptError(err)
		}
		if e.opts.Verbose {
			triggers, observers := 0, 0
			for _, t := range e.runtime.Host().Triggers() {
				if t.ScriptPath == path {
					triggers++
				}
			}
			for _, evt := range []string{script.EventOpenProject, script.EventOpenFile, script.EventQueryMatch, script.EventCloseFile, script.EventCloseProject} {
				for _, o := range e.runtime.Host().ObserversFor(evt) {
					if o.ScriptPath == path {
						observers++
					}
				}
			}
			e.verbosef("loaded %s: %d trigger(s), %d observer(s)", path, triggers, observers)
		}
	}

	for _, t := range e.runtime.Host().Triggers() {
		if !e.registry.Has(t.Language) {
			return newEngineError("bad query", &lang.UnsupportedLanguageError{Name: t.Language})
		}
		l, _ := e.registry.Get(t.Language)
		if _, err := e.compiler.Compile(l, t.QueryText); err != nil {
			return newEngineError("bad query", err)
		}
	}
	return nil
}

func (e *Engine) fireProjectEvent(ctx context.Context, event string) error {
	for _, o := range e.runtime.Host().ObserversFor(event) {
		if err := e.runtime.FireObserver(ctx, o); err != nil {
			return classifyScriptError(err)
		}
	}
	return nil
}

func (e *Engine) walkFiles(ctx context.Context) ([]FileError, error) {
	files, err := walker.Walk(walker.Options{Root: e.opts.Root, VexesDir: e.opts.Config.VexesDir, Ignore: e.ignore})
	if err != nil {
		return nil, newEngineError("I/O error", err)
	}

	var fileErrors []FileError
	for _, rel := range files {
		l, ok := e.registry.Resolve(rel)
		if !ok {
			continue
		}

		full := filepath.Join(e.opts.Root, rel)
		src, err := os.ReadFile(full)
		if err != nil {
			fileErrors = append(fileErrors, FileError{Path: rel, Err: err})
			continue
		}

		tree, err := e.parsers.Parse(ctx, l, src)
		if err != nil {
			return nil, newEngineError("parser failure", err)
		}

		markers := diagnostics.ScanMarkers(tree.RootNode(), src)
		e.collector.RegisterFile(rel, src, markers)
		e.runtime.BeginFile(rel, src)

		if err := e.fireFileEvent(ctx, script.EventOpenFile, rel); err != nil {
			return nil, err
		}
		if err := e.dispatchTriggers(ctx, l, tree.RootNode(), src); err != nil {
			return nil, err
		}
		if err := e.fireFileEvent(ctx, script.EventCloseFile, rel); err != nil {
			return nil, err
		}
	}
	return fileErrors, nil
}

func (e *Engine) fireFileEvent(ctx context.Context, event, path string) error {
	payload := script.NewFileEvent(path)
	for _, o := range e.runtime.Host().ObserversFor(event) {
		if err := e.runtime.FireObserver(ctx, o, payload); err != nil {
			return classifyScriptError(err)
		}
	}
	return nil
}

func (e *Engine) dispatchTriggers(ctx context.Context, fileLang *lang.Language, root *sitter.Node, src []byte) error {
	for _, t := range e.runtime.Host().Triggers() {
		if t.Language != fileLang.Name {
			continue
		}

		q, err := e.compiler.Compile(fileLang, t.QueryText)
		if err != nil {
			return newEngineError("bad query", err)
		}
		matches, err := q.Matches(root, src)
		if err != nil {
			return newEngineError("bad query", err)
		}

		for _, m := range matches {
			captures := make(map[string]*sitter.Node, len(m.Captures))
			for _, c := range m.Captures {
				captures[c.Name] = c.Node
			}
			payload := script.NewQueryMatchEvent(captures, src)
			if err := e.runtime.Fire(ctx, t.ScriptPath, t.Observer, payload); err != nil {
				return classifyScriptError(err)
			}
		}
	}
	return nil
}

func classifyScriptError(err error) error {
	if _, ok := err.(*script.PhaseViolationError); ok {
		return newEngineError("phase violation", err)
	}
	if _, ok := err.(*script.ScriptLoadError); ok {
		return newEngineError("script load error", err)
	}
	return newEngineError("script load error", err)
}
