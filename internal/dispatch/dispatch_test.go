package dispatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/vex/internal/config"
)

func writeProjectFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

// scenario 1 — simple match and warn (spec §8).
func TestScenarioSimpleMatchAndWarn(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "src/a.rs", "fn f() -> i32 { 123456 + 1 }\n")
	writeProjectFile(t, root, "vexes/big-left.star", `
func on_match(event) {
	l := event.captures.l
	r := event.captures.r
	if int(l.text()) >= int(r.text()) / 1000 {
		vex.warn("large operands should come later", {"at": [l, "number too large"]})
	}
}
vex.add_trigger("rust", "(binary_expression left: (integer_literal) @l right: (integer_literal) @r) @e", on_match)
`)

	cfg := config.Default()
	e, err := New(Options{Root: root, Config: cfg})
	require.NoError(t, err)
	defer e.Close()

	result, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "big-left", result.Warnings[0].VexID)
	assert.Equal(t, 1, result.ExitCode)
}

// scenario 2 — suppression (spec §8).
func TestScenarioSuppression(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "src/a.rs", "fn f() -> i32 { /* vex:ignore big-left */ 123456 + 1 }\n")
	writeProjectFile(t, root, "vexes/big-left.star", `
func on_match(event) {
	vex.warn("large operands should come later", {"at": [event.captures.l, "too large"]})
}
vex.add_trigger("rust", "(binary_expression left: (integer_literal) @l right: (integer_literal) @r) @e", on_match)
`)

	cfg := config.Default()
	e, err := New(Options{Root: root, Config: cfg})
	require.NoError(t, err)
	defer e.Close()

	result, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, 0, result.ExitCode)
}

// scenario 5 — bad query aborts before any file is scanned (spec §8).
func TestScenarioBadQueryAborts(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "src/a.rs", "fn f() {}\n")
	writeProjectFile(t, root, "vexes/broken.star", `
vex.add_trigger("rust", "(binary_expression left: (integer_literal) @l", func(event) {})
`)

	cfg := config.Default()
	e, err := New(Options{Root: root, Config: cfg})
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Run(context.Background())
	require.Error(t, err)
	var engineErr *EngineError
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, "bad query", engineErr.Kind)
	assert.Equal(t, "ERR_BAD_QUERY", engineErr.Code)
}

// scenario 6 — deterministic ordering across two scripts (spec §8).
func TestScenarioDeterministicOrdering(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "src/a.rs", "fn f() { 1 + 2; }\n")
	writeProjectFile(t, root, "vexes/a.star", `
func on_match(event) {
	vex.warn("literal found", {"at": [event.captures.n, ""]})
}
vex.add_trigger("rust", "(integer_literal) @n", on_match)
`)
	writeProjectFile(t, root, "vexes/b.star", `
func on_match(event) {
	vex.warn("literal found", {"at": [event.captures.n, ""]})
}
vex.add_trigger("rust", "(integer_literal) @n", on_match)
`)

	cfg := config.Default()
	e, err := New(Options{Root: root, Config: cfg})
	require.NoError(t, err)
	defer e.Close()

	result, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Warnings, 4)
	assert.Equal(t, "a", result.Warnings[0].VexID)
	assert.Equal(t, "b", result.Warnings[1].VexID)
}

// scenario 3 — language override via use-for makes an otherwise-unmapped
// extension scannable (spec §8).
func TestScenarioLanguageOverrideViaUseFor(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "include/x.h", "int add(int a, int b);\n")
	writeProjectFile(t, root, "vexes/decl.star", `
func on_match(event) {
	vex.warn("function declaration found", {"at": [event.captures.d, ""]})
}
vex.add_trigger("cpp", "(declaration) @d", on_match)
`)

	cfg := config.Default()
	cfg.Language = map[string]config.LanguageOverride{
		"cpp": {UseFor: []string{"*.h"}},
	}
	e, err := New(Options{Root: root, Config: cfg})
	require.NoError(t, err)
	defer e.Close()

	result, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "decl", result.Warnings[0].VexID)
}

// Without the use-for override, a bare .h file resolves to no language at
// all and is silently skipped (spec §4.1).
func TestScenarioNoLanguageOverrideLeavesHeaderUnscanned(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "include/x.h", "int add(int a, int b);\n")
	writeProjectFile(t, root, "vexes/decl.star", `
func on_match(event) {
	vex.warn("function declaration found", {"at": [event.captures.d, ""]})
}
vex.add_trigger("cpp", "(declaration) @d", on_match)
`)

	cfg := config.Default()
	e, err := New(Options{Root: root, Config: cfg})
	require.NoError(t, err)
	defer e.Close()

	result, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
}

// `<language>.extensions` overrides the default extension set rather than
// adding to it (spec §3).
func TestLanguageExtensionsOverrideReplacesDefault(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "main.py3", "x = 1\n")
	writeProjectFile(t, root, "vexes/any.star", `
func on_match(event) {
	vex.warn("module found", {"at": [event.captures.m, ""]})
}
vex.add_trigger("python", "(module) @m", on_match)
`)

	cfg := config.Default()
	cfg.Language = map[string]config.LanguageOverride{
		"python": {Extensions: []string{".py3"}},
	}
	e, err := New(Options{Root: root, Config: cfg})
	require.NoError(t, err)
	defer e.Close()

	result, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "any", result.Warnings[0].VexID)
}
