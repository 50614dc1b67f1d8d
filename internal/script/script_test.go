package script

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/vex/internal/diagnostics"
)

func TestInitScriptRegistersTriggerAndObserver(t *testing.T) {
	collector := diagnostics.NewCollector()
	rt := NewRuntime(collector, false)

	src := `
func on_match(event) {
	vex.warn("large operands should come later")
}
vex.add_trigger("rust", "(binary_expression left: (integer_literal) @l right: (integer_literal) @r) @e", on_match)
vex.observe("query_match", on_match)
`
	path := writeFixture(t, "big-left.star", src)
	err := rt.InitScript(context.Background(), path)
	require.NoError(t, err)

	triggers := rt.Host().Triggers()
	require.Len(t, triggers, 1)
	assert.Equal(t, "rust", triggers[0].Language)

	observers := rt.Host().ObserversFor(EventQueryMatch)
	require.Len(t, observers, 1)
}

func TestAddTriggerDuringDispatchIsPhaseViolation(t *testing.T) {
	collector := diagnostics.NewCollector()
	rt := NewRuntime(collector, false)
	rt.Host().SetPhase(PhaseDispatch)
	rt.Host().beginScript("late.star")

	rt.Host().addTrigger(context.Background())
	v := rt.Host().Violation()
	require.NotNil(t, v)
	assert.Equal(t, "add_trigger", v.Operation)
}

func TestWarnOutsideDispatchIsPhaseViolation(t *testing.T) {
	collector := diagnostics.NewCollector()
	rt := NewRuntime(collector, false)
	rt.Host().SetPhase(PhaseInit)
	rt.Host().beginScript("x.star")

	rt.Host().warn(context.Background())
	require.NotNil(t, rt.Host().Violation())
}

func TestVexIDFromScriptPath(t *testing.T) {
	assert.Equal(t, "big-left", vexIDFor("vexes/big-left.star"))
	assert.Equal(t, "check", vexIDFor("/abs/path/check.star"))
}

func writeFixture(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}
