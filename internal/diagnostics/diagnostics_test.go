package diagnostics

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/vex/internal/lang"
	"github.com/oxhq/vex/internal/parser"
)

func TestSortWarnings(t *testing.T) {
	warnings := []Warning{
		{VexID: "b", Message: "m", Primary: Location{Path: "a.rs", StartByte: 10}},
		{VexID: "a", Message: "m", Primary: Location{Path: "a.rs", StartByte: 4}},
		{VexID: "a", Message: "m", Primary: Location{Path: "a.rs", StartByte: 0}},
	}
	SortWarnings(warnings)
	assert.Equal(t, []uint32{0, 4, 10}, []uint32{warnings[0].Primary.StartByte, warnings[1].Primary.StartByte, warnings[2].Primary.StartByte})
}

func TestSuppressedSameLine(t *testing.T) {
	r := lang.New()
	lang.RegisterBuiltins(r)
	l, _ := r.Get("rust")
	p := parser.New()
	defer p.Close()

	src := []byte("fn f() -> i32 { /* vex:ignore big-left */ 123456 + 1 }")
	tree, err := p.Parse(context.Background(), l, src)
	require.NoError(t, err)

	markers := ScanMarkers(tree.RootNode(), tree.Bytes)
	require.Len(t, markers, 1)
	assert.Equal(t, "big-left", markers[0].ID)

	w := Warning{VexID: "big-left", Primary: Location{StartRow: 0}}
	assert.True(t, Suppressed(markers, w))

	other := Warning{VexID: "other-id", Primary: Location{StartRow: 0}}
	assert.False(t, Suppressed(markers, other))
}

func TestSuppressedWildcard(t *testing.T) {
	markers := []Marker{{ID: "*", Row: 2, OnlyTokenRow: false}}
	w := Warning{VexID: "anything", Primary: Location{StartRow: 2}}
	assert.True(t, Suppressed(markers, w))
}

func TestSuppressedFollowingLineWhenMarkerAlone(t *testing.T) {
	markers := []Marker{{ID: "x", Row: 5, OnlyTokenRow: true}}
	assert.True(t, Suppressed(markers, Warning{VexID: "x", Primary: Location{StartRow: 6}}))
	assert.False(t, Suppressed(markers, Warning{VexID: "x", Primary: Location{StartRow: 7}}))
}

func TestFinalizeDropsLenient(t *testing.T) {
	c := NewCollector()
	c.Warn(Warning{VexID: "a", Lenient: true, Primary: Location{Path: "a.rs"}})
	c.Warn(Warning{VexID: "b", Lenient: false, Primary: Location{Path: "a.rs"}})

	survivors := c.Finalize(true)
	require.Len(t, survivors, 1)
	assert.Equal(t, "b", survivors[0].VexID)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil, false))
	assert.Equal(t, 1, ExitCode([]Warning{{}}, false))
	assert.Equal(t, 2, ExitCode(nil, true))
	assert.Equal(t, 2, ExitCode([]Warning{{}}, true))
}

func TestRenderProducesSnippet(t *testing.T) {
	var buf bytes.Buffer
	sources := map[string][]byte{"a.rs": []byte("fn f() -> i32 { 123456 + 1 }\n")}
	r := NewRenderer(&buf, sources)
	err := r.Render([]Warning{{
		VexID:   "big-left",
		Message: "large operands should come later",
		Primary: Location{Path: "a.rs", StartRow: 0, StartCol: 16, EndRow: 0, EndCol: 22, Label: "number too large"},
	}})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "warning[big-left]: large operands should come later")
	assert.Contains(t, out, "a.rs:1:17")
	assert.Contains(t, out, "number too large")
}
