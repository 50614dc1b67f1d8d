package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/vex/internal/lang"
	"github.com/oxhq/vex/internal/parser"
)

func rustLang(t *testing.T) *lang.Language {
	t.Helper()
	r := lang.New()
	lang.RegisterBuiltins(r)
	l, ok := r.Get("rust")
	require.True(t, ok)
	return l
}

func TestCompileRejectsCaptureless(t *testing.T) {
	c := NewCompiler()
	l := rustLang(t)
	_, err := c.Compile(l, "(binary_expression)")
	require.Error(t, err)
	var bad *BadQueryError
	require.ErrorAs(t, err, &bad)
}

func TestCompileCachesByLanguageAndText(t *testing.T) {
	c := NewCompiler()
	l := rustLang(t)
	pattern := "(integer_literal) @n"

	q1, err := c.Compile(l, pattern)
	require.NoError(t, err)
	q2, err := c.Compile(l, pattern)
	require.NoError(t, err)
	assert.Same(t, q1, q2)
}

func TestMatchesBindsNamedCaptures(t *testing.T) {
	l := rustLang(t)
	p := parser.New()
	defer p.Close()

	tree, err := p.Parse(context.Background(), l, []byte("fn f() -> i32 { 123456 + 1 }"))
	require.NoError(t, err)

	c := NewCompiler()
	q, err := c.Compile(l, "(binary_expression left: (integer_literal) @l right: (integer_literal) @r) @e")
	require.NoError(t, err)

	matches, err := q.Matches(tree.RootNode(), tree.Bytes)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	l1 := matches[0].Get("l")
	r1 := matches[0].Get("r")
	require.NotNil(t, l1)
	require.NotNil(t, r1)
	assert.Equal(t, "123456", string(tree.Bytes[l1.StartByte():l1.EndByte()]))
	assert.Equal(t, "1", string(tree.Bytes[r1.StartByte():r1.EndByte()]))
}
