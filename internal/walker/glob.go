// Package walker implements the path walker & globber (component I):
// project-root traversal subject to include/exclude globs, and the
// glob engine shared by the configuration model's use-for/ignore lists.
package walker

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Match reports whether path matches pattern under the exact glob
// semantics of spec §4.6: `?` any single char, `*` any run of chars
// within one path component, `**` any sequence of whole components
// (must occupy a full component), bracket classes with Unicode-ordered
// ranges, and more than two consecutive `*` is a syntax error.
//
// doublestar.Match implements the matching itself; the syntax errors
// doublestar does not raise are added by Validate. The teacher's
// scanner instead layered ad hoc include/exclude glob lists over stdlib
// filepath.Match, which doesn't support `**` at all, so the engine is
// swapped to doublestar here.
func Match(pattern, path string) (bool, error) {
	if err := Validate(pattern); err != nil {
		return false, err
	}
	path = strings.ReplaceAll(path, `\`, "/")
	return doublestar.Match(pattern, path)
}

// Validate compiles pattern and rejects more than two consecutive `*`
// characters and a `**` that shares a path component with other
// characters (`**a`, `a**`), which doublestar itself treats as plain
// (if odd) patterns rather than syntax errors; spec §4.6 requires
// rejecting both.
func Validate(pattern string) error {
	if strings.Contains(pattern, "***") {
		return &GlobSyntaxError{Pattern: pattern, Reason: "more than two consecutive '*' characters"}
	}
	for _, seg := range strings.Split(pattern, "/") {
		if seg != "**" && strings.Contains(seg, "**") {
			return &GlobSyntaxError{Pattern: pattern, Reason: "'**' must occupy a whole path component"}
		}
	}
	if !doublestar.ValidatePattern(pattern) {
		return &GlobSyntaxError{Pattern: pattern, Reason: "invalid glob syntax"}
	}
	return nil
}

// GlobSyntaxError reports a malformed glob in `vex.toml`'s ignore or
// use-for lists — a fatal configuration error per spec §7.
type GlobSyntaxError struct {
	Pattern string
	Reason  string
}

func (e *GlobSyntaxError) Error() string {
	return fmt.Sprintf("invalid glob %q: %s", e.Pattern, e.Reason)
}

// CompiledGlobs is a pre-validated list of patterns, used for both
// `ignore` and `<language>.use-for`.
type CompiledGlobs struct {
	patterns []string
}

// Compile validates every pattern up front so a bad glob is a fatal
// configuration error reported before any file is scanned (spec §7),
// rather than surfacing lazily on the first matched path.
func Compile(patterns []string) (*CompiledGlobs, error) {
	for _, p := range patterns {
		if err := Validate(p); err != nil {
			return nil, err
		}
	}
	return &CompiledGlobs{patterns: patterns}, nil
}

// MatchAny reports whether any compiled pattern matches path.
func (g *CompiledGlobs) MatchAny(path string) bool {
	if g == nil {
		return false
	}
	for _, p := range g.patterns {
		if ok, _ := Match(p, path); ok {
			return true
		}
	}
	return false
}

// MatchFirst returns the index of the first pattern matching path, or
// -1. The language resolver does not call it: use-for patterns reach
// internal/lang as plain strings through Patterns.
func (g *CompiledGlobs) MatchFirst(path string) int {
	if g == nil {
		return -1
	}
	for i, p := range g.patterns {
		if ok, _ := Match(p, path); ok {
			return i
		}
	}
	return -1
}

// Patterns returns the underlying pattern list.
func (g *CompiledGlobs) Patterns() []string {
	if g == nil {
		return nil
	}
	return g.patterns
}
