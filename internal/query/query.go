// Package query implements the query compiler & matcher (component D):
// compiling a tree-sitter pattern for a language and enumerating
// matches with named captures over a tree, in the deterministic order
// spec §4.3 requires.
package query

import (
	"fmt"
	"sort"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/vex/internal/lang"
)

// BadQueryError is a fatal error (spec §7): the pattern fails to
// compile or declares no captures. A trigger naming a language not in
// the registry is reported by internal/dispatch as a
// lang.UnsupportedLanguageError instead.
type BadQueryError struct {
	Language string
	Pattern  string
	Reason   string
}

func (e *BadQueryError) Error() string {
	return fmt.Sprintf("bad query for language %q: %s: %s", e.Language, e.Reason, e.Pattern)
}

// Capture is one named binding in a Match.
type Capture struct {
	Name string
	Node *sitter.Node
}

// Match is one pattern match over a tree: the root capture (the
// pattern's overall span, if named) plus every named capture.
type Match struct {
	// RootStart/RootEnd are the byte range of the match's outermost
	// captured node, used for the deterministic sort below.
	RootStart uint32
	RootEnd   uint32
	Captures  []Capture
}

// Get returns the first node captured under name, or nil.
func (m Match) Get(name string) *sitter.Node {
	for _, c := range m.Captures {
		if c.Name == name {
			return c.Node
		}
	}
	return nil
}

// All returns every node captured under name, in capture order —
// "if a pattern matches multiple times with the same capture name,
// the matcher yields one match per binding (not a set)" (spec §4.3)
// describes match enumeration, not multi-node captures within a single
// match; All exists for patterns that legitimately bind a capture name
// to a repeated node group (e.g. `(arguments (_)* @arg)`).
func (m Match) All(name string) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range m.Captures {
		if c.Name == name {
			out = append(out, c.Node)
		}
	}
	return out
}

// Query is a compiled pattern bound to a language.
type Query struct {
	Language string
	Text     string
	compiled *sitter.Query
	// regOrder is this query's position among all queries compiled
	// for this language. sortMatches does not use it: each Matches
	// call covers this one query.
	regOrder int
}

// Compiler caches compiled queries per (language, query-text), per
// spec §3's Query data model: "a compiled form; the compiled form is
// cached per (language, query-text)". Grounded on
// internal/matcher/tree.go's direct sitter.NewQuery/NewQueryCursor use,
// extended here with caching and a per-language compile counter (see
// RegistrationOrder).
type Compiler struct {
	mu      sync.Mutex
	cache   map[cacheKey]*Query
	nextOrd map[string]int // per-language counter, for registration order
}

type cacheKey struct {
	language string
	text     string
}

// NewCompiler returns an empty compiler.
func NewCompiler() *Compiler {
	return &Compiler{
		cache:   make(map[cacheKey]*Query),
		nextOrd: make(map[string]int),
	}
}

// Compile compiles pattern against l, or returns the cached compiled
// form for (l.Name, pattern). A pattern with no captures is rejected
// as BadQuery, per spec §4.3.
func (c *Compiler) Compile(l *lang.Language, pattern string) (*Query, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{language: l.Name, text: pattern}
	if q, ok := c.cache[key]; ok {
		return q, nil
	}

	sitterLang := l.NewGrammar()
	compiled, err := sitter.NewQuery([]byte(pattern), sitterLang)
	if err != nil {
		return nil, &BadQueryError{Language: l.Name, Pattern: pattern, Reason: err.Error()}
	}
	if compiled.CaptureCount() == 0 {
		return nil, &BadQueryError{Language: l.Name, Pattern: pattern, Reason: "pattern declares no captures"}
	}

	q := &Query{
		Language: l.Name,
		Text:     pattern,
		compiled: compiled,
		regOrder: c.nextOrd[l.Name],
	}
	c.nextOrd[l.Name]++
	c.cache[key] = q
	return q, nil
}

// Matches enumerates every match of q over root (the root node of a
// parsed tree), in deterministic depth-first preorder by the root
// capture's start byte, ties broken by end byte descending (larger
// spans first) (spec §4.3). Registration order plays no part: one call
// covers one query, and internal/dispatch does not merge matches across
// queries; it dispatches each trigger's matches in turn, in trigger
// registration order.
func (q *Query) Matches(root *sitter.Node, src []byte) ([]Match, error) {
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(q.compiled, root)

	var out []Match
	for {
		m, ok := cursor.NextMatch()
		if !ok {
			break
		}
		m = cursor.FilterPredicates(m, src)
		if len(m.Captures) == 0 {
			continue
		}

		match := Match{Captures: make([]Capture, 0, len(m.Captures))}
		start, end := ^uint32(0), uint32(0)
		for _, cap := range m.Captures {
			name := q.compiled.CaptureNameForId(cap.Index)
			match.Captures = append(match.Captures, Capture{Name: name, Node: cap.Node})
			if s := cap.Node.StartByte(); s < start {
				start = s
			}
			if e := cap.Node.EndByte(); e > end {
				end = e
			}
		}
		match.RootStart = start
		match.RootEnd = end
		out = append(out, match)
	}

	sortMatches(out)
	return out, nil
}

// RegistrationOrder exposes the query's position among queries
// compiled for its language. Nothing in this module sorts by it.
func (q *Query) RegistrationOrder() int { return q.regOrder }

func sortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].RootStart != matches[j].RootStart {
			return matches[i].RootStart < matches[j].RootStart
		}
		return matches[i].RootEnd > matches[j].RootEnd
	})
}
