// Package parser implements the parser pool (component C): producing
// and reusing a parsed syntax tree for a (language, bytes) pair.
package parser

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/vex/internal/lang"
)

// Tree is an immutable (bytes, *sitter.Tree) pair — the "source file"
// of spec §3, minus path/language which the caller already knows.
// bytes and the tree must be kept alive together; neither may be
// dropped while any diagnostic or observer still holds a node handle
// into this tree (spec §3, §9 arena design note).
type Tree struct {
	Bytes []byte
	Tree  *sitter.Tree
}

// RootNode is a convenience accessor used throughout dispatch/script.
func (t *Tree) RootNode() *sitter.Node {
	if t.Tree == nil {
		return nil
	}
	return t.Tree.RootNode()
}

// CrashError marks a fatal, unrecoverable parser crash (spec §4.2,
// §7) — distinct from an ordinary parse error, which tree-sitter
// reports via a partial tree that the pool still admits.
type CrashError struct {
	Language string
	Cause    error
}

func (e *CrashError) Error() string {
	return fmt.Sprintf("parser crashed for language %q: %v", e.Language, e.Cause)
}

func (e *CrashError) Unwrap() error { return e.Cause }

// entry pairs a language's parser with a mutex scoped to it, so Parse
// calls for different languages never block each other while calls
// for the same language are fully serialized around the one
// *sitter.Parser instance that isn't safe for concurrent use.
type entry struct {
	mu     sync.Mutex
	parser *sitter.Parser
}

// Pool produces parsed trees, reusing one *sitter.Parser per language.
// Callers that want per-file parallelism (spec §5) should use one
// Pool per worker rather than share a single Pool across goroutines
// parsing the same language concurrently.
type Pool struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New returns an empty pool.
func New() *Pool {
	return &Pool{entries: make(map[string]*entry)}
}

// Parse parses src as the given language, reusing that language's
// parser instance. Parsing is pure with respect to src: the same
// bytes always yield an equivalent tree. If the grammar reports an
// unrecoverable error, Parse still returns the partial tree it
// produced; a panic from the underlying C binding (recovered here), or
// an error returned by ParseCtx, becomes a CrashError that should abort
// the run.
func (p *Pool) Parse(ctx context.Context, l *lang.Language, src []byte) (result *Tree, err error) {
	e := p.acquire(l)
	e.mu.Lock()
	defer e.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &CrashError{Language: l.Name, Cause: fmt.Errorf("%v", r)}
		}
	}()

	tree, parseErr := e.parser.ParseCtx(ctx, nil, src)
	if parseErr != nil {
		return nil, &CrashError{Language: l.Name, Cause: parseErr}
	}
	return &Tree{Bytes: src, Tree: tree}, nil
}

func (p *Pool) acquire(l *lang.Language) *entry {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[l.Name]
	if !ok {
		parser := sitter.NewParser()
		parser.SetLanguage(l.NewGrammar())
		e = &entry{parser: parser}
		p.entries[l.Name] = e
	}
	return e
}

// Close releases every underlying parser instance.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.entries {
		e.parser.Close()
	}
	p.entries = make(map[string]*entry)
}
