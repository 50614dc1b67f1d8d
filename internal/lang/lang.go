// Package lang implements the language registry (component A) and the
// file-language resolver (component B).
package lang

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// Factory produces a parser-ready grammar handle. Factories are
// side-effect-free and safe to call more than once.
type Factory func() *sitter.Language

// Language is a registered grammar: a stable identifier, a parser
// factory, and the extensions that route files to it. Use-for globs
// are held by the Registry, not by the Language.
type Language struct {
	Name       string
	Aliases    []string
	Extensions []string
	NewGrammar Factory
}

// Registry holds the closed set of supported languages, keyed by
// canonical identifier. Modeled on the name->alias->extension lookup
// chain of the teacher's registry, trimmed of dynamic plugin loading:
// this spec's language set is fixed at compile time.
type Registry struct {
	mu         sync.RWMutex
	byName     map[string]*Language
	byAlias    map[string]string
	byExt      map[string]string
	order      []string // declaration order, for B's cross-language tie-break
	useFor     map[string][]string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		byName:  make(map[string]*Language),
		byAlias: make(map[string]string),
		byExt:   make(map[string]string),
		useFor:  make(map[string][]string),
	}
}

// Register adds a language. Later registrations of the same name
// replace the previous entry but keep its position in declaration
// order.
func (r *Registry) Register(l Language) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := strings.ToLower(l.Name)
	if _, exists := r.byName[name]; !exists {
		r.order = append(r.order, name)
	}
	cp := l
	cp.Name = name
	r.byName[name] = &cp

	for _, a := range l.Aliases {
		r.byAlias[strings.ToLower(a)] = name
	}
	for _, ext := range l.Extensions {
		r.byExt[normalizeExt(ext)] = name
	}
}

// SetUseFor installs the `<language>.use-for` glob list for a
// registered language, in configuration declaration order.
func (r *Registry) SetUseFor(name string, globs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.useFor[strings.ToLower(name)] = globs
}

// SetExtensions overrides a registered language's default extension
// associations with exts, per the `<language>.extensions` config key
// (spec §3). It replaces, rather than appends to, the previous
// extension list, dropping any byExt entries that used to route to
// this language.
func (r *Registry) SetExtensions(name string, exts []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name = strings.ToLower(name)
	for ext, owner := range r.byExt {
		if owner == name {
			delete(r.byExt, ext)
		}
	}
	for _, ext := range exts {
		r.byExt[normalizeExt(ext)] = name
	}
	if l, ok := r.byName[name]; ok {
		l.Extensions = exts
	}
}

// Get resolves name or alias to a *Language.
func (r *Registry) Get(name string) (*Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(name)
}

func (r *Registry) get(name string) (*Language, bool) {
	name = strings.ToLower(name)
	if l, ok := r.byName[name]; ok {
		return l, true
	}
	if canon, ok := r.byAlias[name]; ok {
		return r.byName[canon], true
	}
	return nil, false
}

// Has reports whether name (or an alias of it) is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// List returns every registered language in declaration order.
func (r *Registry) List() []*Language {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Language, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.byName[n])
	}
	return out
}

// ListSorted returns every registered language sorted by canonical
// name, for stable CLI output (`list languages`).
func (r *Registry) ListSorted() []*Language {
	out := r.List()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Resolve implements component B: the first `use-for` glob match wins,
// by declaration order within a language and by language declaration
// order across languages (§4.1); otherwise fall back to extension.
// A use-for glob without a `/` is also tried against the file's base
// name, so `*.h` claims `include/x.h`.
// A file with no resolved language returns (nil, false) — not an error.
func (r *Registry) Resolve(path string) (*Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		for _, g := range r.useFor[name] {
			if globMatch(g, path) {
				return r.byName[name], true
			}
			if !strings.Contains(g, "/") && globMatch(g, filepath.Base(path)) {
				return r.byName[name], true
			}
		}
	}

	ext := normalizeExt(filepath.Ext(path))
	if name, ok := r.byExt[ext]; ok {
		return r.byName[name], true
	}
	return nil, false
}

// globMatch is supplied by the caller's glob engine at wiring time via
// a package variable so internal/lang has no direct dependency on
// internal/walker's glob compiler; both consume the same doublestar
// semantics (spec §4.6).
var globMatch = func(pattern, path string) bool {
	ok, _ := matchGlob(pattern, path)
	return ok
}

// SetGlobMatcher lets the engine install the shared glob matcher
// (internal/walker.Match) so use-for globs and ignore globs share one
// implementation of spec §4.6's exact syntax.
func SetGlobMatcher(m func(pattern, path string) (bool, error)) {
	globMatch = func(pattern, path string) bool {
		ok, _ := m(pattern, path)
		return ok
	}
}

func matchGlob(pattern, path string) (bool, error) {
	// Fallback used only until SetGlobMatcher is called by the engine
	// at startup; kept minimal (no **, no classes) since the real
	// matcher always takes over before any Resolve is performed.
	return filepath.Match(pattern, path)
}

// UnsupportedLanguageError is returned when a trigger or use-for
// override names a language outside the registry.
type UnsupportedLanguageError struct {
	Name string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language %q", e.Name)
}
