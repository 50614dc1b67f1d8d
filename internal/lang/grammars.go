package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Builtins returns the closed set of languages shipped with the
// engine. Extension subpackages follow smacker/go-tree-sitter's
// per-language layout, the same one the teacher's matcher.ResolveLanguage
// used for Go alone; this spec's scenarios exercise rust, c, and cpp
// directly (§8 scenarios 1-3) so the registry carries the full set the
// grammar library ships rather than just the ones a scenario names.
func Builtins() []Language {
	return []Language{
		{
			Name:       "go",
			Aliases:    []string{"golang"},
			Extensions: []string{".go"},
			NewGrammar: func() *sitter.Language { return golang.GetLanguage() },
		},
		{
			Name:       "python",
			Aliases:    []string{"py"},
			Extensions: []string{".py", ".pyi"},
			NewGrammar: func() *sitter.Language { return python.GetLanguage() },
		},
		{
			Name:       "javascript",
			Aliases:    []string{"js"},
			Extensions: []string{".js", ".mjs", ".cjs"},
			NewGrammar: func() *sitter.Language { return javascript.GetLanguage() },
		},
		{
			Name:       "typescript",
			Aliases:    []string{"ts"},
			Extensions: []string{".ts"},
			NewGrammar: func() *sitter.Language { return typescript.GetLanguage() },
		},
		{
			Name:       "rust",
			Aliases:    []string{"rs"},
			Extensions: []string{".rs"},
			NewGrammar: func() *sitter.Language { return rust.GetLanguage() },
		},
		{
			// .h is deliberately unmapped: spec.md §8 scenario 3 requires
			// that a bare header file resolve to no language until a
			// `[cpp] use-for = ["*.h"]` override claims it.
			Name:       "c",
			Aliases:    nil,
			Extensions: []string{".c"},
			NewGrammar: func() *sitter.Language { return c.GetLanguage() },
		},
		{
			Name:       "cpp",
			Aliases:    []string{"c++"},
			Extensions: []string{".cc", ".cpp", ".cxx", ".hpp", ".hh"},
			NewGrammar: func() *sitter.Language { return cpp.GetLanguage() },
		},
		{
			Name:       "java",
			Aliases:    nil,
			Extensions: []string{".java"},
			NewGrammar: func() *sitter.Language { return java.GetLanguage() },
		},
		{
			Name:       "ruby",
			Aliases:    []string{"rb"},
			Extensions: []string{".rb"},
			NewGrammar: func() *sitter.Language { return ruby.GetLanguage() },
		},
	}
}

// RegisterBuiltins registers every built-in language into r.
func RegisterBuiltins(r *Registry) {
	for _, l := range Builtins() {
		r.Register(l)
	}
}
