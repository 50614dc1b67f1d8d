package walker

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// skipDirs mirrors the teacher scanner's directory-skip list; vendored
// dependency and VCS directories never carry project source.
var skipDirs = map[string]bool{
	".git":         true,
	"vendor":       true,
	"node_modules": true,
	".vexes-cache": true,
}

// Options configures a walk of the project root.
type Options struct {
	Root     string
	VexesDir string         // excluded from the walk entirely
	Ignore   *CompiledGlobs // paths matching any pattern are excluded
}

// Walk enumerates candidate source files under root, in path
// lexicographic order, skipping VexesDir, hidden directories, and any
// path matched by Ignore. Files are returned as slash-separated paths
// relative to root so downstream glob matching and diagnostic output
// stay platform-independent.
func Walk(opts Options) ([]string, error) {
	var out []string
	root := opts.Root
	absVexes := ""
	if opts.VexesDir != "" {
		absVexes = filepath.Clean(filepath.Join(root, opts.VexesDir))
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil // per-file I/O errors are non-fatal (spec §7); recorded by the caller via Lstat if needed
		}
		if path == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		relSlash := filepath.ToSlash(rel)

		if d.IsDir() {
			name := d.Name()
			if skipDirs[name] || (strings.HasPrefix(name, ".") && name != ".") {
				return fs.SkipDir
			}
			if absVexes != "" && filepath.Clean(path) == absVexes {
				return fs.SkipDir
			}
			if opts.Ignore.MatchAny(relSlash) {
				return fs.SkipDir
			}
			return nil
		}

		if opts.Ignore.MatchAny(relSlash) {
			return nil
		}
		out = append(out, relSlash)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(out)
	return out, nil
}

// ScriptExtension is the evaluator's source extension: every file
// matching it, directly or transitively under vexes-dir, is a script
// (spec §6). Every scenario in spec.md §8 names `.star` vexes.
const ScriptExtension = ".star"

// WalkScripts enumerates every file matching ScriptExtension under
// vexesDir, recursively. Non-script files (READMEs, fixtures the
// project keeps alongside its vexes) are ignored, not errored.
func WalkScripts(root, vexesDir string) ([]string, error) {
	dir := filepath.Join(root, vexesDir)
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	var out []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(path)) != ScriptExtension {
			return nil
		}
		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}
