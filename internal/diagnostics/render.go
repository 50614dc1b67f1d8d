package diagnostics

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pmezard/go-difflib/difflib"
)

// Renderer writes warnings to an io.Writer using a snippet-style
// formatter, colorizing only when the destination is a terminal.
// Grounded on the teacher's internal/util.UnifiedDiff, which uses
// difflib.SplitLines plus ANSI escapes gated on isatty the same way.
type Renderer struct {
	w       io.Writer
	color   bool
	sources map[string][]byte
}

const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorCyan   = "\x1b[36m"
	colorYellow = "\x1b[33m"
)

// NewRenderer returns a renderer. color is auto-detected from fd when
// it implements Fd() uintptr (as *os.File does); callers writing to a
// non-file Writer get no color.
func NewRenderer(w io.Writer, sources map[string][]byte) *Renderer {
	color := false
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		color = isatty.IsTerminal(f.Fd())
	}
	return &Renderer{w: w, color: color, sources: sources}
}

// Render writes every warning in order (callers pass already-sorted
// warnings). One blank line separates entries.
func (r *Renderer) Render(warnings []Warning) error {
	for i, w := range warnings {
		if i > 0 {
			fmt.Fprintln(r.w)
		}
		if err := r.renderOne(w); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderOne(w Warning) error {
	header := fmt.Sprintf("warning[%s]: %s", w.VexID, w.Message)
	if r.color {
		header = colorYellow + header + colorReset
	}
	fmt.Fprintln(r.w, header)

	if err := r.renderLocation(w.Primary, true); err != nil {
		return err
	}
	for _, sec := range w.Secondary {
		if err := r.renderLocation(sec, false); err != nil {
			return err
		}
	}

	if w.ExtraInfo != "" {
		fmt.Fprintf(r.w, "  = note: %s\n", w.ExtraInfo)
	}
	return nil
}

func (r *Renderer) renderLocation(loc Location, primary bool) error {
	fmt.Fprintf(r.w, "  --> %s:%d:%d\n", loc.Path, loc.StartRow+1, loc.StartCol+1)

	src, ok := r.sources[loc.Path]
	if !ok {
		return nil
	}
	lines := difflib.SplitLines(string(src))
	if int(loc.StartRow) >= len(lines) {
		return nil
	}
	line := strings.TrimRight(lines[loc.StartRow], "\n")
	fmt.Fprintf(r.w, "   | %s\n", line)

	caretLine := caretFor(line, int(loc.StartCol), int(loc.EndCol), loc.EndRow > loc.StartRow)
	marker := caretLine
	if r.color {
		color := colorCyan
		if primary {
			color = colorRed
		}
		marker = color + caretLine + colorReset
	}
	fmt.Fprintf(r.w, "   | %s", marker)
	if loc.Label != "" {
		fmt.Fprintf(r.w, " %s", loc.Label)
	}
	fmt.Fprintln(r.w)
	return nil
}

func caretFor(line string, startCol, endCol int, multiline bool) string {
	if endCol <= startCol || multiline {
		endCol = len(line)
	}
	if startCol > len(line) {
		startCol = len(line)
	}
	if endCol > len(line) {
		endCol = len(line)
	}
	width := endCol - startCol
	if width < 1 {
		width = 1
	}
	return strings.Repeat(" ", startCol) + strings.Repeat("^", width)
}
