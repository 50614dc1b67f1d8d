package diagnostics

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Marker is one `vex:ignore <id>` (or `vex:ignore *`) comment found in
// a source file, resolved to a row and whether it was the only token
// on that row.
type Marker struct {
	ID           string // "*" suppresses any id
	Row          uint32
	OnlyTokenRow bool // true if no other token shares Row
}

var markerPattern = regexp.MustCompile(`vex:ignore\s+(\*|\S+)`)

// ScanMarkers walks root looking for comment nodes (any node whose
// kind contains "comment", which covers every grammar in the registry:
// "comment" for go/python/java/javascript/ruby, "line_comment" and
// "block_comment" for rust/c/cpp) and extracts `vex:ignore` markers
// from their text. Markers are resolved from the file's bytes via the
// tree, not by independent text scanning, per spec §4.7 step 1.
func ScanMarkers(root *sitter.Node, src []byte) []Marker {
	if root == nil {
		return nil
	}

	rowTokenCount := make(map[uint32]int)
	var comments []*sitter.Node

	walk(root, func(n *sitter.Node) {
		if n.ChildCount() == 0 {
			rowTokenCount[n.StartPoint().Row]++
		}
		if strings.Contains(n.Type(), "comment") {
			comments = append(comments, n)
		}
	})

	var out []Marker
	for _, c := range comments {
		text := string(src[c.StartByte():c.EndByte()])
		m := markerPattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		row := c.StartPoint().Row
		out = append(out, Marker{
			ID:           m[1],
			Row:          row,
			OnlyTokenRow: rowTokenCount[row] == 1,
		})
	}
	return out
}

func walk(n *sitter.Node, visit func(*sitter.Node)) {
	visit(n)
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), visit)
	}
}

// Suppressed reports whether w's primary location is covered by any
// marker, per the pinned association policy (spec §9 open question b):
// a marker suppresses a warning whose primary location is on the same
// line as the marker, or on the line immediately following a marker
// that is the only token on its own line.
func Suppressed(markers []Marker, w Warning) bool {
	row := w.Primary.StartRow
	for _, m := range markers {
		if m.ID != "*" && m.ID != w.VexID {
			continue
		}
		if m.Row == row {
			return true
		}
		if m.OnlyTokenRow && m.Row+1 == row {
			return true
		}
	}
	return false
}
