// Package paths reads and writes values at arbitrary depth inside nested
// map[string]any / []any structures, addressed by an ordered key sequence.
// String segments address map fields; segments that parse as non-negative
// integers address slice indices.
package paths

import (
	"fmt"
	"strconv"
	"strings"
)

// Path is an ordered key sequence identifying one leaf.
type Path []string

// Parse splits a dotted path string ("camera.pitchMin", "ground.color.1")
// into a Path. An empty string yields an empty Path.
func Parse(s string) Path {
	if s == "" {
		return Path{}
	}
	return Path(strings.Split(s, "."))
}

// String joins the path back into dotted form.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// HasPrefix reports whether p starts with the given prefix path.
// An empty prefix matches every path.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i, seg := range prefix {
		if p[i] != seg {
			return false
		}
	}
	return true
}

func index(seg string) (int, bool) {
	i, err := strconv.Atoi(seg)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// Get walks the path and returns the value at its end. It returns ok=false
// as soon as any intermediate is absent; absence is a normal condition, not
// an error.
func Get(root any, path Path) (any, bool) {
	cur := root
	for _, seg := range path {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, ok := index(seg)
			if !ok || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Set writes value at the end of path, creating empty intermediate containers
// along the way: a slice when the next segment is an integer index, a map
// otherwise. The root is mutated in place and must be a map[string]any.
//
// Descending through an existing scalar is refused with an error rather than
// silently replacing the scalar.
func Set(root map[string]any, path Path, value any) error {
	if len(path) == 0 {
		return fmt.Errorf("set: empty path")
	}

	var cur any = root
	for depth, seg := range path[:len(path)-1] {
		next, err := step(cur, seg, path[depth+1])
		if err != nil {
			return fmt.Errorf("set %q at %q: %w", path, path[:depth+1], err)
		}
		cur = next
	}

	last := path[len(path)-1]
	switch node := cur.(type) {
	case map[string]any:
		node[last] = value
	case []any:
		i, ok := index(last)
		if !ok || i >= len(node) {
			return fmt.Errorf("set %q: index %q out of range", path, last)
		}
		node[i] = value
	default:
		return fmt.Errorf("set %q: cannot descend through scalar %T", path, cur)
	}
	return nil
}

// step resolves one intermediate segment, creating the container the next
// segment requires when the slot is empty.
func step(cur any, seg, nextSeg string) (any, error) {
	switch node := cur.(type) {
	case map[string]any:
		child, ok := node[seg]
		if !ok || child == nil {
			child = newContainer(nextSeg)
			node[seg] = child
		}
		if !isContainer(child) {
			return nil, fmt.Errorf("cannot descend through scalar %T", child)
		}
		return child, nil
	case []any:
		i, ok := index(seg)
		if !ok || i >= len(node) {
			return nil, fmt.Errorf("index %q out of range", seg)
		}
		child := node[i]
		if child == nil {
			child = newContainer(nextSeg)
			node[i] = child
		}
		if !isContainer(child) {
			return nil, fmt.Errorf("cannot descend through scalar %T", child)
		}
		return child, nil
	default:
		return nil, fmt.Errorf("cannot descend through scalar %T", cur)
	}
}

func newContainer(nextSeg string) any {
	if i, ok := index(nextSeg); ok {
		return make([]any, i+1)
	}
	return make(map[string]any)
}

func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

// DeepCopy returns a recursive copy of a tree of maps, slices and scalars.
func DeepCopy(v any) any {
	switch node := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(node))
		for k, child := range node {
			out[k] = DeepCopy(child)
		}
		return out
	case []any:
		out := make([]any, len(node))
		for i, child := range node {
			out[i] = DeepCopy(child)
		}
		return out
	default:
		return v
	}
}
