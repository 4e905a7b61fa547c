// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tree addresses and edits plain value trees: the
// map[string]interface{} / []interface{} / scalar shapes that definitions,
// documents, discrepancy reports and override maps decode into.
package tree

import (
	"fmt"
	"strconv"
	"strings"
)

// Path addresses a node in a tree. Each step is either a string (mapping
// key) or an int (sequence index).
type Path []interface{}

// Append returns a new path with steps added, leaving p untouched.
func (p Path) Append(steps ...interface{}) Path {
	out := make(Path, 0, len(p)+len(steps))
	out = append(out, p...)
	return append(out, steps...)
}

// String renders the path as "a.b[0].c".
func (p Path) String() string {
	var b strings.Builder
	for i, step := range p {
		switch s := step.(type) {
		case int:
			fmt.Fprintf(&b, "[%d]", s)
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			fmt.Fprint(&b, s)
		}
	}
	return b.String()
}

// Get returns the node at p below root. The boolean is false when any
// step is missing or crosses a node of the wrong shape.
func Get(root interface{}, p Path) (interface{}, bool) {
	node := root
	for _, step := range p {
		switch s := step.(type) {
		case string:
			m, ok := node.(map[string]interface{})
			if !ok {
				return nil, false
			}
			node, ok = m[s]
			if !ok {
				return nil, false
			}
		case int:
			l, ok := node.([]interface{})
			if !ok || s < 0 || s >= len(l) {
				return nil, false
			}
			node = l[s]
		default:
			return nil, false
		}
	}
	return node, true
}

// Set stores v at p below root, creating intermediate mappings and
// growing sequences (padding with nil) as needed. root itself must be a
// mapping.
func Set(root map[string]interface{}, p Path, v interface{}) error {
	if len(p) == 0 {
		return fmt.Errorf("setting value: empty path")
	}
	_, err := set(root, p, v)
	return err
}

func set(node interface{}, p Path, v interface{}) (interface{}, error) {
	if len(p) == 0 {
		return v, nil
	}
	switch s := p[0].(type) {
	case string:
		m, ok := node.(map[string]interface{})
		if node == nil {
			m, ok = map[string]interface{}{}, true
		}
		if !ok {
			return nil, fmt.Errorf("setting %q: node is %T, not a mapping", s, node)
		}
		child, err := set(m[s], p[1:], v)
		if err != nil {
			return nil, err
		}
		m[s] = child
		return m, nil
	case int:
		if s < 0 {
			return nil, fmt.Errorf("setting index %d: negative index", s)
		}
		l, ok := node.([]interface{})
		if node == nil {
			l, ok = nil, true
		}
		if !ok {
			return nil, fmt.Errorf("setting index %d: node is %T, not a sequence", s, node)
		}
		for len(l) <= s {
			l = append(l, nil)
		}
		child, err := set(l[s], p[1:], v)
		if err != nil {
			return nil, err
		}
		l[s] = child
		return l, nil
	default:
		return nil, fmt.Errorf("setting value: unsupported path step %T", s)
	}
}

// Mapping returns node as a mapping, or nil when it is not one.
func Mapping(node interface{}) map[string]interface{} {
	m, _ := node.(map[string]interface{})
	return m
}

// Sequence returns node as a sequence, or nil when it is not one.
func Sequence(node interface{}) []interface{} {
	l, _ := node.([]interface{})
	return l
}

// IsEmpty reports whether v counts as "no answer": nil, an empty string,
// or an empty sequence or mapping.
func IsEmpty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []interface{}:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case map[string]interface{}:
		return len(t) == 0
	}
	return false
}

// Clone deep-copies mappings and sequences. Scalars are shared.
func Clone(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, child := range t {
			out[k] = Clone(child)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, child := range t {
			out[i] = Clone(child)
		}
		return out
	}
	return v
}

// CloneMapping deep-copies a mapping, returning nil for nil.
func CloneMapping(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	return Clone(m).(map[string]interface{})
}

// Number converts any Go numeric kind to float64.
func Number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// IsInteger reports whether v is an integer kind.
func IsInteger(v interface{}) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

// IndexKey renders a sequence index the way reports and override maps key it.
func IndexKey(i int) string {
	return strconv.Itoa(i)
}
