// Package jsontree provides safe navigation over decoded JSON documents
// whose schema is not guaranteed stable. Every accessor is total: a lookup
// that does not apply to the underlying value yields an absent node, and
// accessors on an absent node stay absent.
package jsontree

// Node wraps one position in a decoded JSON document. The zero value is an
// absent node.
type Node struct {
	value   any
	present bool
}

// From wraps a value produced by encoding/json (map[string]any, []any,
// string, float64, bool or nil).
func From(v any) Node {
	if v == nil {
		return Node{}
	}
	return Node{value: v, present: true}
}

// Present reports whether the node holds a value.
func (n Node) Present() bool {
	return n.present
}

// Key descends into a JSON object by key. The result is absent when the
// node is not an object or the key is missing.
func (n Node) Key(name string) Node {
	if !n.present {
		return Node{}
	}
	obj, ok := n.value.(map[string]any)
	if !ok {
		return Node{}
	}
	v, ok := obj[name]
	if !ok || v == nil {
		return Node{}
	}
	return Node{value: v, present: true}
}

// Index descends into a JSON array by position.
func (n Node) Index(i int) Node {
	if !n.present {
		return Node{}
	}
	list, ok := n.value.([]any)
	if !ok || i < 0 || i >= len(list) {
		return Node{}
	}
	if list[i] == nil {
		return Node{}
	}
	return Node{value: list[i], present: true}
}

// Items returns the node's array elements, or nil when the node is not an
// array.
func (n Node) Items() []Node {
	if !n.present {
		return nil
	}
	list, ok := n.value.([]any)
	if !ok {
		return nil
	}
	items := make([]Node, 0, len(list))
	for _, v := range list {
		items = append(items, From(v))
	}
	return items
}

// Len returns the number of array elements, or 0 for non-arrays.
func (n Node) Len() int {
	if !n.present {
		return 0
	}
	list, ok := n.value.([]any)
	if !ok {
		return 0
	}
	return len(list)
}

// Str returns the node's string value, or "" when the node is absent or not
// a string.
func (n Node) Str() string {
	if !n.present {
		return ""
	}
	s, ok := n.value.(string)
	if !ok {
		return ""
	}
	return s
}

// IsString reports whether the node holds a bare string.
func (n Node) IsString() bool {
	if !n.present {
		return false
	}
	_, ok := n.value.(string)
	return ok
}

// Text handles the common WorldCat shape where a field is either a bare
// string or an object with a "text" member. It returns the string in either
// case, or "" when neither applies.
func (n Node) Text() string {
	if s := n.Str(); s != "" {
		return s
	}
	return n.Key("text").Str()
}
