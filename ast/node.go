// Package ast holds the YAML document tree consumed by validation, completion,
// hover and symbols. The tree is built from gopkg.in/yaml.v3 nodes and carries
// byte offsets into the source text.
package ast

import "math"

// Kind identifies the concrete node type.
type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindNumber
	KindString
	KindProperty
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindProperty:
		return "property"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	}
	return "unknown"
}

// Node is a document node. The set of implementations is closed: *Null,
// *Boolean, *Number, *String, *Property, *Object and *Array.
type Node interface {
	Kind() Kind
	Offset() int
	Length() int
	// Parent is a non-owning back reference; nil for a document root.
	Parent() Node
	Children() []Node
	sealed()
}

type base struct {
	parent Node
	offset int
	length int
}

func (b *base) Offset() int  { return b.offset }
func (b *base) Length() int  { return b.length }
func (b *base) Parent() Node { return b.parent }
func (b *base) sealed()      {}

// Null is an explicit or implicit null.
type Null struct{ base }

// Boolean is a YAML boolean scalar.
type Boolean struct {
	base
	Value bool
}

// Number is a YAML int or float. IsInteger is true for whole values.
type Number struct {
	base
	Value     float64
	IsInteger bool
}

// String is a string scalar, or any scalar that is not null, bool or number.
type String struct {
	base
	Value string
}

// Property is one key/value pair of an Object. Value is nil when the source has
// only a key.
type Property struct {
	base
	Key         *String
	Value       Node
	ColonOffset int
}

// Object is a mapping. Properties keep source order; duplicates are kept.
type Object struct {
	base
	Properties []*Property
}

// Array is a sequence.
type Array struct {
	base
	Items []Node
}

func (*Null) Kind() Kind     { return KindNull }
func (*Boolean) Kind() Kind  { return KindBoolean }
func (*Number) Kind() Kind   { return KindNumber }
func (*String) Kind() Kind   { return KindString }
func (*Property) Kind() Kind { return KindProperty }
func (*Object) Kind() Kind   { return KindObject }
func (*Array) Kind() Kind    { return KindArray }

func (*Null) Children() []Node    { return nil }
func (*Boolean) Children() []Node { return nil }
func (*Number) Children() []Node  { return nil }
func (*String) Children() []Node  { return nil }

func (p *Property) Children() []Node {
	if p.Value == nil {
		return []Node{p.Key}
	}
	return []Node{p.Key, p.Value}
}

func (o *Object) Children() []Node {
	out := make([]Node, len(o.Properties))
	for i, p := range o.Properties {
		out[i] = p
	}
	return out
}

func (a *Array) Children() []Node { return append([]Node(nil), a.Items...) }

// End returns the offset just past n.
func End(n Node) int { return n.Offset() + n.Length() }

// Contains reports whether offset lies inside n. includeRightBound also accepts
// the offset right after the node.
func Contains(n Node, offset int, includeRightBound bool) bool {
	return offset >= n.Offset() && offset < End(n) || includeRightBound && offset == End(n)
}

// NodeAt returns the innermost node containing offset.
func NodeAt(root Node, offset int, includeRightBound bool) Node {
	if root == nil || !Contains(root, offset, includeRightBound) {
		return nil
	}
	for _, c := range root.Children() {
		if c.Offset() > offset {
			break
		}
		if found := NodeAt(c, offset, includeRightBound); found != nil {
			return found
		}
	}
	return root
}

// NodeAtEndInclusive returns the smallest node whose range, end included,
// covers offset.
func NodeAtEndInclusive(root Node, offset int) Node {
	if root == nil {
		return nil
	}
	var best Node
	bestLen := math.MaxInt
	var walk func(n Node) bool
	walk = func(n Node) bool {
		if offset < n.Offset() || offset > End(n) {
			return false
		}
		for _, c := range n.Children() {
			if c.Offset() > offset {
				break
			}
			if walk(c) && c.Length() < bestLen {
				best, bestLen = c, c.Length()
			}
		}
		return true
	}
	if !walk(root) {
		return nil
	}
	if best != nil {
		return best
	}
	return root
}

// Value converts n into a plain Go value: nil, bool, float64, string, []any or
// map[string]any. Later duplicate keys win.
func Value(n Node) any {
	switch t := n.(type) {
	case nil:
		return nil
	case *Null:
		return nil
	case *Boolean:
		return t.Value
	case *Number:
		return t.Value
	case *String:
		return t.Value
	case *Property:
		return Value(t.Value)
	case *Array:
		out := make([]any, len(t.Items))
		for i, it := range t.Items {
			out[i] = Value(it)
		}
		return out
	case *Object:
		out := make(map[string]any, len(t.Properties))
		for _, p := range t.Properties {
			out[p.Key.Value] = Value(p.Value)
		}
		return out
	}
	return nil
}

// Path returns the object keys and array indexes from the root down to n.
func Path(n Node) []any {
	var rev []any
	for n != nil {
		parent := n.Parent()
		switch p := parent.(type) {
		case *Property:
			if p.Value == n {
				rev = append(rev, p.Key.Value)
			}
		case *Array:
			for i, it := range p.Items {
				if it == n {
					rev = append(rev, i)
					break
				}
			}
		}
		n = parent
	}
	out := make([]any, len(rev))
	for i := range rev {
		out[i] = rev[len(rev)-1-i]
	}
	return out
}
