// Package value holds the document tree produced by parsing a BULBA document.
package value

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// Kind is the variant of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindMap
)

var kindNames = [...]string{"null", "string", "number", "bool", "list", "map"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a node of a document tree. The zero Value is null.
//
// Maps keep their keys unique and remember insertion order, but every
// serializer visits keys through Keys, which sorts them, so output is stable.
type Value struct {
	kind  Kind
	str   string
	num   float64
	b     bool
	elems []*Value
	keys  []string
	items map[string]*Value
}

// Null returns a null value.
func Null() *Value { return &Value{} }

// String returns a string value.
func String(s string) *Value { return &Value{kind: KindString, str: s} }

// Number returns a number value.
func Number(n float64) *Value { return &Value{kind: KindNumber, num: n} }

// Bool returns a boolean value.
func Bool(b bool) *Value { return &Value{kind: KindBool, b: b} }

// List returns a list holding elems. A nil element is stored as null.
func List(elems ...*Value) *Value {
	v := &Value{kind: KindList, elems: make([]*Value, 0, len(elems))}
	for _, e := range elems {
		v.Append(e)
	}
	return v
}

// NewMap returns an empty map value.
func NewMap() *Value {
	return &Value{kind: KindMap, items: make(map[string]*Value)}
}

// Kind reports the variant of v. A nil *Value is null.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// IsNull reports whether v is null.
func (v *Value) IsNull() bool { return v.Kind() == KindNull }

// Str returns the string payload and whether v is a string.
func (v *Value) Str() (string, bool) {
	if v.Kind() != KindString {
		return "", false
	}
	return v.str, true
}

// Num returns the number payload and whether v is a number.
func (v *Value) Num() (float64, bool) {
	if v.Kind() != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Boolean returns the boolean payload and whether v is a bool.
func (v *Value) Boolean() (bool, bool) {
	if v.Kind() != KindBool {
		return false, false
	}
	return v.b, true
}

// Elems returns the elements of a list, or nil for any other kind.
func (v *Value) Elems() []*Value {
	if v.Kind() != KindList {
		return nil
	}
	return v.elems
}

// Len returns the number of elements of a list or entries of a map.
func (v *Value) Len() int {
	switch v.Kind() {
	case KindList:
		return len(v.elems)
	case KindMap:
		return len(v.keys)
	}
	return 0
}

// Append adds e to the end of list v. It panics if v is not a list.
func (v *Value) Append(e *Value) {
	if v.Kind() != KindList {
		panic("value: Append on " + v.Kind().String())
	}
	if e == nil {
		e = Null()
	}
	v.elems = append(v.elems, e)
}

// Set stores child under key in map v, replacing any previous entry.
// It panics if v is not a map.
func (v *Value) Set(key string, child *Value) {
	if v.Kind() != KindMap {
		panic("value: Set on " + v.Kind().String())
	}
	if child == nil {
		child = Null()
	}
	if _, ok := v.items[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.items[key] = child
}

// Get returns the entry stored under key in map v.
func (v *Value) Get(key string) (*Value, bool) {
	if v.Kind() != KindMap {
		return nil, false
	}
	child, ok := v.items[key]
	return child, ok
}

// Lookup follows a path of map keys from v.
func (v *Value) Lookup(path ...string) (*Value, bool) {
	cur := v
	for _, key := range path {
		next, ok := cur.Get(key)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Keys returns the keys of map v in lexicographic order.
func (v *Value) Keys() []string {
	if v.Kind() != KindMap {
		return nil
	}
	return slices.Sorted(slices.Values(v.keys))
}

// InsertionOrder returns the keys of map v in the order they were first set.
func (v *Value) InsertionOrder() []string {
	if v.Kind() != KindMap {
		return nil
	}
	return slices.Clone(v.keys)
}

// Text returns the textual form of a scalar: the raw string, the shortest
// decimal form of a number, true/false, or "" for null and containers.
func (v *Value) Text() string {
	switch v.Kind() {
	case KindString:
		return v.str
	case KindNumber:
		return FormatNumber(v.num)
	case KindBool:
		return strconv.FormatBool(v.b)
	}
	return ""
}

// FormatNumber formats n without an exponent, using the fewest digits that
// represent it exactly.
func FormatNumber(n float64) string {
	switch {
	case math.IsInf(n, 1):
		return "inf"
	case math.IsInf(n, -1):
		return "-inf"
	case math.IsNaN(n):
		return "NaN"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Equal reports whether a and b hold the same tree. Map key order is
// ignored and NaN equals NaN.
func Equal(a, b *Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case KindNull:
		return true
	case KindString:
		return a.str == b.str
	case KindNumber:
		return a.num == b.num || (math.IsNaN(a.num) && math.IsNaN(b.num))
	case KindBool:
		return a.b == b.b
	case KindList:
		return slices.EqualFunc(a.elems, b.elems, Equal)
	case KindMap:
		if len(a.items) != len(b.items) {
			return false
		}
		for k, av := range a.items {
			bv, ok := b.items[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}

// Leaf is a scalar reached through Path from the root of a tree. List
// positions appear in Path as their decimal index.
type Leaf struct {
	Path  string
	Value *Value
}

// Leaves returns every scalar of the tree sorted by path, with path
// segments joined by dots.
func (v *Value) Leaves() []Leaf {
	var out []Leaf
	var walk func(prefix []string, n *Value)
	walk = func(prefix []string, n *Value) {
		switch n.Kind() {
		case KindMap:
			for _, k := range n.Keys() {
				walk(append(prefix, k), n.items[k])
			}
		case KindList:
			for i, e := range n.elems {
				walk(append(prefix, strconv.Itoa(i)), e)
			}
		default:
			out = append(out, Leaf{Path: strings.Join(prefix, "."), Value: n})
		}
	}
	walk(nil, v)
	slices.SortStableFunc(out, func(a, b Leaf) int { return strings.Compare(a.Path, b.Path) })
	return out
}

// Interface converts the tree to plain Go values: map[string]any, []any,
// string, float64, bool and nil.
func (v *Value) Interface() any {
	switch v.Kind() {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindList:
		out := make([]any, len(v.elems))
		for i, e := range v.elems {
			out[i] = e.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.items))
		for k, e := range v.items {
			out[k] = e.Interface()
		}
		return out
	}
	return nil
}
