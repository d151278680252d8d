package device

import (
	"github.com/conduit-lang/foundry/pkg/key"
)

// Equal reports whether a and b are structurally equal: Base nodes with the
// same name, the same keys and equal dependencies; App nodes with equal functor
// and argument; If nodes with the same condition and equal branches. Nodes of
// different kinds are never equal.
func Equal(a, b Node) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Hash() != b.Hash() {
		return false
	}
	switch x := a.(type) {
	case *BaseNode:
		y, ok := b.(*BaseNode)
		if !ok || x.dev.Name() != y.dev.Name() {
			return false
		}
		return sameKeys(x.dev.Keys(), y.dev.Keys()) && equalNodes(x.deps, y.deps)
	case *AppNode:
		y, ok := b.(*AppNode)
		return ok && Equal(x.fn, y.fn) && Equal(x.arg, y.arg)
	case *IfNode:
		y, ok := b.(*IfNode)
		return ok && key.SameCond(x.cond, y.cond) && Equal(x.then, y.then) && Equal(x.els, y.els)
	}
	return false
}

func sameKeys(a, b []key.AnyKey) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID() != b[i].ID() {
			return false
		}
	}
	return true
}

func equalNodes(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Table maps nodes to values up to structural equality. It is meant to be
// allocated per traversal.
type Table[V any] struct {
	buckets map[uint64][]tableEntry[V]
	n       int
}

type tableEntry[V any] struct {
	node  Node
	value V
}

// NewTable creates an empty table.
func NewTable[V any]() *Table[V] {
	return &Table[V]{buckets: make(map[uint64][]tableEntry[V])}
}

// Get returns the value stored for a node equal to n.
func (t *Table[V]) Get(n Node) (V, bool) {
	for _, e := range t.buckets[n.Hash()] {
		if Equal(e.node, n) {
			return e.value, true
		}
	}
	var zero V
	return zero, false
}

// Has reports whether a node equal to n is stored.
func (t *Table[V]) Has(n Node) bool {
	_, ok := t.Get(n)
	return ok
}

// Put stores v for n, replacing the value of an equal node.
func (t *Table[V]) Put(n Node, v V) {
	bucket := t.buckets[n.Hash()]
	for i, e := range bucket {
		if Equal(e.node, n) {
			bucket[i].value = v
			return
		}
	}
	t.buckets[n.Hash()] = append(bucket, tableEntry[V]{node: n, value: v})
	t.n++
}

// Len returns the number of distinct nodes stored.
func (t *Table[V]) Len() int {
	return t.n
}
