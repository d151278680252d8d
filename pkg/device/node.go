package device

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	ferrors "github.com/conduit-lang/foundry/pkg/errors"
	"github.com/conduit-lang/foundry/pkg/key"
)

// Node is a graph expression: *BaseNode, *AppNode or *IfNode.
type Node interface {
	Type() Type
	// Hash is consistent with Equal.
	Hash() uint64
	String() string

	sealed()
}

// BaseNode is a leaf wrapping a device.
type BaseNode struct {
	dev  Configurable
	deps []Node
	hash uint64
}

// AppNode applies a functor node to an argument node.
type AppNode struct {
	fn   Node
	arg  Node
	typ  Type
	hash uint64
}

// IfNode selects one of two nodes of the same type when the graph is
// resolved against a context.
type IfNode struct {
	cond key.Cond
	then Node
	els  Node
	hash uint64
}

const (
	tagBase byte = 'B'
	tagApp  byte = 'A'
	tagIf   byte = 'I'
)

// Base creates a leaf for c. Its dependencies are c.Deps().
func Base(c Configurable) *BaseNode {
	return newBase(c, append([]Node(nil), c.Deps()...))
}

func newBase(c Configurable, deps []Node) *BaseNode {
	h := xxhash.New()
	h.Write([]byte{tagBase})
	h.WriteString(c.Name())
	h.Write([]byte{0})
	for _, k := range c.Keys() {
		writeUint(h, uint64(k.ID()))
	}
	h.Write([]byte{0})
	for _, d := range deps {
		writeUint(h, d.Hash())
	}
	return &BaseNode{dev: c, deps: deps, hash: h.Sum64()}
}

func newApp(fn, arg Node) *AppNode {
	h := xxhash.New()
	h.Write([]byte{tagApp})
	writeUint(h, fn.Hash())
	writeUint(h, arg.Hash())
	return &AppNode{fn: fn, arg: arg, typ: fn.Type().Res(), hash: h.Sum64()}
}

func newIf(cond key.Cond, then, els Node) *IfNode {
	h := xxhash.New()
	h.Write([]byte{tagIf})
	h.WriteString(cond.Identity())
	h.Write([]byte{0})
	writeUint(h, then.Hash())
	writeUint(h, els.Hash())
	return &IfNode{cond: cond, then: then, els: els, hash: h.Sum64()}
}

func writeUint(h *xxhash.Digest, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	h.Write(b[:])
}

// Apply applies fn to arg. fn must have a function type whose argument type is
// the type of arg.
func Apply(fn, arg Node) (*AppNode, error) {
	ft := fn.Type()
	if !ft.IsFunc() {
		return nil, ferrors.Config(ferrors.CodeTypeMismatch,
			"cannot apply %s: type %s is not a function", fn, ft)
	}
	if !ft.Arg().Equal(arg.Type()) {
		return nil, ferrors.Config(ferrors.CodeTypeMismatch,
			"cannot apply %s to %s: expected %s, got %s", fn, arg, ft.Arg(), arg.Type())
	}
	return newApp(fn, arg), nil
}

// MustApply is like Apply but panics on a type mismatch.
func MustApply(fn, arg Node) *AppNode {
	n, err := Apply(fn, arg)
	if err != nil {
		panic(err)
	}
	return n
}

// ApplyAll applies fn to each argument in turn.
func ApplyAll(fn Node, args ...Node) (Node, error) {
	n := fn
	for _, a := range args {
		app, err := Apply(n, a)
		if err != nil {
			return nil, err
		}
		n = app
	}
	return n, nil
}

// If creates a conditional node. Both branches must have the same type.
func If(cond key.Cond, then, els Node) (*IfNode, error) {
	if !then.Type().Equal(els.Type()) {
		return nil, ferrors.Config(ferrors.CodeTypeMismatch,
			"branches of if %s have different types: %s and %s", cond, then.Type(), els.Type())
	}
	return newIf(cond, then, els), nil
}

// MustIf is like If but panics on a type mismatch.
func MustIf(cond key.Cond, then, els Node) *IfNode {
	n, err := If(cond, then, els)
	if err != nil {
		panic(err)
	}
	return n
}

// Case is one alternative of Match.
type Case[T any] struct {
	Value T
	Node  Node
}

// When creates a Case.
func When[T any](v T, n Node) Case[T] {
	return Case[T]{Value: v, Node: n}
}

// Match chooses the node of the first case whose value equals the value of k,
// or def when none does. It lowers to nested If nodes.
func Match[T any](k *key.Key[T], cases []Case[T], def Node) (Node, error) {
	rest := def
	for i := len(cases) - 1; i >= 0; i-- {
		n, err := If(key.Equals(k, cases[i].Value), cases[i].Node, rest)
		if err != nil {
			return nil, err
		}
		rest = n
	}
	return rest, nil
}

// MustMatch is like Match but panics on a type mismatch.
func MustMatch[T any](k *key.Key[T], cases []Case[T], def Node) Node {
	n, err := Match(k, cases, def)
	if err != nil {
		panic(err)
	}
	return n
}

func (n *BaseNode) Type() Type     { return n.dev.Type() }
func (n *BaseNode) Hash() uint64   { return n.hash }
func (n *BaseNode) String() string { return n.dev.Name() }
func (n *BaseNode) sealed()        {}

// Device returns the wrapped device.
func (n *BaseNode) Device() Configurable { return n.dev }

// Name is the device name.
func (n *BaseNode) Name() string { return n.dev.Name() }

// Deps returns the dependencies.
func (n *BaseNode) Deps() []Node { return append([]Node(nil), n.deps...) }

func (n *AppNode) Type() Type     { return n.typ }
func (n *AppNode) Hash() uint64   { return n.hash }
func (n *AppNode) String() string { return fmt.Sprintf("%s(%s)", n.fn, n.arg) }
func (n *AppNode) sealed()        {}

// Func returns the functor.
func (n *AppNode) Func() Node { return n.fn }

// Arg returns the argument.
func (n *AppNode) Arg() Node { return n.arg }

func (n *IfNode) Type() Type   { return n.then.Type() }
func (n *IfNode) Hash() uint64 { return n.hash }
func (n *IfNode) sealed()      {}

func (n *IfNode) String() string {
	return fmt.Sprintf("if %s then %s else %s", n.cond, n.then, n.els)
}

// Cond returns the condition.
func (n *IfNode) Cond() key.Cond { return n.cond }

// Then returns the node chosen when the condition holds.
func (n *IfNode) Then() Node { return n.then }

// Else returns the node chosen otherwise.
func (n *IfNode) Else() Node { return n.els }
