package device

import (
	"github.com/conduit-lang/foundry/pkg/key"
)

// Children returns the direct sub-nodes of n: functor and argument of an App,
// dependencies of a Base, both branches of an If.
func Children(n Node) []Node {
	switch x := n.(type) {
	case *AppNode:
		return []Node{x.fn, x.arg}
	case *BaseNode:
		return x.Deps()
	case *IfNode:
		return []Node{x.then, x.els}
	}
	return nil
}

// Walk calls fn on every distinct node reachable from root, children before
// parents. Structurally equal nodes are visited once. Walk stops at the first
// error fn returns.
func Walk(root Node, fn func(Node) error) error {
	seen := NewTable[struct{}]()
	var visit func(n Node) error
	visit = func(n Node) error {
		if seen.Has(n) {
			return nil
		}
		seen.Put(n, struct{}{})
		for _, c := range Children(n) {
			if err := visit(c); err != nil {
				return err
			}
		}
		return fn(n)
	}
	return visit(root)
}

// Resolved is a graph with every If node replaced by its selected branch.
type Resolved struct {
	Root Node
	// Conditions are the keys read by the conditions met on the taken path.
	Conditions []key.AnyKey
}

// Resolve selects the branch of every If node reachable from root according to
// ctx. Branches that are not selected are never visited.
func Resolve(root Node, ctx *key.Context) Resolved {
	r := &resolver{ctx: ctx, memo: NewTable[Node]()}
	out := r.resolve(root)
	return Resolved{Root: out, Conditions: key.Dedup(r.conds)}
}

type resolver struct {
	ctx   *key.Context
	memo  *Table[Node]
	conds []key.AnyKey
}

func (r *resolver) resolve(n Node) Node {
	if v, ok := r.memo.Get(n); ok {
		return v
	}
	var out Node
	switch x := n.(type) {
	case *IfNode:
		r.conds = append(r.conds, x.cond.Keys()...)
		if x.cond.Eval(r.ctx) {
			out = r.resolve(x.then)
		} else {
			out = r.resolve(x.els)
		}
	case *AppNode:
		fn, arg := r.resolve(x.fn), r.resolve(x.arg)
		if fn == x.fn && arg == x.arg {
			out = x
		} else {
			out = newApp(fn, arg)
		}
	case *BaseNode:
		changed := false
		deps := make([]Node, len(x.deps))
		for i, d := range x.deps {
			deps[i] = r.resolve(d)
			if deps[i] != d {
				changed = true
			}
		}
		if changed {
			out = newBase(x.dev, deps)
		} else {
			out = x
		}
	default:
		out = n
	}
	r.memo.Put(n, out)
	return out
}

// AllKeys returns every key reachable from root through any branch, including
// the keys read by conditions.
func AllKeys(root Node) []key.AnyKey {
	var keys []key.AnyKey
	_ = Walk(root, func(n Node) error {
		switch x := n.(type) {
		case *BaseNode:
			keys = append(keys, x.dev.Keys()...)
		case *IfNode:
			keys = append(keys, x.cond.Keys()...)
		}
		return nil
	})
	return key.Dedup(keys)
}

// Spine splits an application chain f(a)(b)... into its head and arguments.
// head is nil when the chain does not start at a Base node.
func Spine(n Node) (head *BaseNode, args []Node) {
	for {
		switch x := n.(type) {
		case *AppNode:
			args = append([]Node{x.arg}, args...)
			n = x.fn
		case *BaseNode:
			return x, args
		default:
			return nil, args
		}
	}
}

// Contains reports whether a node equal to target is reachable from root.
func Contains(root, target Node) bool {
	found := false
	_ = Walk(root, func(n Node) error {
		if Equal(n, target) {
			found = true
		}
		return nil
	})
	return found
}
