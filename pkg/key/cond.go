package key

import (
	"fmt"
)

// Cond is a boolean condition evaluated against a context. Conditions are
// compared by the identity of the keys they read, never by resolved value.
type Cond interface {
	// Eval resolves the condition.
	Eval(ctx *Context) bool
	// Keys lists the keys the condition reads.
	Keys() []AnyKey
	// Identity is a stable text equal for equal conditions and used for
	// hashing. It embeds key IDs, so it only has meaning within one process.
	Identity() string
	String() string
}

// Is makes a boolean key usable as a condition.
func Is(k *Key[bool]) Cond {
	return boolCond{k: k}
}

type boolCond struct {
	k *Key[bool]
}

func (c boolCond) Eval(ctx *Context) bool { return c.k.Get(ctx) }
func (c boolCond) Keys() []AnyKey         { return []AnyKey{c.k} }
func (c boolCond) Identity() string       { return fmt.Sprintf("key:%d", c.k.ID()) }
func (c boolCond) String() string         { return c.k.Name() }

// Equals is true when k resolves to a value equal to lit.
func Equals[T any](k *Key[T], lit T) Cond {
	return eqCond[T]{k: k, lit: lit}
}

type eqCond[T any] struct {
	k   *Key[T]
	lit T
}

func (c eqCond[T]) Eval(ctx *Context) bool {
	return c.k.conv.equal(c.k.Get(ctx), c.lit)
}

func (c eqCond[T]) Keys() []AnyKey { return []AnyKey{c.k} }

func (c eqCond[T]) Identity() string {
	return fmt.Sprintf("eq:%d:%s", c.k.ID(), c.k.conv.Literal(c.lit))
}

func (c eqCond[T]) String() string {
	return fmt.Sprintf("%s == %s", c.k.Name(), c.k.conv.Literal(c.lit))
}

// SameCond reports whether a and b are the same condition.
func SameCond(a, b Cond) bool {
	return a.Identity() == b.Identity()
}
