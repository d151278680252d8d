package device

import (
	"strings"
)

// Type is the tag of a node: either a named type or a function from one type
// to another. Type checking is a shallow tag comparison.
type Type struct {
	name string
	arg  *Type
	res  *Type
}

// Job is the type of runnable entry points.
var Job = Typ("job")

// Typ returns the named type name.
func Typ(name string) Type {
	return Type{name: name}
}

// Arrow returns the type of functions from arg to res.
func Arrow(arg, res Type) Type {
	return Type{arg: &arg, res: &res}
}

// Arrows returns the curried function type args[0] -> ... -> res.
func Arrows(res Type, args ...Type) Type {
	t := res
	for i := len(args) - 1; i >= 0; i-- {
		t = Arrow(args[i], t)
	}
	return t
}

// IsFunc reports whether t is a function type.
func (t Type) IsFunc() bool {
	return t.arg != nil
}

// Arg returns the argument type of a function type.
func (t Type) Arg() Type {
	if t.arg == nil {
		return Type{}
	}
	return *t.arg
}

// Res returns the result type of a function type.
func (t Type) Res() Type {
	if t.res == nil {
		return Type{}
	}
	return *t.res
}

// Equal reports whether t and o are the same type.
func (t Type) Equal(o Type) bool {
	if t.IsFunc() != o.IsFunc() {
		return false
	}
	if !t.IsFunc() {
		return t.name == o.name
	}
	return t.arg.Equal(*o.arg) && t.res.Equal(*o.res)
}

func (t Type) String() string {
	if !t.IsFunc() {
		return t.name
	}
	var b strings.Builder
	if t.arg.IsFunc() {
		b.WriteString("(" + t.arg.String() + ")")
	} else {
		b.WriteString(t.arg.String())
	}
	b.WriteString(" -> ")
	b.WriteString(t.res.String())
	return b.String()
}
