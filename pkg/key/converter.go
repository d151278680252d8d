package key

import (
	"fmt"
	"net/netip"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// ArgsImport is the import path of the run-time argument library referenced by
// generated code.
const ArgsImport = "github.com/conduit-lang/foundry/pkg/runtime/args"

// Converter knows how to read a value of type T from command-line text, write
// it back, and spell it as Go source for generated code.
type Converter[T any] struct {
	// Kind is a short human name shown in help output, e.g. "int".
	Kind string
	// GoType is the Go type expression of T in generated code.
	GoType string
	// Parser names the runtime function generated code uses to parse the
	// value from the command line of the built program.
	Parser string
	// Imports lists packages the literal or the type refers to.
	Imports []string

	Parse   func(string) (T, error)
	Format  func(T) string
	Literal func(T) string
	Equal   func(a, b T) bool
}

func (c Converter[T]) equal(a, b T) bool {
	if c.Equal != nil {
		return c.Equal(a, b)
	}
	return reflect.DeepEqual(a, b)
}

// Bool converts booleans.
var Bool = Converter[bool]{
	Kind:    "bool",
	GoType:  "bool",
	Parser:  "args.ParseBool",
	Parse:   strconv.ParseBool,
	Format:  strconv.FormatBool,
	Literal: strconv.FormatBool,
	Equal:   func(a, b bool) bool { return a == b },
}

// Int converts integers.
var Int = Converter[int]{
	Kind:    "int",
	GoType:  "int",
	Parser:  "args.ParseInt",
	Parse:   strconv.Atoi,
	Format:  strconv.Itoa,
	Literal: strconv.Itoa,
	Equal:   func(a, b int) bool { return a == b },
}

// String converts strings.
var String = Converter[string]{
	Kind:    "string",
	GoType:  "string",
	Parser:  "args.ParseString",
	Parse:   func(s string) (string, error) { return s, nil },
	Format:  func(s string) string { return s },
	Literal: strconv.Quote,
	Equal:   func(a, b string) bool { return a == b },
}

// Duration converts time.Duration values ("1m30s" on the command line).
var Duration = Converter[time.Duration]{
	Kind:    "duration",
	GoType:  "time.Duration",
	Parser:  "args.ParseDuration",
	Imports: []string{"time"},
	Parse:   time.ParseDuration,
	Format:  func(d time.Duration) string { return d.String() },
	Literal: func(d time.Duration) string { return fmt.Sprintf("time.Duration(%d)", int64(d)) },
	Equal:   func(a, b time.Duration) bool { return a == b },
}

// Addr converts IP addresses.
var Addr = Converter[netip.Addr]{
	Kind:    "addr",
	GoType:  "netip.Addr",
	Parser:  "args.ParseAddr",
	Imports: []string{"net/netip"},
	Parse:   netip.ParseAddr,
	Format: func(a netip.Addr) string {
		if !a.IsValid() {
			return ""
		}
		return a.String()
	},
	Literal: func(a netip.Addr) string {
		if !a.IsValid() {
			return "netip.Addr{}"
		}
		return fmt.Sprintf("netip.MustParseAddr(%q)", a.String())
	},
	Equal: func(a, b netip.Addr) bool { return a == b },
}

// Prefix converts IP prefixes in CIDR notation.
var Prefix = Converter[netip.Prefix]{
	Kind:    "prefix",
	GoType:  "netip.Prefix",
	Parser:  "args.ParsePrefix",
	Imports: []string{"net/netip"},
	Parse:   netip.ParsePrefix,
	Format: func(p netip.Prefix) string {
		if !p.IsValid() {
			return ""
		}
		return p.String()
	},
	Literal: func(p netip.Prefix) string {
		if !p.IsValid() {
			return "netip.Prefix{}"
		}
		return fmt.Sprintf("netip.MustParsePrefix(%q)", p.String())
	},
	Equal: func(a, b netip.Prefix) bool { return a == b },
}

// Optional lifts c to optional values. A nil pointer is "no value" and is
// written as the empty string on the command line. Literals are spelled with
// args.None and args.Some.
func Optional[T any](c Converter[T]) Converter[*T] {
	return Converter[*T]{
		Kind:    c.Kind + "?",
		GoType:  "*" + c.GoType,
		Parser:  fmt.Sprintf("args.ParseOption(%s)", c.Parser),
		Imports: append(append([]string(nil), c.Imports...), ArgsImport),
		Parse: func(s string) (*T, error) {
			if s == "" {
				return nil, nil
			}
			v, err := c.Parse(s)
			if err != nil {
				return nil, err
			}
			return &v, nil
		},
		Format: func(v *T) string {
			if v == nil {
				return ""
			}
			return c.Format(*v)
		},
		Literal: func(v *T) string {
			if v == nil {
				return fmt.Sprintf("args.None[%s]()", c.GoType)
			}
			return fmt.Sprintf("args.Some[%s](%s)", c.GoType, c.Literal(*v))
		},
		Equal: func(a, b *T) bool {
			if a == nil || b == nil {
				return a == nil && b == nil
			}
			return c.equal(*a, *b)
		},
	}
}

// List lifts c to comma separated lists. Elements cannot contain commas and
// cannot be blank.
func List[T any](c Converter[T]) Converter[[]T] {
	return Converter[[]T]{
		Kind:    c.Kind + " list",
		GoType:  "[]" + c.GoType,
		Parser:  fmt.Sprintf("args.ParseList(%s)", c.Parser),
		Imports: c.Imports,
		Parse: func(s string) ([]T, error) {
			out := []T{}
			if s == "" {
				return out, nil
			}
			for _, part := range strings.Split(s, ",") {
				part = strings.TrimSpace(part)
				if part == "" {
					return nil, fmt.Errorf("empty element in list %q", s)
				}
				v, err := c.Parse(part)
				if err != nil {
					return nil, err
				}
				out = append(out, v)
			}
			return out, nil
		},
		Format: func(vs []T) string {
			parts := make([]string, len(vs))
			for i, v := range vs {
				parts[i] = c.Format(v)
			}
			return strings.Join(parts, ",")
		},
		Literal: func(vs []T) string {
			parts := make([]string, len(vs))
			for i, v := range vs {
				parts[i] = c.Literal(v)
			}
			return fmt.Sprintf("[]%s{%s}", c.GoType, strings.Join(parts, ", "))
		},
		Equal: func(a, b []T) bool {
			if len(a) != len(b) {
				return false
			}
			for i := range a {
				if !c.equal(a[i], b[i]) {
					return false
				}
			}
			return true
		},
	}
}
