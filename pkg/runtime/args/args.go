// Package args holds the run-time keys of a generated program. Generated code
// registers one variable per run-time key with its configured default, and
// main parses the command line into them before any device starts.
package args

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/spf13/pflag"
)

// Set is a collection of run-time keys.
type Set struct {
	flags *pflag.FlagSet
}

// NewSet creates an empty set for a program called name.
func NewSet(name string) *Set {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = true
	return &Set{flags: fs}
}

// CommandLine is the set generated code registers into.
var CommandLine = NewSet(filepath.Base(os.Args[0]))

// Flags exposes the underlying flag set.
func (s *Set) Flags() *pflag.FlagSet { return s.flags }

// Usage writes the key table to w.
func (s *Set) Usage(w io.Writer) {
	fmt.Fprintf(w, "Usage of %s:\n", s.flags.Name())
	s.flags.SetOutput(w)
	s.flags.PrintDefaults()
}

// Parse parses argv into the registered keys. Positional arguments are
// rejected.
func (s *Set) Parse(argv []string) error {
	s.flags.SetOutput(io.Discard)
	if err := s.flags.Parse(argv); err != nil {
		return err
	}
	if rest := s.flags.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(rest, " "))
	}
	return nil
}

type value[T any] struct {
	p     *T
	text  string
	parse func(string) (T, error)
}

func (v *value[T]) String() string { return v.text }
func (v *value[T]) Type() string   { return "value" }

func (v *value[T]) Set(s string) error {
	x, err := v.parse(s)
	if err != nil {
		return err
	}
	*v.p = x
	v.text = s
	return nil
}

// RegisterIn adds a key called name to s and returns the variable holding its
// value. def is the value when the key is absent from the command line.
func RegisterIn[T any](s *Set, name, doc string, def T, parse func(string) (T, error)) *T {
	p := new(T)
	*p = def
	v := &value[T]{p: p, text: display(def), parse: parse}
	f := s.flags.VarPF(v, name, "", doc)
	if _, ok := any(def).(bool); ok {
		f.NoOptDefVal = "true"
	}
	return p
}

// Register adds a key to CommandLine.
func Register[T any](name, doc string, def T, parse func(string) (T, error)) *T {
	return RegisterIn(CommandLine, name, doc, def, parse)
}

// Parse parses argv into CommandLine.
func Parse(argv []string) error {
	return CommandLine.Parse(argv)
}

// MustParse parses argv into CommandLine and exits on failure. -h and --help
// print the key table and exit successfully.
func MustParse(argv []string) {
	err := Parse(argv)
	switch {
	case err == nil:
		return
	case errors.Is(err, pflag.ErrHelp):
		CommandLine.Usage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "%s: %v\n", CommandLine.flags.Name(), err)
		CommandLine.Usage(os.Stderr)
		os.Exit(2)
	}
}

// display spells a default the way it would be written on the command line.
func display(v any) string {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Invalid:
		return ""
	case reflect.Pointer:
		if rv.IsNil() {
			return ""
		}
		return display(rv.Elem().Interface())
	case reflect.Slice:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = display(rv.Index(i).Interface())
		}
		return strings.Join(parts, ",")
	}
	if s, ok := v.(fmt.Stringer); ok {
		if z, ok := v.(interface{ IsValid() bool }); ok && !z.IsValid() {
			return ""
		}
		return s.String()
	}
	return fmt.Sprint(v)
}
