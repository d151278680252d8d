// Package key implements staged configuration keys.
//
// A key is a named, typed parameter with a default value and a converter.
// Keys are resolved against a Context at configure time; their values are
// either folded into generated code as Go literals (configure stage) or turned
// into command-line arguments of the generated program (runtime stage).
//
// Keys are compared by identity. Every call to New allocates a fresh ID, so two
// keys declared with the same name and default are still distinct keys.
package key

import (
	"fmt"
	"regexp"
	"sort"
	"sync/atomic"
)

// Stage says when a key is resolved.
type Stage int

const (
	// Both keys are folded into generated code and may be overridden at run time.
	Both Stage = iota
	// Configure keys are constant-folded into generated code.
	Configure
	// Runtime keys are parsed by the generated program at start.
	Runtime
)

func (s Stage) String() string {
	switch s {
	case Configure:
		return "configure"
	case Runtime:
		return "runtime"
	case Both:
		return "both"
	default:
		return "unknown"
	}
}

// Includes reports whether a key of stage s takes part in stage other.
func (s Stage) Includes(other Stage) bool {
	return s == Both || other == Both || s == other
}

// ID identifies a key. IDs are never reused within a process.
type ID uint64

var lastID atomic.Uint64

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// AnyKey is the type-erased view of a Key used by graphs, contexts and code
// generation.
type AnyKey interface {
	ID() ID
	Name() string
	Doc() string
	Stage() Stage
	Kind() string
	GoType() string
	Parser() string
	Imports() []string
	Default() any
	// Value resolves the key against ctx.
	Value(ctx *Context) any
	// Literal is the Go source text of the resolved value.
	Literal(ctx *Context) string
	// Text is the command-line text of the resolved value.
	Text(ctx *Context) string
	// ParseText reads command-line text into a value of the key's type.
	ParseText(s string) (any, error)
	// IsSet reports whether ctx binds the key explicitly.
	IsSet(ctx *Context) bool
}

// Key is a typed configuration key.
type Key[T any] struct {
	id    ID
	name  string
	doc   string
	stage Stage
	def   T
	conv  Converter[T]
}

type options struct {
	doc   string
	stage Stage
}

// Option configures a key at declaration.
type Option func(*options)

// WithDoc sets the help text of a key.
func WithDoc(doc string) Option {
	return func(o *options) { o.doc = doc }
}

// WithStage sets the stage of a key. Keys default to Both.
func WithStage(s Stage) Option {
	return func(o *options) { o.stage = s }
}

// New declares a key. It panics on an invalid name: keys are declared at
// package initialisation and a bad name is a programming error.
func New[T any](name string, conv Converter[T], def T, opts ...Option) *Key[T] {
	if !namePattern.MatchString(name) {
		panic(fmt.Sprintf("key: invalid key name %q", name))
	}
	o := options{stage: Both}
	for _, opt := range opts {
		opt(&o)
	}
	return &Key[T]{
		id:    ID(lastID.Add(1)),
		name:  name,
		doc:   o.doc,
		stage: o.stage,
		def:   def,
		conv:  conv,
	}
}

func (k *Key[T]) ID() ID                  { return k.id }
func (k *Key[T]) Name() string            { return k.name }
func (k *Key[T]) Doc() string             { return k.doc }
func (k *Key[T]) Stage() Stage            { return k.stage }
func (k *Key[T]) Kind() string            { return k.conv.Kind }
func (k *Key[T]) GoType() string          { return k.conv.GoType }
func (k *Key[T]) Parser() string          { return k.conv.Parser }
func (k *Key[T]) Imports() []string       { return k.conv.Imports }
func (k *Key[T]) Default() any            { return k.def }
func (k *Key[T]) Converter() Converter[T] { return k.conv }

// Get resolves the key: the context binding if present, else the default.
func (k *Key[T]) Get(ctx *Context) T {
	if v, ok := ctx.Lookup(k.id); ok {
		if t, ok := v.(T); ok {
			return t
		}
	}
	return k.def
}

func (k *Key[T]) Value(ctx *Context) any {
	return k.Get(ctx)
}

func (k *Key[T]) Literal(ctx *Context) string {
	return k.conv.Literal(k.Get(ctx))
}

func (k *Key[T]) Text(ctx *Context) string {
	return k.conv.Format(k.Get(ctx))
}

func (k *Key[T]) ParseText(s string) (any, error) {
	v, err := k.conv.Parse(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (k *Key[T]) IsSet(ctx *Context) bool {
	_, ok := ctx.Lookup(k.id)
	return ok
}

// Bind pairs the key with a value for building a Context.
func (k *Key[T]) Bind(v T) Binding {
	return Binding{Key: k, Value: v}
}

func (k *Key[T]) String() string {
	return fmt.Sprintf("%s#%d", k.name, k.id)
}

// Resolve returns the value of k in ctx, or its default.
func Resolve[T any](k *Key[T], ctx *Context) T {
	return k.Get(ctx)
}

// Serialize returns the Go literal for the value of k in ctx.
func Serialize(k AnyKey, ctx *Context) string {
	return k.Literal(ctx)
}

// Filter returns the keys taking part in stage, preserving order.
func Filter(keys []AnyKey, stage Stage) []AnyKey {
	out := make([]AnyKey, 0, len(keys))
	for _, k := range keys {
		if k.Stage().Includes(stage) {
			out = append(out, k)
		}
	}
	return out
}

// Dedup removes repeated keys (by identity), keeping first occurrences.
func Dedup(keys []AnyKey) []AnyKey {
	seen := make(map[ID]struct{}, len(keys))
	out := make([]AnyKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k.ID()]; ok {
			continue
		}
		seen[k.ID()] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Sort orders keys by name, then by ID.
func Sort(keys []AnyKey) {
	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].Name() != keys[j].Name() {
			return keys[i].Name() < keys[j].Name()
		}
		return keys[i].ID() < keys[j].ID()
	})
}
