package key

import (
	"sort"

	ferrors "github.com/conduit-lang/foundry/pkg/errors"
)

// Binding pairs a key with a value of the key's type.
type Binding struct {
	Key   AnyKey
	Value any
}

type entry struct {
	key   AnyKey
	value any
}

// Context is an immutable mapping from key identity to value. A nil *Context
// is the empty context.
type Context struct {
	entries map[ID]entry
}

// NewContext creates a context from bindings. Later bindings of the same key
// win.
func NewContext(bindings ...Binding) *Context {
	c := &Context{entries: make(map[ID]entry, len(bindings))}
	for _, b := range bindings {
		c.entries[b.Key.ID()] = entry{key: b.Key, value: b.Value}
	}
	return c
}

// With returns a copy of c extended with bindings.
func (c *Context) With(bindings ...Binding) *Context {
	out := &Context{entries: make(map[ID]entry, c.Len()+len(bindings))}
	if c != nil {
		for id, e := range c.entries {
			out.entries[id] = e
		}
	}
	for _, b := range bindings {
		out.entries[b.Key.ID()] = entry{key: b.Key, value: b.Value}
	}
	return out
}

// Merge returns a context holding the bindings of c and other. Bindings in
// other take precedence.
func (c *Context) Merge(other *Context) *Context {
	return c.With(other.Bindings()...)
}

// Lookup returns the value bound to id.
func (c *Context) Lookup(id ID) (any, bool) {
	if c == nil {
		return nil, false
	}
	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Has reports whether k is bound.
func (c *Context) Has(k AnyKey) bool {
	_, ok := c.Lookup(k.ID())
	return ok
}

// Len returns the number of bindings.
func (c *Context) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Bindings returns every binding, sorted by key name then ID.
func (c *Context) Bindings() []Binding {
	if c == nil {
		return nil
	}
	out := make([]Binding, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, Binding{Key: e.key, Value: e.value})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.Name() != b.Name() {
			return a.Name() < b.Name()
		}
		return a.ID() < b.ID()
	})
	return out
}

// Text returns the command-line text of every binding keyed by key name.
func (c *Context) Text() map[string]string {
	out := make(map[string]string, c.Len())
	for _, b := range c.Bindings() {
		out[b.Key.Name()] = b.Key.Text(c)
	}
	return out
}

// ParseContext builds a context from command-line text keyed by key name.
// Every key in keys whose name appears in text is bound, so two distinct keys
// sharing a name receive the same value. Unknown names and malformed values
// are configuration errors.
func ParseContext(keys []AnyKey, text map[string]string) (*Context, error) {
	byName := make(map[string][]AnyKey, len(keys))
	for _, k := range keys {
		byName[k.Name()] = append(byName[k.Name()], k)
	}

	names := make([]string, 0, len(text))
	for name := range text {
		names = append(names, name)
	}
	sort.Strings(names)

	var bindings []Binding
	for _, name := range names {
		matches, ok := byName[name]
		if !ok {
			return nil, ferrors.Config(ferrors.CodeUnknownKey, "unknown key %q", name)
		}
		for _, k := range matches {
			v, err := k.ParseText(text[name])
			if err != nil {
				return nil, ferrors.WrapConfig(ferrors.CodeMalformedValue, err,
					"malformed value %q for key %s (%s)", text[name], name, k.Kind())
			}
			bindings = append(bindings, Binding{Key: k, Value: v})
		}
	}
	return NewContext(bindings...), nil
}
