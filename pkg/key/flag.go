package key

import (
	"github.com/spf13/pflag"
)

// Flag adapts a key to a pflag.Value. Set stores the raw text under the key
// name in into; the text is converted by ParseContext once all flags are read,
// so every key sharing the name gets the value.
type Flag struct {
	key  AnyKey
	into map[string]string
}

var _ pflag.Value = (*Flag)(nil)

// NewFlag creates a flag for k writing into into.
func NewFlag(k AnyKey, into map[string]string) *Flag {
	return &Flag{key: k, into: into}
}

func (f *Flag) String() string {
	if v, ok := f.into[f.key.Name()]; ok {
		return v
	}
	return f.key.Text(nil)
}

// Set validates and records s.
func (f *Flag) Set(s string) error {
	if _, err := f.key.ParseText(s); err != nil {
		return err
	}
	f.into[f.key.Name()] = s
	return nil
}

func (f *Flag) Type() string {
	return f.key.Kind()
}

// AddFlags registers one flag per distinct key name on fs. Names already
// defined on fs are skipped.
func AddFlags(fs *pflag.FlagSet, keys []AnyKey, into map[string]string) {
	for _, k := range keys {
		if fs.Lookup(k.Name()) != nil {
			continue
		}
		fl := fs.VarPF(NewFlag(k, into), k.Name(), "", usage(k))
		if k.Kind() == "bool" {
			fl.NoOptDefVal = "true"
		}
	}
}

func usage(k AnyKey) string {
	doc := k.Doc()
	if doc == "" {
		doc = k.Name()
	}
	return doc + " (" + k.Stage().String() + ")"
}
