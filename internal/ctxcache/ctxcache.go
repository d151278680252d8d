// Package ctxcache persists the configure-time context in the build directory
// so later invocations see the same key values.
package ctxcache

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"go.uber.org/zap"

	"github.com/conduit-lang/foundry/pkg/device"
	ferrors "github.com/conduit-lang/foundry/pkg/errors"
	"github.com/conduit-lang/foundry/pkg/key"
)

// FileName is the cache file inside the build directory.
const FileName = "context.hcl"

// Save writes the command-line text of every binding of ctx, one string
// attribute per key name.
func Save(fs device.FileSystem, ctx *key.Context) error {
	f := hclwrite.NewEmptyFile()
	body := f.Body()
	text := ctx.Text()
	names := make([]string, 0, len(text))
	for name := range text {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		body.SetAttributeValue(name, cty.StringVal(text[name]))
	}
	return fs.WriteFile(FileName, f.Bytes())
}

// Load reads the cache and parses it against keys. A missing cache is an
// empty context. Attributes naming keys that no longer exist are dropped with
// a warning.
func Load(fs device.FileSystem, keys []key.AnyKey, log *zap.Logger) (*key.Context, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if !fs.Exists(FileName) {
		return key.NewContext(), nil
	}
	data, err := fs.ReadFile(FileName)
	if err != nil {
		return nil, err
	}

	text, err := decode(data, fs.Path(FileName))
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(keys))
	for _, k := range keys {
		known[k.Name()] = true
	}
	for name := range text {
		if !known[name] {
			log.Warn("ignoring cached value of unknown key", zap.String("key", name), zap.String("file", fs.Path(FileName)))
			delete(text, name)
		}
	}
	return key.ParseContext(keys, text)
}

func decode(data []byte, filename string) (map[string]string, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, ferrors.WrapConfig(ferrors.CodeMalformedValue, diags, "parse %s", filename)
	}
	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, ferrors.WrapConfig(ferrors.CodeMalformedValue, diags, "decode %s", filename)
	}

	text := make(map[string]string, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, ferrors.WrapConfig(ferrors.CodeMalformedValue, diags, "evaluate %s in %s", name, filename)
		}
		str, err := convert.Convert(val, cty.String)
		if err != nil || str.IsNull() || !str.IsKnown() {
			return nil, ferrors.Config(ferrors.CodeMalformedValue, "%s in %s: %s", name, filename, describe(err))
		}
		text[name] = str.AsString()
	}
	return text, nil
}

func describe(err error) string {
	if err == nil {
		return "value is null"
	}
	return fmt.Sprintf("not a string: %v", err)
}

// Remove deletes the cache.
func Remove(fs device.FileSystem) error {
	return fs.Remove(FileName)
}
