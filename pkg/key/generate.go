package key

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ConfigureIdent is the Go identifier of the function returning the
// configure-time value of k in generated code.
func ConfigureIdent(k AnyKey) string {
	return "key" + camel(k.Name())
}

// RuntimeIdent is the Go identifier of the variable holding the run-time value
// of k in generated code. The variable is a pointer filled by args.Parse.
func RuntimeIdent(k AnyKey) string {
	return "arg" + camel(k.Name())
}

// Expr is the Go expression reading the value of k in generated code: the
// run-time variable when the key takes part in the run-time stage, else the
// configure-time function.
func Expr(k AnyKey) string {
	if k.Stage().Includes(Runtime) {
		return "*" + RuntimeIdent(k)
	}
	return ConfigureIdent(k) + "()"
}

func camel(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "-") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// Generate writes the key-bindings source file of package pkg for keys
// resolved against ctx. Configure-time keys become functions returning their
// literal value; run-time keys become args.Register variables whose default is
// the literal value. RuntimeKeys pairs each run-time variable with its flag
// name.
func Generate(w io.Writer, pkg string, keys []AnyKey, ctx *Context) error {
	keys = Dedup(keys)
	Sort(keys)
	configure := Filter(keys, Configure)
	runtime := Filter(keys, Runtime)

	imports := map[string]bool{}
	for _, k := range keys {
		for _, imp := range k.Imports() {
			imports[imp] = true
		}
	}
	if len(runtime) > 0 {
		imports[ArgsImport] = true
	}

	var buf bytes.Buffer
	buf.WriteString("// Code generated by foundry. DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", pkg)

	if len(imports) > 0 {
		paths := make([]string, 0, len(imports))
		for p := range imports {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		buf.WriteString("import (\n")
		for _, p := range paths {
			fmt.Fprintf(&buf, "\t%s\n", strconv.Quote(p))
		}
		buf.WriteString(")\n\n")
	}

	for _, k := range configure {
		if doc := k.Doc(); doc != "" {
			fmt.Fprintf(&buf, "// %s\n", doc)
		}
		fmt.Fprintf(&buf, "func %s() %s { return %s }\n\n", ConfigureIdent(k), k.GoType(), k.Literal(ctx))
	}

	for _, k := range runtime {
		fmt.Fprintf(&buf, "var %s = args.Register(%s, %s, %s, %s)\n\n",
			RuntimeIdent(k), strconv.Quote(k.Name()), strconv.Quote(k.Doc()), k.Literal(ctx), k.Parser())
	}

	buf.WriteString("// RuntimeKeys pairs run-time key variables with their command-line names.\n")
	buf.WriteString("var RuntimeKeys = []struct{ Ident, Flag string }{\n")
	for _, k := range runtime {
		fmt.Fprintf(&buf, "\t{%s, %s},\n", strconv.Quote(RuntimeIdent(k)), strconv.Quote(k.Name()))
	}
	buf.WriteString("}\n")

	_, err := w.Write(buf.Bytes())
	return err
}
