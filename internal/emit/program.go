package emit

import (
	"bytes"
	"fmt"
	"go/format"
	"path"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/conduit-lang/foundry/pkg/device"
	ferrors "github.com/conduit-lang/foundry/pkg/errors"
	"github.com/conduit-lang/foundry/pkg/info"
	"github.com/conduit-lang/foundry/pkg/key"
)

// Generated file names.
const (
	MainFile = "main.go"
	KeysFile = "keys_gen.go"
	InfoFile = "info_gen.go"
	ModFile  = "go.mod"
)

const header = "// Code generated by foundry. DO NOT EDIT.\n\n"

// program accumulates the body of main.
type program struct {
	info    *info.Info
	imports map[string]string // path -> alias
	aliases map[string]bool
	vars    *device.Table[string]
	names   map[string]int
	body    bytes.Buffer
}

// Program generates main.go for root. Every instance node (a node whose type
// is not a function) becomes a local variable initialised by the Connect
// expression of its head device, in dependency order; the root's expression
// is the program's job and its error is the exit status.
func Program(i *info.Info, root device.Node) ([]byte, error) {
	p := &program{
		info:    i,
		imports: map[string]string{},
		aliases: map[string]bool{"args": true, "context": true, "fmt": true, "os": true, "signal": true, "ctx": true, "stop": true, "err": true, "main": true},
		vars:    device.NewTable[string](),
		names:   map[string]int{},
	}
	p.imports[key.ArgsImport] = "args"
	if root.Type().IsFunc() {
		return nil, ferrors.Config(ferrors.CodeCodegen, "cannot generate a program for %s of function type %s", root, root.Type())
	}

	err := device.Walk(root, func(n device.Node) error {
		if n.Type().IsFunc() {
			return nil
		}
		expr, err := p.connect(n)
		if err != nil {
			return err
		}
		if device.Equal(n, root) {
			fmt.Fprintf(&p.body, "\tif err := %s; err != nil {\n", expr)
			p.body.WriteString("\t\tfmt.Fprintln(os.Stderr, err)\n")
			p.body.WriteString("\t\tos.Exit(1)\n")
			p.body.WriteString("\t}\n")
			return nil
		}
		v := p.newVar(n)
		fmt.Fprintf(&p.body, "\t%s := %s\n\t_ = %s\n", v, expr, v)
		p.vars.Put(n, v)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(header)
	buf.WriteString("package main\n\n")
	buf.WriteString("import (\n\t\"context\"\n\t\"fmt\"\n\t\"os\"\n\t\"os/signal\"\n\n")
	paths := make([]string, 0, len(p.imports))
	for imp := range p.imports {
		paths = append(paths, imp)
	}
	sort.Strings(paths)
	for _, imp := range paths {
		alias := p.imports[imp]
		if alias == path.Base(imp) {
			fmt.Fprintf(&buf, "\t%s\n", strconv.Quote(imp))
		} else {
			fmt.Fprintf(&buf, "\t%s %s\n", alias, strconv.Quote(imp))
		}
	}
	buf.WriteString(")\n\n")
	buf.WriteString("func main() {\n")
	buf.WriteString("\targs.MustParse(os.Args[1:])\n")
	buf.WriteString("\tctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)\n")
	buf.WriteString("\tdefer stop()\n")
	buf.WriteString("\t_ = ctx\n\n")
	buf.Write(p.body.Bytes())
	buf.WriteString("}\n")

	return formatSource(MainFile, buf.Bytes())
}

func (p *program) connect(n device.Node) (string, error) {
	head, argNodes := device.Spine(n)
	if head == nil {
		return "", ferrors.Config(ferrors.CodeCodegen, "cannot generate code for %s: graph is not resolved", n)
	}

	var argExprs []string
	for _, a := range argNodes {
		v, ok := p.vars.Get(a)
		if !ok {
			return "", ferrors.Config(ferrors.CodeCodegen,
				"cannot generate code for %s: argument %s of type %s has no instance", n, a, a.Type())
		}
		argExprs = append(argExprs, v)
	}
	for _, d := range head.Deps() {
		v, ok := p.vars.Get(d)
		if !ok {
			return "", ferrors.Config(ferrors.CodeCodegen,
				"cannot generate code for %s: dependency %s of type %s has no instance", n, d, d.Type())
		}
		argExprs = append(argExprs, v)
	}

	dev := head.Device()
	alias, fresh := p.alias(dev.Module())
	expr := dev.Connect(p.info, alias, argExprs)
	// Drop imports the expression does not refer to.
	if fresh && !strings.Contains(expr, alias+".") {
		delete(p.imports, dev.Module())
		delete(p.aliases, alias)
	}
	return expr, nil
}

// alias returns the import alias of module, registering it if fresh.
func (p *program) alias(module string) (string, bool) {
	if module == "" {
		return "", false
	}
	if a, ok := p.imports[module]; ok {
		return a, false
	}
	base := ident(path.Base(module))
	a := base
	for i := 2; p.aliases[a]; i++ {
		a = base + strconv.Itoa(i)
	}
	p.aliases[a] = true
	p.imports[module] = a
	return a, true
}

func (p *program) newVar(n device.Node) string {
	head, _ := device.Spine(n)
	base := "dev"
	if head != nil {
		base = ident(path.Base(head.Name()))
	}
	for {
		p.names[base]++
		v := base + strconv.Itoa(p.names[base])
		if !p.aliases[v] {
			p.aliases[v] = true
			return v
		}
	}
}

// ident turns s into a lower-case Go identifier.
func ident(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case b.Len() > 0:
			b.WriteRune('_')
		}
	}
	out := strings.TrimRight(b.String(), "_")
	if out == "" || unicode.IsDigit(rune(out[0])) {
		out = "x" + out
	}
	return out
}

func formatSource(name string, src []byte) ([]byte, error) {
	out, err := format.Source(src)
	if err != nil {
		return nil, ferrors.WrapConfig(ferrors.CodeCodegen, err, "format %s", name)
	}
	return out, nil
}

// Keys generates keys_gen.go.
func Keys(i *info.Info) ([]byte, error) {
	var buf bytes.Buffer
	if err := key.Generate(&buf, "main", i.AllKeys(), i.Context()); err != nil {
		return nil, err
	}
	return formatSource(KeysFile, buf.Bytes())
}

// Self generates info_gen.go, the self-description of the program: its name,
// the resolved module closure and the libraries it links.
func Self(i *info.Info, modules []device.Module, libraries []string) ([]byte, error) {
	mods := make([]device.Module, 0, len(modules))
	for _, m := range modules {
		if m.Main {
			continue
		}
		mods = append(mods, m)
	}
	sort.Slice(mods, func(a, b int) bool { return mods[a].Path < mods[b].Path })
	libs := append([]string(nil), libraries...)
	sort.Strings(libs)

	var buf bytes.Buffer
	buf.WriteString(header)
	buf.WriteString("package main\n\n")
	buf.WriteString("// Self describes this program as it was built.\n")
	buf.WriteString("var Self = struct {\n\tName string\n\tPackages []struct{ Path, Version string }\n\tLibraries []string\n}{\n")
	fmt.Fprintf(&buf, "\tName: %s,\n", strconv.Quote(i.Name()))
	buf.WriteString("\tPackages: []struct{ Path, Version string }{\n")
	for _, m := range mods {
		fmt.Fprintf(&buf, "\t\t{%s, %s},\n", strconv.Quote(m.Path), strconv.Quote(m.Version))
	}
	buf.WriteString("\t},\n")
	buf.WriteString("\tLibraries: []string{\n")
	for _, l := range libs {
		fmt.Fprintf(&buf, "\t\t%s,\n", strconv.Quote(l))
	}
	buf.WriteString("\t},\n}\n")

	return formatSource(InfoFile, buf.Bytes())
}
