// Package describe renders a device graph as an indented tree or as a
// Graphviz dot graph.
package describe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/conduit-lang/foundry/pkg/device"
	ferrors "github.com/conduit-lang/foundry/pkg/errors"
	"github.com/conduit-lang/foundry/pkg/key"
)

// Text writes root as an indented tree. A node already printed is shown again
// with a trailing "*" and its children are not repeated.
func Text(w io.Writer, root device.Node) error {
	var buf bytes.Buffer
	seen := device.NewTable[struct{}]()
	var visit func(n device.Node, label string, depth int)
	visit = func(n device.Node, label string, depth int) {
		buf.WriteString(strings.Repeat("  ", depth))
		if label != "" {
			buf.WriteString(label + ": ")
		}
		buf.WriteString(line(n))
		if seen.Has(n) {
			buf.WriteString(" *\n")
			return
		}
		buf.WriteString("\n")
		seen.Put(n, struct{}{})

		switch x := n.(type) {
		case *device.BaseNode:
			for _, d := range x.Deps() {
				visit(d, "", depth+1)
			}
		case *device.AppNode:
			visit(x.Func(), "fn", depth+1)
			visit(x.Arg(), "arg", depth+1)
		case *device.IfNode:
			visit(x.Then(), "then", depth+1)
			visit(x.Else(), "else", depth+1)
		}
	}
	visit(root, "", 0)
	_, err := w.Write(buf.Bytes())
	return err
}

func line(n device.Node) string {
	switch x := n.(type) {
	case *device.BaseNode:
		s := fmt.Sprintf("%s : %s", x.Name(), x.Type())
		if keys := x.Device().Keys(); len(keys) > 0 {
			s += " [" + keyNames(keys) + "]"
		}
		return s
	case *device.AppNode:
		return fmt.Sprintf("apply : %s", x.Type())
	case *device.IfNode:
		return fmt.Sprintf("if %s : %s", x.Cond(), x.Type())
	}
	return n.String()
}

func keyNames(keys []key.AnyKey) string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.Name()
	}
	return strings.Join(names, ", ")
}

// Dot writes root as a Graphviz digraph. Conditional branches are drawn
// dashed.
func Dot(w io.Writer, name string, root device.Node) error {
	var buf bytes.Buffer
	ids := device.NewTable[int]()
	fmt.Fprintf(&buf, "digraph %s {\n", strconv.Quote(name))
	buf.WriteString("\tnode [fontname=\"monospace\"];\n")

	var visit func(n device.Node) int
	visit = func(n device.Node) int {
		if id, ok := ids.Get(n); ok {
			return id
		}
		id := ids.Len()
		ids.Put(n, id)

		switch x := n.(type) {
		case *device.BaseNode:
			label := x.Name() + "\n" + x.Type().String()
			fmt.Fprintf(&buf, "\tn%d [shape=box, label=%s];\n", id, strconv.Quote(label))
			for _, d := range x.Deps() {
				fmt.Fprintf(&buf, "\tn%d -> n%d;\n", id, visit(d))
			}
		case *device.AppNode:
			fmt.Fprintf(&buf, "\tn%d [shape=circle, label=\"@\"];\n", id)
			fmt.Fprintf(&buf, "\tn%d -> n%d [label=\"fn\"];\n", id, visit(x.Func()))
			fmt.Fprintf(&buf, "\tn%d -> n%d [label=\"arg\"];\n", id, visit(x.Arg()))
		case *device.IfNode:
			fmt.Fprintf(&buf, "\tn%d [shape=diamond, label=%s];\n", id, strconv.Quote(x.Cond().String()))
			fmt.Fprintf(&buf, "\tn%d -> n%d [style=dashed, label=\"true\"];\n", id, visit(x.Then()))
			fmt.Fprintf(&buf, "\tn%d -> n%d [style=dashed, label=\"false\"];\n", id, visit(x.Else()))
		}
		return id
	}
	visit(root)
	buf.WriteString("}\n")
	_, err := w.Write(buf.Bytes())
	return err
}

// Render pipes a dot graph to command, e.g. "dot -Tsvg -o graph.svg".
func Render(ctx context.Context, command string, dot []byte, stdout io.Writer) error {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ferrors.Config(ferrors.CodeConfig, "empty dot command")
	}
	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	cmd.Stdin = bytes.NewReader(dot)
	cmd.Stdout = stdout
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return ferrors.ExternalTool(command, stderr.String(), err)
	}
	return nil
}
