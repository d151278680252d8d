package ui

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/conduit-lang/foundry/pkg/key"
	"github.com/conduit-lang/foundry/pkg/packages"
)

// Table renders the listings of the query command in aligned columns.
// Cells are padded after they are coloured, so escape codes never shift a
// column.
type Table struct {
	w       io.Writer
	header  []string
	rows    [][]cell
	noColor bool
}

type cell struct {
	text  string
	style *color.Color
}

var (
	headerStyle = color.New(color.Bold, color.FgCyan)
	ruleStyle   = color.New(color.FgHiBlack)
	nameStyle   = color.New(color.Bold)
	defaultMark = color.New(color.Faint)
	pinStyle    = color.New(color.FgMagenta)

	stageStyles = map[key.Stage]*color.Color{
		key.Configure: color.New(color.FgYellow),
		key.Runtime:   color.New(color.FgGreen),
	}
)

// DefaultSuffix marks key values the context does not bind.
const DefaultSuffix = " (default)"

// NewTable creates a table with the given column titles.
func NewTable(w io.Writer, noColor bool, header ...string) *Table {
	return &Table{w: w, header: header, noColor: noColor}
}

// NewKeyTable creates the table listing keys by name, stage, type and value.
func NewKeyTable(w io.Writer, noColor bool) *Table {
	return NewTable(w, noColor, "KEY", "STAGE", "TYPE", "VALUE")
}

// NewPackageTable creates the table listing merged package requirements.
func NewPackageTable(w io.Writer, noColor bool) *Table {
	return NewTable(w, noColor, "MODULE", "CONSTRAINT", "PIN")
}

// AddRow appends a row of plain cells.
func (t *Table) AddRow(cells ...string) {
	row := make([]cell, len(cells))
	for i, c := range cells {
		row[i] = cell{text: c}
	}
	t.rows = append(t.rows, row)
}

// AddKey appends the row of k as seen from ctx. The stage is coloured and a
// value ctx leaves unbound is marked as the key default.
func (t *Table) AddKey(k key.AnyKey, ctx *key.Context) {
	value := cell{text: k.Text(ctx)}
	if !ctx.Has(k) {
		value = cell{text: value.text + DefaultSuffix, style: defaultMark}
	}
	t.rows = append(t.rows, []cell{
		{text: k.Name(), style: nameStyle},
		{text: k.Stage().String(), style: stageStyles[k.Stage()]},
		{text: k.Kind()},
		value,
	})
}

// AddPackage appends the row of p. Pinned modules show where they resolve.
func (t *Table) AddPackage(p packages.Package) {
	pin := cell{text: p.Pin}
	if p.Pin != "" {
		pin.style = pinStyle
	}
	t.rows = append(t.rows, []cell{{text: p.Name}, {text: p.Constraint()}, pin})
}

// Render writes the header, a rule and every row. Lines carry no trailing
// blanks and a table without columns writes nothing.
func (t *Table) Render() {
	if len(t.header) == 0 {
		return
	}

	widths := make([]int, len(t.header))
	head := make([]cell, len(t.header))
	for i, h := range t.header {
		widths[i] = utf8.RuneCountInString(h)
		head[i] = cell{text: h, style: headerStyle}
	}
	for _, row := range t.rows {
		for i, c := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(c.text))
			}
		}
	}

	rule := make([]cell, len(widths))
	for i, n := range widths {
		rule[i] = cell{text: strings.Repeat("─", n), style: ruleStyle}
	}

	t.line(head, widths)
	t.line(rule, widths)
	for _, row := range t.rows {
		t.line(row, widths)
	}
}

func (t *Table) line(cells []cell, widths []int) {
	last := min(len(cells), len(widths)) - 1
	var b strings.Builder
	for i := 0; i <= last; i++ {
		c := cells[i]
		if c.style != nil && !t.noColor {
			b.WriteString(c.style.Sprint(c.text))
		} else {
			b.WriteString(c.text)
		}
		if i < last {
			b.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(c.text)+2))
		}
	}
	_, _ = io.WriteString(t.w, strings.TrimRight(b.String(), " ")+"\n")
}

// Field is one line of WriteFields.
type Field struct {
	Label string
	Value string
}

// WriteFields writes "label: value" lines with the values aligned.
func WriteFields(w io.Writer, noColor bool, fields ...Field) {
	width := 0
	for _, f := range fields {
		width = max(width, utf8.RuneCountInString(f.Label))
	}
	labelStyle := color.New(color.FgCyan)
	for _, f := range fields {
		label := f.Label + ":"
		if !noColor {
			label = labelStyle.Sprint(label)
		}
		pad := strings.Repeat(" ", width-utf8.RuneCountInString(f.Label)+1)
		_, _ = io.WriteString(w, label+pad+f.Value+"\n")
	}
}
