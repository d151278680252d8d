// Package console is a line-oriented text console.
package console

import (
	"fmt"
	"io"
	"sync"
)

// Console writes whole lines to an output. It is safe for concurrent use.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
}

// New returns a console writing to out. Debugf output is shown only when
// verbose is set.
func New(out io.Writer, verbose bool) *Console {
	return &Console{out: out, verbose: verbose}
}

// Println writes its operands followed by a newline.
func (c *Console) Println(a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, a...)
}

// Printf writes a formatted line. A missing trailing newline is added.
func (c *Console) Printf(format string, a ...any) {
	c.write(fmt.Sprintf(format, a...))
}

// Debugf is Printf for verbose consoles and does nothing otherwise.
func (c *Console) Debugf(format string, a ...any) {
	if c.verbose {
		c.write(fmt.Sprintf(format, a...))
	}
}

func (c *Console) write(s string) {
	if len(s) == 0 || s[len(s)-1] != '\n' {
		s += "\n"
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	io.WriteString(c.out, s)
}
