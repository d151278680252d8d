package console

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLines(t *testing.T) {
	var b strings.Builder
	c := New(&b, false)
	c.Println("hello", "world")
	c.Printf("n=%d", 3)
	c.Debugf("hidden")
	c.Printf("done\n")
	assert.Equal(t, "hello world\nn=3\ndone\n", b.String())

	b.Reset()
	New(&b, true).Debugf("shown")
	assert.Equal(t, "shown\n", b.String())
}

func TestConcurrentLinesDoNotInterleave(t *testing.T) {
	var b strings.Builder
	c := New(&b, false)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Printf("line")
		}()
	}
	wg.Wait()
	assert.Equal(t, strings.Repeat("line\n", 20), b.String())
}
