package describe

import (
	"bytes"
	"context"
	stderrors "errors"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/foundry/pkg/device"
	ferrors "github.com/conduit-lang/foundry/pkg/errors"
	"github.com/conduit-lang/foundry/pkg/key"
)

func graph() (device.Node, *key.Key[bool]) {
	tls := key.New("tls", key.Bool, false)
	port := key.New("port", key.Int, 80)
	entropy := device.Impl{Name: "entropy", Type: device.Typ("entropy")}.Node()
	plain := device.Impl{Name: "tcp", Type: device.Typ("stack"), Keys: []key.AnyKey{port}, Deps: []device.Node{entropy}}.Node()
	secure := device.Impl{Name: "tls", Type: device.Typ("stack"), Deps: []device.Node{entropy}}.Node()
	main := device.Impl{Name: "main", Type: device.Arrow(device.Typ("stack"), device.Job)}.Node()
	return device.MustApply(main, device.MustIf(key.Is(tls), secure, plain)), tls
}

func TestText(t *testing.T) {
	root, _ := graph()

	var b strings.Builder
	require.NoError(t, Text(&b, root))
	want := `apply : job
  fn: main : stack -> job
  arg: if tls : stack
    then: tls : stack
      entropy : entropy
    else: tcp : stack [port]
      entropy : entropy *
`
	assert.Equal(t, want, b.String())
}

func TestTextOfResolvedGraph(t *testing.T) {
	root, tls := graph()
	r := device.Resolve(root, key.NewContext(tls.Bind(true)))

	var b strings.Builder
	require.NoError(t, Text(&b, r.Root))
	assert.NotContains(t, b.String(), "tcp")
	assert.NotContains(t, b.String(), "if ")
}

func TestDot(t *testing.T) {
	root, _ := graph()

	var b strings.Builder
	require.NoError(t, Dot(&b, "hello", root))
	out := b.String()

	assert.True(t, strings.HasPrefix(out, `digraph "hello" {`))
	assert.Contains(t, out, `[shape=diamond, label="tls"]`)
	assert.Contains(t, out, `style=dashed, label="true"`)
	assert.Equal(t, 1, strings.Count(out, `label="entropy\nentropy"`), "shared nodes are drawn once")
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestRender(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs cat")
	}
	var out bytes.Buffer
	require.NoError(t, Render(context.Background(), "cat", []byte("digraph {}"), &out))
	assert.Equal(t, "digraph {}", out.String())

	err := Render(context.Background(), "false", nil, &out)
	assert.True(t, stderrors.Is(err, ferrors.ErrExternalTool))

	err = Render(context.Background(), "  ", nil, &out)
	assert.True(t, stderrors.Is(err, ferrors.ErrConfig))
}
