package emit

import (
	stderrors "errors"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/foundry/pkg/device"
	ferrors "github.com/conduit-lang/foundry/pkg/errors"
	"github.com/conduit-lang/foundry/pkg/info"
	"github.com/conduit-lang/foundry/pkg/key"
)

func TestDirWriteAndRemove(t *testing.T) {
	root := t.TempDir()
	d := NewDir(root, false, nil)

	require.NoError(t, d.WriteFile("sub/main.go", []byte("package main\n")))
	data, err := os.ReadFile(filepath.Join(root, "sub", "main.go"))
	require.NoError(t, err)
	assert.Equal(t, "package main\n", string(data))
	assert.True(t, d.Exists("sub/main.go"))

	got, err := d.ReadFile("sub/main.go")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, d.Remove("sub/main.go"))
	assert.False(t, d.Exists("sub/main.go"))
	assert.NoError(t, d.Remove("sub/main.go"), "removing a missing file is not an error")

	_, err = d.ReadFile("missing.go")
	assert.True(t, stderrors.Is(err, ferrors.ErrIO))
	assert.Equal(t, []string{"sub/main.go"}, d.Written())
}

func TestDirSkipsUnchangedContent(t *testing.T) {
	root := t.TempDir()
	d := NewDir(root, false, nil)
	path := filepath.Join(root, "go.mod")

	require.NoError(t, d.WriteFile("go.mod", []byte("module x\n")))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	require.NoError(t, d.WriteFile("go.mod", []byte("module x\n")))
	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, st.ModTime().Equal(old), "unchanged content must not be rewritten")

	require.NoError(t, d.WriteFile("go.mod", []byte("module y\n")))
	st, err = os.Stat(path)
	require.NoError(t, err)
	assert.False(t, st.ModTime().Equal(old))
}

func TestDirDryRun(t *testing.T) {
	root := t.TempDir()
	d := NewDir(root, true, nil)

	require.NoError(t, d.WriteFile("main.go", []byte("package main\n")))
	assert.False(t, d.Exists("main.go"))
	assert.Equal(t, []string{"main.go"}, d.Written())

	require.NoError(t, os.WriteFile(filepath.Join(root, "keep.go"), []byte("x"), 0644))
	require.NoError(t, d.Remove("keep.go"))
	assert.True(t, d.Exists("keep.go"))
}

func testInfo(t *testing.T, keys ...key.AnyKey) *info.Info {
	t.Helper()
	i, err := info.New(info.Options{Name: "hello"}, nil, keys, nil)
	require.NoError(t, err)
	return i
}

func TestProgram(t *testing.T) {
	console := device.Impl{
		Name:   "console",
		Module: "example.com/rt/console",
		Type:   device.Typ("console"),
		Connect: func(_ *info.Info, m string, _ []string) string {
			return m + ".New()"
		},
	}.Node()
	fn := device.Impl{
		Name:   "hello",
		Module: "example.com/app/hello",
		Type:   device.Arrow(device.Typ("console"), device.Job),
		Connect: func(_ *info.Info, m string, args []string) string {
			return m + ".Start(ctx, " + strings.Join(args, ", ") + ")"
		},
	}.Node()
	noop := device.Impl{Name: "noop", Module: "example.com/unused", Type: device.Typ("noop")}.Node()
	job := device.MustApply(fn, console)
	root := device.Impl{
		Name: "app",
		Type: device.Job,
		Connect: func(_ *info.Info, _ string, args []string) string {
			return "run(" + strings.Join(args, ", ") + ")"
		},
		Deps: []device.Node{noop, job},
	}.Node()

	src, err := Program(testInfo(t), root)
	require.NoError(t, err)
	out := string(src)

	_, err = parser.ParseFile(token.NewFileSet(), MainFile, src, 0)
	require.NoError(t, err)

	assert.Contains(t, out, "// Code generated by foundry. DO NOT EDIT.")
	assert.Contains(t, out, `"example.com/rt/console"`)
	assert.Contains(t, out, `"example.com/app/hello"`)
	assert.NotContains(t, out, "example.com/unused", "unreferenced modules are not imported")
	assert.Contains(t, out, "noop1 := struct{}{}")
	assert.Contains(t, out, "console1 := console.New()")
	assert.Contains(t, out, "hello1 := hello.Start(ctx, console1)")
	assert.Contains(t, out, "if err := run(noop1, hello1); err != nil {")
	assert.Contains(t, out, "args.MustParse(os.Args[1:])")

	assert.Less(t, strings.Index(out, "console1 :="), strings.Index(out, "hello1 :="))
}

func TestProgramSharesEqualInstances(t *testing.T) {
	entropy := func() device.Node {
		return device.Impl{Name: "entropy", Type: device.Typ("entropy")}.Node()
	}
	a := device.Impl{Name: "a", Type: device.Typ("a"), Deps: []device.Node{entropy()}}.Node()
	b := device.Impl{Name: "b", Type: device.Typ("b"), Deps: []device.Node{entropy()}}.Node()
	root := device.Impl{Name: "app", Type: device.Job, Deps: []device.Node{a, b}}.Node()

	src, err := Program(testInfo(t), root)
	require.NoError(t, err)
	out := string(src)

	assert.Equal(t, 1, strings.Count(out, "entropy1 :="))
	assert.NotContains(t, out, "entropy2")
	assert.Contains(t, out, "a1 := []any{entropy1}")
	assert.Contains(t, out, "b1 := []any{entropy1}")
}

func TestProgramAliasesCollidingModules(t *testing.T) {
	one := device.Impl{Name: "one", Module: "example.com/a/log", Type: device.Typ("log"),
		Connect: func(_ *info.Info, m string, _ []string) string { return m + ".New()" }}.Node()
	two := device.Impl{Name: "two", Module: "example.com/b/log", Type: device.Typ("log2"),
		Connect: func(_ *info.Info, m string, _ []string) string { return m + ".New()" }}.Node()
	root := device.Impl{Name: "app", Type: device.Job, Deps: []device.Node{one, two}}.Node()

	src, err := Program(testInfo(t), root)
	require.NoError(t, err)
	out := string(src)

	assert.Contains(t, out, `"example.com/a/log"`)
	assert.Contains(t, out, `log2 "example.com/b/log"`)
	assert.Contains(t, out, "two1 := log2.New()")
}

func TestProgramRejectsUnresolvedAndFunctionRoots(t *testing.T) {
	k := key.New("flag", key.Bool, false)
	x := device.Impl{Name: "x", Type: device.Job}.Node()
	y := device.Impl{Name: "y", Type: device.Job}.Node()

	_, err := Program(testInfo(t), device.MustIf(key.Is(k), x, y))
	assert.True(t, stderrors.Is(err, &ferrors.Error{Kind: ferrors.KindConfig, Code: ferrors.CodeCodegen}))

	fn := device.Impl{Name: "f", Type: device.Arrow(device.Job, device.Job)}.Node()
	_, err = Program(testInfo(t), fn)
	assert.True(t, stderrors.Is(err, ferrors.ErrConfig))
}

func TestKeys(t *testing.T) {
	target := key.New("target", key.String, "linux", key.WithStage(key.Configure))
	port := key.New("port", key.Int, 8080, key.WithStage(key.Runtime))

	src, err := Keys(testInfo(t, target, port))
	require.NoError(t, err)

	_, err = parser.ParseFile(token.NewFileSet(), KeysFile, src, 0)
	require.NoError(t, err)
	assert.Contains(t, string(src), `func keyTarget() string { return "linux" }`)
	assert.Contains(t, string(src), `var argPort = args.Register("port", "", 8080, args.ParseInt)`)
}

func TestSelf(t *testing.T) {
	src, err := Self(testInfo(t), []device.Module{
		{Path: "foundry.local/hello", Main: true},
		{Path: "example.com/z", Version: "v1.0.0"},
		{Path: "example.com/a", Version: "v0.2.0"},
	}, []string{"example.com/z/y", "example.com/a"})
	require.NoError(t, err)

	_, err = parser.ParseFile(token.NewFileSet(), InfoFile, src, 0)
	require.NoError(t, err)

	out := string(src)
	assert.Contains(t, out, `Name: "hello"`)
	assert.NotContains(t, out, "foundry.local/hello")
	assert.Less(t, strings.Index(out, `{"example.com/a", "v0.2.0"}`), strings.Index(out, `{"example.com/z", "v1.0.0"}`))
	assert.Contains(t, out, `"example.com/z/y",`)
}
