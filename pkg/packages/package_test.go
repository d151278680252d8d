package packages

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/mod/modfile"

	ferrors "github.com/conduit-lang/foundry/pkg/errors"
)

func TestNewValidatesVersions(t *testing.T) {
	p, err := New("example.com/net", Min("v1.2.0"), Max("v2.0.0"), Libs("example.com/net/tcp"))
	require.NoError(t, err)
	assert.Equal(t, ">= v1.2.0, < v2.0.0", p.Constraint())
	assert.Equal(t, []string{"example.com/net/tcp"}, p.Libraries)

	_, err = New("example.com/net", Min("one"))
	assert.True(t, stderrors.Is(err, ferrors.ErrConfig))

	_, err = New("example.com/net", Min("v2.0.0"), Max("v1.0.0"))
	assert.True(t, stderrors.Is(err, &ferrors.Error{Kind: ferrors.KindConfig, Code: ferrors.CodeConstraint}))

	_, err = New("")
	assert.Error(t, err)
}

func TestMergeIntersectsRanges(t *testing.T) {
	a := Must("example.com/net", Min("v1.2.0"), Max("v2.0.0"), Libs("example.com/net/tcp"))
	b := Must("example.com/net", Min("v1.4.0"), Max("v1.9.0"), Libs("example.com/net/udp", "example.com/net/tcp"))

	m, err := Merge(a, b)
	require.NoError(t, err)
	assert.Equal(t, ">= v1.4.0, < v1.9.0", m.Constraint())
	assert.Equal(t, []string{"example.com/net/tcp", "example.com/net/udp"}, m.Libraries)

	open := Must("example.com/net")
	m, err = Merge(open, a)
	require.NoError(t, err)
	assert.Equal(t, a.Constraint(), m.Constraint())
}

func TestMergeIncompatibleRangesIsConfigError(t *testing.T) {
	a := Must("example.com/net", Min("v1.0.0"), Max("v2.0.0"))
	b := Must("example.com/net", Min("v2.0.0"))

	_, err := Merge(a, b)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ferrors.ErrConfig))
	assert.Contains(t, err.Error(), "incompatible constraints for example.com/net")

	s := NewSet()
	require.NoError(t, s.Add(a))
	require.Error(t, s.Add(b))
	got, ok := s.Get("example.com/net")
	require.True(t, ok)
	assert.Equal(t, a.Constraint(), got.Constraint(), "a failed merge leaves the set unchanged")
}

func TestMergePins(t *testing.T) {
	a := Must("example.com/rt", Pin("../rt"))
	b := Must("example.com/rt")
	c := Must("example.com/rt", Pin("../other"))

	m, err := Merge(b, a)
	require.NoError(t, err)
	assert.Equal(t, "../rt", m.Pin)

	_, err = Merge(a, c)
	assert.True(t, stderrors.Is(err, &ferrors.Error{Kind: ferrors.KindConfig, Code: ferrors.CodePinConflict}))
}

func TestMergeBuildOnly(t *testing.T) {
	tool := Must("golang.org/x/tools", BuildOnly())
	lib := Must("golang.org/x/tools")

	m, err := Merge(tool, lib)
	require.NoError(t, err)
	assert.False(t, m.BuildOnly)

	m, err = Merge(tool, tool)
	require.NoError(t, err)
	assert.True(t, m.BuildOnly)
}

func TestSatisfies(t *testing.T) {
	p := Must("example.com/net", Min("v1.2.0"), Max("v2.0.0"))

	tests := []struct {
		version string
		want    bool
	}{
		{"v1.2.0", true},
		{"v1.9.9", true},
		{"v1.1.0", false},
		{"v2.0.0", false},
		{"v1.3.0-0.20240101000000-abcdef123456", true},
	}
	for _, tt := range tests {
		got, err := p.Satisfies(tt.version)
		require.NoError(t, err, tt.version)
		if got != tt.want {
			t.Errorf("Satisfies(%s) = %v, want %v", tt.version, got, tt.want)
		}
	}

	_, err := p.Satisfies("garbage")
	assert.Error(t, err)
}

func TestSetListIsSorted(t *testing.T) {
	s := NewSet()
	require.NoError(t, s.Add(Must("b.example/m")))
	require.NoError(t, s.Add(Must("a.example/m", Libs("a.example/m/x"))))
	require.NoError(t, s.Add(Must("b.example/m", Libs("b.example/m/y"))))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a.example/m", list[0].Name)
	assert.Equal(t, []string{"a.example/m/x", "b.example/m/y"}, Libraries(list))
}

func parseManifest(t *testing.T, data string) *modfile.File {
	t.Helper()
	f, err := modfile.Parse("go.mod", []byte(data), nil)
	require.NoError(t, err, data)
	return f
}

func TestWriteManifest(t *testing.T) {
	pkgs := []Package{
		Must("github.com/b/net", Min("v1.2.0"), Max("v2.0.0")),
		Must("github.com/a/console", Min("v0.3.0")),
		Must("github.com/c/loose"),
		Must("golang.org/x/tools", Min("v0.22.0"), BuildOnly(), Libs("golang.org/x/tools/cmd/stringer")),
	}

	var b strings.Builder
	require.NoError(t, WriteManifest(&b, "example.com/app", "1.24", pkgs))
	out := b.String()
	assert.True(t, strings.HasPrefix(out, "// Code generated by foundry. DO NOT EDIT."))
	assert.Contains(t, out, "github.com/b/net v1.2.0 // < v2.0.0")
	assert.Contains(t, out, "//\tgithub.com/c/loose *")
	assert.NotContains(t, out, "replace")

	f := parseManifest(t, out)
	assert.Equal(t, "example.com/app", f.Module.Mod.Path)
	assert.Equal(t, "1.24", f.Go.Version)

	var reqs []string
	for _, r := range f.Require {
		reqs = append(reqs, r.Mod.Path+" "+r.Mod.Version)
	}
	assert.Equal(t, []string{
		"github.com/a/console v0.3.0",
		"github.com/b/net v1.2.0",
		"golang.org/x/tools v0.22.0",
	}, reqs)
	require.Len(t, f.Tool, 1)
	assert.Equal(t, "golang.org/x/tools/cmd/stringer", f.Tool[0].Path)
}

func TestWriteManifestPins(t *testing.T) {
	pkgs := []Package{
		Must("github.com/a/rt", Min("v0.1.0"), Pin("../rt")),
		Must("github.com/b/net", Min("v1.0.0")),
		Must("github.com/c/fork", Min("v1.0.0"), Pin("github.com/me/fork v1.0.1")),
		Must("github.com/d/local", Min("v0.2.0"), Pin("/home/me/my checkout")),
	}

	var b strings.Builder
	require.NoError(t, WriteManifest(&b, "example.com/app", "1.24", pkgs))
	f := parseManifest(t, b.String())

	replaced := map[string]string{}
	for _, r := range f.Replace {
		replaced[r.Old.Path] = strings.TrimSpace(r.New.Path + " " + r.New.Version)
	}
	assert.Equal(t, map[string]string{
		"github.com/a/rt":    "../rt",
		"github.com/c/fork":  "github.com/me/fork v1.0.1",
		"github.com/d/local": "/home/me/my checkout",
	}, replaced)
}

func TestWriteManifestToolsNeedGo124(t *testing.T) {
	pkgs := []Package{Must("golang.org/x/tools", Min("v0.22.0"), BuildOnly())}

	var b strings.Builder
	err := WriteManifest(&b, "example.com/app", "1.23", pkgs)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ferrors.ErrConfig))

	b.Reset()
	require.NoError(t, WriteManifest(&b, "example.com/app", "1.23", pkgs[:0]))
	assert.Equal(t, "1.23", parseManifest(t, b.String()).Go.Version)
}

func TestWriteManifestMergesDuplicates(t *testing.T) {
	pkgs := []Package{
		Must("github.com/b/net", Min("v1.0.0")),
		Must("github.com/b/net", Min("v3.0.0")),
		Must("github.com/b/net", Max("v2.0.0")),
	}
	var b strings.Builder
	err := WriteManifest(&b, "example.com/app", "1.24", pkgs)
	assert.True(t, stderrors.Is(err, ferrors.ErrConfig))
}
