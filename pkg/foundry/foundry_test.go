package foundry_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/foundry/internal/ctxcache"
	"github.com/conduit-lang/foundry/internal/emit"
	"github.com/conduit-lang/foundry/pkg/device"
	"github.com/conduit-lang/foundry/pkg/devices"
	"github.com/conduit-lang/foundry/pkg/foundry"
)

type fakeTool struct {
	calls []string
	env   []string
}

func (f *fakeTool) Tidy(context.Context, string) error {
	f.calls = append(f.calls, "tidy")
	return nil
}

func (f *fakeTool) Build(_ context.Context, _, output string, env []string) error {
	f.calls = append(f.calls, "build "+output)
	f.env = env
	return nil
}

func (f *fakeTool) ListModules(context.Context, string) ([]device.Module, error) {
	return []device.Module{{Path: devices.RuntimeModule, Version: devices.RuntimeVersion}}, nil
}

func (f *fakeTool) ListPackages(context.Context, string) ([]string, error) {
	return []string{devices.RuntimeLib("console")}, nil
}

type harness struct {
	dir  string
	tool *fakeTool
	root device.Node
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv(devices.RootEnv, "")
	hello := devices.Main("example.com/hello", "Start", device.Arrows(device.Job, devices.ConsoleType))
	return &harness{
		dir:  t.TempDir(),
		tool: &fakeTool{},
		root: devices.MustRegister("hello", []device.Node{device.MustApply(hello, devices.Console())}),
	}
}

func (h *harness) run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := foundry.Run(context.Background(), h.root, append(args, "--no-color"),
		foundry.WithDir(h.dir),
		foundry.WithOutput(&stdout, &stderr),
		foundry.WithToolchain(h.tool))
	return code, stdout.String(), stderr.String()
}

func (h *harness) build(name string) string {
	return filepath.Join(h.dir, "_build", name)
}

func TestConfigureWritesBuildDirectory(t *testing.T) {
	h := newHarness(t)
	code, out, errOut := h.run("configure", "--target", "freebsd")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "configured hello")

	for _, f := range []string{emit.MainFile, emit.KeysFile, emit.ModFile, ctxcache.FileName} {
		assert.FileExists(t, h.build(f))
	}
	assert.Empty(t, h.tool.calls)
}

func TestBuildUsesRememberedContext(t *testing.T) {
	h := newHarness(t)
	code, _, errOut := h.run("configure", "--target", "freebsd")
	require.Equal(t, 0, code, errOut)

	code, out, errOut := h.run("build")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, []string{"tidy", "build hello"}, h.tool.calls)
	assert.Equal(t, []string{"GOOS=freebsd"}, h.tool.env)
	assert.Contains(t, out, "built "+h.build("hello"))
	assert.FileExists(t, h.build(emit.InfoFile))
}

func TestFlagsOverrideRememberedContext(t *testing.T) {
	h := newHarness(t)
	code, _, _ := h.run("configure", "--target", "freebsd")
	require.Equal(t, 0, code)

	code, out, _ := h.run("query", "name", "--target", "linux")
	require.Equal(t, 0, code)
	assert.Equal(t, "hello --target=linux\n", out)

	code, out, _ = h.run("query", "name")
	require.Equal(t, 0, code)
	assert.Equal(t, "hello --target=freebsd\n", out)
}

func TestQueries(t *testing.T) {
	h := newHarness(t)

	code, out, _ := h.run("query", "packages")
	require.Equal(t, 0, code)
	assert.Contains(t, out, devices.RuntimeModule)

	code, out, _ = h.run("query", "manifest")
	require.Equal(t, 0, code)
	assert.Contains(t, out, `module foundry.local/hello`)

	code, out, _ = h.run("query", "install", "-o", "hello.bin")
	require.Equal(t, 0, code)
	assert.Equal(t, h.build("hello.bin")+"\n", out)

	code, out, _ = h.run("query", "files-configure")
	require.Equal(t, 0, code)
	assert.Equal(t, []string{emit.ModFile, emit.KeysFile, emit.MainFile}, strings.Fields(out))

	code, out, _ = h.run("query", "keys")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "target")
	assert.Contains(t, out, "verbose")
	assert.Contains(t, out, "(default)")
}

func TestCleanRemovesEverything(t *testing.T) {
	h := newHarness(t)
	code, _, _ := h.run("build")
	require.Equal(t, 0, code)

	code, out, errOut := h.run("clean")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "cleaned")
	for _, f := range []string{emit.MainFile, emit.KeysFile, emit.ModFile, emit.InfoFile, ctxcache.FileName} {
		assert.NoFileExists(t, h.build(f))
	}
}

func TestDryRunLeavesDiskUntouched(t *testing.T) {
	h := newHarness(t)
	code, _, errOut := h.run("build", "--dry-run")
	require.Equal(t, 0, code, errOut)
	assert.NoDirExists(t, filepath.Join(h.dir, "_build"))
	assert.Empty(t, h.tool.calls)
}

func TestDescribe(t *testing.T) {
	h := newHarness(t)
	code, out, _ := h.run("describe")
	require.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out, "hello : job"))

	code, out, _ = h.run("describe", "--dot")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "digraph")
}

func TestErrorsExitNonZero(t *testing.T) {
	h := newHarness(t)
	code, _, errOut := h.run("configure", "--taget", "linux")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "CFG105")
	assert.Contains(t, errOut, "--target")

	code, _, _ = h.run("build", "--target", "linux")
	require.Equal(t, 0, code)
	code, _, errOut = h.run("build", "--build-dir", h.build(emit.MainFile))
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, errOut)
}

func TestHelp(t *testing.T) {
	h := newHarness(t)
	code, out, _ := h.run("--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "configure")
	assert.NoDirExists(t, filepath.Join(h.dir, "_build"))
}

func TestMetricsFile(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "foundry.yml"),
		[]byte("metrics_file: phases.prom\nclean_policy: stop-on-first\n"), 0o644))

	code, _, errOut := h.run("configure")
	require.Equal(t, 0, code, errOut)

	data, err := os.ReadFile(filepath.Join(h.dir, "phases.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `foundry_phase_nodes_total{phase="configure",result="ok"}`)
	assert.Contains(t, string(data), "foundry_packages")
}

func TestAppName(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "hello", foundry.AppName(h.root))
	assert.Equal(t, "console", foundry.AppName(devices.Console()))
}
