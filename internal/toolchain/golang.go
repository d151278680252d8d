// Package toolchain runs the go command on generated sources.
package toolchain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/foundry/pkg/device"
	ferrors "github.com/conduit-lang/foundry/pkg/errors"
)

// Go runs the go binary. Calls block until the command exits; there are no
// timeouts or retries.
type Go struct {
	// Binary is the go executable, "go" when empty.
	Binary string
	Log    *zap.Logger
	// Stdout receives the output of build and tidy. Nil discards it.
	Stdout io.Writer
	// Env is appended to the process environment of every command.
	Env []string
}

var _ device.Toolchain = (*Go)(nil)

// NewGo creates a Go toolchain.
func NewGo(binary string, log *zap.Logger) *Go {
	if log == nil {
		log = zap.NewNop()
	}
	return &Go{Binary: binary, Log: log}
}

func (g *Go) binary() string {
	if g.Binary == "" {
		return "go"
	}
	return g.Binary
}

func (g *Go) run(ctx context.Context, dir string, env []string, stdout io.Writer, args ...string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return ferrors.IO("resolve", dir, err)
	}

	cmd := exec.CommandContext(ctx, g.binary(), args...)
	cmd.Dir = absDir
	cmd.Env = append(append(os.Environ(), g.Env...), env...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Stdout = stdout
	if cmd.Stdout == nil {
		cmd.Stdout = io.Discard
	}

	line := g.binary() + " " + strings.Join(args, " ")
	g.logger().Debug("running", zap.String("command", line), zap.String("dir", absDir))
	if err := cmd.Run(); err != nil {
		return ferrors.ExternalTool(line, stderr.String(), err)
	}
	return nil
}

func (g *Go) logger() *zap.Logger {
	if g.Log == nil {
		return zap.NewNop()
	}
	return g.Log
}

// Tidy runs go mod tidy.
func (g *Go) Tidy(ctx context.Context, dir string) error {
	return g.run(ctx, dir, nil, g.Stdout, "mod", "tidy")
}

// Build runs go build -o output in dir with extra environment env.
func (g *Go) Build(ctx context.Context, dir, output string, env []string) error {
	absOut, err := filepath.Abs(filepath.Join(dir, output))
	if err != nil {
		return ferrors.IO("resolve", output, err)
	}
	return g.run(ctx, dir, env, g.Stdout, "build", "-o", absOut, ".")
}

type listedModule struct {
	Path    string
	Version string
	Main    bool
	Replace *struct {
		Path    string
		Version string
	}
}

// ListModules returns the module closure of the module in dir.
func (g *Go) ListModules(ctx context.Context, dir string) ([]device.Module, error) {
	var out bytes.Buffer
	if err := g.run(ctx, dir, nil, &out, "list", "-m", "-json", "all"); err != nil {
		return nil, err
	}
	return decodeModules(&out)
}

func decodeModules(r io.Reader) ([]device.Module, error) {
	dec := json.NewDecoder(r)
	var mods []device.Module
	for {
		var m listedModule
		if err := dec.Decode(&m); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decode go list output: %w", err)
		}
		mod := device.Module{Path: m.Path, Version: m.Version, Main: m.Main}
		if m.Replace != nil {
			mod.Replace = strings.TrimSpace(m.Replace.Path + " " + m.Replace.Version)
		}
		mods = append(mods, mod)
	}
	return mods, nil
}

// ListPackages returns the import paths of the non-standard packages the
// program in dir depends on, itself excluded.
func (g *Go) ListPackages(ctx context.Context, dir string) ([]string, error) {
	var out bytes.Buffer
	if err := g.run(ctx, dir, nil, &out, "list", "-deps", "-f", "{{if not .Standard}}{{.ImportPath}}{{end}}", "."); err != nil {
		return nil, err
	}
	var pkgs []string
	for _, line := range strings.Split(out.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "main" {
			continue
		}
		pkgs = append(pkgs, line)
	}
	if len(pkgs) > 0 {
		// The last entry of -deps is the package itself.
		pkgs = pkgs[:len(pkgs)-1]
	}
	return pkgs, nil
}
