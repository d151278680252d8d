// Package device implements the device composition algebra.
//
// A graph is built bottom-up from three kinds of nodes: Base nodes wrapping a
// Configurable, App nodes applying a functor node to an argument node, and If
// nodes choosing between two alternatives on a condition over keys. Nodes are
// immutable. Equality is structural and hashing is consistent with it, so
// identical requests for a device collapse to one instance during traversal.
package device

import (
	"context"

	"go.uber.org/zap"

	"github.com/conduit-lang/foundry/pkg/info"
	"github.com/conduit-lang/foundry/pkg/key"
	"github.com/conduit-lang/foundry/pkg/packages"
)

// Phase is a step of the build.
type Phase int

const (
	Configure Phase = iota
	Build
	Clean
)

func (p Phase) String() string {
	switch p {
	case Configure:
		return "configure"
	case Build:
		return "build"
	case Clean:
		return "clean"
	default:
		return "unknown"
	}
}

// Configurable is the capability set of a device.
type Configurable interface {
	Name() string
	// Module is the Go import path the device's code lives in. Empty for
	// devices with nothing to import.
	Module() string
	Type() Type
	Keys() []key.AnyKey
	Packages(ctx *key.Context) []packages.Package
	Configure(ctx context.Context, env *Env) error
	Build(ctx context.Context, env *Env) error
	Clean(ctx context.Context, env *Env) error
	// Connect returns the Go expression instantiating the device, given the
	// import alias of its module and the expressions of its arguments
	// followed by its dependencies.
	Connect(i *info.Info, module string, args []string) string
	// Files lists the build directory files the device produces in phase.
	Files(i *info.Info, phase Phase) []string
	Deps() []Node
}

// Env is passed to phase hooks.
type Env struct {
	Info  *info.Info
	Graph Node
	Log   *zap.Logger
	Files FileSystem
	Tool  Toolchain
}

// FileSystem is the build directory. Names are relative to it.
type FileSystem interface {
	WriteFile(name string, data []byte) error
	ReadFile(name string) ([]byte, error)
	Remove(name string) error
	Exists(name string) bool
	// Path returns the path of name on disk.
	Path(name string) string
}

// Module is one entry of the resolved module closure.
type Module struct {
	Path    string
	Version string
	Replace string
	Main    bool
}

// Toolchain runs the Go tool in a directory.
type Toolchain interface {
	Tidy(ctx context.Context, dir string) error
	Build(ctx context.Context, dir, output string, env []string) error
	ListModules(ctx context.Context, dir string) ([]Module, error)
	ListPackages(ctx context.Context, dir string) ([]string, error)
}
