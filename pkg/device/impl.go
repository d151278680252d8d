package device

import (
	"context"
	"strings"

	"github.com/conduit-lang/foundry/pkg/info"
	"github.com/conduit-lang/foundry/pkg/key"
	"github.com/conduit-lang/foundry/pkg/packages"
)

// Impl is a Configurable assembled from fields. Nil hooks fall back to the
// defaults: configure and build do nothing, clean removes the files the
// device declares, and connect passes its arguments through as a tuple.
type Impl struct {
	Name     string
	Module   string
	Type     Type
	Keys     []key.AnyKey
	Packages func(ctx *key.Context) []packages.Package

	Configure func(ctx context.Context, env *Env) error
	Build     func(ctx context.Context, env *Env) error
	Clean     func(ctx context.Context, env *Env) error
	Connect   func(i *info.Info, module string, args []string) string
	Files     func(i *info.Info, phase Phase) []string

	Deps []Node
}

// Node wraps the implementation in a Base node.
func (d Impl) Node() *BaseNode {
	return Base(implDevice{d})
}

type implDevice struct {
	d Impl
}

func (x implDevice) Name() string       { return x.d.Name }
func (x implDevice) Module() string     { return x.d.Module }
func (x implDevice) Type() Type         { return x.d.Type }
func (x implDevice) Keys() []key.AnyKey { return x.d.Keys }
func (x implDevice) Deps() []Node       { return x.d.Deps }

func (x implDevice) Packages(ctx *key.Context) []packages.Package {
	if x.d.Packages == nil {
		return nil
	}
	return x.d.Packages(ctx)
}

func (x implDevice) Configure(ctx context.Context, env *Env) error {
	if x.d.Configure == nil {
		return nil
	}
	return x.d.Configure(ctx, env)
}

func (x implDevice) Build(ctx context.Context, env *Env) error {
	if x.d.Build == nil {
		return nil
	}
	return x.d.Build(ctx, env)
}

func (x implDevice) Clean(ctx context.Context, env *Env) error {
	if x.d.Clean != nil {
		return x.d.Clean(ctx, env)
	}
	return RemoveFiles(env, x)
}

func (x implDevice) Connect(i *info.Info, module string, args []string) string {
	if x.d.Connect == nil {
		return Tuple(args)
	}
	return x.d.Connect(i, module, args)
}

func (x implDevice) Files(i *info.Info, phase Phase) []string {
	if x.d.Files == nil {
		return nil
	}
	return x.d.Files(i, phase)
}

// RemoveFiles removes every file c declares for configure and build.
func RemoveFiles(env *Env, c Configurable) error {
	for _, phase := range []Phase{Configure, Build} {
		for _, f := range c.Files(env.Info, phase) {
			if err := env.Files.Remove(f); err != nil {
				return err
			}
		}
	}
	return nil
}

// Tuple is the default connect expression: the arguments as a slice, or the
// empty struct when there are none.
func Tuple(args []string) string {
	if len(args) == 0 {
		return "struct{}{}"
	}
	return "[]any{" + strings.Join(args, ", ") + "}"
}
