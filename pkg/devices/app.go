package devices

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/conduit-lang/foundry/internal/emit"
	"github.com/conduit-lang/foundry/pkg/device"
	ferrors "github.com/conduit-lang/foundry/pkg/errors"
	"github.com/conduit-lang/foundry/pkg/info"
	"github.com/conduit-lang/foundry/pkg/key"
	"github.com/conduit-lang/foundry/pkg/packages"
)

// Build is the type of the devices producing the generated program's files.
var Build = device.Typ("build")

// RegisterOption adds to the application root.
type RegisterOption func(*device.Impl)

// WithKeys declares extra keys on the root, e.g. keys only read by
// conditions the caller evaluates itself.
func WithKeys(keys ...key.AnyKey) RegisterOption {
	return func(d *device.Impl) { d.Keys = append(d.Keys, keys...) }
}

// WithPackages declares extra module requirements on the root.
func WithPackages(pkgs ...packages.Package) RegisterOption {
	return func(d *device.Impl) {
		prev := d.Packages
		d.Packages = func(ctx *key.Context) []packages.Package {
			return append(prev(ctx), pkgs...)
		}
	}
}

// Register returns the root of an application running jobs. Its dependencies
// are the go.mod, keys and self-description devices followed by the jobs.
// Configure writes main.go and build compiles the program.
func Register(name string, jobs []device.Node, opts ...RegisterOption) (*device.BaseNode, error) {
	for _, j := range jobs {
		if !j.Type().Equal(device.Job) {
			return nil, ferrors.Config(ferrors.CodeTypeMismatch, "%s: job %s has type %s, want %s", name, j, j.Type(), device.Job)
		}
	}
	build := []device.Node{GoMod(), KeysDevice(), InfoDevice()}
	deps := append(build, jobs...)

	d := device.Impl{
		Name:   name,
		Module: RuntimeLib("job"),
		Type:   device.Job,
		Keys:   []key.AnyKey{Target},
		Packages: func(*key.Context) []packages.Package {
			return []packages.Package{runtimePackage(RuntimeLib("args"), RuntimeLib("job"))}
		},
		Configure: func(_ context.Context, env *device.Env) error {
			src, err := emit.Program(env.Info, env.Graph)
			if err != nil {
				return err
			}
			return env.Files.WriteFile(emit.MainFile, src)
		},
		Build: func(ctx context.Context, env *device.Env) error {
			var goEnv []string
			if target := Target.Get(env.Info.Context()); target != "" {
				goEnv = append(goEnv, "GOOS="+target)
			}
			env.Log.Info("building", zap.String("output", env.Info.Output()), zap.Strings("env", goEnv))
			return env.Tool.Build(ctx, env.Files.Path("."), env.Info.Output(), goEnv)
		},
		Connect: func(_ *info.Info, module string, args []string) string {
			jobArgs := append([]string{"ctx"}, args[len(build):]...)
			return fmt.Sprintf("%s.Run(%s)", module, strings.Join(jobArgs, ", "))
		},
		Files: func(i *info.Info, phase device.Phase) []string {
			switch phase {
			case device.Configure:
				return []string{emit.MainFile}
			case device.Build:
				return []string{i.Output()}
			}
			return nil
		},
		Deps: deps,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d.Node(), nil
}

// MustRegister is like Register but panics on error.
func MustRegister(name string, jobs []device.Node, opts ...RegisterOption) *device.BaseNode {
	n, err := Register(name, jobs, opts...)
	if err != nil {
		panic(err)
	}
	return n
}

// GoMod writes the manifest of the generated program on configure and
// resolves its module closure on build.
func GoMod() *device.BaseNode {
	return device.Impl{
		Name: "go-mod",
		Type: Build,
		Configure: func(_ context.Context, env *device.Env) error {
			var buf bytes.Buffer
			if err := packages.WriteManifest(&buf, env.Info.Module(), env.Info.GoVersion(), env.Info.Packages()); err != nil {
				return err
			}
			return env.Files.WriteFile(emit.ModFile, buf.Bytes())
		},
		Build: func(ctx context.Context, env *device.Env) error {
			return env.Tool.Tidy(ctx, env.Files.Path("."))
		},
		Files: func(_ *info.Info, phase device.Phase) []string {
			switch phase {
			case device.Configure:
				return []string{emit.ModFile}
			case device.Build:
				return []string{"go.sum"}
			}
			return nil
		},
	}.Node()
}

// KeysDevice writes the key bindings of the generated program.
func KeysDevice() *device.BaseNode {
	return device.Impl{
		Name: "keys",
		Type: Build,
		Configure: func(_ context.Context, env *device.Env) error {
			src, err := emit.Keys(env.Info)
			if err != nil {
				return err
			}
			return env.Files.WriteFile(emit.KeysFile, src)
		},
		Files: func(_ *info.Info, phase device.Phase) []string {
			if phase == device.Configure {
				return []string{emit.KeysFile}
			}
			return nil
		},
	}.Node()
}

// InfoDevice checks the resolved module closure against the declared
// constraints and writes the program's self-description.
func InfoDevice() *device.BaseNode {
	return device.Impl{
		Name: "info",
		Type: Build,
		Build: func(ctx context.Context, env *device.Env) error {
			dir := env.Files.Path(".")
			mods, err := env.Tool.ListModules(ctx, dir)
			if err != nil {
				return err
			}
			if err := CheckConstraints(env.Info.Packages(), mods); err != nil {
				return err
			}
			libs, err := env.Tool.ListPackages(ctx, dir)
			if err != nil {
				return err
			}
			src, err := emit.Self(env.Info, mods, libs)
			if err != nil {
				return err
			}
			return env.Files.WriteFile(emit.InfoFile, src)
		},
		Files: func(_ *info.Info, phase device.Phase) []string {
			if phase == device.Build {
				return []string{emit.InfoFile}
			}
			return nil
		},
	}.Node()
}

// CheckConstraints reports every package whose resolved module version lies
// outside its declared range. Packages missing from mods, or resolved without
// a version, are not checked.
func CheckConstraints(pkgs []packages.Package, mods []device.Module) error {
	byPath := make(map[string]device.Module, len(mods))
	for _, m := range mods {
		byPath[m.Path] = m
	}
	var errs error
	for _, p := range pkgs {
		m, ok := byPath[p.Name]
		if !ok || m.Version == "" {
			continue
		}
		ok, err := p.Satisfies(m.Version)
		switch {
		case err != nil:
			errs = multierr.Append(errs, err)
		case !ok:
			errs = multierr.Append(errs, ferrors.Config(ferrors.CodeConstraint,
				"module %s resolved to %s, outside %s", p.Name, m.Version, p.Constraint()))
		}
	}
	return errs
}
