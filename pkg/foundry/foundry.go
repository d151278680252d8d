// Package foundry is the entry point of configuration programs.
//
// A configuration source builds a device graph and passes its root to Main:
//
//	func main() {
//		hello := devices.Main("example.com/hello", "Start",
//			device.Arrows(device.Job, devices.ConsoleType))
//		foundry.Main(devices.MustRegister("hello", []device.Node{
//			device.MustApply(hello, devices.Console()),
//		}))
//	}
//
// The resulting program is the command line of the project: configure, build,
// clean, query and describe.
package foundry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conduit-lang/foundry/internal/aggregator"
	"github.com/conduit-lang/foundry/internal/cli/commands"
	"github.com/conduit-lang/foundry/internal/cli/config"
	"github.com/conduit-lang/foundry/internal/cli/ui"
	"github.com/conduit-lang/foundry/internal/ctxcache"
	"github.com/conduit-lang/foundry/internal/describe"
	"github.com/conduit-lang/foundry/internal/emit"
	"github.com/conduit-lang/foundry/internal/engine"
	"github.com/conduit-lang/foundry/internal/logging"
	"github.com/conduit-lang/foundry/internal/metrics"
	"github.com/conduit-lang/foundry/internal/toolchain"
	"github.com/conduit-lang/foundry/pkg/device"
	"github.com/conduit-lang/foundry/pkg/info"
	"github.com/conduit-lang/foundry/pkg/key"
)

type options struct {
	dir    string
	stdout io.Writer
	stderr io.Writer
	tool   device.Toolchain
}

// Option changes how Run executes.
type Option func(*options)

// WithDir sets the project directory holding foundry.yml. Relative build
// directories are resolved against it. The default is the working directory.
func WithDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// WithOutput redirects standard output and standard error.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(o *options) {
		o.stdout = stdout
		o.stderr = stderr
	}
}

// WithToolchain replaces the go command backend.
func WithToolchain(t device.Toolchain) Option {
	return func(o *options) { o.tool = t }
}

// Main runs the command line of the program rooted at root and exits.
func Main(root device.Node, opts ...Option) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Run(ctx, root, os.Args[1:], opts...)
	stop()
	os.Exit(code)
}

// Run parses args, executes the requested action on root and returns the
// process exit code. Errors are written to standard error.
func Run(ctx context.Context, root device.Node, args []string, opts ...Option) int {
	o := options{dir: ".", stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	inv := &invocation{opts: o, root: root, name: AppName(root), noColor: color.NoColor}
	if err := inv.run(ctx, args); err != nil {
		ui.WriteError(o.stderr, ui.ErrorFor(err, inv.noColor))
		return 1
	}
	return 0
}

// AppName is the program name of a graph: the name of its head device.
func AppName(root device.Node) string {
	if head, _ := device.Spine(root); head != nil {
		return head.Name()
	}
	return root.String()
}

// invocation is the state of one Run.
type invocation struct {
	opts    options
	root    device.Node
	name    string
	noColor bool

	cfg      *config.Config
	action   *commands.Action
	log      *zap.Logger
	dir      *emit.Dir
	context  *key.Context
	resolved device.Resolved
	info     *info.Info
	engine   *engine.Engine
	metrics  *metrics.Recorder
}

func (inv *invocation) run(ctx context.Context, args []string) error {
	cfg, err := config.LoadFrom(inv.opts.dir)
	if err != nil {
		return err
	}
	inv.cfg = cfg

	keys := device.AllKeys(inv.root)
	action, err := commands.Parse(inv.name, keys, args, inv.opts.stdout, inv.opts.stderr)
	if err != nil {
		return err
	}
	if action.Kind == commands.KindNone {
		return nil
	}
	inv.action = action
	env := action.Envelope
	inv.noColor = inv.noColor || env.NoColor

	if err := inv.setup(keys); err != nil {
		return err
	}
	defer func() { _ = inv.log.Sync() }()

	inv.log.Debug("invocation",
		zap.String("action", action.Kind.String()),
		zap.String("build_dir", inv.dir.Root()),
		zap.Bool("dry_run", env.DryRun),
		zap.Int("keys", len(inv.info.AllKeys())),
		zap.Int("packages", len(inv.info.Packages())))

	err = inv.dispatch(ctx)
	if werr := inv.metrics.WriteTextfile(inv.metricsPath()); werr != nil {
		inv.log.Warn("writing metrics", zap.String("file", inv.cfg.MetricsFile), zap.Error(werr))
	}
	return err
}

// setup builds the logger, build directory, context, info and engine.
func (inv *invocation) setup(keys []key.AnyKey) error {
	env := inv.action.Envelope

	level := env.LogLevel
	if level == "" {
		level = inv.cfg.LogLevel
	}
	log, err := logging.New(logging.Options{Level: level, Format: inv.cfg.LogFormat, Output: inv.opts.stderr})
	if err != nil {
		return err
	}
	inv.log = log.With(zap.String("invocation", uuid.NewString()), zap.String("app", inv.name))

	buildDir := env.BuildDir
	if buildDir == "" {
		buildDir = inv.cfg.BuildDir
	}
	if !filepath.IsAbs(buildDir) {
		buildDir = filepath.Join(inv.opts.dir, buildDir)
	}
	inv.dir = emit.NewDir(buildDir, env.DryRun, inv.log)

	// configure starts from the command line alone; every other action
	// starts from the values remembered by the last configure.
	inv.context = env.Context
	if inv.action.Kind != commands.KindConfigure {
		cached, err := ctxcache.Load(inv.dir, keys, inv.log)
		if err != nil {
			return err
		}
		inv.context = cached.Merge(env.Context)
	}

	inv.resolved = device.Resolve(inv.root, inv.context)
	inv.info, err = aggregator.Aggregate(inv.resolved, inv.context, info.Options{
		Name:       inv.name,
		Output:     env.Output,
		BuildDir:   buildDir,
		ConfigFile: env.ConfigFile,
		GoVersion:  inv.cfg.GoVersion,
	})
	if err != nil {
		return err
	}

	policy, err := engine.ParseCleanPolicy(inv.cfg.CleanPolicy)
	if err != nil {
		return err
	}
	inv.metrics = metrics.New()
	inv.metrics.SetPackages(len(inv.info.Packages()))
	inv.engine = engine.New(engine.Options{
		Log:         inv.log,
		Files:       inv.dir,
		Tool:        inv.toolchain(),
		Metrics:     inv.metrics,
		CleanPolicy: policy,
	})
	return nil
}

func (inv *invocation) toolchain() device.Toolchain {
	switch {
	case inv.action.Envelope.DryRun:
		return toolchain.Dry{Log: inv.log}
	case inv.opts.tool != nil:
		return inv.opts.tool
	default:
		return toolchain.NewGo(inv.cfg.GoBinary, inv.log)
	}
}

func (inv *invocation) metricsPath() string {
	p := inv.cfg.MetricsFile
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(inv.opts.dir, p)
}

func (inv *invocation) dispatch(ctx context.Context) error {
	switch inv.action.Kind {
	case commands.KindConfigure:
		if err := inv.configure(ctx); err != nil {
			return err
		}
		inv.success("configured %s in %s", inv.name, inv.dir.Root())
	case commands.KindBuild:
		if err := inv.configure(ctx); err != nil {
			return err
		}
		if err := inv.engine.Build(ctx, inv.resolved.Root, inv.info); err != nil {
			return err
		}
		inv.success("built %s", inv.installPath())
	case commands.KindClean:
		if err := inv.engine.Clean(ctx, inv.resolved.Root, inv.info); err != nil {
			return err
		}
		if err := ctxcache.Remove(inv.dir); err != nil {
			return err
		}
		inv.success("cleaned %s", inv.dir.Root())
	case commands.KindQuery:
		return inv.query()
	case commands.KindDescribe:
		return inv.describe(ctx)
	}
	return nil
}

func (inv *invocation) configure(ctx context.Context) error {
	if err := inv.engine.Configure(ctx, inv.resolved.Root, inv.info); err != nil {
		return err
	}
	return ctxcache.Save(inv.dir, inv.context)
}

func (inv *invocation) success(format string, args ...any) {
	ui.WriteSuccess(inv.opts.stdout, fmt.Sprintf(format, args...), inv.noColor)
}

func (inv *invocation) installPath() string {
	return filepath.Join(inv.dir.Root(), inv.info.Output())
}

func (inv *invocation) describe(ctx context.Context) error {
	opts := inv.action.Describe
	target := inv.root
	if opts.Eval {
		target = inv.resolved.Root
	}
	if !opts.Dot {
		return describe.Text(inv.opts.stdout, target)
	}
	if opts.DotCommand == "" {
		return describe.Dot(inv.opts.stdout, inv.name, target)
	}
	var buf bytes.Buffer
	if err := describe.Dot(&buf, inv.name, target); err != nil {
		return err
	}
	return describe.Render(ctx, opts.DotCommand, buf.Bytes(), inv.opts.stdout)
}
