// Package engine runs the configure, build and clean phases over a resolved
// graph.
//
// Execution is sequential. Every distinct node runs a phase at most once per
// invocation, after all of its dependencies: declared deps for Base nodes,
// functor and argument for App nodes. Configure and build stop at the first
// failure; clean visits every node and, by default, reports all failures
// together.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/conduit-lang/foundry/internal/metrics"
	"github.com/conduit-lang/foundry/pkg/device"
	ferrors "github.com/conduit-lang/foundry/pkg/errors"
	"github.com/conduit-lang/foundry/pkg/info"
)

// CleanPolicy decides what clean does when a node fails.
type CleanPolicy int

const (
	// CollectAll cleans every node and reports all failures.
	CollectAll CleanPolicy = iota
	// StopOnFirst returns the first failure.
	StopOnFirst
)

func (p CleanPolicy) String() string {
	switch p {
	case CollectAll:
		return "collect"
	case StopOnFirst:
		return "stop"
	default:
		return "unknown"
	}
}

// ParseCleanPolicy parses "collect" (or "collect-all") and "stop" (or
// "stop-on-first").
func ParseCleanPolicy(s string) (CleanPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "collect", "collect-all":
		return CollectAll, nil
	case "stop", "stop-on-first":
		return StopOnFirst, nil
	default:
		return CollectAll, ferrors.Config(ferrors.CodeConfig, "unknown clean policy %q", s)
	}
}

// Options configures an Engine.
type Options struct {
	Log         *zap.Logger
	Files       device.FileSystem
	Tool        device.Toolchain
	Metrics     *metrics.Recorder
	CleanPolicy CleanPolicy
}

// Engine drives the phases of one invocation.
type Engine struct {
	opts       Options
	configured bool
}

// New creates an engine.
func New(opts Options) *Engine {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Engine{opts: opts}
}

// Order returns the Base nodes of root in execution order: every node after
// its dependencies, each distinct node once.
func Order(root device.Node) ([]*device.BaseNode, error) {
	var order []*device.BaseNode
	err := device.Walk(root, func(n device.Node) error {
		switch x := n.(type) {
		case *device.BaseNode:
			order = append(order, x)
		case *device.IfNode:
			return ferrors.Config(ferrors.CodeConfig, "graph is not resolved: %s", n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Configure runs the configure phase.
func (e *Engine) Configure(ctx context.Context, root device.Node, i *info.Info) error {
	e.configured = false
	if err := e.runOrdered(ctx, device.Configure, root, i); err != nil {
		return err
	}
	e.configured = true
	return nil
}

// Build runs the build phase. Configure must have succeeded first.
func (e *Engine) Build(ctx context.Context, root device.Node, i *info.Info) error {
	if !e.configured {
		return ferrors.Config(ferrors.CodePhaseOrder, "build requires a successful configure")
	}
	return e.runOrdered(ctx, device.Build, root, i)
}

// Clean runs the clean phase on every node, dependents first.
func (e *Engine) Clean(ctx context.Context, root device.Node, i *info.Info) error {
	order, err := Order(root)
	if err != nil {
		return err
	}

	var errs []error
	for idx := len(order) - 1; idx >= 0; idx-- {
		n := order[idx]
		if err := e.runNode(ctx, device.Clean, root, n, i); err != nil {
			if e.opts.CleanPolicy == StopOnFirst {
				return err
			}
			errs = append(errs, err)
		}
	}
	e.configured = false
	return ferrors.NewCleanError(errs...)
}

func (e *Engine) runOrdered(ctx context.Context, phase device.Phase, root device.Node, i *info.Info) error {
	order, err := Order(root)
	if err != nil {
		return err
	}
	start := time.Now()
	for _, n := range order {
		if err := e.runNode(ctx, phase, root, n, i); err != nil {
			return err
		}
	}
	e.opts.Log.Debug("phase complete",
		zap.String("phase", phase.String()),
		zap.Int("nodes", len(order)),
		zap.Duration("duration", time.Since(start)))
	return nil
}

func (e *Engine) runNode(ctx context.Context, phase device.Phase, root device.Node, n *device.BaseNode, i *info.Info) error {
	log := e.opts.Log.With(zap.String("phase", phase.String()), zap.String("node", n.Name()))
	env := &device.Env{
		Info:  i,
		Graph: root,
		Log:   log,
		Files: e.opts.Files,
		Tool:  e.opts.Tool,
	}

	dev := n.Device()
	start := time.Now()
	var err error
	switch phase {
	case device.Configure:
		err = dev.Configure(ctx, env)
	case device.Build:
		err = dev.Build(ctx, env)
	case device.Clean:
		err = dev.Clean(ctx, env)
	default:
		err = fmt.Errorf("unknown phase %d", phase)
	}
	elapsed := time.Since(start)
	e.opts.Metrics.ObserveNode(phase.String(), elapsed, err)

	if err != nil {
		log.Error("node failed", zap.Duration("duration", elapsed), zap.Error(err))
		return &ferrors.PhaseError{Phase: phase.String(), Node: n.Name(), Err: err}
	}
	log.Debug("node done", zap.Duration("duration", elapsed))
	return nil
}
