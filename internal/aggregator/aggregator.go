// Package aggregator computes the Info snapshot of a resolved graph.
package aggregator

import (
	"fmt"

	"github.com/conduit-lang/foundry/pkg/device"
	ferrors "github.com/conduit-lang/foundry/pkg/errors"
	"github.com/conduit-lang/foundry/pkg/info"
	"github.com/conduit-lang/foundry/pkg/key"
	"github.com/conduit-lang/foundry/pkg/packages"
)

// Aggregate walks the resolved graph depth-first, visiting structurally equal
// nodes once, and collects the keys and packages of every device together with
// the keys read by conditions during resolution.
func Aggregate(r device.Resolved, ctx *key.Context, opts info.Options) (*info.Info, error) {
	keys := append([]key.AnyKey(nil), r.Conditions...)
	set := packages.NewSet()

	err := device.Walk(r.Root, func(n device.Node) error {
		b, ok := n.(*device.BaseNode)
		if !ok {
			if _, isIf := n.(*device.IfNode); isIf {
				return ferrors.Config(ferrors.CodeConfig, "graph is not resolved: %s", n)
			}
			return nil
		}
		keys = append(keys, b.Device().Keys()...)
		for _, p := range b.Device().Packages(ctx) {
			if err := set.Add(p); err != nil {
				return fmt.Errorf("packages of %q: %w", b.Name(), err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	keys = key.Dedup(keys)
	if err := checkKeyNames(keys); err != nil {
		return nil, err
	}
	return info.New(opts, ctx, keys, set.List())
}

// Two distinct keys with one name would generate clashing identifiers and
// flags.
func checkKeyNames(keys []key.AnyKey) error {
	byName := make(map[string]key.AnyKey, len(keys))
	for _, k := range keys {
		if prev, ok := byName[k.Name()]; ok && prev.ID() != k.ID() {
			return ferrors.Config(ferrors.CodeDuplicateKey, "two different keys are named %q", k.Name())
		}
		byName[k.Name()] = k
	}
	return nil
}
