package foundry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/conduit-lang/foundry/internal/cli/commands"
	"github.com/conduit-lang/foundry/internal/cli/ui"
	"github.com/conduit-lang/foundry/internal/engine"
	"github.com/conduit-lang/foundry/pkg/device"
	"github.com/conduit-lang/foundry/pkg/packages"
)

func (inv *invocation) query() error {
	out := inv.opts.stdout
	switch inv.action.Query {
	case commands.QueryName:
		fmt.Fprintln(out, inv.commandLine())
	case commands.QueryKeys:
		t := ui.NewKeyTable(out, inv.noColor)
		for _, k := range inv.info.AllKeys() {
			t.AddKey(k, inv.context)
		}
		t.Render()
	case commands.QueryPackages:
		t := ui.NewPackageTable(out, inv.noColor)
		for _, p := range inv.info.Packages() {
			t.AddPackage(p)
		}
		t.Render()
	case commands.QueryManifest:
		return packages.WriteManifest(out, inv.info.Module(), inv.info.GoVersion(), inv.info.Packages())
	case commands.QueryInstall:
		fmt.Fprintln(out, inv.installPath())
	case commands.QueryFilesConfigure, commands.QueryFilesBuild:
		files, err := inv.files(inv.action.Files)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintln(out, f)
		}
	}
	return nil
}

// commandLine is the program name followed by the flags reproducing the
// current context.
func (inv *invocation) commandLine() string {
	text := inv.context.Text()
	names := make([]string, 0, len(text))
	for name := range text {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := []string{inv.name}
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("--%s=%s", name, text[name]))
	}
	return strings.Join(parts, " ")
}

// files lists the files the devices of the resolved graph produce in phase,
// sorted and without duplicates.
func (inv *invocation) files(phase device.Phase) ([]string, error) {
	order, err := engine.Order(inv.resolved.Root)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var files []string
	for _, n := range order {
		for _, f := range n.Device().Files(inv.info, phase) {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}
