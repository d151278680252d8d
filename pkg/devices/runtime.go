// Package devices is the standard device library: the application root and
// its build devices, plus the console, entropy, network and key-value devices
// backed by pkg/runtime.
package devices

import (
	"os"
	"path"

	"github.com/conduit-lang/foundry/pkg/key"
	"github.com/conduit-lang/foundry/pkg/packages"
)

// RuntimeModule is the module generated programs import the runtime library
// from.
const RuntimeModule = "github.com/conduit-lang/foundry"

// RuntimeVersion is the lowest runtime release generated code works with.
const RuntimeVersion = "v0.1.0"

// RootEnv names the environment variable pointing at a local checkout of
// RuntimeModule. When set, generated manifests replace the module with it.
const RootEnv = "FOUNDRY_ROOT"

// RuntimeLib is the import path of a runtime library package.
func RuntimeLib(name string) string {
	return path.Join(RuntimeModule, "pkg", "runtime", name)
}

func runtimePackage(libs ...string) packages.Package {
	opts := []packages.Option{packages.Min(RuntimeVersion), packages.Libs(libs...)}
	if root := os.Getenv(RootEnv); root != "" {
		opts = append(opts, packages.Pin(root))
	}
	return packages.Must(RuntimeModule, opts...)
}

// Standard keys.
var (
	// Target is the operating system the program is built for. Empty means
	// the host.
	Target = key.New("target", key.String, "",
		key.WithDoc("operating system to build for, empty for the host"),
		key.WithStage(key.Configure))

	// Verbose enables debug output on the console.
	Verbose = key.New("verbose", key.Bool, false,
		key.WithDoc("print debug output"),
		key.WithStage(key.Runtime))
)
