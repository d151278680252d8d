// Package info holds the build metadata computed for one resolved graph and
// context.
package info

import (
	"github.com/conduit-lang/foundry/pkg/key"
	"github.com/conduit-lang/foundry/pkg/packages"
)

// DefaultBuildDir is where generated files go unless configured otherwise.
const DefaultBuildDir = "_build"

// DefaultGoVersion is the go directive of generated manifests.
const DefaultGoVersion = "1.24"

// Options are the naming parameters of an Info.
type Options struct {
	Name       string
	Output     string
	BuildDir   string
	ConfigFile string
	GoVersion  string
}

// Info is an immutable snapshot of build metadata. All accessors return
// copies.
type Info struct {
	name       string
	output     string
	buildDir   string
	configFile string
	goVersion  string
	context    *key.Context
	keys       []key.AnyKey
	packages   []packages.Package
	libraries  []string
}

// New creates an Info. Keys are deduplicated and sorted; packages are merged
// by module path, so a conflicting pair is an error.
func New(opts Options, ctx *key.Context, keys []key.AnyKey, pkgs []packages.Package) (*Info, error) {
	set := packages.NewSet()
	for _, p := range pkgs {
		if err := set.Add(p); err != nil {
			return nil, err
		}
	}
	list := set.List()

	ks := key.Dedup(keys)
	key.Sort(ks)

	i := &Info{
		name:       opts.Name,
		output:     opts.Output,
		buildDir:   opts.BuildDir,
		configFile: opts.ConfigFile,
		goVersion:  opts.GoVersion,
		context:    ctx,
		keys:       ks,
		packages:   list,
		libraries:  packages.Libraries(list),
	}
	if i.output == "" {
		i.output = opts.Name
	}
	if i.buildDir == "" {
		i.buildDir = DefaultBuildDir
	}
	if i.goVersion == "" {
		i.goVersion = DefaultGoVersion
	}
	if ctx == nil {
		i.context = key.NewContext()
	}
	return i, nil
}

func (i *Info) Name() string       { return i.name }
func (i *Info) Output() string     { return i.output }
func (i *Info) BuildDir() string   { return i.buildDir }
func (i *Info) ConfigFile() string { return i.configFile }
func (i *Info) GoVersion() string  { return i.goVersion }

// Context is the context the snapshot was computed for.
func (i *Info) Context() *key.Context { return i.context }

// Keys returns the keys taking part in stage.
func (i *Info) Keys(stage key.Stage) []key.AnyKey {
	return key.Filter(i.keys, stage)
}

// AllKeys returns every key.
func (i *Info) AllKeys() []key.AnyKey {
	return append([]key.AnyKey(nil), i.keys...)
}

// Packages returns the merged packages sorted by module path.
func (i *Info) Packages() []packages.Package {
	return append([]packages.Package(nil), i.packages...)
}

// Libraries returns the union of the packages' libraries.
func (i *Info) Libraries() []string {
	return append([]string(nil), i.libraries...)
}

// Module is the module path of the generated program.
func (i *Info) Module() string {
	return "foundry.local/" + i.name
}
