package devices

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/conduit-lang/foundry/pkg/device"
	"github.com/conduit-lang/foundry/pkg/info"
	"github.com/conduit-lang/foundry/pkg/key"
	"github.com/conduit-lang/foundry/pkg/packages"
)

// Device types of the standard library.
var (
	ConsoleType = device.Typ("console")
	EntropyType = device.Typ("entropy")
	NetworkType = device.Typ("network")
	KVType      = device.Typ("kv")
)

// Network keys.
var (
	IPv4 = key.New("ipv4", key.Prefix, netip.MustParsePrefix("10.0.0.2/24"),
		key.WithDoc("interface address and network"),
		key.WithStage(key.Runtime))
	IPv4Gateway = key.New("ipv4-gateway", key.Optional(key.Addr), nil,
		key.WithDoc("default route"),
		key.WithStage(key.Runtime))
)

// Key-value store keys.
var (
	KVBackend = key.New("kv", key.String, "memory",
		key.WithDoc("key-value store backend: memory or directory"),
		key.WithStage(key.Configure))
	KVDir = key.New("kv-dir", key.String, "data",
		key.WithDoc("directory of the directory key-value store"),
		key.WithStage(key.Runtime))
)

func runtimeDevice(name, lib string, typ device.Type, keys []key.AnyKey, connect func(module string, args []string) string, deps ...device.Node) *device.BaseNode {
	return device.Impl{
		Name:   name,
		Module: RuntimeLib(lib),
		Type:   typ,
		Keys:   keys,
		Packages: func(*key.Context) []packages.Package {
			return []packages.Package{runtimePackage(RuntimeLib(lib))}
		},
		Connect: func(_ *info.Info, module string, args []string) string {
			return connect(module, args)
		},
		Deps: deps,
	}.Node()
}

// Console writes lines to standard output.
func Console() *device.BaseNode {
	return runtimeDevice("console", "console", ConsoleType, []key.AnyKey{Verbose},
		func(m string, _ []string) string {
			return fmt.Sprintf("%s.New(os.Stdout, %s)", m, key.Expr(Verbose))
		})
}

// Entropy is the random source.
func Entropy() *device.BaseNode {
	return runtimeDevice("entropy", "entropy", EntropyType, nil,
		func(m string, _ []string) string { return m + ".New()" })
}

// Network is an IPv4 stack configured by the ipv4 and ipv4-gateway keys.
func Network() *device.BaseNode {
	return runtimeDevice("network", "netstack", NetworkType, []key.AnyKey{IPv4, IPv4Gateway},
		func(m string, args []string) string {
			return fmt.Sprintf("%s.New(%s, %s, %s)", m, key.Expr(IPv4), key.Expr(IPv4Gateway), args[0])
		}, Entropy())
}

// KV is a key-value store chosen by the kv key: in memory, or one file per
// entry under the kv-dir directory.
func KV() device.Node {
	memory := runtimeDevice("kv-memory", "kv", KVType, nil,
		func(m string, _ []string) string { return m + ".NewMemory()" })
	dir := runtimeDevice("kv-directory", "kv", KVType, []key.AnyKey{KVDir},
		func(m string, _ []string) string { return fmt.Sprintf("%s.OpenDir(%s)", m, key.Expr(KVDir)) })
	return device.MustMatch(KVBackend, []device.Case[string]{
		device.When("memory", memory),
		device.When("directory", dir),
	}, memory)
}

// Noop is a job that returns immediately.
func Noop() *device.BaseNode {
	return runtimeDevice("noop", "job", device.Job, nil,
		func(m string, _ []string) string { return m + ".Noop()" })
}

// Foreign is a device implemented by a Go function outside the runtime
// library. Applying the node to its arguments generates a call of Symbol with
// the argument instances followed by the dependency instances.
type Foreign struct {
	Module   string
	Symbol   string
	Type     device.Type
	Keys     []key.AnyKey
	Packages []packages.Package
	Deps     []device.Node
}

// Node returns the functor node. Its name is the module path joined with the
// symbol, so equally named functions of different modules stay distinct.
func (f Foreign) Node() *device.BaseNode {
	pkgs := f.Packages
	return device.Impl{
		Name:   f.Module + "." + f.Symbol,
		Module: f.Module,
		Type:   f.Type,
		Keys:   f.Keys,
		Packages: func(*key.Context) []packages.Package {
			return pkgs
		},
		Connect: func(_ *info.Info, module string, args []string) string {
			return fmt.Sprintf("%s.%s(%s)", module, f.Symbol, strings.Join(args, ", "))
		},
		Deps: f.Deps,
	}.Node()
}

// Main declares the function module.symbol of type typ as a device.
func Main(module, symbol string, typ device.Type, deps ...device.Node) *device.BaseNode {
	return Foreign{Module: module, Symbol: symbol, Type: typ, Deps: deps}.Node()
}
