package commands

import (
	"github.com/conduit-lang/foundry/pkg/device"
	"github.com/conduit-lang/foundry/pkg/key"
)

// Kind is what an invocation asks for.
type Kind int

const (
	// KindNone means the command line was fully handled while parsing, e.g.
	// help or version output.
	KindNone Kind = iota
	KindConfigure
	KindBuild
	KindClean
	KindQuery
	KindDescribe
)

func (k Kind) String() string {
	switch k {
	case KindConfigure:
		return "configure"
	case KindBuild:
		return "build"
	case KindClean:
		return "clean"
	case KindQuery:
		return "query"
	case KindDescribe:
		return "describe"
	default:
		return "none"
	}
}

// Query names.
const (
	QueryName           = "name"
	QueryKeys           = "keys"
	QueryPackages       = "packages"
	QueryManifest       = "manifest"
	QueryInstall        = "install"
	QueryFilesConfigure = "files-configure"
	QueryFilesBuild     = "files-build"
)

// Queries lists the query names in help order.
var Queries = []string{
	QueryName,
	QueryKeys,
	QueryPackages,
	QueryManifest,
	QueryInstall,
	QueryFilesConfigure,
	QueryFilesBuild,
}

// Envelope holds the options shared by every subcommand.
type Envelope struct {
	// Context holds the key values given on the command line.
	Context    *key.Context
	ConfigFile string
	Output     string
	BuildDir   string
	DryRun     bool
	LogLevel   string
	NoColor    bool
}

// DescribeOptions are the flags of describe.
type DescribeOptions struct {
	Dot        bool
	DotCommand string
	Eval       bool
}

// Action is a parsed command line.
type Action struct {
	Kind     Kind
	Envelope Envelope
	// Query is the query name of KindQuery.
	Query string
	// Files is the phase whose files a files-* query lists.
	Files    device.Phase
	Describe DescribeOptions
}
