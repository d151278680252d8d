package commands

import (
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/foundry/internal/cli/config"
	"github.com/conduit-lang/foundry/internal/cli/ui"
	"github.com/conduit-lang/foundry/pkg/device"
	ferrors "github.com/conduit-lang/foundry/pkg/errors"
	"github.com/conduit-lang/foundry/pkg/key"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// reserved are the flag names of the tool itself. No key may use them.
var reserved = map[string]bool{
	"config-file": true,
	"output":      true,
	"dry-run":     true,
	"log-level":   true,
	"build-dir":   true,
	"no-color":    true,
	"help":        true,
	"dot":         true,
	"dot-command": true,
	"eval":        true,
}

// cli holds the flag values of one parse.
type cli struct {
	keys   []key.AnyKey
	values map[string]string
	env    Envelope
	action *Action
}

// NewRootCommand creates the root command of the configuration program name.
// Every key becomes a flag of the subcommands reading key values. Running a
// subcommand stores the parsed action in action.
func NewRootCommand(name string, keys []key.AnyKey, action *Action) (*cobra.Command, error) {
	for _, k := range keys {
		if reserved[k.Name()] {
			return nil, ferrors.Config(ferrors.CodeDuplicateKey, "key %q clashes with the --%s flag", k.Name(), k.Name())
		}
	}
	c := &cli{keys: keys, values: map[string]string{}, action: action}

	rootCmd := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Configure and build %s", name),
		Long: color.CyanString(`%s is built by foundry.

Typical use:
  configure   resolve the device graph and generate sources
  build       configure, then compile the program
  clean       remove every generated file
  query       print facts about the configuration
  describe    print the device graph`, name),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&c.env.ConfigFile, "config-file", config.ConfigSource, "Configuration source file")
	pf.StringVarP(&c.env.Output, "output", "o", "", "Name of the built binary (default: the program name)")
	pf.BoolVar(&c.env.DryRun, "dry-run", false, "Log file writes and tool runs instead of doing them")
	pf.StringVar(&c.env.LogLevel, "log-level", "", "Log level: debug, info, warn or error (default from foundry.yml)")
	pf.StringVar(&c.env.BuildDir, "build-dir", "", "Build directory (default from foundry.yml)")
	pf.BoolVar(&c.env.NoColor, "no-color", false, "Disable colored output")

	rootCmd.SetFlagErrorFunc(c.flagError)

	rootCmd.AddCommand(c.withKeys(newConfigureCommand(c)))
	rootCmd.AddCommand(c.withKeys(newBuildCommand(c)))
	rootCmd.AddCommand(newCleanCommand(c))
	rootCmd.AddCommand(c.withKeys(newQueryCommand(c)))
	rootCmd.AddCommand(c.withKeys(newDescribeCommand(c)))
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd, nil
}

// Parse parses args for program name. The action is KindNone when cobra
// handled the command line itself, e.g. for --help.
func Parse(name string, keys []key.AnyKey, args []string, stdout, stderr io.Writer) (*Action, error) {
	action := &Action{}
	rootCmd, err := NewRootCommand(name, keys, action)
	if err != nil {
		return nil, err
	}
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	return action, nil
}

func (c *cli) withKeys(cmd *cobra.Command) *cobra.Command {
	key.AddFlags(cmd.Flags(), c.keys, c.values)
	return cmd
}

// finish fills the action once cobra has parsed the flags of a subcommand.
func (c *cli) finish(kind Kind) error {
	ctx, err := key.ParseContext(c.keys, c.values)
	if err != nil {
		return err
	}
	c.env.Context = ctx
	c.action.Kind = kind
	c.action.Envelope = c.env
	return nil
}

func (c *cli) keyNames() []string {
	seen := map[string]bool{}
	var names []string
	for _, k := range c.keys {
		if !seen[k.Name()] {
			seen[k.Name()] = true
			names = append(names, k.Name())
		}
	}
	sort.Strings(names)
	return names
}

// flagError classifies pflag errors and suggests key names for unknown flags.
func (c *cli) flagError(_ *cobra.Command, err error) error {
	msg := err.Error()
	if name, ok := strings.CutPrefix(msg, "unknown flag: --"); ok {
		if s := ui.Suggest(name, c.keyNames()); len(s) > 0 {
			return ferrors.Config(ferrors.CodeUnknownKey, "%s (did you mean --%s?)", msg, s[0])
		}
		return ferrors.Config(ferrors.CodeUnknownKey, "%s", msg)
	}
	if strings.HasPrefix(msg, "invalid argument") {
		return ferrors.Config(ferrors.CodeMalformedValue, "%s", msg)
	}
	return ferrors.Config(ferrors.CodeConfig, "%s", msg)
}

// newConfigureCommand creates the configure command
func newConfigureCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Resolve the graph and generate sources",
		Long: `Resolve conditionals against the key values, aggregate keys and packages,
and run the configure phase of every device: go.mod, key bindings and main.go
are written to the build directory. Key values are remembered for later runs.`,
		Example: `  # Configure with defaults
  go run . configure

  # Configure for another OS with a fixed address
  go run . configure --target freebsd --ipv4 10.0.0.5/24`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.finish(KindConfigure)
		},
	}
}

// newBuildCommand creates the build command
func newBuildCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Configure, then compile the program",
		Long: `Run the configure phase and then the build phase: go mod tidy, the module
closure check, the self-description file and go build.`,
		Example: `  # Build with the remembered configuration
  go run . build

  # Build to a custom binary name
  go run . build -o hello.bin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.finish(KindBuild)
		},
	}
}

// newCleanCommand creates the clean command
func newCleanCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove generated files",
		Long: `Run the clean phase of every device, dependents first. By default every
device is cleaned and all failures are reported together; set
clean_policy: stop-on-first in foundry.yml to stop at the first failure.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.finish(KindClean)
		},
	}
}

// newQueryCommand creates the query command
func newQueryCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "query <" + strings.Join(Queries, "|") + ">",
		Short: "Print facts about the configuration",
		Long: `Print one fact about the configuration:

  name              program name and key values
  keys              every key with its stage and value
  packages          merged module requirements
  manifest          the go.mod that configure writes
  install           the path the binary is built to
  files-configure   files written by configure
  files-build       files written by build`,
		ValidArgs: Queries,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return ferrors.Config(ferrors.CodeConfig, "query takes one of: %s", strings.Join(Queries, ", "))
			}
			for _, q := range Queries {
				if args[0] == q {
					return nil
				}
			}
			if s := ui.Suggest(args[0], Queries); len(s) > 0 {
				return ferrors.Config(ferrors.CodeConfig, "unknown query %q (did you mean %s?)", args[0], s[0])
			}
			return ferrors.Config(ferrors.CodeConfig, "unknown query %q", args[0])
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			c.action.Query = args[0]
			switch args[0] {
			case QueryFilesConfigure:
				c.action.Files = device.Configure
			case QueryFilesBuild:
				c.action.Files = device.Build
			}
			return c.finish(KindQuery)
		},
	}
}

// newDescribeCommand creates the describe command
func newDescribeCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the device graph",
		Long: `Print the device graph as an indented tree or as a Graphviz dot graph.
Without --eval both branches of every conditional are shown.`,
		Example: `  # Show the graph with conditionals resolved
  go run . describe --eval

  # Render an SVG
  go run . describe --dot --dot-command "dot -Tsvg -o graph.svg"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.action.Describe.DotCommand != "" {
				c.action.Describe.Dot = true
			}
			return c.finish(KindDescribe)
		},
	}
	cmd.Flags().BoolVar(&c.action.Describe.Dot, "dot", false, "Print a Graphviz dot graph")
	cmd.Flags().StringVar(&c.action.Describe.DotCommand, "dot-command", "", "Pipe the dot graph to this command")
	cmd.Flags().BoolVar(&c.action.Describe.Eval, "eval", false, "Resolve conditionals before printing")
	return cmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the foundry version, Git commit, build date, and Go version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			ui.WriteFields(cmd.OutOrStdout(), color.NoColor,
				ui.Field{Label: "foundry version", Value: Version},
				ui.Field{Label: "Git commit", Value: GitCommit},
				ui.Field{Label: "Build date", Value: BuildDate},
				ui.Field{Label: "Go version", Value: goVer})
		},
	}
}
