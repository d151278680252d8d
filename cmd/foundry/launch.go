package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/conduit-lang/foundry/internal/cli/config"
	ferrors "github.com/conduit-lang/foundry/pkg/errors"
)

// configFile returns the --config-file value of args. Every other flag is
// left to the configuration program.
func configFile(args []string) string {
	fs := pflag.NewFlagSet("foundry", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}
	file := fs.String("config-file", config.ConfigSource, "")
	fs.BoolP("help", "h", false, "")
	_ = fs.Parse(args)
	return *file
}

// prepare finds the project enclosing dir and returns the go run command of
// its configuration source.
func prepare(ctx context.Context, dir string, args []string) (*exec.Cmd, error) {
	root, err := config.ProjectRoot(dir)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadFrom(root)
	if err != nil {
		return nil, err
	}

	file := configFile(args)
	src := file
	if !filepath.IsAbs(src) {
		src = filepath.Join(root, src)
	}
	if _, err := os.Stat(src); err != nil {
		return nil, ferrors.Config(ferrors.CodeConfig, "no configuration source %s in %s", file, root)
	}

	cmdArgs := append([]string{"run", file}, args...)
	cmd := exec.CommandContext(ctx, cfg.GoBinary, cmdArgs...)
	cmd.Dir = root
	return cmd, nil
}
