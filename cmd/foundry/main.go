// Command foundry runs the configuration source of the enclosing project,
// forwarding its arguments:
//
//	foundry configure --target freebsd
//
// is the same as
//
//	go run config.go configure --target freebsd
//
// in the project root.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/conduit-lang/foundry/internal/cli/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	cmd, err := prepare(ctx, ".", args)
	if err != nil {
		ui.WriteError(os.Stderr, ui.ErrorFor(err, color.NoColor))
		return 1
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
