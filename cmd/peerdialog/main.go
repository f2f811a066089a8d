// Package main provides the peerdialog CLI entrypoint.
//
// Each dialog command shows a native file dialog in a separate peer
// process and prints the selection. When the peer cannot run, a terminal
// dialog serves the request instead.
//
// Usage:
//
//	peerdialog <command> [options]
//
// Exit codes for the dialog commands:
//   - 0: a path was selected
//   - 1: canceled, or the dialog failed
//   - 2: usage or configuration error
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/peerdialog/cli/cmd"
	"github.com/justapithecus/peerdialog/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:           "peerdialog",
		Usage:          "Native file dialogs from the command line",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: append(cmd.DialogCommands(),
			cmd.FilterCommand(),
			cmd.HistoryCommand(),
			cmd.InstallCommand(),
			cmd.VersionCommand("", commit),
		),
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		os.Exit(1)
	}
}

// exitErrHandler preserves exit codes from cli.Exit().
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		if msg := exitMessage(exitCoder); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// exitMessage returns the text worth printing for e, or "" when it only
// carries a code.
func exitMessage(e cli.ExitCoder) string {
	msg := e.Error()
	if msg == fmt.Sprintf("exit status %d", e.ExitCode()) {
		return ""
	}
	return msg
}
