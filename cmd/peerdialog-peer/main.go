// Package main provides the peerdialog-peer entrypoint: the out-of-process
// dialog started by the controller.
//
// Usage:
//
//	peerdialog-peer [--ui-main-thread] --prompt {openfile|openfiles|savefile|pickdir} [options]
//
// The peer writes protocol lines to stdout and always ends with EXIT.
// Exit codes:
//   - 0: dialog ran (selected or canceled)
//   - 1: the dialog could not run
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/justapithecus/peerdialog/peerapp"
	"github.com/justapithecus/peerdialog/widget"
	"github.com/justapithecus/peerdialog/widget/native"
	"github.com/justapithecus/peerdialog/widget/zenity"
)

// Native toolkits must run on the process's first OS thread on macOS.
func init() {
	runtime.LockOSThread()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := selectWidget(os.Getenv(peerapp.EnvToolkit))
	if err != nil {
		os.Exit(peerapp.Fail(os.Stdout, err))
	}
	os.Exit(peerapp.Run(ctx, os.Args[1:], w, os.Stdout))
}

// selectWidget returns the named toolkit. With no name, zenity is preferred
// on Linux when installed.
func selectWidget(name string) (widget.Widget, error) {
	switch name {
	case "native":
		return native.New(), nil
	case "zenity":
		return zenity.New()
	case "":
		if runtime.GOOS == "linux" {
			if w, err := zenity.New(); err == nil {
				return w, nil
			}
		}
		return native.New(), nil
	default:
		return nil, fmt.Errorf("unknown toolkit %q", name)
	}
}
