// Package peerapp is the peer side of the protocol: it decodes the
// argument vector, runs one native dialog, and reports the outcome as
// protocol lines.
package peerapp

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/justapithecus/peerdialog/filter"
	"github.com/justapithecus/peerdialog/ipc"
	"github.com/justapithecus/peerdialog/types"
	"github.com/justapithecus/peerdialog/widget"
)

// EnvToolkit selects the widget the peer binary uses.
const EnvToolkit = "PEERDIALOG_TOOLKIT"

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
)

// Run executes one dialog described by args, writing the protocol to out,
// and returns the process exit code.
func Run(ctx context.Context, args []string, w widget.Widget, out io.Writer) int {
	req, err := ipc.DecodeArgs(args)
	if err != nil {
		return Fail(out, err)
	}
	e := ipc.NewEmitter(out, req.TraceLevel)

	_ = e.Status(ipc.StatusReady)
	_ = e.Tracef(2, "running as process %d with %s", os.Getpid(), w.Name())

	if err := serve(ctx, req, w, e); err != nil {
		return fail(e, err)
	}
	_ = e.Trace(1, "exiting")
	if err := e.Exit(); err != nil {
		return ExitFailure
	}
	return ExitOK
}

// Fail reports an error that prevented the dialog from running and
// returns the exit code.
func Fail(out io.Writer, err error) int {
	return fail(ipc.NewEmitter(out, 0), err)
}

func fail(e *ipc.Emitter, err error) int {
	_ = e.Error(err.Error())
	_ = e.Exit()
	return ExitFailure
}

func serve(ctx context.Context, req *ipc.Request, w widget.Widget, e *ipc.Emitter) error {
	opts := widget.OptionsFor(req)
	_ = e.Tracef(1, "showing %s dialog in %q", req.Mode, opts.Dir)

	if req.Mode == types.ModeSave && w.ChecksOverwrite() {
		if err := e.CheckedOverwrite(); err != nil {
			return err
		}
	}

	res, err := w.Show(ctx, req.Mode, opts)
	if err != nil {
		return fmt.Errorf("%s dialog failed: %w", w.Name(), err)
	}
	if res == nil || len(res.Paths) == 0 || res.Paths[0] == "" {
		_ = e.Trace(1, "canceled")
		return e.Canceled()
	}
	_ = e.Tracef(1, "result %v in %q (filter %d)", res.Paths, res.Dir, res.FilterIndex)

	switch req.Mode {
	case types.ModeOpenMany:
		return emitMany(e, res)
	case types.ModeSave:
		path := res.Join()[0]
		if ext := suggestion(req.Filters, path, res.FilterIndex); ext != "" {
			if err := e.SuggestExtension(ext); err != nil {
				return err
			}
		}
		return e.Result(path)
	default:
		return e.Result(res.Join()[0])
	}
}

// suggestion returns the default extension of the active filter when path
// matches none of filters. An unknown active filter counts as the first.
func suggestion(filters []*filter.Filter, path string, active int) string {
	if filter.MatchesAny(filters, path) {
		return ""
	}
	if active < 0 || active >= len(filters) {
		active = 0
	}
	return filters[active].DefaultExtension()
}

func emitMany(e *ipc.Emitter, res *widget.Result) error {
	dir, names := res.Dir, res.Paths
	if dir == "" {
		joined := res.Join()
		dir = filepath.Dir(joined[0])
		names = make([]string, len(joined))
		for i, p := range joined {
			if filepath.Dir(p) == dir {
				names[i] = filepath.Base(p)
			} else {
				names[i] = p
			}
		}
	}
	if err := e.ResultDir(dir); err != nil {
		return err
	}
	if err := e.ResultCount(len(names)); err != nil {
		return err
	}
	for _, name := range names {
		if err := e.Result(name); err != nil {
			return err
		}
	}
	return nil
}
