// Package native drives the platform file dialogs through sqweek/dialog.
package native

import (
	"context"
	"errors"
	"fmt"

	"github.com/sqweek/dialog"

	"github.com/justapithecus/peerdialog/types"
	"github.com/justapithecus/peerdialog/widget"
)

// Widget shows the operating system's own dialogs. Calls block the
// calling OS thread until the user answers; on macOS that must be the
// main thread.
type Widget struct{}

// New creates a native widget.
func New() *Widget { return &Widget{} }

// Name returns "native".
func (*Widget) Name() string { return "native" }

// ChecksOverwrite is true: every backend confirms replacement itself.
func (*Widget) ChecksOverwrite() bool { return true }

// Show runs the native dialog. Multi-select is served as a single
// selection, which the protocol reports as a one-element result.
func (w *Widget) Show(ctx context.Context, mode types.Mode, opts widget.Options) (*widget.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		path string
		err  error
	)
	switch mode {
	case types.ModePickDirectory:
		b := dialog.Directory().Title(opts.Title)
		if opts.Dir != "" {
			b = b.SetStartDir(opts.Dir)
		}
		path, err = b.Browse()
	case types.ModeOpenOne, types.ModeOpenMany, types.ModeSave:
		b := fileBuilder(opts)
		if mode == types.ModeSave {
			path, err = b.Save()
		} else {
			path, err = b.Load()
		}
	default:
		return nil, fmt.Errorf("%w: mode %s", types.ErrInvalidArgument, mode)
	}

	if errors.Is(err, dialog.ErrCancelled) || (err == nil && path == "") {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &widget.Result{Paths: []string{path}, FilterIndex: -1}, nil
}

func fileBuilder(opts widget.Options) *dialog.FileBuilder {
	b := dialog.File().Title(opts.Title)
	for _, f := range opts.Filters {
		b = b.Filter(f.Description(), widget.PatternExtensions(f)...)
	}
	if opts.Dir != "" {
		b = b.SetStartDir(opts.Dir)
	}
	if opts.Name != "" {
		b = b.SetStartFile(opts.Name)
	}
	return b
}
