// Package zenity shows file dialogs through github.com/ncruces/zenity, which
// drives the zenity executable on Linux and the system dialogs elsewhere.
package zenity

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ncruces/zenity"

	"github.com/justapithecus/peerdialog/types"
	"github.com/justapithecus/peerdialog/widget"
)

// Request is one dialog invocation.
type Request struct {
	Mode     types.Mode
	Title    string
	Filename string
	Filters  zenity.FileFilters
}

// Runner shows the dialog for req. A canceled dialog returns
// zenity.ErrCanceled.
type Runner func(ctx context.Context, req Request) ([]string, error)

// Widget shows zenity file dialogs.
type Widget struct {
	run Runner
}

// New returns a widget backed by the zenity library.
func New() (*Widget, error) {
	if !zenity.IsAvailable() {
		return nil, fmt.Errorf("%w: zenity not found", widget.ErrUnavailable)
	}
	return &Widget{run: run}, nil
}

// NewWithRunner creates a widget that shows dialogs through run.
func NewWithRunner(run Runner) *Widget {
	return &Widget{run: run}
}

// Name returns "zenity".
func (*Widget) Name() string { return "zenity" }

// ChecksOverwrite is false: the name may still gain an extension, so the
// caller confirms replacement afterwards.
func (*Widget) ChecksOverwrite() bool { return false }

// Show runs zenity for mode.
func (w *Widget) Show(ctx context.Context, mode types.Mode, opts widget.Options) (*widget.Result, error) {
	req, err := NewRequest(mode, opts)
	if err != nil {
		return nil, err
	}
	paths, err := w.run(ctx, req)
	if errors.Is(err, zenity.ErrCanceled) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("zenity failed: %w", err)
	}
	return result(mode, paths), nil
}

// NewRequest maps mode and opts onto a zenity request.
func NewRequest(mode types.Mode, opts widget.Options) (Request, error) {
	switch mode {
	case types.ModeOpenOne, types.ModeOpenMany, types.ModeSave, types.ModePickDirectory:
	default:
		return Request{}, fmt.Errorf("%w: mode %s", types.ErrInvalidArgument, mode)
	}
	req := Request{Mode: mode, Title: opts.Title, Filename: startPath(opts)}
	for _, f := range opts.Filters {
		req.Filters = append(req.Filters, zenity.FileFilter{
			Name:     f.Description(),
			Patterns: f.Patterns(),
		})
	}
	return req, nil
}

// Options returns the zenity options for req.
func (req Request) Options(ctx context.Context) []zenity.Option {
	opts := []zenity.Option{zenity.Context(ctx)}
	if req.Title != "" {
		opts = append(opts, zenity.Title(req.Title))
	}
	if req.Filename != "" {
		opts = append(opts, zenity.Filename(req.Filename))
	}
	if req.Mode == types.ModePickDirectory {
		opts = append(opts, zenity.Directory())
	}
	if len(req.Filters) > 0 {
		opts = append(opts, req.Filters)
	}
	return opts
}

func run(ctx context.Context, req Request) ([]string, error) {
	opts := req.Options(ctx)
	switch req.Mode {
	case types.ModeOpenMany:
		return zenity.SelectFileMultiple(opts...)
	case types.ModeSave:
		p, err := zenity.SelectFileSave(opts...)
		return single(p), err
	default:
		p, err := zenity.SelectFile(opts...)
		return single(p), err
	}
}

func single(p string) []string {
	if p == "" {
		return nil
	}
	return []string{p}
}

// startPath joins the start directory and name; a lone directory keeps its
// trailing separator so zenity opens it instead of preselecting it.
func startPath(opts widget.Options) string {
	switch {
	case opts.Dir != "" && opts.Name != "":
		return filepath.Join(opts.Dir, opts.Name)
	case opts.Dir != "":
		return strings.TrimSuffix(opts.Dir, string(filepath.Separator)) + string(filepath.Separator)
	default:
		return opts.Name
	}
}

func result(mode types.Mode, paths []string) *widget.Result {
	var kept []string
	for _, p := range paths {
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	res := &widget.Result{Paths: kept, FilterIndex: -1}
	if mode == types.ModeOpenMany {
		res.Dir = commonDir(kept)
		if res.Dir != "" {
			for i, p := range kept {
				kept[i] = filepath.Base(p)
			}
		}
	}
	return res
}

// commonDir returns the directory shared by every path, or "".
func commonDir(paths []string) string {
	dir := filepath.Dir(paths[0])
	for _, p := range paths[1:] {
		if filepath.Dir(p) != dir {
			return ""
		}
	}
	return dir
}
