// Package widget abstracts the native dialog toolkits the peer drives.
package widget

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/justapithecus/peerdialog/filter"
	"github.com/justapithecus/peerdialog/ipc"
	"github.com/justapithecus/peerdialog/types"
)

// ErrUnavailable is returned when a toolkit cannot run on this system.
var ErrUnavailable = errors.New("widget unavailable")

// Options are the toolkit-neutral dialog inputs.
type Options struct {
	Title string
	// Dir is the starting directory, or "" for the toolkit default.
	Dir string
	// Name is the suggested file name, or "".
	Name    string
	Filters []*filter.Filter
	Anchor  *types.Point
}

// Result is a toolkit's answer.
type Result struct {
	// Paths holds the selection. When Dir is set, entries may be names
	// relative to it.
	Paths []string
	Dir   string
	// FilterIndex is the filter active when the user accepted, or -1.
	FilterIndex int
}

// Widget is a native dialog toolkit.
type Widget interface {
	Name() string
	// ChecksOverwrite reports whether Show in save mode already asks
	// before replacing an existing file.
	ChecksOverwrite() bool
	// Show runs the dialog for mode. A nil Result means the user canceled.
	Show(ctx context.Context, mode types.Mode, opts Options) (*Result, error)
}

// OptionsFor derives widget options from a request. Open modes only
// suggest a name that exists in the starting directory.
func OptionsFor(req *ipc.Request) Options {
	opts := Options{
		Title:   req.DisplayTitle(),
		Dir:     req.InitialDir(),
		Filters: req.Filters,
		Anchor:  req.Anchor,
	}
	if req.Mode == types.ModePickDirectory {
		opts.Filters = nil
		return opts
	}
	name := req.SuggestedName()
	if name != "" && req.Mode != types.ModeSave {
		if _, err := os.Stat(filepath.Join(opts.Dir, name)); err != nil {
			name = ""
		}
	}
	opts.Name = name
	return opts
}

// Join returns the absolute selection of r.
func (r *Result) Join() []string {
	out := make([]string, 0, len(r.Paths))
	for _, p := range r.Paths {
		if r.Dir != "" && !filepath.IsAbs(p) {
			p = filepath.Join(r.Dir, p)
		}
		out = append(out, p)
	}
	return out
}

// Local runs a widget in-process as a fallback dialog.
type Local struct {
	Widget Widget
}

// Select shows the widget for req. An empty result means canceled.
func (l *Local) Select(ctx context.Context, req *ipc.Request) ([]string, error) {
	res, err := l.Widget.Show(ctx, req.Mode, OptionsFor(req))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.Widget.Name(), err)
	}
	if res == nil {
		return nil, nil
	}
	return res.Join(), nil
}

// PatternExtensions returns f's case-permuted match patterns as bare
// extensions ("Png" for "*.Png"), the form most toolkits take. A wildcard
// filter yields "*".
func PatternExtensions(f *filter.Filter) []string {
	patterns := f.Patterns()
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, strings.TrimPrefix(p, "*."))
	}
	return out
}
