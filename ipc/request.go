// Package ipc implements the controller/peer protocol: the request argument
// vector and the line-oriented response stream.
package ipc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/justapithecus/peerdialog/filter"
	"github.com/justapithecus/peerdialog/types"
)

// Request describes one dialog invocation. It is built once and never
// mutated afterwards.
type Request struct {
	Mode types.Mode
	// Title overrides the mode's default dialog title when non-empty.
	Title string
	// InitialPath combines a starting directory and a suggested file name.
	// A trailing separator marks it as a directory.
	InitialPath string
	Filters     []*filter.Filter
	// Anchor is an optional screen position hint.
	Anchor     *types.Point
	AppName    string
	TraceLevel int
}

// Validate checks the invariants a peer relies on.
func (r *Request) Validate() error {
	if !r.Mode.Valid() {
		return fmt.Errorf("%w: invalid mode %s", types.ErrInvalidArgument, r.Mode)
	}
	if r.TraceLevel < 0 {
		return fmt.Errorf("%w: negative trace level %d", types.ErrInvalidArgument, r.TraceLevel)
	}
	for i, f := range r.Filters {
		if f == nil {
			return fmt.Errorf("%w: filter %d is nil", types.ErrInvalidArgument, i)
		}
	}
	for _, s := range []string{r.Title, r.InitialPath, r.AppName} {
		if strings.ContainsAny(s, "\r\n") {
			return fmt.Errorf("%w: request fields may not contain newlines", types.ErrInvalidArgument)
		}
	}
	return nil
}

// DisplayTitle returns Title, or the mode's default title.
func (r *Request) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Mode.BlockerTitle()
}

// InitialDir returns the directory part of InitialPath, or "" if none.
func (r *Request) InitialDir() string {
	return SplitDir(r.InitialPath)
}

// SuggestedName returns the file name part of InitialPath, or "" if none.
func (r *Request) SuggestedName() string {
	return SplitName(r.InitialPath)
}

func endsWithSeparator(path string) bool {
	return strings.HasSuffix(path, string(filepath.Separator)) || strings.HasSuffix(path, "/")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// SplitDir returns the directory a path hint refers to: the path itself if
// it ends in a separator or names an existing directory, otherwise its
// parent. A bare file name has no directory.
func SplitDir(path string) string {
	switch {
	case path == "":
		return ""
	case endsWithSeparator(path):
		return path
	case isDir(path):
		return path
	}
	dir := filepath.Dir(path)
	if dir == "." && !strings.HasPrefix(path, ".") {
		return ""
	}
	return dir
}

// SplitName returns the file name a path hint suggests, or "" when the
// hint names a directory.
func SplitName(path string) string {
	if path == "" || endsWithSeparator(path) || isDir(path) {
		return ""
	}
	return filepath.Base(path)
}
