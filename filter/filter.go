// Package filter implements extension-based filename filters.
//
// A Filter is a named group of acceptable extensions. It produces the
// case-permuted match pattern handed to native dialogs and validates or
// repairs a chosen filename against the active filter set. Filters are
// immutable and safe to share between goroutines.
package filter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/justapithecus/peerdialog/types"
)

// Wildcard is the sentinel extension and match pattern that accepts every
// filename. "*.*" is avoided because some toolkits do not match names
// without an extension against it.
const Wildcard = "*"

// Filter accepts filenames that end with one of its extensions.
type Filter struct {
	name             string
	description      string
	extensions       []string // at least one entry, mixed case
	pattern          string
	defaultExtension string
	wildcard         bool
}

// New creates a filter named name accepting the given extensions.
//
// A leading "*." or "." is stripped from each extension. If no extensions
// are given, or one of them is "*", the filter accepts every file.
func New(name string, extensions ...string) (*Filter, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: filter name must be non-empty", types.ErrInvalidArgument)
	}

	f := &Filter{name: name}
	if len(extensions) == 0 {
		f.extensions = []string{Wildcard}
		f.wildcard = true
	} else {
		f.extensions = make([]string, 0, len(extensions))
		for _, raw := range extensions {
			ext, err := normalize(raw)
			if err != nil {
				return nil, fmt.Errorf("filter %q: %w", name, err)
			}
			f.extensions = append(f.extensions, ext)
			if ext == Wildcard {
				f.wildcard = true
			} else if f.defaultExtension == "" {
				f.defaultExtension = ext
			}
		}
	}

	f.description = describe(name, f.extensions)
	if f.wildcard {
		f.pattern = Wildcard
	} else {
		f.pattern = buildPattern(f.extensions)
	}
	return f, nil
}

// MustNew is like New but panics on error. Intended for package-level presets.
func MustNew(name string, extensions ...string) *Filter {
	f, err := New(name, extensions...)
	if err != nil {
		panic(err)
	}
	return f
}

func normalize(raw string) (string, error) {
	ext := raw
	switch {
	case strings.HasPrefix(ext, "*."):
		ext = ext[2:]
	case strings.HasPrefix(ext, "."):
		ext = ext[1:]
	}
	if ext == Wildcard {
		return ext, nil
	}
	if ext == "" {
		return "", fmt.Errorf("%w: empty extension %q", types.ErrInvalidArgument, raw)
	}
	if strings.ContainsAny(ext, ",:;*\n\r/\\") {
		return "", fmt.Errorf("%w: extension %q contains a reserved character", types.ErrInvalidArgument, raw)
	}
	return ext, nil
}

func describe(name string, extensions []string) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteString(" (")
	for i, ext := range extensions {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("*.")
		b.WriteString(ext)
	}
	b.WriteString(")")
	return b.String()
}

// Name returns the filter name, for example "Image Files".
func (f *Filter) Name() string { return f.name }

// Description returns a label such as "Image Files (*.png, *.jpg)".
func (f *Filter) Description() string { return f.description }

// Extensions returns a copy of the normalized, mixed-case extensions.
func (f *Filter) Extensions() []string {
	out := make([]string, len(f.extensions))
	copy(out, f.extensions)
	return out
}

// Pattern returns the semicolon-joined case-permuted pattern, for example
// "*.png;*.Png;*.pNg;...", or "*" for a wildcard filter.
func (f *Filter) Pattern() string { return f.pattern }

// Patterns returns the individual entries of Pattern.
func (f *Filter) Patterns() []string { return strings.Split(f.pattern, ";") }

// IsWildcard reports whether the filter accepts every filename.
func (f *Filter) IsWildcard() bool { return f.wildcard }

// DefaultExtension returns the first non-wildcard extension, or "" for a
// filter that only holds the wildcard.
func (f *Filter) DefaultExtension() string { return f.defaultExtension }

// String returns the wire form "name:ext1,ext2".
func (f *Filter) String() string {
	return f.name + ":" + strings.Join(f.extensions, ",")
}

// MatchesName reports whether a bare filename carries one of the filter's
// extensions. Matching is case-insensitive for every extension length. A
// name that consists only of "." and the extension does not match.
func (f *Filter) MatchesName(name string) bool {
	if f.wildcard {
		return true
	}
	lname := strings.ToLower(name)
	for _, ext := range f.extensions {
		suffix := "." + strings.ToLower(ext)
		if len(lname) > len(suffix) && strings.HasSuffix(lname, suffix) {
			return true
		}
	}
	return false
}

// Accepts reports whether a filesystem entry passes the filter. Existing
// directories are always accepted so they stay navigable.
func (f *Filter) Accepts(path string) bool {
	if path == "" {
		return false
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return true
	}
	return f.MatchesName(filepath.Base(path))
}

// MatchesAny reports whether the filename of path matches at least one of
// filters. An empty filter list accepts everything.
func MatchesAny(filters []*Filter, path string) bool {
	if len(filters) == 0 {
		return true
	}
	name := filepath.Base(path)
	for _, f := range filters {
		if f.MatchesName(name) {
			return true
		}
	}
	return false
}
