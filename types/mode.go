// Package types defines core domain types shared by the controller and the
// peer program.
//
//nolint:revive // types is a common Go package naming convention
package types

import (
	"fmt"
	"strings"
)

// Mode selects which native dialog the peer presents.
type Mode int

const (
	// ModeOpenOne picks a single existing file.
	ModeOpenOne Mode = iota + 1
	// ModeOpenMany picks one or more existing files.
	ModeOpenMany
	// ModeSave picks a file name to write.
	ModeSave
	// ModePickDirectory picks a directory.
	ModePickDirectory
)

// Wire keywords for the --prompt argument.
const (
	KeywordOpenFile  = "openfile"
	KeywordOpenFiles = "openfiles"
	KeywordSaveFile  = "savefile"
	KeywordPickDir   = "pickdir"
)

// Modes lists every mode in declaration order.
func Modes() []Mode {
	return []Mode{ModeOpenOne, ModeOpenMany, ModeSave, ModePickDirectory}
}

// Keyword returns the --prompt keyword for the mode.
func (m Mode) Keyword() string {
	switch m {
	case ModeOpenOne:
		return KeywordOpenFile
	case ModeOpenMany:
		return KeywordOpenFiles
	case ModeSave:
		return KeywordSaveFile
	case ModePickDirectory:
		return KeywordPickDir
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	if k := m.Keyword(); k != "" {
		return k
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Valid reports whether m is one of the declared modes.
func (m Mode) Valid() bool {
	return m.Keyword() != ""
}

// BlockerTitle is the fallback title used for the UI-thread blocker when the
// caller supplies none.
func (m Mode) BlockerTitle() string {
	switch m {
	case ModeOpenOne:
		return "Select File"
	case ModeOpenMany:
		return "Select Files"
	case ModeSave:
		return "Save File"
	case ModePickDirectory:
		return "Select Directory"
	default:
		return "Unknown"
	}
}

// ParseMode parses a --prompt keyword. Matching is case-insensitive.
func ParseMode(keyword string) (Mode, error) {
	for _, m := range Modes() {
		if strings.EqualFold(keyword, m.Keyword()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown prompt %q", ErrInvalidArgument, keyword)
}

// Point is a screen position hint for the native dialog.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// String formats the point in its wire form "x,y".
func (p Point) String() string {
	return fmt.Sprintf("%d,%d", p.X, p.Y)
}
