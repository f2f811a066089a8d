package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/justapithecus/peerdialog/types"
)

// Commonly used filters.
var (
	Any    = MustNew("All Files", Wildcard)
	JPEG   = MustNew("JPEG Images", "jpg", "jpeg", "jpe", "jfi", "jfif")
	PNG    = MustNew("PNG Images", "png")
	Images = MustNew("Images", "jpg", "jpeg", "png")
	Text   = MustNew("Plain Text Files", "txt")
	XML    = MustNew("XML Files", "xml")
)

var presets = map[string]*Filter{
	"any":    Any,
	"jpeg":   JPEG,
	"png":    PNG,
	"images": Images,
	"text":   Text,
	"xml":    XML,
}

// Preset looks up a predefined filter by key (case-insensitive).
func Preset(key string) (*Filter, bool) {
	f, ok := presets[strings.ToLower(key)]
	return f, ok
}

// PresetNames returns the sorted preset keys.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for k := range presets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Parse parses the wire form "name:ext1,ext2". The name may itself contain
// colons; the extension list starts after the last one. A bare preset key
// such as "images" is also accepted.
func Parse(s string) (*Filter, error) {
	i := strings.LastIndexByte(s, ':')
	if i < 0 {
		if f, ok := Preset(s); ok {
			return f, nil
		}
		return nil, fmt.Errorf("%w: filter %q is not of the form name:ext1,ext2", types.ErrInvalidArgument, s)
	}
	name, list := s[:i], s[i+1:]
	if list == "" {
		return New(name)
	}
	return New(name, strings.Split(list, ",")...)
}

// ParseAll parses every entry with Parse, stopping at the first error.
func ParseAll(specs []string) ([]*Filter, error) {
	out := make([]*Filter, 0, len(specs))
	for _, s := range specs {
		f, err := Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
