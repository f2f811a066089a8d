package filter

import (
	"path/filepath"
	"strings"
)

// Chooser picks one of the repaired candidates. It returns the chosen
// index, or false when the user cancels.
type Chooser func(candidates []string) (int, bool)

// RepairCandidates computes the repaired forms of path for ext.
//
// If the base name has no dot, its only dot leads it (".config"), or nothing
// follows its last dot, the single candidate appends ".ext" as is, so
// "photo." becomes "photo..png". Otherwise two candidates are returned: the
// visible suffix replaced ("name.ext") first, then the double extension
// ("name.suffix.ext").
func RepairCandidates(path, ext string) []string {
	ext = strings.TrimPrefix(ext, ".")
	base := filepath.Base(path)
	dot := strings.LastIndexByte(base, '.')
	if dot <= 0 || dot == len(base)-1 {
		return []string{path + "." + ext}
	}

	stem := path[:len(path)-(len(base)-dot)]
	return []string{
		stem + "." + ext,
		path + "." + ext,
	}
}

// RepairExtension applies RepairCandidates. With a single candidate it is
// returned without consulting choose. With two, choose decides; a nil
// choose or a cancel yields false.
func RepairExtension(path, ext string, choose Chooser) (string, bool) {
	if ext == "" {
		return path, true
	}
	candidates := RepairCandidates(path, ext)
	if len(candidates) == 1 {
		return candidates[0], true
	}
	if choose == nil {
		return "", false
	}
	i, ok := choose(candidates)
	if !ok || i < 0 || i >= len(candidates) {
		return "", false
	}
	return candidates[i], true
}
