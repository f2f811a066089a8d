package filter

import (
	"strings"
	"unicode"
)

// fullPermutationMax is the longest extension, in runes, whose every
// upper/lower combination is enumerated. Longer extensions only get the
// original, lower, upper and title-case spellings.
const fullPermutationMax = 4

// buildPattern joins "*.<variant>" for every case variant of every
// extension, without duplicates and in a stable order.
func buildPattern(extensions []string) string {
	seen := make(map[string]struct{})
	var parts []string
	for _, ext := range extensions {
		for _, v := range Permutations(ext) {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			parts = append(parts, "*."+v)
		}
	}
	return strings.Join(parts, ";")
}

// Permutations returns the case variants generated for one extension.
func Permutations(ext string) []string {
	runes := []rune(ext)
	if len(runes) <= fullPermutationMax {
		return enumerate(runes)
	}

	variants := []string{ext}
	for _, v := range []string{strings.ToLower(ext), strings.ToUpper(ext), TitleCase(ext)} {
		if !contains(variants, v) {
			variants = append(variants, v)
		}
	}
	return variants
}

// enumerate lowercases runes and yields one variant per bit mask, where
// bit i uppercases rune i. Masks that select a rune without a distinct
// upper-case form are skipped since they repeat an earlier variant.
func enumerate(runes []rune) []string {
	lower := make([]rune, len(runes))
	for i, r := range runes {
		lower[i] = unicode.ToLower(r)
	}

	n := len(lower)
	out := make([]string, 0, 1<<n)
	buf := make([]rune, n)
	for mask := 0; mask < 1<<n; mask++ {
		skip := false
		for i, r := range lower {
			if mask&(1<<i) == 0 {
				buf[i] = r
				continue
			}
			up := unicode.ToUpper(r)
			if up == r {
				skip = true
				break
			}
			buf[i] = up
		}
		if !skip {
			out = append(out, string(buf))
		}
	}
	return out
}

// TitleCase uppercases the first cased rune after every uncased rune (and
// at the start) and lowercases the rest, so "tar.gz" becomes "Tar.Gz".
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	boundary := true
	for _, r := range s {
		if unicode.ToLower(r) == unicode.ToUpper(r) {
			boundary = true
			b.WriteRune(r)
			continue
		}
		if boundary {
			b.WriteRune(unicode.ToUpper(r))
			boundary = false
		} else {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
