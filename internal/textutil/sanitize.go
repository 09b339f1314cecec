package textutil

import (
	"path/filepath"
	"strings"
	"unicode"
)

// DubbedPrefix is prepended to every generated output name.
const DubbedPrefix = "dubbed_"

const maxStemRunes = 120

// unsafeRunes become dashes when they separate words and vanish otherwise.
var unsafeRunes = map[rune]bool{
	'/': true, '\\': true, ':': true, '*': true,
	'?': false, '"': false, '<': false, '>': false, '|': false,
}

// Stem returns a filesystem-safe version of the base name of path with the
// extension removed. Control characters are dropped and whitespace runs
// collapse to a single space. An empty result becomes "video".
func Stem(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		base = ""
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))

	var b strings.Builder
	space := false
	for _, r := range strings.TrimSpace(base) {
		if dash, unsafe := unsafeRunes[r]; unsafe {
			if dash {
				b.WriteRune('-')
			}
			space = false
			continue
		}
		if unicode.IsSpace(r) {
			if !space {
				b.WriteRune(' ')
			}
			space = true
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		space = false
		b.WriteRune(r)
	}

	stem := strings.Trim(b.String(), " .-")
	if runes := []rune(stem); len(runes) > maxStemRunes {
		stem = strings.TrimRight(string(runes[:maxStemRunes]), " .-")
	}
	if stem == "" {
		return "video"
	}
	return stem
}

// DubbedName returns the output file name for a dubbed copy of path.
func DubbedName(path, ext string) string {
	return DubbedPrefix + Stem(path) + ext
}
