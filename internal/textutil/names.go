package textutil

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	folder         = cases.Fold()
	dedupSuffixRE  = regexp.MustCompile(`^(.*?) ?\((\d+)\)$`)
	manifestDupeRE = regexp.MustCompile(`^(.*?)(\.[^.]+)\((\d+)\)$`)
)

// Normalize returns name in NFC form with surrounding whitespace removed.
func Normalize(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// Fold returns the comparison key for name: NFC normalized and case folded.
func Fold(name string) string {
	return folder.String(Normalize(name))
}

// EqualNames reports whether two filenames are equal ignoring case and
// Unicode normalization form.
func EqualNames(a, b string) bool {
	return Fold(a) == Fold(b)
}

// Ext returns the extension of name including the dot.
func Ext(name string) string {
	return filepath.Ext(name)
}

// Stem returns the base name of path without its final extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// StripDedupSuffix removes a destination auto-dedup counter from a filename:
// "IMG_0001(1).JPG" and "IMG_0001 (2).JPG" both become "IMG_0001.JPG".
func StripDedupSuffix(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if m := dedupSuffixRE.FindStringSubmatch(stem); m != nil && m[1] != "" {
		return m[1] + ext
	}
	return name
}

// ManifestDupeName rewrites Google's duplicate manifest naming so it can be
// compared against the media basename: "IMG.JPG(1)" becomes "IMG(1).JPG".
// The second return value is false when name does not carry a counter.
func ManifestDupeName(name string) (string, bool) {
	m := manifestDupeRE.FindStringSubmatch(name)
	if m == nil {
		return name, false
	}
	return m[1] + "(" + m[3] + ")" + m[2], true
}

// UTF16Len returns the length of s in UTF-16 code units, the unit Google uses
// when truncating long export filenames.
func UTF16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}
