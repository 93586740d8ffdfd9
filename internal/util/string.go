package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// invalidFileNameRunes are rejected by at least one common filesystem.
const invalidFileNameRunes = `<>:"/\|?*`

// Normalize performs basic string normalization (lowercase + trim)
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SanitizeFileName makes name usable as a file name or persistence key.
// The input is NFC normalized first so that composed and decomposed spellings of
// the same name map to the same key. Invalid and control characters are removed.
func SanitizeFileName(name string) string {
	name = norm.NFC.String(name)

	var builder strings.Builder
	builder.Grow(len(name))
	for _, r := range name {
		if r == unicode.ReplacementChar || unicode.IsControl(r) || strings.ContainsRune(invalidFileNameRunes, r) {
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}

// SplitTerms lowercases s and splits it on whitespace.
func SplitTerms(s string) []string {
	return strings.Fields(strings.ToLower(s))
}
