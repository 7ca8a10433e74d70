package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// NormalizeName reduces a display name to its lookup key: every whitespace
// rune (including U+3000) is dropped and the rest is lowercased.
func NormalizeName(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// FoldWidth maps full-width ASCII to half-width and half-width katakana to
// full-width, so "１ｍｇ" and "1mg" compare equal.
func FoldWidth(input string) string {
	return width.Fold.String(input)
}

// NameNormalizer returns the key function shared by index build and lookup.
func NameNormalizer(foldWidth bool) func(string) string {
	if !foldWidth {
		return NormalizeName
	}
	return func(input string) string {
		return NormalizeName(FoldWidth(input))
	}
}

// CollapseSpaces trims and joins whitespace runs with a single space.
func CollapseSpaces(input string) string {
	return strings.Join(strings.Fields(input), " ")
}

func StringPtr(v string) *string { return &v }
