// Package anagram decides whether two strings are anagrams of one another,
// i.e. whether they hold the same multiset of characters ignoring case.
//
// A character is a Unicode code point. Lengths are counted in code points and
// sorting orders code points by value; grapheme clusters are not considered.
// Whitespace and punctuation are ordinary characters.
package anagram

import (
	"context"
	"slices"
	"strings"
	"unicode/utf8"

	"anagram/pkg/logger"

	"go.uber.org/zap"
)

// Comparison holds the outcome of comparing two strings together with the
// intermediate values computed on the way.
type Comparison struct {
	A string
	B string

	// LengthMismatch is set when the inputs differ in character count. The
	// lowercase and sorted forms are left empty in that case.
	LengthMismatch bool

	LowerA  string
	LowerB  string
	SortedA string
	SortedB string

	Anagram bool
}

// IsAnagram reports whether a and b are case-insensitive anagrams.
func IsAnagram(a, b string) bool {
	return Compare(a, b).Anagram
}

// Compare runs the anagram check and returns its intermediates.
func Compare(a, b string) Comparison {
	cmp := Comparison{A: a, B: b}

	// different lengths can't be anagrams, and case is not normalized for them
	if utf8.RuneCountInString(a) != utf8.RuneCountInString(b) {
		cmp.LengthMismatch = true

		return cmp
	}

	cmp.LowerA = strings.ToLower(a)
	cmp.LowerB = strings.ToLower(b)
	cmp.SortedA = SortRunes(cmp.LowerA)
	cmp.SortedB = SortRunes(cmp.LowerB)
	cmp.Anagram = cmp.SortedA == cmp.SortedB

	return cmp
}

// Check is Compare with the intermediate values logged at debug level using
// the logger carried by ctx.
func Check(ctx context.Context, a, b string) bool {
	cmp := Compare(a, b)
	cmp.Log(ctx)

	return cmp.Anagram
}

// Log writes the intermediate values of c at debug level.
func (c Comparison) Log(ctx context.Context) {
	if c.LengthMismatch {
		logger.Debug(ctx, "length mismatch",
			zap.Int("lenA", utf8.RuneCountInString(c.A)),
			zap.Int("lenB", utf8.RuneCountInString(c.B)))

		return
	}

	logger.Debug(ctx, "lowercased", zap.String("a", c.LowerA), zap.String("b", c.LowerB))
	logger.Debug(ctx, "sorted", zap.String("a", c.SortedA), zap.String("b", c.SortedB))
}

// SortRunes returns s with its code points sorted in ascending order.
func SortRunes(s string) string {
	runes := []rune(s)
	slices.Sort(runes)

	return string(runes)
}
