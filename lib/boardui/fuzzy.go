// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"sort"
	"strings"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// FuzzyResult holds the outcome of matching a pattern against a text.
// Score is 0 when the pattern does not match. Positions are the rune
// indices in the text that matched, ascending, used for highlight
// rendering.
type FuzzyResult struct {
	Score     int
	Positions []int
}

// fuzzyMatch runs fzf's FuzzyMatchV2 algorithm against a single text.
// Matching is case-insensitive: both the text and the pattern are
// lowercased before the algorithm runs, so callers can pass user input
// as typed. The slab is an optional scratch allocation reused across
// calls; pass nil for one-shot matching.
func fuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 {
		return FuzzyResult{}
	}

	lowered := make([]rune, len(pattern))
	for index, r := range pattern {
		lowered[index] = unicodeToLower(r)
	}

	chars := util.ToChars([]byte(strings.ToLower(text)))
	result, positions := algo.FuzzyMatchV2(true, true, true, &chars, lowered, true, slab)
	if result.Score <= 0 {
		return FuzzyResult{}
	}

	matched := FuzzyResult{Score: result.Score}
	if positions != nil {
		matched.Positions = append(matched.Positions, *positions...)
		sort.Ints(matched.Positions)
	}
	return matched
}

// unicodeToLower lowercases a single rune. ASCII fast path; everything
// else goes through strings.ToLower to match the text-side conversion.
func unicodeToLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	if r < 128 {
		return r
	}
	runes := []rune(strings.ToLower(string(r)))
	if len(runes) != 1 {
		return r
	}
	return runes[0]
}
