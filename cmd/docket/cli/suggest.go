// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"

	"github.com/spf13/pflag"
)

// suggestThreshold is the largest edit distance still offered as a
// "did you mean" candidate. Three edits covers transpositions, a
// dropped character, and fat-fingered neighbors without surfacing
// unrelated names.
const suggestThreshold = 3

// suggestCommand returns the registered subcommand closest to the
// unknown input, or "" when nothing is within the threshold.
func suggestCommand(unknown string, commands []*Command) string {
	best := ""
	bestDistance := suggestThreshold + 1
	for _, command := range commands {
		if distance := editDistance(unknown, command.Name); distance < bestDistance {
			bestDistance = distance
			best = command.Name
		}
	}
	return best
}

// suggestFlag scans args for the first flag the set does not define
// and returns the closest defined name with its dash prefix, or ""
// when nothing is close enough to offer.
func suggestFlag(args []string, flagSet *pflag.FlagSet) string {
	defined := make(map[string]bool)
	var names []string
	flagSet.VisitAll(func(f *pflag.Flag) {
		defined[f.Name] = true
		names = append(names, f.Name)
	})

	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		name := strings.TrimLeft(arg, "-")
		name, _, _ = strings.Cut(name, "=")
		if defined[name] {
			continue
		}

		// Only the first unrecognized flag gets a suggestion.
		best := ""
		bestDistance := suggestThreshold + 1
		for _, candidate := range names {
			if distance := editDistance(name, candidate); distance < bestDistance {
				bestDistance = distance
				best = candidate
			}
		}
		switch {
		case best == "":
			return ""
		case len(best) == 1:
			return "-" + best
		default:
			return "--" + best
		}
	}
	return ""
}

// editDistance is the Levenshtein distance between a and b: the
// minimum number of single-character inserts, deletes, and
// substitutions turning one string into the other.
func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}

	// Two rows over the shorter string, swapped each iteration.
	previous := make([]int, len(a)+1)
	current := make([]int, len(a)+1)
	for i := range previous {
		previous[i] = i
	}

	for j := 1; j <= len(b); j++ {
		current[0] = j
		for i := 1; i <= len(a); i++ {
			replace := previous[i-1]
			if a[i-1] != b[j-1] {
				replace++
			}
			current[i] = min(replace, previous[i]+1, current[i-1]+1)
		}
		previous, current = current, previous
	}

	return previous[len(a)]
}
