package ui

import (
	"sort"
	"strings"
)

// MaxDistance is the largest edit distance Suggest accepts.
const MaxDistance = 2

// MaxSuggestions bounds the result of Suggest.
const MaxSuggestions = 3

// Suggest returns the candidates closest to target, nearest first, for
// "did you mean" hints on misspelt query names and key flags. Matching is
// case-insensitive. Ties keep candidate order.
//
// Example:
//
//	Suggest("pakages", []string{"name", "packages", "manifest"})
//	// Returns: ["packages"]
func Suggest(target string, candidates []string) []string {
	type match struct {
		value    string
		distance int
	}
	var matches []match
	lower := strings.ToLower(target)
	for _, c := range candidates {
		d := LevenshteinDistance(lower, strings.ToLower(c))
		if d <= MaxDistance && d < len(c) {
			matches = append(matches, match{c, d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	out := make([]string, 0, MaxSuggestions)
	for i := 0; i < len(matches) && i < MaxSuggestions; i++ {
		out = append(out, matches[i].value)
	}
	return out
}

// LevenshteinDistance is the minimum number of single-byte insertions,
// deletions or substitutions turning s1 into s2.
func LevenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	cur := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(s1); i++ {
		cur[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(s2)]
}
