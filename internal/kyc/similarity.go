package kyc

import (
	"strings"
	"unicode"
)

// SimilarityThreshold is the minimum normalized ratio for two names to be
// considered a match.
const SimilarityThreshold = 0.80

// NormalizeName lowercases a name and strips all whitespace so that casing
// and spacing differences never affect the comparison.
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SimilarityRatio computes a normalized similarity ratio between two names:
// 1 - levenshtein(a, b) / max(len(a), len(b)) over the normalized forms.
// Two names that are both empty after normalization are maximally similar.
func SimilarityRatio(a, b string) float64 {
	na := []rune(NormalizeName(a))
	nb := []rune(NormalizeName(b))

	maxLen := len(na)
	if len(nb) > maxLen {
		maxLen = len(nb)
	}
	if maxLen == 0 {
		return 1
	}

	return 1 - float64(levenshtein(na, nb))/float64(maxLen)
}

// Similar reports whether two names meet the similarity threshold.
func Similar(a, b string) bool {
	return SimilarityRatio(a, b) >= SimilarityThreshold
}

// levenshtein computes the edit distance between two rune slices using the
// two-row dynamic programming formulation.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j-1]+cost, // substitution
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
