package resolve

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// TokenSetRatio computes a word-order-insensitive string similarity in
// [0, 1] between two canonical keys. Token sets are deduplicated and
// sorted before comparison, so "altman sam" and "sam altman" score 1.0.
// A full subset relation ("openai" vs "openai research") also scores 1.0,
// which is the behavior wanted for name variants with extra qualifiers.
func TokenSetRatio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	tokensA := tokenSet(a)
	tokensB := tokenSet(b)

	intersection := make([]string, 0, len(tokensA))
	onlyA := make([]string, 0, len(tokensA))
	for _, t := range tokensA {
		if contains(tokensB, t) {
			intersection = append(intersection, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	onlyB := make([]string, 0, len(tokensB))
	for _, t := range tokensB {
		if !contains(tokensA, t) {
			onlyB = append(onlyB, t)
		}
	}

	base := strings.Join(intersection, " ")
	combinedA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	// Best of the three pairings, mirroring the classic token_set_ratio
	best := normalizedSimilarity(base, combinedA)
	if s := normalizedSimilarity(base, combinedB); s > best {
		best = s
	}
	if s := normalizedSimilarity(combinedA, combinedB); s > best {
		best = s
	}
	return best
}

func normalizedSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1.0
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(distance)/float64(longest)
}

func tokenSet(s string) []string {
	seen := map[string]bool{}
	var tokens []string
	for _, t := range strings.Fields(s) {
		if !seen[t] {
			seen[t] = true
			tokens = append(tokens, t)
		}
	}
	sort.Strings(tokens)
	return tokens
}

func contains(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}
