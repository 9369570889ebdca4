// Package aggregator reduces a completed set of provider responses into a
// single answer: a heuristic ranker orders candidates and a synthesizer
// merges the best ones. Everything here is pure, no I/O.
package aggregator

import (
	"regexp"
	"sort"
	"strings"
)

// ProviderText pairs a provider name with its completed response text.
// Callers pass an ordered slice (registry order) rather than a map so that
// ranking ties break deterministically.
type ProviderText struct {
	Provider string
	Text     string
}

var structureMarkers = []string{"first", "second", "third", "finally", "in conclusion"}

var evidenceMarkers = []string{"based on", "according to", "research shows"}

var sentenceTerminators = regexp.MustCompile(`[.!?]+`)

// Score computes a deterministic quality score in [0,5] for a response text.
func Score(text string) int {
	score := 0

	// moderate length is better
	length := len(strings.Fields(text))
	if length >= 50 && length <= 300 {
		score += 2
	} else if length > 300 {
		score += 1
	}

	lower := strings.ToLower(text)

	if containsAny(lower, structureMarkers) {
		score += 1
	}

	if containsAny(lower, evidenceMarkers) {
		score += 1
	}

	if len(sentenceTerminators.FindAllString(text, -1)) >= 3 {
		score += 1
	}

	return score
}

// Rank orders response texts by descending score. The sort is stable: equal
// scores keep the input order, so the caller's ordering is the tie-break.
func Rank(responses []ProviderText) []string {
	scored := make([]ProviderText, len(responses))
	copy(scored, responses)

	sort.SliceStable(scored, func(i, j int) bool {
		return Score(scored[i].Text) > Score(scored[j].Text)
	})

	ranked := make([]string, len(scored))
	for i, response := range scored {
		ranked[i] = response.Text
	}
	return ranked
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
