package aggregator

import (
	"strings"
)

const (
	noResponsesFallback = "No responses available from providers."
	noRankingFallback   = "Could not generate a synthesized response."

	insightSeparator = "\n\nAdditionally: "
	maxInsights      = 2
)

// Synthesize merges provider responses into one answer: the highest-ranked
// text verbatim, optionally followed by up to two insight sentences pulled
// from the runner-up when it covers enough ground the base doesn't.
func Synthesize(responses []ProviderText) string {
	if len(responses) == 0 {
		return noResponsesFallback
	}

	ranked := Rank(responses)
	if len(ranked) == 0 {
		return noRankingFallback
	}

	base := ranked[0]

	var insights []string
	for _, candidate := range ranked[1:min(2, len(ranked))] {
		insights = append(insights, extractUniqueInsights(candidate, base)...)
	}

	synthesized := base
	if len(insights) > 0 {
		if len(insights) > maxInsights {
			insights = insights[:maxInsights]
		}
		synthesized += insightSeparator + strings.Join(insights, " ")
	}

	return synthesized
}

// extractUniqueInsights returns sentences from candidate that hinge on words
// absent from base. Candidates sharing fewer than 6 unique words with the
// base contribute nothing.
func extractUniqueInsights(candidate, base string) []string {
	baseWords := wordSet(base)
	candidateWords := wordSet(candidate)

	uniqueWords := make([]string, 0)
	for word := range candidateWords {
		if _, shared := baseWords[word]; !shared {
			uniqueWords = append(uniqueWords, word)
		}
	}
	if len(uniqueWords) <= 5 {
		return nil
	}

	var insights []string
	for _, sentence := range strings.Split(candidate, ".") {
		trimmed := strings.TrimSpace(sentence)
		if len(trimmed) <= 20 {
			continue
		}
		lower := strings.ToLower(sentence)
		for _, word := range uniqueWords {
			if strings.Contains(lower, word) {
				insights = append(insights, trimmed)
				break
			}
		}
		if len(insights) >= maxInsights {
			break
		}
	}
	return insights
}

func wordSet(text string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(text)) {
		words[word] = struct{}{}
	}
	return words
}
