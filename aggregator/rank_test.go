package aggregator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreRange(t *testing.T) {
	texts := []string{
		"",
		"short",
		"First, based on the data. Second, more detail! Third, a conclusion?",
		strings.Repeat("word ", 100),
		strings.Repeat("word ", 400),
	}

	for _, text := range texts {
		score := Score(text)
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 5)
	}
}

func TestScoreDeterministic(t *testing.T) {
	text := "First, research shows that moderate answers score well. " + strings.Repeat("filler ", 60) + "Finally, done."
	assert.Equal(t, Score(text), Score(text))
}

func TestScoreComponents(t *testing.T) {
	assert.Equal(t, 0, Score("tiny"))

	// 50+ words → +2
	moderate := strings.Repeat("word ", 60)
	assert.Equal(t, 2, Score(moderate))

	// >300 words → +1
	long := strings.Repeat("word ", 400)
	assert.Equal(t, 1, Score(long))

	// structure marker → +1
	assert.Equal(t, 1, Score("first thing"))

	// evidence marker → +1
	assert.Equal(t, 1, Score("based on data"))

	// 3+ sentence terminator runs → +1
	assert.Equal(t, 1, Score("a. b! c?"))

	// a run of terminators counts once
	assert.Equal(t, 0, Score("wait... ok"))
}

func TestRankDescending(t *testing.T) {
	weak := "meh"
	strong := "First, " + strings.Repeat("word ", 60) + "based on the data. Clearly! Done."

	ranked := Rank([]ProviderText{
		{Provider: "weak", Text: weak},
		{Provider: "strong", Text: strong},
	})

	assert.Equal(t, []string{strong, weak}, ranked)
}

func TestRankStableTieBreak(t *testing.T) {
	// all zero-score texts keep input order
	ranked := Rank([]ProviderText{
		{Provider: "a", Text: "one"},
		{Provider: "b", Text: "two"},
		{Provider: "c", Text: "three"},
	})

	assert.Equal(t, []string{"one", "two", "three"}, ranked)
}
