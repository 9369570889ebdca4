package provider

import (
	"context"
	"testing"

	"chorus/common"

	"github.com/stretchr/testify/assert"
)

func openAIConfigWithoutKey() common.ProviderConfig {
	return common.ProviderConfig{Name: "openai", Type: "openai", Model: "gpt-4o-mini"}
}

func TestOpenAIClientNotConfigured(t *testing.T) {
	client := NewOpenAIClient(openAIConfigWithoutKey())
	assert.False(t, client.Configured())

	// fails fast, before any network attempt and before any token
	tokens := make(chan string)
	err := client.Generate(context.Background(), "prompt", tokens)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Empty(t, tokens)
}

func TestGeminiClientNotConfigured(t *testing.T) {
	client := NewGeminiClient(common.ProviderConfig{Name: "gemini", Type: "gemini", Model: "gemini-2.0-flash"})
	assert.False(t, client.Configured())

	tokens := make(chan string)
	err := client.Generate(context.Background(), "prompt", tokens)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
