package provider

import (
	"context"
	"fmt"

	"chorus/common"

	"google.golang.org/genai"
)

// GeminiClient streams generations from the Gemini API.
type GeminiClient struct {
	name   string
	apiKey string
	model  string
}

func NewGeminiClient(cfg common.ProviderConfig) *GeminiClient {
	return &GeminiClient{
		name:   cfg.Name,
		apiKey: cfg.Key,
		model:  cfg.Model,
	}
}

func (c *GeminiClient) Name() string {
	return c.name
}

func (c *GeminiClient) Configured() bool {
	return c.apiKey != ""
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string, tokens chan<- string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("failed to create %s client: %w", c.name, err)
	}

	stream := client.Models.GenerateContentStream(ctx, c.model, genai.Text(prompt), nil)
	for result, err := range stream {
		if err != nil {
			return fmt.Errorf("failed to iterate on %s stream: %w", c.name, err)
		}
		if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
			continue
		}
		for _, part := range result.Candidates[0].Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			select {
			case tokens <- part.Text:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return nil
}

var _ Client = (*GeminiClient)(nil)
