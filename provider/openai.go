package provider

import (
	"context"
	"errors"
	"fmt"
	"io"

	"chorus/common"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient streams chat completions from openai or any openai-compatible
// endpoint (groq, deepseek, local servers) selected via BaseURL.
type OpenAIClient struct {
	name    string
	apiKey  string
	baseURL string
	model   string
}

func NewOpenAIClient(cfg common.ProviderConfig) *OpenAIClient {
	return &OpenAIClient{
		name:    cfg.Name,
		apiKey:  cfg.Key,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

func (c *OpenAIClient) Name() string {
	return c.name
}

func (c *OpenAIClient) Configured() bool {
	return c.apiKey != ""
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string, tokens chan<- string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	config := openai.DefaultConfig(c.apiKey)
	if c.baseURL != "" {
		config.BaseURL = c.baseURL
	}
	client := openai.NewClientWithConfig(config)

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Stream: true,
	}

	stream, err := client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create %s completion stream: %w", c.name, err)
	}
	defer stream.Close()

	for {
		res, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to receive from %s completion stream: %w", c.name, err)
		}

		if len(res.Choices) == 0 {
			continue
		}
		if content := res.Choices[0].Delta.Content; content != "" {
			select {
			case tokens <- content:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return nil
}

var _ Client = (*OpenAIClient)(nil)
