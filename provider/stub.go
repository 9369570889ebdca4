package provider

import (
	"context"
	"hash/fnv"
	"strings"
	"time"
)

var stubResponses = []string{
	"This is a sample response from the {provider} model.",
	"Based on my analysis, I would recommend considering multiple perspectives.",
	"The key factors to consider here are clarity, accuracy, and relevance.",
	"I've analyzed your query and here's my synthesized response.",
	"This appears to be a complex topic that requires careful consideration.",
}

// StubClient is a deterministic offline stand-in for a real provider. It
// streams a fixed canned text word by word with artificial pacing, is always
// configured, and never fails. The canned text is selected by the provider
// name so repeated runs produce the same output.
type StubClient struct {
	name  string
	delay time.Duration
}

func NewStubClient(name string) *StubClient {
	return &StubClient{name: name, delay: 100 * time.Millisecond}
}

// NewStubClientWithDelay exists for tests that can't afford real pacing.
func NewStubClientWithDelay(name string, delay time.Duration) *StubClient {
	return &StubClient{name: name, delay: delay}
}

func (c *StubClient) Name() string {
	return c.name
}

func (c *StubClient) Configured() bool {
	return true
}

func (c *StubClient) Generate(ctx context.Context, prompt string, tokens chan<- string) error {
	response := c.cannedResponse()

	for _, word := range strings.Fields(response) {
		if c.delay > 0 {
			select {
			case <-time.After(c.delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		select {
		case tokens <- word + " ":
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

func (c *StubClient) cannedResponse() string {
	h := fnv.New32a()
	h.Write([]byte(c.name))
	response := stubResponses[int(h.Sum32())%len(stubResponses)]
	return strings.ReplaceAll(response, "{provider}", c.name)
}

var _ Client = (*StubClient)(nil)
