package domain

import (
	"context"
	"time"
)

// ProviderResponse is the full text one provider produced for one generated
// message, including error-surrogate texts for failed providers. In aggregate
// mode every provider gets a row linked to the synthesized message.
type ProviderResponse struct {
	Id             string    `json:"id"`
	MessageId      string    `json:"messageId"`
	Provider       string    `json:"provider"`
	Content        string    `json:"content"`
	ResponseTimeMs *int64    `json:"responseTimeMs,omitempty"`
	Created        time.Time `json:"created"`
}

// ProviderResponseStorage defines the interface for provider response database operations
type ProviderResponseStorage interface {
	PersistProviderResponse(ctx context.Context, response ProviderResponse) error
	GetProviderResponses(ctx context.Context, messageId string) ([]ProviderResponse, error)
	GetProviderResponsesForChat(ctx context.Context, chatId string) ([]ProviderResponse, error)
}
