package domain

import (
	"context"
	"time"
)

// Message is one turn in a chat. IsUser distinguishes user turns from
// generated ones; a synthesized answer is stored as a generated message whose
// provider responses carry the raw per-provider texts.
type Message struct {
	Id      string    `json:"id"`
	ChatId  string    `json:"chatId"`
	Content string    `json:"content"`
	IsUser  bool      `json:"isUser"`
	Created time.Time `json:"created"`
}

// MessageStorage defines the interface for message-related database operations
type MessageStorage interface {
	PersistMessage(ctx context.Context, message Message) error
	GetMessage(ctx context.Context, chatId, messageId string) (Message, error)
	GetMessages(ctx context.Context, chatId string) ([]Message, error)
}
