package domain

import (
	"context"
	"time"
)

const DefaultChatTitle = "New Chat"

// Chat is one conversation. Viewer connections subscribe to token events
// keyed by the chat id.
type Chat struct {
	Id      string    `json:"id"`
	Title   string    `json:"title"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// ChatStorage defines the interface for chat-related database operations
type ChatStorage interface {
	PersistChat(ctx context.Context, chat Chat) error
	GetChat(ctx context.Context, chatId string) (Chat, error)
}
