package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"chorus/domain"
	"chorus/srv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var chatTracer = otel.Tracer("chorus/srv/sqlite")

var _ domain.ChatStorage = (*Storage)(nil)

// PersistChat inserts or updates a Chat in the SQLite database
func (s *Storage) PersistChat(ctx context.Context, chat domain.Chat) error {
	ctx, span := chatTracer.Start(ctx, "Storage.PersistChat")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("chat_id", chat.Id),
	)

	query := `
		INSERT OR REPLACE INTO chats (id, title, created, updated)
		VALUES (?, ?, ?, ?)
	`

	chat.Created = chat.Created.UTC()
	chat.Updated = chat.Updated.UTC()

	_, err := s.db.ExecContext(ctx, query, chat.Id, chat.Title, chat.Created, chat.Updated)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to persist chat: %w", err)
	}

	return nil
}

// GetChat retrieves a single Chat from the SQLite database
func (s *Storage) GetChat(ctx context.Context, chatId string) (domain.Chat, error) {
	ctx, span := chatTracer.Start(ctx, "Storage.GetChat")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("chat_id", chatId),
	)

	query := "SELECT id, title, created, updated FROM chats WHERE id = ?"

	var chat domain.Chat
	err := s.db.QueryRowContext(ctx, query, chatId).Scan(&chat.Id, &chat.Title, &chat.Created, &chat.Updated)
	if errors.Is(err, sql.ErrNoRows) {
		span.RecordError(srv.ErrNotFound)
		span.SetStatus(codes.Error, srv.ErrNotFound.Error())
		return domain.Chat{}, srv.ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.Chat{}, fmt.Errorf("failed to get chat: %w", err)
	}

	return chat, nil
}
