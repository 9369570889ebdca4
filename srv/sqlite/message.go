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

var messageTracer = otel.Tracer("chorus/srv/sqlite")

var _ domain.MessageStorage = (*Storage)(nil)

// PersistMessage inserts or updates a Message in the SQLite database
func (s *Storage) PersistMessage(ctx context.Context, message domain.Message) error {
	ctx, span := messageTracer.Start(ctx, "Storage.PersistMessage")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("chat_id", message.ChatId),
		attribute.String("message_id", message.Id),
	)

	query := `
		INSERT OR REPLACE INTO messages (id, chat_id, content, is_user, created)
		VALUES (?, ?, ?, ?, ?)
	`

	message.Created = message.Created.UTC()

	_, err := s.db.ExecContext(ctx, query, message.Id, message.ChatId, message.Content, message.IsUser, message.Created)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to persist message: %w", err)
	}

	return nil
}

// GetMessage retrieves a single Message scoped to the given chat
func (s *Storage) GetMessage(ctx context.Context, chatId, messageId string) (domain.Message, error) {
	ctx, span := messageTracer.Start(ctx, "Storage.GetMessage")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("chat_id", chatId),
		attribute.String("message_id", messageId),
	)

	query := "SELECT id, chat_id, content, is_user, created FROM messages WHERE chat_id = ? AND id = ?"

	var message domain.Message
	err := s.db.QueryRowContext(ctx, query, chatId, messageId).Scan(
		&message.Id, &message.ChatId, &message.Content, &message.IsUser, &message.Created,
	)
	if errors.Is(err, sql.ErrNoRows) {
		span.RecordError(srv.ErrNotFound)
		span.SetStatus(codes.Error, srv.ErrNotFound.Error())
		return domain.Message{}, srv.ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.Message{}, fmt.Errorf("failed to get message: %w", err)
	}

	return message, nil
}

// GetMessages retrieves all messages for a chat, oldest first
func (s *Storage) GetMessages(ctx context.Context, chatId string) ([]domain.Message, error) {
	ctx, span := messageTracer.Start(ctx, "Storage.GetMessages")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("chat_id", chatId),
	)

	query := "SELECT id, chat_id, content, is_user, created FROM messages WHERE chat_id = ? ORDER BY created ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, chatId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var message domain.Message
		if err := rows.Scan(&message.Id, &message.ChatId, &message.Content, &message.IsUser, &message.Created); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}
