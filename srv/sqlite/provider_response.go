package sqlite

import (
	"context"
	"fmt"

	"chorus/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var providerResponseTracer = otel.Tracer("chorus/srv/sqlite")

var _ domain.ProviderResponseStorage = (*Storage)(nil)

// PersistProviderResponse inserts or updates a ProviderResponse in the SQLite database
func (s *Storage) PersistProviderResponse(ctx context.Context, response domain.ProviderResponse) error {
	ctx, span := providerResponseTracer.Start(ctx, "Storage.PersistProviderResponse")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("message_id", response.MessageId),
		attribute.String("provider", response.Provider),
	)

	query := `
		INSERT OR REPLACE INTO provider_responses (id, message_id, provider, content, response_time_ms, created)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	response.Created = response.Created.UTC()

	_, err := s.db.ExecContext(ctx, query,
		response.Id, response.MessageId, response.Provider, response.Content, response.ResponseTimeMs, response.Created,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to persist provider response: %w", err)
	}

	return nil
}

// GetProviderResponses retrieves all provider responses linked to a message
func (s *Storage) GetProviderResponses(ctx context.Context, messageId string) ([]domain.ProviderResponse, error) {
	ctx, span := providerResponseTracer.Start(ctx, "Storage.GetProviderResponses")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("message_id", messageId),
	)

	query := `
		SELECT id, message_id, provider, content, response_time_ms, created
		FROM provider_responses WHERE message_id = ? ORDER BY created ASC, id ASC
	`

	return s.queryProviderResponses(ctx, span, query, messageId)
}

// GetProviderResponsesForChat retrieves provider responses for all generated
// messages of a chat, in message order
func (s *Storage) GetProviderResponsesForChat(ctx context.Context, chatId string) ([]domain.ProviderResponse, error) {
	ctx, span := providerResponseTracer.Start(ctx, "Storage.GetProviderResponsesForChat")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("chat_id", chatId),
	)

	query := `
		SELECT pr.id, pr.message_id, pr.provider, pr.content, pr.response_time_ms, pr.created
		FROM provider_responses pr
		JOIN messages m ON m.id = pr.message_id
		WHERE m.chat_id = ? AND m.is_user = 0
		ORDER BY m.created ASC, m.id ASC, pr.created ASC, pr.id ASC
	`

	return s.queryProviderResponses(ctx, span, query, chatId)
}

func (s *Storage) queryProviderResponses(ctx context.Context, span trace.Span, query string, args ...interface{}) ([]domain.ProviderResponse, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to query provider responses: %w", err)
	}
	defer rows.Close()

	var responses []domain.ProviderResponse
	for rows.Next() {
		var response domain.ProviderResponse
		if err := rows.Scan(
			&response.Id, &response.MessageId, &response.Provider,
			&response.Content, &response.ResponseTimeMs, &response.Created,
		); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan provider response: %w", err)
		}
		responses = append(responses, response)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("error iterating provider responses: %w", err)
	}

	return responses, nil
}
