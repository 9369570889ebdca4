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

var ratingTracer = otel.Tracer("chorus/srv/sqlite")

var _ domain.RatingStorage = (*Storage)(nil)

// UpsertRating stores a rating for a message. A second rating for the same
// message overwrites the score instead of adding a row.
func (s *Storage) UpsertRating(ctx context.Context, rating domain.Rating) error {
	ctx, span := ratingTracer.Start(ctx, "Storage.UpsertRating")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("message_id", rating.MessageId),
		attribute.Int("score", rating.Score),
	)

	query := `
		INSERT INTO ratings (id, message_id, score, created)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(message_id) DO UPDATE SET score = excluded.score
	`

	rating.Created = rating.Created.UTC()

	_, err := s.db.ExecContext(ctx, query, rating.Id, rating.MessageId, rating.Score, rating.Created)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to upsert rating: %w", err)
	}

	return nil
}

// GetRating retrieves the rating for a message
func (s *Storage) GetRating(ctx context.Context, messageId string) (domain.Rating, error) {
	ctx, span := ratingTracer.Start(ctx, "Storage.GetRating")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("message_id", messageId),
	)

	query := "SELECT id, message_id, score, created FROM ratings WHERE message_id = ?"

	var rating domain.Rating
	err := s.db.QueryRowContext(ctx, query, messageId).Scan(&rating.Id, &rating.MessageId, &rating.Score, &rating.Created)
	if errors.Is(err, sql.ErrNoRows) {
		span.RecordError(srv.ErrNotFound)
		span.SetStatus(codes.Error, srv.ErrNotFound.Error())
		return domain.Rating{}, srv.ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.Rating{}, fmt.Errorf("failed to get rating: %w", err)
	}

	return rating, nil
}
