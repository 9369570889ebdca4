package domain

import (
	"context"
	"fmt"
	"time"
)

// Rating is a thumbs up/down on a generated message. At most one rating
// exists per message; resubmitting overwrites the score.
type Rating struct {
	Id        string    `json:"id"`
	MessageId string    `json:"messageId"`
	Score     int       `json:"score"`
	Created   time.Time `json:"created"`
}

// ValidateScore rejects anything other than +1 or -1.
func (r Rating) ValidateScore() error {
	if r.Score != 1 && r.Score != -1 {
		return fmt.Errorf("score must be 1 or -1, got %d", r.Score)
	}
	return nil
}

// RatingStorage defines the interface for rating-related database operations
type RatingStorage interface {
	UpsertRating(ctx context.Context, rating Rating) error
	GetRating(ctx context.Context, messageId string) (Rating, error)
}
