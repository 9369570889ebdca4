package srv

import (
	"context"
	"errors"

	"chorus/domain"
)

// ErrNotFound is returned by storage implementations when the requested
// record does not exist.
var ErrNotFound = errors.New("not found")

// Storage is the full persistence surface the chat backend depends on.
type Storage interface {
	domain.ChatStorage
	domain.MessageStorage
	domain.ProviderResponseStorage
	domain.RatingStorage

	CheckConnection(ctx context.Context) error
}
