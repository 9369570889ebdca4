// Package provider abstracts external language-model services behind a
// common streaming-generation contract. One client exists per configured
// provider; the set is fixed at process start.
package provider

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by Generate when the client has no credentials.
// It fails before any network attempt and before any token is sent.
var ErrNotConfigured = errors.New("provider not configured")

// Client is implemented by one adapter per external model service. Generate
// turns a prompt into a stream of text fragments sent on the tokens channel.
// Each call produces a fresh stream; the client never closes the channel. A
// nil return means the final fragment has been sent; a non-nil return is a
// provider-local failure.
type Client interface {
	Configured() bool
	Name() string
	Generate(ctx context.Context, prompt string, tokens chan<- string) error
}
