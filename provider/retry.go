package provider

import (
	"context"
	"errors"
)

// WithRetry wraps a client so failures that happen before any token was
// forwarded get retried up to maxRetries additional times. Once a fragment
// has reached the caller a retry would duplicate output, so the error is
// surfaced as-is. Configuration errors are never retried.
func WithRetry(client Client, maxRetries int) Client {
	if maxRetries <= 0 {
		return client
	}
	return &retryClient{Client: client, maxRetries: maxRetries}
}

type retryClient struct {
	Client
	maxRetries int
}

func (r *retryClient) Generate(ctx context.Context, prompt string, tokens chan<- string) error {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		streamed, err := r.generateOnce(ctx, prompt, tokens)
		if err == nil {
			return nil
		}
		lastErr = err
		if streamed || errors.Is(err, ErrNotConfigured) || ctx.Err() != nil {
			return err
		}
	}
	return lastErr
}

func (r *retryClient) generateOnce(ctx context.Context, prompt string, tokens chan<- string) (bool, error) {
	inner := make(chan string)
	done := make(chan error, 1)
	go func() {
		done <- r.Client.Generate(ctx, prompt, inner)
		close(inner)
	}()

	streamed := false
	for token := range inner {
		streamed = true
		tokens <- token
	}
	return streamed, <-done
}
