// Package orchestrate fans a user prompt out to the configured providers,
// streams their tokens through the broadcast registry, and persists the
// completed responses. Provider tasks are isolated: one failing provider
// never aborts its siblings or the run.
package orchestrate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"chorus/aggregator"
	"chorus/broadcast"
	"chorus/common"
	"chorus/domain"
	"chorus/provider"

	zlog "github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("chorus/orchestrate")

// Storage is the persistence slice the orchestrator writes to. Writes are
// fire-and-forget with respect to streaming: a storage failure is logged,
// never surfaced to subscribers.
type Storage interface {
	PersistMessage(ctx context.Context, message domain.Message) error
	PersistProviderResponse(ctx context.Context, response domain.ProviderResponse) error
}

type Config struct {
	// SingleProvider names the provider used in single mode. Empty means the
	// first provider in registry order.
	SingleProvider  string
	ProviderTimeout time.Duration
	SynthChunkSize  int
	SynthChunkDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		SingleProvider:  common.GetSingleModeProvider(),
		ProviderTimeout: common.GetProviderTimeout(),
		SynthChunkSize:  common.GetSynthChunkSize(),
		SynthChunkDelay: common.GetSynthChunkDelay(),
	}
}

// CompletedResponse is the accumulation of all fragments from one provider
// task, or the error-surrogate text if the task failed.
type CompletedResponse struct {
	Provider  string
	Text      string
	ElapsedMs int64
	Failed    bool
}

type Orchestrator struct {
	storage     Storage
	registry    *provider.Registry
	broadcaster *broadcast.Registry
	config      Config
}

func New(storage Storage, registry *provider.Registry, broadcaster *broadcast.Registry, config Config) *Orchestrator {
	if config.SynthChunkSize <= 0 {
		config.SynthChunkSize = 10
	}
	if config.ProviderTimeout <= 0 {
		config.ProviderTimeout = 30 * time.Second
	}
	return &Orchestrator{
		storage:     storage,
		registry:    registry,
		broadcaster: broadcaster,
		config:      config,
	}
}

// ProcessMessage runs one user turn under the given mode. It blocks until the
// run finishes; callers fire it in a goroutine. Generation continues even
// with zero subscribers so results still get persisted.
func (o *Orchestrator) ProcessMessage(ctx context.Context, chatId, userMessageId, prompt string, mode Mode) {
	ctx, span := tracer.Start(ctx, "Orchestrator.ProcessMessage")
	defer span.End()
	span.SetAttributes(
		attribute.String("chat_id", chatId),
		attribute.String("mode", string(mode)),
		attribute.Int("provider_count", o.registry.Size()),
	)

	switch mode {
	case ModeSingle:
		o.processSingle(ctx, chatId, prompt)
	case ModeMultiple:
		o.processMultiple(ctx, chatId, prompt)
	default:
		o.processAggregate(ctx, chatId, prompt)
	}
}

// processSingle runs the configured single-mode provider (default: first in
// registry order). On failure the terminal error token is published but
// nothing is persisted.
func (o *Orchestrator) processSingle(ctx context.Context, chatId, prompt string) {
	name := o.config.SingleProvider
	if name == "" {
		names := o.registry.Names()
		if len(names) == 0 {
			zlog.Error().Str("chat_id", chatId).Msg("No providers registered")
			return
		}
		name = names[0]
	}

	client, ok := o.registry.Get(name)
	if !ok {
		zlog.Error().Str("chat_id", chatId).Str("provider", name).Msg("Single-mode provider not registered")
		return
	}

	response := o.runProvider(ctx, chatId, client, prompt)
	if response.Failed {
		return
	}
	o.persistRawResponse(ctx, chatId, response)
}

// processMultiple runs all providers concurrently and independently; each
// successful one persists its own message and provider response.
func (o *Orchestrator) processMultiple(ctx context.Context, chatId, prompt string) {
	var wg sync.WaitGroup
	for _, name := range o.registry.Names() {
		client, ok := o.registry.Get(name)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(client provider.Client) {
			defer wg.Done()
			response := o.runProvider(ctx, chatId, client, prompt)
			if response.Failed {
				return
			}
			o.persistRawResponse(ctx, chatId, response)
		}(client)
	}
	wg.Wait()
}

// processAggregate runs all providers concurrently, waits for every task to
// finish, synthesizes the completed set, streams the synthesized text in
// fixed-size chunks, and persists one message plus a provider response per
// provider, failed ones included.
func (o *Orchestrator) processAggregate(ctx context.Context, chatId, prompt string) {
	names := o.registry.Names()
	responses := make([]CompletedResponse, len(names))

	// each task writes its own slot, so the slice needs no lock
	var wg sync.WaitGroup
	for i, name := range names {
		client, ok := o.registry.Get(name)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(i int, client provider.Client) {
			defer wg.Done()
			responses[i] = o.runProvider(ctx, chatId, client, prompt)
		}(i, client)
	}

	// fan-in barrier: the synthesized result waits for the slowest provider
	wg.Wait()

	texts := make([]aggregator.ProviderText, len(responses))
	for i, response := range responses {
		texts[i] = aggregator.ProviderText{Provider: response.Provider, Text: response.Text}
	}
	synthesized := aggregator.Synthesize(texts)

	o.streamSynthesized(ctx, chatId, synthesized)

	now := time.Now().UTC()
	message := domain.Message{
		Id:      "msg_" + ksuid.New().String(),
		ChatId:  chatId,
		Content: synthesized,
		IsUser:  false,
		Created: now,
	}
	if err := o.storage.PersistMessage(ctx, message); err != nil {
		zlog.Error().Err(err).Str("chat_id", chatId).Msg("Failed to persist synthesized message")
		return
	}

	for _, response := range responses {
		elapsed := response.ElapsedMs
		providerResponse := domain.ProviderResponse{
			Id:             "pr_" + ksuid.New().String(),
			MessageId:      message.Id,
			Provider:       response.Provider,
			Content:        response.Text,
			ResponseTimeMs: &elapsed,
			Created:        now,
		}
		if err := o.storage.PersistProviderResponse(ctx, providerResponse); err != nil {
			zlog.Error().Err(err).Str("chat_id", chatId).Str("provider", response.Provider).Msg("Failed to persist provider response")
		}
	}
}

// runProvider executes one generation task: tokens stream to subscribers as
// they arrive and accumulate into the completed response. A failure is
// converted into an error-surrogate response whose text is published as the
// provider's terminal token.
func (o *Orchestrator) runProvider(ctx context.Context, chatId string, client provider.Client, prompt string) CompletedResponse {
	name := client.Name()
	start := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, o.config.ProviderTimeout)
	defer cancel()

	tokens := make(chan string)
	done := make(chan error, 1)
	go func() {
		done <- client.Generate(callCtx, prompt, tokens)
		close(tokens)
	}()

	var full strings.Builder
	for token := range tokens {
		o.broadcaster.PublishProviderToken(chatId, name, token, false)
		full.WriteString(token)
	}
	err := <-done
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		errText := fmt.Sprintf("Error from %s: %v", name, err)
		zlog.Warn().Err(err).Str("chat_id", chatId).Str("provider", name).Msg("Provider task failed")
		o.broadcaster.PublishProviderToken(chatId, name, errText, true)
		return CompletedResponse{Provider: name, Text: errText, ElapsedMs: elapsed, Failed: true}
	}

	o.broadcaster.PublishProviderToken(chatId, name, "", true)
	return CompletedResponse{Provider: name, Text: full.String(), ElapsedMs: elapsed}
}

// persistRawResponse stores one provider's raw output as a generated message
// with a single linked provider response.
func (o *Orchestrator) persistRawResponse(ctx context.Context, chatId string, response CompletedResponse) {
	now := time.Now().UTC()
	message := domain.Message{
		Id:      "msg_" + ksuid.New().String(),
		ChatId:  chatId,
		Content: response.Text,
		IsUser:  false,
		Created: now,
	}
	if err := o.storage.PersistMessage(ctx, message); err != nil {
		zlog.Error().Err(err).Str("chat_id", chatId).Msg("Failed to persist response message")
		return
	}

	elapsed := response.ElapsedMs
	providerResponse := domain.ProviderResponse{
		Id:             "pr_" + ksuid.New().String(),
		MessageId:      message.Id,
		Provider:       response.Provider,
		Content:        response.Text,
		ResponseTimeMs: &elapsed,
		Created:        now,
	}
	if err := o.storage.PersistProviderResponse(ctx, providerResponse); err != nil {
		zlog.Error().Err(err).Str("chat_id", chatId).Str("provider", response.Provider).Msg("Failed to persist provider response")
	}
}

// streamSynthesized pushes the synthesized text to subscribers in fixed-size
// chunks with a pacing delay, then an explicit done event. Chunks are cut on
// runes so multi-byte characters never split.
func (o *Orchestrator) streamSynthesized(ctx context.Context, chatId, synthesized string) {
	runes := []rune(synthesized)
	for i := 0; i < len(runes); i += o.config.SynthChunkSize {
		end := i + o.config.SynthChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		o.broadcaster.PublishSynthToken(chatId, string(runes[i:end]), false)

		if o.config.SynthChunkDelay > 0 {
			select {
			case <-time.After(o.config.SynthChunkDelay):
			case <-ctx.Done():
			}
		}
	}
	o.broadcaster.PublishSynthToken(chatId, "", true)
}
