package orchestrate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"chorus/broadcast"
	"chorus/domain"
	"chorus/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStorage struct {
	mu        sync.Mutex
	messages  []domain.Message
	responses []domain.ProviderResponse
}

func (s *memoryStorage) PersistMessage(ctx context.Context, message domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, message)
	return nil
}

func (s *memoryStorage) PersistProviderResponse(ctx context.Context, response domain.ProviderResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, response)
	return nil
}

func (s *memoryStorage) snapshot() ([]domain.Message, []domain.ProviderResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Message(nil), s.messages...), append([]domain.ProviderResponse(nil), s.responses...)
}

// fixedClient streams a fixed set of tokens, or fails without producing any
type fixedClient struct {
	name   string
	tokens []string
	err    error
}

func (c *fixedClient) Name() string     { return c.name }
func (c *fixedClient) Configured() bool { return true }

func (c *fixedClient) Generate(ctx context.Context, prompt string, tokens chan<- string) error {
	if c.err != nil {
		return c.err
	}
	for _, token := range c.tokens {
		select {
		case tokens <- token:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

type collectingSubscriber struct {
	mu     sync.Mutex
	events []broadcast.StreamEvent
}

func (s *collectingSubscriber) Send(event broadcast.StreamEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *collectingSubscriber) recorded() []broadcast.StreamEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]broadcast.StreamEvent(nil), s.events...)
}

func testConfig() Config {
	return Config{
		ProviderTimeout: 5 * time.Second,
		SynthChunkSize:  10,
		SynthChunkDelay: 0,
	}
}

func TestAggregatePersistsMessageAndAllResponses(t *testing.T) {
	storage := &memoryStorage{}
	registry := provider.NewRegistryFromClients(
		&fixedClient{name: "alpha", tokens: []string{"alpha says enough words to pass ", "the scoring thresholds nicely today"}},
		&fixedClient{name: "beta", tokens: []string{"beta replies briefly"}},
		&fixedClient{name: "gamma", tokens: []string{"gamma chimes in too"}},
	)
	broadcaster := broadcast.NewRegistry()
	orchestrator := New(storage, registry, broadcaster, testConfig())

	orchestrator.ProcessMessage(context.Background(), "chat_1", "msg_user", "hello", ModeAggregate)

	messages, responses := storage.snapshot()
	require.Len(t, messages, 1)
	assert.Equal(t, "chat_1", messages[0].ChatId)
	assert.False(t, messages[0].IsUser)
	assert.NotEmpty(t, messages[0].Content)

	require.Len(t, responses, 3)
	providers := make(map[string]bool)
	for _, response := range responses {
		assert.Equal(t, messages[0].Id, response.MessageId)
		require.NotNil(t, response.ResponseTimeMs)
		assert.GreaterOrEqual(t, *response.ResponseTimeMs, int64(0))
		providers[response.Provider] = true
	}
	assert.Equal(t, map[string]bool{"alpha": true, "beta": true, "gamma": true}, providers)
}

func TestAggregateFailureIsolation(t *testing.T) {
	storage := &memoryStorage{}
	registry := provider.NewRegistryFromClients(
		&fixedClient{name: "good", tokens: []string{"a perfectly fine answer"}},
		&fixedClient{name: "bad", err: errors.New("upstream exploded")},
	)
	broadcaster := broadcast.NewRegistry()
	sub := &collectingSubscriber{}
	broadcaster.Subscribe("chat_1", sub)
	orchestrator := New(storage, registry, broadcaster, testConfig())

	orchestrator.ProcessMessage(context.Background(), "chat_1", "msg_user", "hello", ModeAggregate)

	messages, responses := storage.snapshot()
	require.Len(t, messages, 1)
	require.Len(t, responses, 2)

	// the failed provider is stored with its error-surrogate text
	byProvider := make(map[string]string)
	for _, response := range responses {
		byProvider[response.Provider] = response.Content
	}
	assert.Equal(t, "a perfectly fine answer", byProvider["good"])
	assert.Equal(t, "Error from bad: upstream exploded", byProvider["bad"])

	// subscribers saw the error text as the failed provider's terminal token
	var badTerminal *broadcast.StreamEvent
	for _, event := range sub.recorded() {
		if event.Type == broadcast.EventTypeProvider && event.Provider == "bad" && event.Done {
			e := event
			badTerminal = &e
		}
	}
	require.NotNil(t, badTerminal)
	assert.Equal(t, "Error from bad: upstream exploded", badTerminal.Token)
}

func TestAggregateStreamsSynthesizedInChunks(t *testing.T) {
	storage := &memoryStorage{}
	registry := provider.NewRegistryFromClients(
		&fixedClient{name: "solo", tokens: []string{"A tidy answer with more than ten characters in it."}},
	)
	broadcaster := broadcast.NewRegistry()
	sub := &collectingSubscriber{}
	broadcaster.Subscribe("chat_1", sub)
	orchestrator := New(storage, registry, broadcaster, testConfig())

	orchestrator.ProcessMessage(context.Background(), "chat_1", "msg_user", "hello", ModeAggregate)

	var synthTokens []string
	var sawDone bool
	for _, event := range sub.recorded() {
		if event.Type != broadcast.EventTypeSynth {
			continue
		}
		if event.Done {
			sawDone = true
			assert.Empty(t, event.Token)
			continue
		}
		assert.False(t, sawDone, "tokens after the terminal event")
		assert.LessOrEqual(t, len(event.Token), 10)
		synthTokens = append(synthTokens, event.Token)
	}

	require.True(t, sawDone)
	messages, _ := storage.snapshot()
	require.Len(t, messages, 1)
	assert.Equal(t, messages[0].Content, strings.Join(synthTokens, ""))
}

func TestMultiplePersistsOneMessagePerProvider(t *testing.T) {
	storage := &memoryStorage{}
	registry := provider.NewRegistryFromClients(
		&fixedClient{name: "alpha", tokens: []string{"alpha output"}},
		&fixedClient{name: "beta", tokens: []string{"beta output"}},
	)
	orchestrator := New(storage, registry, broadcast.NewRegistry(), testConfig())

	orchestrator.ProcessMessage(context.Background(), "chat_1", "msg_user", "hello", ModeMultiple)

	messages, responses := storage.snapshot()
	require.Len(t, messages, 2)
	require.Len(t, responses, 2)

	contents := map[string]bool{}
	for _, message := range messages {
		contents[message.Content] = true
	}
	assert.True(t, contents["alpha output"])
	assert.True(t, contents["beta output"])
}

func TestMultipleFailedProviderPersistsNothing(t *testing.T) {
	storage := &memoryStorage{}
	registry := provider.NewRegistryFromClients(
		&fixedClient{name: "good", tokens: []string{"fine"}},
		&fixedClient{name: "bad", err: errors.New("nope")},
	)
	orchestrator := New(storage, registry, broadcast.NewRegistry(), testConfig())

	orchestrator.ProcessMessage(context.Background(), "chat_1", "msg_user", "hello", ModeMultiple)

	messages, responses := storage.snapshot()
	require.Len(t, messages, 1)
	require.Len(t, responses, 1)
	assert.Equal(t, "good", responses[0].Provider)
}

func TestSingleUsesFirstProviderByDefault(t *testing.T) {
	storage := &memoryStorage{}
	registry := provider.NewRegistryFromClients(
		&fixedClient{name: "first", tokens: []string{"the first answer"}},
		&fixedClient{name: "second", tokens: []string{"the second answer"}},
	)
	orchestrator := New(storage, registry, broadcast.NewRegistry(), testConfig())

	orchestrator.ProcessMessage(context.Background(), "chat_1", "msg_user", "hello", ModeSingle)

	messages, responses := storage.snapshot()
	require.Len(t, messages, 1)
	assert.Equal(t, "the first answer", messages[0].Content)
	require.Len(t, responses, 1)
	assert.Equal(t, "first", responses[0].Provider)
}

func TestSingleHonorsConfiguredProvider(t *testing.T) {
	storage := &memoryStorage{}
	registry := provider.NewRegistryFromClients(
		&fixedClient{name: "first", tokens: []string{"the first answer"}},
		&fixedClient{name: "second", tokens: []string{"the second answer"}},
	)
	config := testConfig()
	config.SingleProvider = "second"
	orchestrator := New(storage, registry, broadcast.NewRegistry(), config)

	orchestrator.ProcessMessage(context.Background(), "chat_1", "msg_user", "hello", ModeSingle)

	messages, _ := storage.snapshot()
	require.Len(t, messages, 1)
	assert.Equal(t, "the second answer", messages[0].Content)
}

func TestSingleFailurePersistsNothing(t *testing.T) {
	storage := &memoryStorage{}
	registry := provider.NewRegistryFromClients(
		&fixedClient{name: "only", err: errors.New("down")},
	)
	broadcaster := broadcast.NewRegistry()
	sub := &collectingSubscriber{}
	broadcaster.Subscribe("chat_1", sub)
	orchestrator := New(storage, registry, broadcaster, testConfig())

	orchestrator.ProcessMessage(context.Background(), "chat_1", "msg_user", "hello", ModeSingle)

	messages, responses := storage.snapshot()
	assert.Empty(t, messages)
	assert.Empty(t, responses)

	events := sub.recorded()
	require.Len(t, events, 1)
	assert.True(t, events[0].Done)
	assert.Equal(t, "Error from only: down", events[0].Token)
}

func TestParseModeDefaultsToAggregate(t *testing.T) {
	assert.Equal(t, ModeSingle, ParseMode("single"))
	assert.Equal(t, ModeMultiple, ParseMode("multiple"))
	assert.Equal(t, ModeAggregate, ParseMode("aggregate"))
	assert.Equal(t, ModeAggregate, ParseMode(""))
	assert.Equal(t, ModeAggregate, ParseMode("bogus"))
}

func TestProviderTimeoutProducesErrorResponse(t *testing.T) {
	storage := &memoryStorage{}
	slow := provider.NewStubClientWithDelay("slow", time.Hour)
	registry := provider.NewRegistryFromClients(slow)
	config := testConfig()
	config.ProviderTimeout = 20 * time.Millisecond
	orchestrator := New(storage, registry, broadcast.NewRegistry(), config)

	orchestrator.ProcessMessage(context.Background(), "chat_1", "msg_user", "hello", ModeAggregate)

	_, responses := storage.snapshot()
	require.Len(t, responses, 1)
	assert.Contains(t, responses[0].Content, "Error from slow:")
}
