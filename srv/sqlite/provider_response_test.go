package sqlite

import (
	"context"
	"testing"
	"time"

	"chorus/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistAndGetProviderResponses(t *testing.T) {
	storage := NewTestSqliteStorage(t, "provider_response_test")
	ctx := context.Background()

	elapsed := int64(1234)
	base := time.Now().UTC()
	responses := []domain.ProviderResponse{
		{Id: "pr_1", MessageId: "msg_1", Provider: "openai", Content: "answer one", ResponseTimeMs: &elapsed, Created: base},
		{Id: "pr_2", MessageId: "msg_1", Provider: "groq", Content: "answer two", Created: base.Add(time.Second)},
		{Id: "pr_3", MessageId: "msg_other", Provider: "openai", Content: "unrelated", Created: base},
	}
	for _, response := range responses {
		require.NoError(t, storage.PersistProviderResponse(ctx, response))
	}

	retrieved, err := storage.GetProviderResponses(ctx, "msg_1")
	require.NoError(t, err)
	require.Len(t, retrieved, 2)
	assert.Equal(t, "openai", retrieved[0].Provider)
	require.NotNil(t, retrieved[0].ResponseTimeMs)
	assert.Equal(t, elapsed, *retrieved[0].ResponseTimeMs)
	assert.Equal(t, "groq", retrieved[1].Provider)
	assert.Nil(t, retrieved[1].ResponseTimeMs)
}

func TestGetProviderResponsesForChat(t *testing.T) {
	storage := NewTestSqliteStorage(t, "provider_response_test")
	ctx := context.Background()

	base := time.Now().UTC()
	userMsg := domain.Message{Id: "msg_user", ChatId: "chat_1", Content: "question", IsUser: true, Created: base}
	genMsg := domain.Message{Id: "msg_gen", ChatId: "chat_1", Content: "synthesized", IsUser: false, Created: base.Add(time.Second)}
	otherMsg := domain.Message{Id: "msg_other", ChatId: "chat_2", Content: "elsewhere", IsUser: false, Created: base}
	for _, message := range []domain.Message{userMsg, genMsg, otherMsg} {
		require.NoError(t, storage.PersistMessage(ctx, message))
	}

	for _, response := range []domain.ProviderResponse{
		{Id: "pr_1", MessageId: "msg_gen", Provider: "openai", Content: "a", Created: base},
		{Id: "pr_2", MessageId: "msg_gen", Provider: "gemini", Content: "b", Created: base.Add(time.Second)},
		{Id: "pr_3", MessageId: "msg_other", Provider: "openai", Content: "c", Created: base},
	} {
		require.NoError(t, storage.PersistProviderResponse(ctx, response))
	}

	retrieved, err := storage.GetProviderResponsesForChat(ctx, "chat_1")
	require.NoError(t, err)
	require.Len(t, retrieved, 2)
	assert.Equal(t, "openai", retrieved[0].Provider)
	assert.Equal(t, "gemini", retrieved[1].Provider)
}
