package sqlite

import (
	"context"
	"testing"
	"time"

	"chorus/domain"
	"chorus/srv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistAndGetMessage(t *testing.T) {
	storage := NewTestSqliteStorage(t, "message_test")
	ctx := context.Background()

	message := domain.Message{
		Id:      "msg_1",
		ChatId:  "chat_1",
		Content: "Hello there",
		IsUser:  true,
		Created: time.Now().UTC(),
	}

	err := storage.PersistMessage(ctx, message)
	require.NoError(t, err)

	retrieved, err := storage.GetMessage(ctx, "chat_1", "msg_1")
	require.NoError(t, err)
	assert.Equal(t, message.Content, retrieved.Content)
	assert.True(t, retrieved.IsUser)
}

func TestGetMessageWrongChat(t *testing.T) {
	storage := NewTestSqliteStorage(t, "message_test")
	ctx := context.Background()

	message := domain.Message{
		Id:      "msg_1",
		ChatId:  "chat_1",
		Content: "Hello there",
		IsUser:  true,
		Created: time.Now().UTC(),
	}
	require.NoError(t, storage.PersistMessage(ctx, message))

	// The message exists but not under this chat
	_, err := storage.GetMessage(ctx, "chat_other", "msg_1")
	assert.ErrorIs(t, err, srv.ErrNotFound)
}

func TestGetMessagesOrdered(t *testing.T) {
	storage := NewTestSqliteStorage(t, "message_test")
	ctx := context.Background()

	base := time.Now().UTC()
	for i, content := range []string{"first", "second", "third"} {
		message := domain.Message{
			Id:      "msg_" + content,
			ChatId:  "chat_1",
			Content: content,
			IsUser:  i%2 == 0,
			Created: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, storage.PersistMessage(ctx, message))
	}

	messages, err := storage.GetMessages(ctx, "chat_1")
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "second", messages[1].Content)
	assert.Equal(t, "third", messages[2].Content)
}
