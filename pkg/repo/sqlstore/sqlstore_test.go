package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pr0ta9/Genesis-sub000/pkg/state"
)

func openTestDB(t *testing.T) *chatSuite {
	t.Helper()
	db, err := Open(context.Background(), "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &chatSuite{
		chats:    NewChatStore(db),
		messages: NewMessageStore(db),
		states:   NewStateStore(db),
	}
}

type chatSuite struct {
	chats    *ChatStore
	messages *MessageStore
	states   *StateStore
}

func TestChatCRUD(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	chat, err := s.chats.Create(ctx, "first chat")
	require.NoError(t, err)
	assert.NotEmpty(t, chat.ID)

	got, err := s.chats.Get(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "first chat", got.Title)

	require.NoError(t, s.chats.Update(ctx, chat.ID, "renamed"))
	got, err = s.chats.Get(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)

	list, err := s.chats.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.chats.Delete(ctx, chat.ID))
	_, err = s.chats.Get(ctx, chat.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMessageCreateAndAtomicUpdate(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	chat, err := s.chats.Create(ctx, "c")
	require.NoError(t, err)

	msg, err := s.messages.Create(ctx, Message{
		ChatID:  chat.ID,
		Role:    "user",
		Content: "hello",
		Type:    MessageTypeResponse,
	})
	require.NoError(t, err)

	err = s.messages.UpdateMessage(ctx, msg.ID, func(m *Message) {
		m.Content = "hello, edited"
		m.StateID = "state-123"
	})
	require.NoError(t, err)

	got, err := s.messages.Get(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello, edited", got.Content)
	assert.Equal(t, "state-123", got.StateID)
}

func TestStateRepoRoundTrip(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	chat, err := s.chats.Create(ctx, "c")
	require.NoError(t, err)
	msg, err := s.messages.Create(ctx, Message{ChatID: chat.ID, Role: "user", Content: "hi", Type: MessageTypeResponse})
	require.NoError(t, err)

	conv := state.ConversationState{Node: state.NodeClassify, Objective: "translate image text"}
	uid, err := s.states.CreateState(ctx, msg.ID, conv)
	require.NoError(t, err)
	assert.NotEmpty(t, uid)

	got, err := s.states.GetByMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "translate image text", got.Objective)

	conv.Objective = "updated objective"
	require.NoError(t, s.states.UpdateState(ctx, uid, conv))

	got, err = s.states.GetByMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "updated objective", got.Objective)
}
