package checkpoint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pr0ta9/Genesis-sub000/pkg/state"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	cfg := &Config{}
	m, err := NewManager(cfg)
	require.NoError(t, err)

	conv := state.ConversationState{Node: state.NodeClassify, Objective: "translate image"}
	require.NoError(t, m.Save(context.Background(), "thread-1", conv))

	loaded, err := m.Load(context.Background(), "thread-1")
	require.NoError(t, err)
	assert.Equal(t, PhaseRunning, loaded.Phase)
	assert.Equal(t, "translate image", loaded.Conversation.Objective)
}

func TestSaveInterruptedAndResume(t *testing.T) {
	m, err := NewManager(&Config{})
	require.NoError(t, err)

	conv := state.ConversationState{Node: state.NodeClassify}
	require.NoError(t, m.SaveInterrupted(context.Background(), "thread-2", conv, state.NodeClassify, "which language?"))

	resumed, err := m.Resume(context.Background(), "thread-2", "Japanese to English")
	require.NoError(t, err)
	assert.Equal(t, state.NodeClassify, resumed.NextNode)
	require.Len(t, resumed.Messages, 1)
	assert.Equal(t, "Japanese to English", resumed.Messages[0].Content)
}

func TestResumeRejectsNonInterruptedCheckpoint(t *testing.T) {
	m, err := NewManager(&Config{})
	require.NoError(t, err)

	require.NoError(t, m.Save(context.Background(), "thread-3", state.ConversationState{}))
	_, err = m.Resume(context.Background(), "thread-3", "feedback")
	require.Error(t, err)
}

func TestCompleteClearsCheckpoint(t *testing.T) {
	m, err := NewManager(&Config{})
	require.NoError(t, err)

	require.NoError(t, m.Save(context.Background(), "thread-4", state.ConversationState{}))
	require.NoError(t, m.Complete(context.Background(), "thread-4"))

	_, err = m.Load(context.Background(), "thread-4")
	require.Error(t, err)
}

func TestFileStorageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(&Config{Backend: BackendFile, Directory: dir})
	require.NoError(t, err)

	conv := state.ConversationState{Node: state.NodeExecute}
	require.NoError(t, m.Save(context.Background(), "thread-5", conv))

	loaded, err := m.Load(context.Background(), "thread-5")
	require.NoError(t, err)
	assert.Equal(t, state.NodeExecute, loaded.Conversation.Node)
}
