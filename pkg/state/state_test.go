package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pr0ta9/Genesis-sub000/pkg/workflow"
)

func TestPatchMessagesAppendNotReplace(t *testing.T) {
	s := &ConversationState{Messages: []Message{{Role: RoleUser, Content: "hi"}}}
	Patch{Messages: []Message{{Role: RoleAssistant, Content: "hello"}}}.Apply(s)
	require.Len(t, s.Messages, 2)
	assert.Equal(t, "hi", s.Messages[0].Content)
	assert.Equal(t, "hello", s.Messages[1].Content)
}

func TestPatchTypeSavepointAdditive(t *testing.T) {
	s := &ConversationState{TypeSavepoint: []workflow.Type{workflow.StructuredData}}
	Patch{TypeSavepoint: []workflow.Type{workflow.Text}}.Apply(s)
	assert.Equal(t, []workflow.Type{workflow.StructuredData, workflow.Text}, s.TypeSavepoint)

	target, ok := s.CurrentTarget()
	require.True(t, ok)
	assert.Equal(t, workflow.Text, target)
}

func TestPatchScalarFieldsReplace(t *testing.T) {
	s := &ConversationState{Node: NodeClassify}
	Patch{Node: StrPtr(NodeFindPath)}.Apply(s)
	assert.Equal(t, NodeFindPath, s.Node)
}

func TestPushSavepointDirect(t *testing.T) {
	s := &ConversationState{}
	s.PushSavepoint(workflow.ImageFile)
	s.PushSavepoint(workflow.StructuredData)
	assert.Equal(t, []workflow.Type{workflow.ImageFile, workflow.StructuredData}, s.TypeSavepoint)
}
