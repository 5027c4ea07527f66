package graph

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pr0ta9/Genesis-sub000/pkg/checkpoint"
	"github.com/pr0ta9/Genesis-sub000/pkg/executor"
	"github.com/pr0ta9/Genesis-sub000/pkg/llm"
	"github.com/pr0ta9/Genesis-sub000/pkg/pathgen"
	"github.com/pr0ta9/Genesis-sub000/pkg/state"
	"github.com/pr0ta9/Genesis-sub000/pkg/toolspec"
	"github.com/pr0ta9/Genesis-sub000/pkg/vectorstore"
	"github.com/pr0ta9/Genesis-sub000/pkg/workflow"
)

// fakeLLM returns a canned JSON response keyed by opts.SchemaName, so
// each test can script exactly what each node's LLM call decides without
// a real provider.
type fakeLLM struct {
	responses map[string]string
}

func (f *fakeLLM) Chat(ctx context.Context, messages []llm.Message, opts llm.Options) (llm.Result, error) {
	body, ok := f.responses[opts.SchemaName]
	if !ok {
		return llm.Result{}, assert.AnError
	}
	if opts.OnToken != nil {
		opts.OnToken(body)
	}
	return llm.Result{Content: body}, nil
}

type fakeVectorStore struct {
	matches []vectorstore.Match
}

func (f *fakeVectorStore) Search(ctx context.Context, query string, limit int) ([]vectorstore.Match, error) {
	return f.matches, nil
}
func (f *fakeVectorStore) Save(ctx context.Context, p vectorstore.Precedent) (string, error) {
	return p.UID, nil
}
func (f *fakeVectorStore) Delete(ctx context.Context, uids []string) error { return nil }
func (f *fakeVectorStore) ListAll(ctx context.Context) ([]vectorstore.Precedent, error) {
	return nil, nil
}

type fakeLister struct {
	tools []toolspec.ToolMetadata
}

func (f *fakeLister) ListByInputType(tag workflow.Type) []toolspec.ToolMetadata {
	var out []toolspec.ToolMetadata
	for _, t := range f.tools {
		if in, err := t.InputType(); err == nil && in == tag {
			out = append(out, t)
		}
	}
	return out
}

func translateTool() toolspec.ToolMetadata {
	return toolspec.ToolMetadata{
		Name:         "translate",
		InputKey:     "text_data",
		OutputKey:    "return",
		InputParams:  []string{"text_data", "target_lang"},
		OutputParams: []string{"return"},
		ParamTypes:   map[string]string{"text_data": "Text", "target_lang": "Text", "return": "Text"},
		DefaultParams: map[string]any{
			"target_lang": "en",
		},
	}
}

func newTestDeps(t *testing.T, llmClient llm.LLMClient, vector vectorstore.VectorStore, tools []toolspec.ToolMetadata) *Deps {
	root := t.TempDir()
	invoke := func(moduleRef, fn string, args map[string]any) (map[string]any, error) {
		return map[string]any{"return": "translated"}, nil
	}
	ex := executor.New(executor.Config{ProjectRoot: root, IsolationMode: executor.IsolationNone, InProcess: invoke})
	ckpt, err := checkpoint.NewManager(&checkpoint.Config{})
	require.NoError(t, err)

	return &Deps{
		LLM:         llmClient,
		Vector:      vector,
		PathGen:     pathgen.New(&fakeLister{tools: tools}),
		Executor:    ex,
		Checkpoints: ckpt,
	}
}

func collect(t *testing.T, seq func(func(*Event, error) bool)) []*Event {
	var events []*Event
	seq(func(e *Event, err error) bool {
		events = append(events, e)
		return true
	})
	return events
}

func TestRunTrivialRoundTrip(t *testing.T) {
	classify := mustJSON(t, map[string]any{
		"objective": "greet the user", "input_type": "Text", "output_type": "Text",
		"is_complex": false, "reasoning": "just a greeting",
	})
	finalize := mustJSON(t, map[string]any{
		"response": "Hi", "is_complete": true, "summary": "said hi", "reasoning": "done",
	})

	fl := &fakeLLM{responses: map[string]string{"classify_result": classify, "finalize_result": finalize}}
	deps := newTestDeps(t, fl, &fakeVectorStore{}, nil)
	g := New(deps)

	conv := state.ConversationState{Messages: []state.Message{{Role: state.RoleUser, Content: "Say hi"}}}
	events := collect(t, g.Run(context.Background(), RunContext{ThreadID: "t1", ChatID: "c1", MessageID: "m1"}, conv))

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, EventDone, last.Type)
	assert.Equal(t, "Hi", last.Conversation.Response)
	assert.True(t, last.Conversation.IsComplete)

	var sawFindPath bool
	for _, e := range events {
		if e.Node == state.NodeFindPath || e.Node == state.NodeRoute || e.Node == state.NodeExecute {
			sawFindPath = true
		}
	}
	assert.False(t, sawFindPath, "trivial request must bypass find_path/route/execute")
}

func TestRunClarificationInterruptsAndResumes(t *testing.T) {
	classify := mustJSON(t, map[string]any{
		"objective": "", "input_type": "", "output_type": "",
		"is_complex": false, "reasoning": "unclear", "clarification_question": "what file?",
	})
	fl := &fakeLLM{responses: map[string]string{"classify_result": classify}}
	deps := newTestDeps(t, fl, &fakeVectorStore{}, nil)
	g := New(deps)

	conv := state.ConversationState{Messages: []state.Message{{Role: state.RoleUser, Content: "process my file"}}}
	events := collect(t, g.Run(context.Background(), RunContext{ThreadID: "t2", ChatID: "c1", MessageID: "m2"}, conv))

	last := events[len(events)-1]
	assert.Equal(t, EventInterrupt, last.Type)
	assert.Equal(t, state.NodeClassify, last.RequestingNode)
	assert.Equal(t, "what file?", last.Question)

	resumed, err := deps.Checkpoints.Resume(context.Background(), "t2", "translate the uploaded png to English")
	require.NoError(t, err)
	assert.Equal(t, state.NodeClassify, resumed.NextNode)
	assert.Equal(t, "translate the uploaded png to English", resumed.Messages[len(resumed.Messages)-1].Content)
}

func TestRunSingleToolPipeline(t *testing.T) {
	classify := mustJSON(t, map[string]any{
		"objective": "translate the text", "input_type": "Text", "output_type": "Text",
		"is_complex": true, "reasoning": "needs translate tool",
	})
	route := mustJSON(t, map[string]any{
		"steps": []map[string]any{
			{"name": "translate", "param_values": map[string]any{"text_data": "hello"}},
		},
		"reasoning": "single translate step",
	})
	finalize := mustJSON(t, map[string]any{
		"response": "translated", "is_complete": true, "summary": "translated text", "reasoning": "done",
	})

	fl := &fakeLLM{responses: map[string]string{
		"classify_result": classify,
		"route_result":    route,
		"finalize_result": finalize,
	}}
	deps := newTestDeps(t, fl, &fakeVectorStore{}, []toolspec.ToolMetadata{translateTool()})
	g := New(deps)

	conv := state.ConversationState{Messages: []state.Message{{Role: state.RoleUser, Content: "translate hello"}}}
	events := collect(t, g.Run(context.Background(), RunContext{ThreadID: "t3", ChatID: "c1", MessageID: "m3"}, conv))

	last := events[len(events)-1]
	require.Equal(t, EventDone, last.Type)
	assert.Equal(t, []string{"translate"}, last.Conversation.ExecutionResults.ExecutionPath)
	assert.True(t, last.Conversation.ExecutionResults.Success)
}

func mustJSON(t *testing.T, v any) string {
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
