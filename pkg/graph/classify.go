package graph

import (
	"context"

	"github.com/pr0ta9/Genesis-sub000/pkg/state"
	"github.com/pr0ta9/Genesis-sub000/pkg/workflow"
)

// classifyResult is the LLM's structured read of the user's request.
type classifyResult struct {
	Objective             string `json:"objective"`
	InputType             string `json:"input_type"`
	OutputType            string `json:"output_type"`
	IsComplex             bool   `json:"is_complex"`
	Reasoning             string `json:"reasoning"`
	ClarificationQuestion string `json:"clarification_question"`
}

const classifySystemPrompt = `You are classifying a user's request for a tool-orchestrating assistant. State the objective in one sentence, and name the input_type and output_type of the data involved using the system's WorkflowType vocabulary (e.g. Text, ImageFile, AudioFile, VideoFile). Set is_complex to true only when reaching output_type from input_type plausibly needs more than one tool. If the request is ambiguous about what the user wants or what data they're giving you, leave clarification_question with a question to ask instead of guessing.`

// classifyNode turns the latest user message into an objective, an input
// and target output WorkflowType, and a complexity verdict that decides
// whether find_path runs at all.
func classifyNode(ctx context.Context, conv state.ConversationState, nc *nodeCtx) (state.Patch, error) {
	var res classifyResult
	if err := callStructured(ctx, nc, state.NodeClassify, "classify_result", classifySystemPrompt, conv, classifyResult{}, &res); err != nil {
		return state.Patch{}, err
	}

	if res.ClarificationQuestion != "" {
		return state.Patch{
			Node:                   state.StrPtr(state.NodeClassify),
			NextNode:               state.StrPtr(state.NodeWaitingForFeedback),
			Objective:              state.StrPtr(res.Objective),
			ClassifyReasoning:      state.StrPtr(res.Reasoning),
			ClassifyClarification:  state.StrPtr(res.ClarificationQuestion),
		}, nil
	}

	inputType, err := workflow.ParseType(res.InputType)
	if err != nil {
		return state.Patch{}, err
	}
	outputType, err := workflow.ParseType(res.OutputType)
	if err != nil {
		return state.Patch{}, err
	}

	next := state.NodeFinalize
	if res.IsComplex {
		next = state.NodeFindPath
	}

	return state.Patch{
		Node:              state.StrPtr(state.NodeClassify),
		NextNode:          state.StrPtr(next),
		Objective:         state.StrPtr(res.Objective),
		InputType:         state.TypePtr(inputType),
		TypeSavepoint:     []workflow.Type{outputType},
		IsComplex:         state.BoolPtr(res.IsComplex),
		ClassifyReasoning: state.StrPtr(res.Reasoning),
	}, nil
}
