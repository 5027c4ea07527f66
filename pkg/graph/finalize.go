package graph

import (
	"context"
	"fmt"

	"github.com/pr0ta9/Genesis-sub000/pkg/state"
)

// finalizeResult is the LLM's user-facing wrap-up of the run so far.
type finalizeResult struct {
	Response   string `json:"response"`
	IsComplete bool   `json:"is_complete"`
	Summary    string `json:"summary"`
	Reasoning  string `json:"reasoning"`
}

const finalizeSystemPrompt = `You are writing the final reply to the user given the conversation and, if any tools ran, their execution results. If execution failed, explain plainly what went wrong and what the user could try instead, and set is_complete to true (there is nothing further to attempt automatically). If the plan was only partially executed and more steps remain, set is_complete to false so the pipeline can continue. Otherwise report the outcome and set is_complete to true. Always include summary, a short note of what was accomplished.`

// finalizeNode composes the user-facing response from execution results
// (or a classify-only conversation, or a find_path failure) and decides
// whether the run is done or needs another pass through find_path.
func finalizeNode(ctx context.Context, conv state.ConversationState, nc *nodeCtx) (state.Patch, error) {
	if conv.ErrorDetails != nil && conv.Node == state.NodeFindPath {
		msg := "I couldn't find a way to turn what you gave me into what you're asking for: " + conv.ErrorDetails.Message
		return state.Patch{
			Node:              state.StrPtr(state.NodeFinalize),
			NextNode:          state.StrPtr(state.END),
			Response:          state.StrPtr(msg),
			IsComplete:        state.BoolPtr(true),
			FinalizeReasoning: state.StrPtr("find_path produced no candidate pipeline"),
		}, nil
	}

	scratch := conv
	if summary := executionSummaryFor(conv); summary != "" {
		scratch.Messages = append(append([]state.Message(nil), conv.Messages...), state.Message{Role: state.RoleSystem, Content: summary})
	}

	var res finalizeResult
	if err := callStructured(ctx, nc, state.NodeFinalize, "finalize_result", finalizeSystemPrompt, scratch, finalizeResult{}, &res); err != nil {
		return state.Patch{}, err
	}

	next := state.NodeFindPath
	if res.IsComplete && !conv.IsPartial {
		next = state.END
	}

	return state.Patch{
		Node:              state.StrPtr(state.NodeFinalize),
		NextNode:          state.StrPtr(next),
		Response:          state.StrPtr(res.Response),
		IsComplete:        state.BoolPtr(res.IsComplete),
		Summary:           state.StrPtr(res.Summary),
		FinalizeReasoning: state.StrPtr(res.Reasoning),
	}, nil
}

// executionSummaryFor renders execution_results into a short system note
// the finalize prompt can reason over, since historyMessages only carries
// the user-visible conversation.
func executionSummaryFor(conv state.ConversationState) string {
	if conv.ExecutionResults == nil {
		return ""
	}
	r := conv.ExecutionResults
	if !r.Success && r.ErrorInfo != nil {
		return fmt.Sprintf("Execution failed at tool %q: %s. Steps completed: %v.", r.ErrorInfo.ToolName, r.ErrorInfo.Message, r.ExecutionPath)
	}
	return fmt.Sprintf("Execution succeeded. Steps run: %v. Final output: %v.", r.ExecutionPath, r.FinalOutput)
}
