package graph

import (
	"context"
	"strings"
	"time"

	"github.com/pr0ta9/Genesis-sub000/pkg/state"
)

// executeNode runs the chosen pipeline through the Process-Isolated
// Executor, streaming each step's stdout/stderr as tool-line events.
func executeNode(ctx context.Context, conv state.ConversationState, nc *nodeCtx) (state.Patch, error) {
	names := make([]string, len(conv.ChosenPath))
	for i, step := range conv.ChosenPath {
		names[i] = step.Tool.Name
	}
	label := strings.Join(names, "+")

	start := time.Now()
	result, err := nc.deps.Executor.ExecutePath(ctx, conv.ChosenPath, nc.ChatID, nc.MessageID, nc.toolSink(state.NodeExecute))
	if err != nil {
		nc.deps.Metrics.RecordToolCall(label, time.Since(start), true)
		return state.Patch{}, err
	}
	nc.deps.Metrics.RecordToolCall(label, time.Since(start), !result.Success)

	results := &state.ExecutionResults{
		Success:        result.Success,
		ExecutionPath:  result.ExecutionPath,
		StepsCompleted: result.StepsCompleted,
		FinalOutput:    result.FinalOutput,
		Metadata:       result.Metadata,
	}
	if result.ErrorInfo != nil {
		results.ErrorInfo = &state.ErrorInfo{
			ToolName:        result.ErrorInfo.ToolName,
			Message:         result.ErrorInfo.Message,
			ExecutionFailed: result.ErrorInfo.ExecutionFailed,
		}
	}

	return state.Patch{
		Node:                state.StrPtr(state.NodeExecute),
		NextNode:            state.StrPtr(state.NodeFinalize),
		ExecutionResults:    results,
		ExecutionInstance:   state.StrPtr(nc.MessageID),
		ExecutionOutputPath: state.StrPtr(executionOutputPath(nc.RunContext)),
	}, nil
}

func executionOutputPath(rc RunContext) string {
	return "outputs/" + rc.ChatID + "/" + rc.MessageID
}
