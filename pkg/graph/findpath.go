package graph

import (
	"context"
	"fmt"

	"github.com/pr0ta9/Genesis-sub000/pkg/state"
	"github.com/pr0ta9/Genesis-sub000/pkg/toolspec"
)

// findPathNode asks the Path Generator for every candidate pipeline from
// the current input type to the current target, and exposes the
// deduplicated union of tools involved for the router's prompt.
func findPathNode(ctx context.Context, conv state.ConversationState, nc *nodeCtx) (state.Patch, error) {
	target, ok := conv.CurrentTarget()
	if !ok {
		return state.Patch{}, fmt.Errorf("graph: find_path: no type_savepoint entry to target")
	}

	paths := nc.deps.PathGen.FindAllPaths(conv.InputType, target)

	if len(paths) == 0 {
		return state.Patch{
			Node:         state.StrPtr(state.NodeFindPath),
			NextNode:     state.StrPtr(state.NodeFinalize),
			AllPaths:     paths,
			ErrorDetails: &state.ErrorDetails{Node: state.NodeFindPath, Message: fmt.Sprintf("no tool path found from %s to %s", conv.InputType, target)},
		}, nil
	}

	dedup := dedupeToolMetadata(paths)

	return state.Patch{
		Node:         state.StrPtr(state.NodeFindPath),
		NextNode:     state.StrPtr(state.NodeRoute),
		AllPaths:     paths,
		ToolMetadata: dedup,
	}, nil
}

// dedupeToolMetadata flattens every candidate path and keeps one entry
// per distinct tool name, in first-seen order, for the router's prompt.
func dedupeToolMetadata(paths [][]toolspec.ToolMetadata) []toolspec.ToolMetadata {
	seen := make(map[string]bool)
	var out []toolspec.ToolMetadata
	for _, path := range paths {
		for _, tool := range path {
			if seen[tool.Name] {
				continue
			}
			seen[tool.Name] = true
			out = append(out, tool)
		}
	}
	return out
}
