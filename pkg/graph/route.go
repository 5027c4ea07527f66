package graph

import (
	"context"
	"fmt"

	"github.com/pr0ta9/Genesis-sub000/pkg/state"
	"github.com/pr0ta9/Genesis-sub000/pkg/toolspec"
	"github.com/pr0ta9/Genesis-sub000/pkg/workflow"
)

// routeResult is the LLM's proposed pipeline plus its reasoning.
type routeResult struct {
	Steps                 []toolspec.SimplePathEntry `json:"steps"`
	Reasoning             string                     `json:"reasoning"`
	ClarificationQuestion string                     `json:"clarification_question"`
}

const routeSystemPrompt = `You are choosing a concrete sequence of tools to satisfy the user's objective, drawn strictly from the tool list you were given. For each step, name the tool and any param_values you can determine, including cross-step references of the form "${stepName.outputKey}" to feed one tool's output into the next. Leave a param_value unset only if you have no way to determine it and no default exists. If you cannot proceed without more information from the user, set clarification_question.`

// routeNode asks the LLM for a SimplePath, expands it against the tool
// metadata gathered by find_path, and decides whether the plan is
// complete, partial, or needs clarification.
func routeNode(ctx context.Context, conv state.ConversationState, nc *nodeCtx) (state.Patch, error) {
	byName := make(map[string]toolspec.ToolMetadata, len(conv.ToolMetadata))
	for _, t := range conv.ToolMetadata {
		byName[t.Name] = t
	}

	var res routeResult
	if err := callStructured(ctx, nc, state.NodeRoute, "route_result", routeSystemPrompt, conv, routeResult{}, &res); err != nil {
		return state.Patch{}, err
	}

	if res.ClarificationQuestion != "" {
		return state.Patch{
			Node:               state.StrPtr(state.NodeRoute),
			NextNode:           state.StrPtr(state.NodeWaitingForFeedback),
			RouteReasoning:     state.StrPtr(res.Reasoning),
			RouteClarification: state.StrPtr(res.ClarificationQuestion),
		}, nil
	}

	steps := make([]toolspec.PathStep, 0, len(res.Steps))
	for _, entry := range res.Steps {
		tool, ok := byName[entry.Name]
		if !ok {
			return state.Patch{}, fmt.Errorf("graph: route: llm chose unknown tool %q", entry.Name)
		}
		steps = append(steps, toolspec.PathStep{
			Tool:        tool,
			ParamValues: mergeParamValues(entry.ParamValues, tool.DefaultParams),
		})
	}

	gapIndex, hasGap := firstUnresolvableStep(steps)
	if !hasGap {
		return state.Patch{
			Node:           state.StrPtr(state.NodeRoute),
			NextNode:       state.StrPtr(state.NodeExecute),
			ChosenPath:     steps,
			RouteReasoning: state.StrPtr(res.Reasoning),
			IsPartial:      state.BoolPtr(false),
		}, nil
	}

	patch := state.Patch{
		Node:           state.StrPtr(state.NodeRoute),
		ChosenPath:     steps[:gapIndex],
		RouteReasoning: state.StrPtr(res.Reasoning),
		IsPartial:      state.BoolPtr(true),
	}

	if gapIndex == 0 {
		patch.NextNode = state.StrPtr(state.NodeWaitingForFeedback)
		return patch, nil
	}

	outType, err := steps[gapIndex-1].Tool.OutputType()
	if err != nil {
		return state.Patch{}, err
	}
	patch.TypeSavepoint = []workflow.Type{outType}
	patch.NextNode = state.StrPtr(state.NodeFindPath)
	return patch, nil
}

// mergeParamValues overlays the LLM-chosen values onto the tool's
// defaults, with the LLM's values winning.
func mergeParamValues(chosen, defaults map[string]any) map[string]any {
	out := make(map[string]any, len(defaults)+len(chosen))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range chosen {
		out[k] = v
	}
	return out
}

// firstUnresolvableStep returns the index of the first step with a
// required param that is empty/nil and has no declared default.
func firstUnresolvableStep(steps []toolspec.PathStep) (int, bool) {
	for i, step := range steps {
		for _, param := range step.Tool.InputParams {
			v, present := step.ParamValues[param]
			if present && !isEmptyValue(v) {
				continue
			}
			if _, hasDefault := step.Tool.DefaultParams[param]; hasDefault {
				continue
			}
			if _, _, isRef := toolspec.IsReference(v); isRef {
				continue
			}
			if required(step.Tool, param) {
				return i, true
			}
		}
	}
	return 0, false
}

func required(tool toolspec.ToolMetadata, param string) bool {
	if param == tool.InputKey {
		return true
	}
	for _, req := range tool.RequiredInputs {
		if req.Name == param {
			return true
		}
	}
	return false
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	return false
}
