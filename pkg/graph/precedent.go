package graph

import (
	"context"

	"github.com/pr0ta9/Genesis-sub000/pkg/state"
	"github.com/pr0ta9/Genesis-sub000/pkg/vectorstore"
)

// precedentSelection is the LLM's verdict on the candidates surfaced by
// the vector search: either a chosen uid, a clarifying question, or
// neither (meaning: none of the candidates fit, fall through to classify).
type precedentSelection struct {
	ChosenUID             string `json:"chosen_uid"`
	ClarificationQuestion string `json:"clarification_question"`
	Reasoning             string `json:"reasoning"`
}

const precedentSystemPrompt = `You are deciding whether a past solved task matches the user's current request closely enough to reuse its plan. You will be given the conversation and a list of candidate precedents with their stored objectives. Pick the single best match by its uid in chosen_uid if one clearly fits. If you need more information from the user to decide, set clarification_question. If none of the candidates genuinely fit, leave both chosen_uid and clarification_question empty. Always fill reasoning.`

// precedentNode extracts the latest user text, searches the precedent
// store for close matches, and either reuses one, asks a clarifying
// question, or falls through to classify.
func precedentNode(ctx context.Context, conv state.ConversationState, nc *nodeCtx) (state.Patch, error) {
	text := latestUserText(conv)
	if text == "" {
		return state.Patch{Node: state.StrPtr(state.NodePrecedent), NextNode: state.StrPtr(state.NodeClassify)}, nil
	}

	matches, err := nc.deps.Vector.Search(ctx, text, precedentCandidateLimit)
	if err != nil {
		return state.Patch{}, err
	}

	candidates := make([]state.PrecedentCandidate, 0, len(matches))
	byUID := make(map[string]vectorstore.Precedent, len(matches))
	for _, m := range matches {
		if m.Similarity < precedentSimilarityThreshold {
			continue
		}
		byUID[m.Precedent.UID] = m.Precedent
		candidates = append(candidates, state.PrecedentCandidate{UID: m.Precedent.UID, Similarity: m.Similarity})
	}

	if len(candidates) == 0 {
		return state.Patch{
			Node:            state.StrPtr(state.NodePrecedent),
			NextNode:        state.StrPtr(state.NodeClassify),
			PrecedentsFound: candidates,
		}, nil
	}

	prompt := precedentPromptFor(byUID)
	scratch := conv
	scratch.Messages = append(append([]state.Message(nil), conv.Messages...), state.Message{Role: state.RoleSystem, Content: prompt})

	var sel precedentSelection
	if err := callStructured(ctx, nc, state.NodePrecedent, "precedent_selection", precedentSystemPrompt, scratch, precedentSelection{}, &sel); err != nil {
		return state.Patch{}, err
	}

	if sel.ClarificationQuestion != "" {
		return state.Patch{
			Node:                    state.StrPtr(state.NodePrecedent),
			NextNode:                state.StrPtr(state.NodeWaitingForFeedback),
			PrecedentsFound:         candidates,
			PrecedentReasoning:      state.StrPtr(sel.Reasoning),
			PrecedentClarification:  state.StrPtr(sel.ClarificationQuestion),
		}, nil
	}

	p, chosen := byUID[sel.ChosenUID]
	if sel.ChosenUID == "" || !chosen {
		return state.Patch{
			Node:               state.StrPtr(state.NodePrecedent),
			NextNode:           state.StrPtr(state.NodeClassify),
			PrecedentsFound:    candidates,
			PrecedentReasoning: state.StrPtr(sel.Reasoning),
		}, nil
	}

	return state.Patch{
		Node:               state.StrPtr(state.NodePrecedent),
		NextNode:           state.StrPtr(state.NodeRoute),
		PrecedentsFound:    candidates,
		PrecedentReasoning: state.StrPtr(sel.Reasoning),
		ChosenPrecedent:    state.StrPtr(p.UID),
		Objective:          state.StrPtr(p.Objective),
		InputType:          state.TypePtr(p.InputType),
		TypeSavepoint:      p.TypeSavepoint,
		ToolMetadata:       p.ToolMetadata,
		ChosenPath:         p.ChosenPath,
	}, nil
}

func precedentPromptFor(byUID map[string]vectorstore.Precedent) string {
	s := "Candidates:\n"
	for uid, p := range byUID {
		s += "- uid=" + uid + " objective=" + p.Objective + "\n"
	}
	return s
}
