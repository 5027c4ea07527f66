package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pr0ta9/Genesis-sub000/pkg/llm"
	"github.com/pr0ta9/Genesis-sub000/pkg/state"
)

// latestUserText returns the content of the most recent user message, or
// "" if none exists yet.
func latestUserText(conv state.ConversationState) string {
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		if conv.Messages[i].Role == state.RoleUser {
			return conv.Messages[i].Content
		}
	}
	return ""
}

// historyMessages converts the conversation so far into llm.Message,
// preserving role and order; used as context for every LLM-backed node.
func historyMessages(conv state.ConversationState) []llm.Message {
	out := make([]llm.Message, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		out = append(out, llm.Message{Role: llm.Role(m.Role), Content: m.Content})
	}
	return out
}

// callStructured sends system+history to the LLM constrained to schema,
// streaming content tokens through nc as they arrive, then unmarshals the
// assembled content into out. schemaName labels the call for providers
// that require one and for log lines.
func callStructured(ctx context.Context, nc *nodeCtx, node, schemaName, system string, conv state.ConversationState, schema, out any) error {
	history := historyMessages(conv)
	if nc.deps.Tokens != nil {
		history = nc.deps.Tokens.FitWithinBudget(history, nc.deps.TokenBudget)
	}
	messages := append([]llm.Message{{Role: llm.RoleSystem, Content: system}}, history...)

	start := time.Now()
	result, err := nc.deps.LLM.Chat(ctx, messages, llm.Options{
		Schema:     schema,
		SchemaName: schemaName,
		OnToken:    func(chunk string) { nc.emitToken(node, chunk) },
	})
	nc.deps.Metrics.RecordLLMCall(node, time.Since(start))
	if err != nil {
		return fmt.Errorf("graph: %s: llm call failed: %w", node, err)
	}
	if err := json.Unmarshal([]byte(result.Content), out); err != nil {
		return fmt.Errorf("graph: %s: unmarshaling structured response: %w", node, err)
	}
	return nil
}
