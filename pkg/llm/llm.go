// Package llm defines the LLMClient boundary consumed by the Agent
// Graph's classify/route/finalize/precedent nodes, plus a go-openai
// backed implementation.
package llm

import (
	"context"
	"fmt"
)

// Role is the sender of one chat message in an LLM request.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation sent to the provider.
type Message struct {
	Role    Role
	Content string
}

// TokenFunc receives one incremental content chunk, in provider order, as
// it streams in. Reasoning chunks (when the model supports them) arrive
// through Options.OnReasoning instead.
type TokenFunc func(chunk string)

// Options configures one Chat call.
type Options struct {
	// Schema, when non-nil, constrains the response to the JSON Schema
	// generated from this Go value's type (see invopop/jsonschema).
	// SchemaName labels the schema for providers that require a name.
	Schema     any
	SchemaName string

	Temperature float32

	OnToken     TokenFunc
	OnReasoning TokenFunc
}

// Result is what callers get back from Chat: the assembled content, plus
// any reasoning/thinking trace the provider surfaced alongside it.
type Result struct {
	Content   string
	Reasoning string
}

// LLMClient is the provider-agnostic boundary the graph nodes call
// through; exactly one concrete implementation (OpenAIClient) is wired
// in production.
type LLMClient interface {
	Chat(ctx context.Context, messages []Message, opts Options) (Result, error)
}

// Error wraps a provider failure, matching the LLMError kind from the
// error taxonomy: upstream LLM call failed, propagated as the run's
// error.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("llm: %s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
