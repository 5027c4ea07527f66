// Package graph implements the Agent Graph: the fixed set of nodes and
// data-driven edges that turn one user message into a plan, an executed
// tool pipeline, and a final response.
package graph

import (
	"context"

	"github.com/pr0ta9/Genesis-sub000/pkg/checkpoint"
	"github.com/pr0ta9/Genesis-sub000/pkg/executor"
	"github.com/pr0ta9/Genesis-sub000/pkg/llm"
	"github.com/pr0ta9/Genesis-sub000/pkg/observability"
	"github.com/pr0ta9/Genesis-sub000/pkg/pathgen"
	"github.com/pr0ta9/Genesis-sub000/pkg/state"
	"github.com/pr0ta9/Genesis-sub000/pkg/vectorstore"
)

// precedentSimilarityThreshold is the minimum similarity score a
// candidate needs to be offered to the LLM in the precedent node.
const precedentSimilarityThreshold = 0.75

// precedentCandidateLimit bounds how many candidates the precedent node
// asks the vector store for.
const precedentCandidateLimit = 3

// Deps are the process-wide collaborators every node reaches through,
// built once at startup and shared read-only across concurrent runs.
type Deps struct {
	LLM         llm.LLMClient
	Vector      vectorstore.VectorStore
	PathGen     *pathgen.Generator
	Executor    *executor.Executor
	Checkpoints *checkpoint.Manager

	// Metrics is optional; a nil value disables recording entirely and
	// every call site on it is a safe no-op.
	Metrics *observability.Metrics

	// Tokens is optional; when set, every LLM-backed node trims the
	// conversation history to TokenBudget tokens (oldest messages first)
	// before sending it. A nil value skips trimming entirely.
	Tokens      *llm.TokenCounter
	TokenBudget int
}

// RunContext identifies one graph run: which thread/chat/message it
// belongs to, for checkpointing, precedent saving and workspace layout.
type RunContext struct {
	ThreadID  string
	ChatID    string
	MessageID string
}

// nodeCtx is the per-node execution context: RunContext plus Deps plus
// the emit callback a node uses for sub-node events (LLM token chunks,
// tool stdout/stderr lines) that must interleave with, rather than wait
// behind, the node's own completion.
type nodeCtx struct {
	RunContext
	deps *Deps
	emit func(Event)
}

func (n *nodeCtx) emitToken(node, token string) {
	n.emit(Event{Type: EventToken, Node: node, Token: token})
}

func (n *nodeCtx) toolSink(node string) executor.EventSink {
	return toolSink{nc: n, node: node}
}

// toolSink adapts nodeCtx.emit to executor.EventSink so the execute node
// can stream subprocess lines as graph events without executor importing
// this package.
type toolSink struct {
	nc   *nodeCtx
	node string
}

func (s toolSink) OnStdout(stepName, toolName, line string) {
	s.nc.emit(Event{Type: EventToolLine, Node: s.node, ToolName: toolName, Stream: "stdout", Line: line})
}

func (s toolSink) OnStderr(stepName, toolName, line string) {
	s.nc.emit(Event{Type: EventToolLine, Node: s.node, ToolName: toolName, Stream: "stderr", Line: line})
}

// nodeFunc is the shape of every node: read the current state, return a
// patch. Nodes never mutate conv directly; every effect flows through the
// returned state.Patch, which the graph loop applies and checkpoints.
type nodeFunc func(ctx context.Context, conv state.ConversationState, nc *nodeCtx) (state.Patch, error)
