package graph

import "github.com/pr0ta9/Genesis-sub000/pkg/state"

// EventType distinguishes the kinds of events a graph Run emits, mapping
// directly onto the NDJSON event types pkg/stream re-serializes:
// messages, updates, custom, error, persisted.
type EventType string

const (
	EventToken     EventType = "messages"
	EventUpdate    EventType = "updates"
	EventToolLine  EventType = "custom"
	EventError     EventType = "error"
	EventInterrupt EventType = "interrupt"
	EventDone      EventType = "done"
)

// Event is one item yielded by Graph.Run's iterator.
type Event struct {
	Type EventType

	// Node is the node that produced this event. It is empty for
	// EventDone and for an EventError not raised by a node; an
	// EventError from a failing node carries that node's name.
	Node string

	// Token carries one incremental LLM content chunk for EventToken.
	Token string

	// Conversation is a snapshot of state after the producing node's
	// patch has been applied, present on EventUpdate; on EventDone it is
	// the final state of the run.
	Conversation state.ConversationState

	// ToolName/Stream/Line populate EventToolLine, mirroring one line
	// read from a child process's stdout or stderr.
	ToolName string
	Stream   string // "stdout" | "stderr"
	Line     string

	// RequestingNode/Question populate EventInterrupt.
	RequestingNode string
	Question       string

	Err error
}
