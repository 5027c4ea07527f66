// Package stream is the streaming boundary between the Agent Graph and
// the HTTP transport: it turns a graph.Event sequence into NDJSON lines
// and, once the run reaches a terminal state, persists the conversation
// and emits the closing "persisted" line.
package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pr0ta9/Genesis-sub000/pkg/graph"
	"github.com/pr0ta9/Genesis-sub000/pkg/repo/sqlstore"
	"github.com/pr0ta9/Genesis-sub000/pkg/state"
)

// Line is the wire shape of one NDJSON event: {"type": ..., "data": ...}.
type Line struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Event type strings, matching §6's HTTP surface exactly.
const (
	TypeMessages  = "messages"
	TypeUpdates   = "updates"
	TypeCustom    = "custom"
	TypeError     = "error"
	TypePersisted = "persisted"
)

// Writer streams Lines to an underlying http.ResponseWriter, flushing
// after every line so the client sees tokens and tool output as they
// happen rather than buffered until the response closes.
type Writer struct {
	w       *bufio.Writer
	flusher http.Flusher
}

// NewWriter sets the NDJSON response headers and wraps w. Returns an
// error if w doesn't support flushing, since buffering the whole run
// would defeat the point of streaming.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("stream: response writer does not support flushing")
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	return &Writer{w: bufio.NewWriter(w), flusher: flusher}, nil
}

func (s *Writer) WriteLine(typ string, data any) error {
	b, err := json.Marshal(Line{Type: typ, Data: data})
	if err != nil {
		return fmt.Errorf("stream: marshaling line: %w", err)
	}
	if _, err := s.w.Write(b); err != nil {
		return err
	}
	if _, err := s.w.WriteString("\n"); err != nil {
		return err
	}
	if err := s.w.Flush(); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Persisted is the terminal "persisted" line's payload: the final
// message ids and the state snapshot's uid, per §6.
type Persisted struct {
	MessageID string `json:"message_id"`
	StateUID  string `json:"state_uid"`
	Type      sqlstore.MessageType `json:"type"`
}

// Repos bundles the repositories the persistence step writes through.
type Repos struct {
	Messages sqlstore.MessageRepo
	States   sqlstore.StateRepo
}

// Run drives g.Run to completion, writing every event as an NDJSON line
// to w and persisting the terminal conversation snapshot through repos.
// chatID and messageID identify the in-flight assistant message being
// composed; Run fills in its content and type and attaches the saved
// state uid before returning. Its reasoning is left unset.
func Run(ctx context.Context, w *Writer, repos Repos, g *graph.Graph, rc graph.RunContext, conv state.ConversationState) error {
	for ev, err := range g.Run(ctx, rc, conv) {
		if err != nil {
			return w.WriteLine(TypeError, map[string]string{"message": err.Error()})
		}

		switch ev.Type {
		case graph.EventToken:
			if werr := w.WriteLine(TypeMessages, map[string]string{"node": ev.Node, "token": ev.Token}); werr != nil {
				return werr
			}
		case graph.EventUpdate:
			if werr := w.WriteLine(TypeUpdates, map[string]any{"node": ev.Node, "state": ev.Conversation}); werr != nil {
				return werr
			}
		case graph.EventToolLine:
			data := map[string]string{"node": ev.Node, "tool": ev.ToolName, "stream": ev.Stream, "line": ev.Line}
			if werr := w.WriteLine(TypeCustom, data); werr != nil {
				return werr
			}
		case graph.EventError:
			msg := ""
			if ev.Err != nil {
				msg = ev.Err.Error()
			}
			return w.WriteLine(TypeError, map[string]string{"message": msg})
		case graph.EventInterrupt:
			if werr := persistTurn(ctx, repos, rc, ev.Question, sqlstore.MessageTypeQuestion, w); werr != nil {
				return werr
			}
			return nil
		case graph.EventDone:
			msgType := sqlstore.MessageTypeResponse
			content := ev.Conversation.Response
			if content == "" && !ev.Conversation.IsComplete {
				msgType = sqlstore.MessageTypeQuestion
			}
			if werr := persistDone(ctx, repos, rc, ev.Conversation, content, msgType, w); werr != nil {
				return werr
			}
			return nil
		}
	}
	return nil
}

// persistTurn is used for the interrupt path, where conv isn't available
// (waiting_for_feedback itself carries no assistant response) — it
// writes the clarification question as the assistant turn.
func persistTurn(ctx context.Context, repos Repos, rc graph.RunContext, question string, msgType sqlstore.MessageType, w *Writer) error {
	uid, err := repos.States.CreateState(ctx, rc.MessageID, state.ConversationState{})
	if err != nil {
		return fmt.Errorf("stream: persisting interrupted state: %w", err)
	}
	if err := repos.Messages.UpdateMessage(ctx, rc.MessageID, func(m *sqlstore.Message) {
		m.Content = question
		m.Type = msgType
		m.StateID = uid
	}); err != nil {
		return fmt.Errorf("stream: updating message: %w", err)
	}
	return w.WriteLine(TypePersisted, Persisted{MessageID: rc.MessageID, StateUID: uid, Type: msgType})
}

func persistDone(ctx context.Context, repos Repos, rc graph.RunContext, conv state.ConversationState, content string, msgType sqlstore.MessageType, w *Writer) error {
	uid, err := repos.States.CreateState(ctx, rc.MessageID, conv)
	if err != nil {
		return fmt.Errorf("stream: persisting final state: %w", err)
	}
	if err := repos.Messages.UpdateMessage(ctx, rc.MessageID, func(m *sqlstore.Message) {
		m.Content = content
		m.Type = msgType
		m.StateID = uid
	}); err != nil {
		return fmt.Errorf("stream: updating message: %w", err)
	}
	return w.WriteLine(TypePersisted, Persisted{MessageID: rc.MessageID, StateUID: uid, Type: msgType})
}
