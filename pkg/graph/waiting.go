package graph

import (
	"context"

	"github.com/pr0ta9/Genesis-sub000/pkg/state"
)

// waitingForFeedbackNode marks state as suspended; the interrupt itself
// (requesting node + question) is emitted by Graph.Run, which alone knows
// which node transitioned into waiting_for_feedback. Resume is handled by
// checkpoint.Manager.Resume, which appends the feedback message and sets
// next_node back to the requesting node before the graph is re-entered.
func waitingForFeedbackNode(ctx context.Context, conv state.ConversationState, nc *nodeCtx) (state.Patch, error) {
	return state.Patch{Node: state.StrPtr(state.NodeWaitingForFeedback)}, nil
}
