package graph

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/pr0ta9/Genesis-sub000/pkg/state"
)

// Graph is the compiled Agent Graph: a fixed dispatch table from node
// name to nodeFunc, run against a Deps bundle.
type Graph struct {
	deps  *Deps
	nodes map[string]nodeFunc
}

// New builds the graph with its seven fixed nodes wired to deps.
func New(deps *Deps) *Graph {
	return &Graph{
		deps: deps,
		nodes: map[string]nodeFunc{
			state.NodePrecedent:          precedentNode,
			state.NodeClassify:           classifyNode,
			state.NodeFindPath:           findPathNode,
			state.NodeRoute:              routeNode,
			state.NodeExecute:            executeNode,
			state.NodeFinalize:           finalizeNode,
			state.NodeWaitingForFeedback: waitingForFeedbackNode,
		},
	}
}

// startNode picks where a run enters the graph: the node named by
// NextNode when resuming an interrupted run, the node named by Node when
// continuing mid-run some other way, or precedent for a brand-new
// conversation, per §4.4.2's "START → precedent" edge.
func startNode(conv state.ConversationState) string {
	if conv.NextNode != "" {
		return conv.NextNode
	}
	if conv.Node != "" {
		return conv.Node
	}
	return state.NodePrecedent
}

// Run streams one graph execution as an iter.Seq2, starting from conv and
// following next_node edges until the graph reaches END, suspends on an
// interrupt, or a node returns an error. Every event close over conv's
// evolving value; Conversation on EventUpdate/EventDone snapshots state
// exactly as it stood after that node's patch was applied and
// checkpointed.
func (g *Graph) Run(ctx context.Context, rc RunContext, conv state.ConversationState) iter.Seq2[*Event, error] {
	return func(yield func(*Event, error) bool) {
		current := conv
		node := startNode(current)
		previousNode := current.Node

		for {
			fn, ok := g.nodes[node]
			if !ok {
				err := fmt.Errorf("graph: unknown node %q", node)
				yield(&Event{Type: EventError, Err: err}, err)
				return
			}

			nc := &nodeCtx{
				RunContext: rc,
				deps:       g.deps,
				emit: func(e Event) {
					if e.Node == "" {
						e.Node = node
					}
					yield(&e, nil)
				},
			}

			start := time.Now()
			patch, err := fn(ctx, current, nc)
			g.deps.Metrics.RecordNode(node, time.Since(start), err)
			if err != nil {
				current.ErrorDetails = &state.ErrorDetails{Node: node, Message: err.Error()}
				if g.deps.Checkpoints != nil {
					_ = g.deps.Checkpoints.SaveError(ctx, rc.ThreadID, current, err)
				}
				yield(&Event{Type: EventError, Node: node, Err: err}, err)
				return
			}

			patch.Apply(&current)

			if !yield(&Event{Type: EventUpdate, Node: node, Conversation: current}, nil) {
				return
			}

			if node == state.NodeWaitingForFeedback {
				question := clarificationFor(previousNode, current)
				if g.deps.Checkpoints != nil {
					_ = g.deps.Checkpoints.SaveInterrupted(ctx, rc.ThreadID, current, previousNode, question)
				}
				yield(&Event{Type: EventInterrupt, Node: node, RequestingNode: previousNode, Question: question}, nil)
				return
			}

			if g.deps.Checkpoints != nil {
				_ = g.deps.Checkpoints.Save(ctx, rc.ThreadID, current)
			}

			next := current.NextNode
			if next == "" || next == state.END {
				if g.deps.Checkpoints != nil {
					_ = g.deps.Checkpoints.Complete(ctx, rc.ThreadID)
				}
				yield(&Event{Type: EventDone, Conversation: current}, nil)
				return
			}

			previousNode = node
			node = next
		}
	}
}

// clarificationFor returns the clarification question attached by
// whichever node requested the interrupt, since waiting_for_feedback
// itself carries none of its own.
func clarificationFor(requestingNode string, conv state.ConversationState) string {
	switch requestingNode {
	case state.NodePrecedent:
		return conv.PrecedentClarification
	case state.NodeClassify:
		return conv.ClassifyClarification
	case state.NodeRoute:
		return conv.RouteClarification
	default:
		return ""
	}
}
