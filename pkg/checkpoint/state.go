// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package checkpoint persists the Agent Graph's ConversationState per
// conversation thread id, so an interrupted run (waiting_for_feedback) can
// be resumed later with user-supplied feedback.
//
// # Architecture
//
// After every node the graph runs, the driver calls Manager.Save with the
// full ConversationState. When a node emits an interrupt, the checkpoint
// additionally records which node requested it and the clarification
// text shown to the user; Resume re-enters the graph at that node.
//
// Unlike a general agent-iteration checkpoint, there is no partial replay
// of in-flight LLM calls: a node either completes and hands off to the
// next node, or the whole run aborts with an error. The checkpoint is the
// state *between* nodes, never mid-node.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pr0ta9/Genesis-sub000/pkg/state"
)

// Phase describes why a checkpoint for a thread was (last) written.
type Phase string

const (
	// PhaseRunning - a node just completed; the run continues.
	PhaseRunning Phase = "running"

	// PhaseInterrupted - waiting_for_feedback suspended the run.
	PhaseInterrupted Phase = "interrupted"

	// PhaseComplete - the graph reached END.
	PhaseComplete Phase = "complete"

	// PhaseError - a node aborted the run.
	PhaseError Phase = "error"
)

// Interrupt captures the clarification the graph is waiting on.
type Interrupt struct {
	// RequestingNode is the node to resume at once feedback arrives
	// (classify, precedent, or route).
	RequestingNode string `json:"requesting_node"`
	Question       string `json:"question"`
}

// State is one persisted checkpoint for a conversation thread.
type State struct {
	ThreadID string `json:"thread_id"`

	Conversation state.ConversationState `json:"conversation"`

	Phase          Phase      `json:"phase"`
	Interrupt      *Interrupt `json:"interrupt,omitempty"`
	CheckpointTime time.Time  `json:"checkpoint_time"`

	Error string `json:"error,omitempty"`
}

// NewState creates a running checkpoint for threadID wrapping conv.
func NewState(threadID string, conv state.ConversationState) *State {
	return &State{
		ThreadID:       threadID,
		Conversation:   conv,
		Phase:          PhaseRunning,
		CheckpointTime: time.Now(),
	}
}

// WithPhase sets the checkpoint phase and stamps the checkpoint time.
func (s *State) WithPhase(phase Phase) *State {
	s.Phase = phase
	s.CheckpointTime = time.Now()
	return s
}

// WithInterrupt marks the checkpoint as interrupted, recording which node
// to resume at and the clarification question shown to the user.
func (s *State) WithInterrupt(node, question string) *State {
	s.Interrupt = &Interrupt{RequestingNode: node, Question: question}
	return s.WithPhase(PhaseInterrupted)
}

// WithError marks the checkpoint as aborted by a node-level failure.
func (s *State) WithError(err error) *State {
	if err != nil {
		s.Error = err.Error()
	}
	return s.WithPhase(PhaseError)
}

// Serialize converts the State to JSON bytes.
func (s *State) Serialize() ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("cannot serialize nil checkpoint state")
	}
	return json.Marshal(s)
}

// Deserialize reconstructs a State from JSON bytes.
func Deserialize(data []byte) (*State, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot deserialize empty checkpoint data")
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint state: %w", err)
	}
	return &s, nil
}

// IsExpired reports whether the checkpoint is older than timeout.
func (s *State) IsExpired(timeout time.Duration) bool {
	if s.CheckpointTime.IsZero() || timeout <= 0 {
		return false
	}
	return time.Since(s.CheckpointTime) > timeout
}

// NeedsUserInput reports whether the checkpoint is parked at
// waiting_for_feedback awaiting a Resume call.
func (s *State) NeedsUserInput() bool {
	return s.Phase == PhaseInterrupted && s.Interrupt != nil
}
