// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package checkpoint

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pr0ta9/Genesis-sub000/pkg/state"
)

// Manager orchestrates checkpointing and resume operations for the Agent
// Graph, keyed by conversation thread id.
type Manager struct {
	config  *Config
	storage Storage
}

// NewManager builds a Manager from cfg, constructing the storage backend
// cfg names.
func NewManager(cfg *Config) (*Manager, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.SetDefaults()

	var storage Storage
	switch cfg.Backend {
	case BackendFile:
		fs, err := NewFileStorage(cfg.Directory)
		if err != nil {
			return nil, err
		}
		storage = fs
	default:
		storage = NewMemoryStorage()
	}

	return &Manager{config: cfg, storage: storage}, nil
}

// NewManagerWithStorage builds a Manager around an already-constructed
// Storage, bypassing backend selection — used by tests.
func NewManagerWithStorage(cfg *Config, storage Storage) *Manager {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.SetDefaults()
	return &Manager{config: cfg, storage: storage}
}

// IsEnabled returns whether checkpointing is enabled.
func (m *Manager) IsEnabled() bool {
	return m.config.IsEnabled()
}

// Save persists a checkpoint for threadID carrying conv, marking it
// running.
func (m *Manager) Save(ctx context.Context, threadID string, conv state.ConversationState) error {
	if !m.IsEnabled() {
		return nil
	}
	return m.storage.Save(ctx, NewState(threadID, conv))
}

// SaveInterrupted persists a checkpoint parked at waiting_for_feedback.
func (m *Manager) SaveInterrupted(ctx context.Context, threadID string, conv state.ConversationState, requestingNode, question string) error {
	if !m.IsEnabled() {
		return nil
	}
	s := NewState(threadID, conv).WithInterrupt(requestingNode, question)
	return m.storage.Save(ctx, s)
}

// SaveError persists a checkpoint recording a node-level abort.
func (m *Manager) SaveError(ctx context.Context, threadID string, conv state.ConversationState, err error) error {
	if !m.IsEnabled() {
		return nil
	}
	s := NewState(threadID, conv).WithError(err)
	if saveErr := m.storage.Save(ctx, s); saveErr != nil {
		slog.Warn("failed to save error checkpoint", "thread_id", threadID, "original_error", err, "save_error", saveErr)
		return saveErr
	}
	return nil
}

// Complete marks a thread's run as finished and clears its checkpoint.
func (m *Manager) Complete(ctx context.Context, threadID string) error {
	if !m.IsEnabled() {
		return nil
	}
	if err := m.storage.Clear(ctx, threadID); err != nil {
		slog.Warn("failed to clear checkpoint on completion", "thread_id", threadID, "error", err)
		return err
	}
	return nil
}

// Load retrieves the checkpoint for threadID.
func (m *Manager) Load(ctx context.Context, threadID string) (*State, error) {
	return m.storage.Load(ctx, threadID)
}

// PendingInterrupts lists every checkpoint currently parked on an
// interrupt, for operator visibility / startup recovery scans.
func (m *Manager) PendingInterrupts(ctx context.Context) ([]*State, error) {
	return m.storage.ListPending(ctx)
}

// Resume loads the checkpoint for threadID, verifies it is interrupted
// and not expired, appends feedback as a user message, and sets next_node
// back to the node that requested the interrupt. The caller re-enters the
// graph at that node with the returned ConversationState.
func (m *Manager) Resume(ctx context.Context, threadID, feedback string) (*state.ConversationState, error) {
	cp, err := m.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !cp.NeedsUserInput() {
		return nil, fmt.Errorf("checkpoint: thread %s is not waiting for feedback", threadID)
	}
	if cp.IsExpired(m.config.GetRecoveryTimeout()) {
		return nil, fmt.Errorf("checkpoint: thread %s interrupt expired", threadID)
	}

	conv := cp.Conversation
	conv.AppendMessage(state.Message{Role: state.RoleUser, Content: feedback})
	conv.NextNode = cp.Interrupt.RequestingNode
	return &conv, nil
}
