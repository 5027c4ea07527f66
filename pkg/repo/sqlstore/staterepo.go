package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pr0ta9/Genesis-sub000/pkg/state"
)

// StateRepo persists ConversationState snapshots, one per checkpoint
// write, addressable by both their own uid and their owning message.
type StateRepo interface {
	CreateState(ctx context.Context, messageID string, snapshot state.ConversationState) (uid string, err error)
	UpdateState(ctx context.Context, uid string, snapshot state.ConversationState) error
	GetByMessage(ctx context.Context, messageID string) (state.ConversationState, error)
}

// StateStore implements StateRepo over *sql.DB.
type StateStore struct {
	db *sql.DB
}

func NewStateStore(db *sql.DB) *StateStore { return &StateStore{db: db} }

func (s *StateStore) CreateState(ctx context.Context, messageID string, snapshot state.ConversationState) (string, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("sqlstore: marshaling state: %w", err)
	}
	uid := uuid.NewString()
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO states (uid, message_id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		uid, messageID, string(data), now, now)
	if err != nil {
		return "", fmt.Errorf("sqlstore: creating state: %w", err)
	}
	return uid, nil
}

func (s *StateStore) UpdateState(ctx context.Context, uid string, snapshot state.ConversationState) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("sqlstore: marshaling state: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE states SET data = ?, updated_at = ? WHERE uid = ?`, string(data), time.Now().UTC(), uid)
	if err != nil {
		return fmt.Errorf("sqlstore: updating state: %w", err)
	}
	return requireRowsAffected(res)
}

func (s *StateStore) GetByMessage(ctx context.Context, messageID string) (state.ConversationState, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM states WHERE message_id = ? ORDER BY updated_at DESC LIMIT 1`, messageID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return state.ConversationState{}, ErrNotFound
	}
	if err != nil {
		return state.ConversationState{}, fmt.Errorf("sqlstore: getting state: %w", err)
	}
	var snapshot state.ConversationState
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return state.ConversationState{}, fmt.Errorf("sqlstore: unmarshaling state: %w", err)
	}
	return snapshot, nil
}
