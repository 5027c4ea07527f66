package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageType distinguishes a clarifying question from a normal answer,
// per §7's user-visible failure behavior: the final assistant message's
// type is "response" on success and "question" at an interrupt.
type MessageType string

const (
	MessageTypeQuestion MessageType = "question"
	MessageTypeResponse MessageType = "response"
)

// Message is one persisted chat turn.
type Message struct {
	ID          string
	ChatID      string
	Role        string
	Content     string
	Reasoning   string
	Attachments []string
	Type        MessageType
	StateID     string
	PrecedentID string
	CreatedAt   time.Time
}

// MessageRepo is the message CRUD boundary, including the atomic
// UpdateMessage the finalize/persistence step needs to write content and
// state_id together.
type MessageRepo interface {
	Create(ctx context.Context, m Message) (Message, error)
	Get(ctx context.Context, id string) (Message, error)
	ListByChat(ctx context.Context, chatID string) ([]Message, error)
	UpdateMessage(ctx context.Context, id string, fn func(*Message)) error
	Delete(ctx context.Context, id string) error
}

// MessageStore implements MessageRepo over *sql.DB.
type MessageStore struct {
	db *sql.DB
}

func NewMessageStore(db *sql.DB) *MessageStore { return &MessageStore{db: db} }

func (s *MessageStore) Create(ctx context.Context, m Message) (Message, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	attachments, err := json.Marshal(m.Attachments)
	if err != nil {
		return Message{}, fmt.Errorf("sqlstore: marshaling attachments: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO messages (id, chat_id, role, content, reasoning, attachments, type, state_id, precedent_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ChatID, m.Role, m.Content, m.Reasoning, string(attachments), string(m.Type), m.StateID, m.PrecedentID, m.CreatedAt)
	if err != nil {
		return Message{}, fmt.Errorf("sqlstore: creating message: %w", err)
	}
	return m, nil
}

func (s *MessageStore) Get(ctx context.Context, id string) (Message, error) {
	return s.scanOne(ctx, `SELECT id, chat_id, role, content, reasoning, attachments, type, state_id, precedent_id, created_at
		FROM messages WHERE id = ?`, id)
}

func (s *MessageStore) ListByChat(ctx context.Context, chatID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chat_id, role, content, reasoning, attachments, type, state_id, precedent_id, created_at
		 FROM messages WHERE chat_id = ? ORDER BY created_at ASC`, chatID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpdateMessage runs fn against the current row's values inside a
// transaction and writes the result back, giving callers an atomic
// read-modify-write without a separate optimistic-lock column.
func (s *MessageStore) UpdateMessage(ctx context.Context, id string, fn func(*Message)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: beginning tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT id, chat_id, role, content, reasoning, attachments, type, state_id, precedent_id, created_at
		 FROM messages WHERE id = ?`, id)
	m, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	fn(&m)

	attachments, err := json.Marshal(m.Attachments)
	if err != nil {
		return fmt.Errorf("sqlstore: marshaling attachments: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE messages SET role=?, content=?, reasoning=?, attachments=?, type=?, state_id=?, precedent_id=? WHERE id=?`,
		m.Role, m.Content, m.Reasoning, string(attachments), string(m.Type), m.StateID, m.PrecedentID, id)
	if err != nil {
		return fmt.Errorf("sqlstore: updating message: %w", err)
	}

	return tx.Commit()
}

func (s *MessageStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting message: %w", err)
	}
	return requireRowsAffected(res)
}

func (s *MessageStore) scanOne(ctx context.Context, query string, args ...any) (Message, error) {
	row := s.db.QueryRowContext(ctx, query, args...)
	m, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Message{}, ErrNotFound
	}
	return m, err
}

// rowScanner abstracts over *sql.Row and *sql.Rows, both of which expose
// Scan with the same signature.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(r rowScanner) (Message, error) {
	var m Message
	var attachments, msgType string
	if err := r.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.Reasoning, &attachments, &msgType,
		&m.StateID, &m.PrecedentID, &m.CreatedAt); err != nil {
		return Message{}, err
	}
	m.Type = MessageType(msgType)
	if err := json.Unmarshal([]byte(attachments), &m.Attachments); err != nil {
		return Message{}, fmt.Errorf("sqlstore: unmarshaling attachments: %w", err)
	}
	return m, nil
}
