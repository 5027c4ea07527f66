package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Chat is one conversation thread.
type Chat struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ErrNotFound is returned by Get-style methods when no row matches.
var ErrNotFound = errors.New("sqlstore: not found")

// ChatRepo is the chat CRUD boundary consumed by the server's chat
// endpoints.
type ChatRepo interface {
	Create(ctx context.Context, title string) (Chat, error)
	Get(ctx context.Context, id string) (Chat, error)
	List(ctx context.Context) ([]Chat, error)
	Update(ctx context.Context, id, title string) error
	Delete(ctx context.Context, id string) error
}

// ChatStore implements ChatRepo over *sql.DB.
type ChatStore struct {
	db *sql.DB
}

func NewChatStore(db *sql.DB) *ChatStore { return &ChatStore{db: db} }

func (s *ChatStore) Create(ctx context.Context, title string) (Chat, error) {
	now := time.Now().UTC()
	c := Chat{ID: uuid.NewString(), Title: title, CreatedAt: now, UpdatedAt: now}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chats (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.Title, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return Chat{}, fmt.Errorf("sqlstore: creating chat: %w", err)
	}
	return c, nil
}

func (s *ChatStore) Get(ctx context.Context, id string) (Chat, error) {
	var c Chat
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at, updated_at FROM chats WHERE id = ?`, id,
	).Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Chat{}, ErrNotFound
	}
	if err != nil {
		return Chat{}, fmt.Errorf("sqlstore: getting chat: %w", err)
	}
	return c, nil
}

func (s *ChatStore) List(ctx context.Context) ([]Chat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at, updated_at FROM chats ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing chats: %w", err)
	}
	defer rows.Close()

	var out []Chat
	for rows.Next() {
		var c Chat
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning chat: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *ChatStore) Update(ctx context.Context, id, title string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chats SET title = ?, updated_at = ? WHERE id = ?`, title, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("sqlstore: updating chat: %w", err)
	}
	return requireRowsAffected(res)
}

func (s *ChatStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting chat: %w", err)
	}
	return requireRowsAffected(res)
}

func requireRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
