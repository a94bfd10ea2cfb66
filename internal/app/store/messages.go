package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Message is a persisted chat message row.
type Message struct {
	ID           int64
	RoomID       int64
	Nickname     string
	Content      string
	FontFamily   string
	ProfileImage *string
	CreatedAt    time.Time
}

// MessageStore is the durable append log for chat messages, keyed by room.
type MessageStore struct {
	pool *pgxpool.Pool
}

// NewMessageStore creates a MessageStore on top of the given pool. A nil pool
// yields a store that accepts appends as no-ops and returns empty history.
func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

// Append persists one message. Ordering beyond append order is not enforced.
func (s *MessageStore) Append(ctx context.Context, roomID int64, nickname string, content string, fontFamily string, profileImage *string) error {
	if s.pool == nil {
		return nil
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO messages (room_id, nickname, content, font_family, profile_image)
		 VALUES ($1, $2, $3, $4, $5)`,
		roomID, nickname, content, fontFamily, profileImage,
	)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	return nil
}

// Recent returns up to limit messages for the room, newest first.
func (s *MessageStore) Recent(ctx context.Context, roomID int64, limit int32) ([]Message, error) {
	if s.pool == nil {
		return []Message{}, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, room_id, nickname, content, font_family, profile_image, created_at
		 FROM messages
		 WHERE room_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		roomID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}

	messages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Message, error) {
		var m Message
		err := row.Scan(&m.ID, &m.RoomID, &m.Nickname, &m.Content, &m.FontFamily, &m.ProfileImage, &m.CreatedAt)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan messages: %w", err)
	}

	return messages, nil
}
