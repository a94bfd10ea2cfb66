package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUnavailable is returned by repositories that require a reachable database.
var ErrUnavailable = errors.New("database not available")

// Room is a chat room row. The coordinator only ever uses the numeric id as a
// broadcast group key and message foreign key; the slug exists for clients.
type Room struct {
	ID        int64
	Slug      string
	CreatedAt time.Time
}

// RoomStore resolves human-readable slugs to room rows, creating them lazily.
type RoomStore struct {
	pool *pgxpool.Pool
}

// NewRoomStore creates a RoomStore on top of the given pool.
func NewRoomStore(pool *pgxpool.Pool) *RoomStore {
	return &RoomStore{pool: pool}
}

// GetOrCreate returns the room with the given slug, inserting the row if it
// does not exist yet. The upsert makes concurrent resolutions of the same slug
// converge on one row.
func (s *RoomStore) GetOrCreate(ctx context.Context, slug string) (Room, error) {
	if s.pool == nil {
		return Room{}, ErrUnavailable
	}

	var room Room
	err := s.pool.QueryRow(ctx,
		`INSERT INTO rooms (slug) VALUES ($1)
		 ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug
		 RETURNING id, slug, created_at`,
		slug,
	).Scan(&room.ID, &room.Slug, &room.CreatedAt)

	if err != nil {
		return Room{}, fmt.Errorf("failed to resolve room slug: %w", err)
	}

	return room, nil
}

// GetByID returns the room with the given id.
func (s *RoomStore) GetByID(ctx context.Context, id int64) (Room, error) {
	if s.pool == nil {
		return Room{}, ErrUnavailable
	}

	var room Room
	err := s.pool.QueryRow(ctx,
		`SELECT id, slug, created_at FROM rooms WHERE id = $1`,
		id,
	).Scan(&room.ID, &room.Slug, &room.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return Room{}, ErrRoomNotFound
	}
	if err != nil {
		return Room{}, fmt.Errorf("failed to fetch room: %w", err)
	}

	return room, nil
}

// ErrRoomNotFound is returned when the referenced room row does not exist.
var ErrRoomNotFound = errors.New("room not found")
