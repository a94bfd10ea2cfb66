/*
Package store contains the pgx-backed repositories for durable state: accounts,
rooms, messages, and the active-nickname registry.

Every repository accepts a nil pool. The nickname and message repositories
degrade to permissive no-op behavior in that case so chat rooms stay usable
when the database is unreachable; account operations fail instead, because a
durable row is their entire point.
*/
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"peerchat/internal/app/db"
	"peerchat/internal/pkg/logx"
)

// NicknameRegistry arbitrates exclusive, durable claims on display names.
// A claim is held exactly while the nickname is in active use by a live
// connection anywhere in the system.
type NicknameRegistry struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewNicknameRegistry creates a NicknameRegistry on top of the given pool.
// A nil pool yields a permissive registry.
func NewNicknameRegistry(pool *pgxpool.Pool) *NicknameRegistry {
	return &NicknameRegistry{
		pool:   pool,
		logger: logx.Logger().With().Str("component", "NicknameRegistry").Logger(),
	}
}

// IsAvailable reports whether no active claim exists for the nickname. This is
// an advisory read only; Claim is the sole authority and the check-then-claim
// race is resolved by the insert's atomicity.
func (r *NicknameRegistry) IsAvailable(ctx context.Context, nickname string) (bool, error) {
	if r.pool == nil {
		return true, nil
	}

	var one int
	err := r.pool.QueryRow(ctx,
		`SELECT 1 FROM active_nicknames WHERE nickname = $1`,
		nickname,
	).Scan(&one)

	if errors.Is(err, pgx.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return true, fmt.Errorf("failed to check nickname availability: %w", err)
	}

	return false, nil
}

// Claim atomically inserts a claim row for the nickname. It returns false when
// the nickname already has a claim; a unique-constraint violation is the
// expected contention outcome, not an error. At most one of any set of
// concurrent claims for the same nickname can succeed.
func (r *NicknameRegistry) Claim(ctx context.Context, nickname string) (bool, error) {
	if r.pool == nil {
		return true, nil
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO active_nicknames (nickname) VALUES ($1)`,
		nickname,
	)

	if err != nil {
		if db.IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to claim nickname: %w", err)
	}

	return true, nil
}

// Release deletes the claim row for the nickname. Releasing a nickname with no
// claim is a no-op.
func (r *NicknameRegistry) Release(ctx context.Context, nickname string) error {
	if r.pool == nil {
		return nil
	}

	_, err := r.pool.Exec(ctx,
		`DELETE FROM active_nicknames WHERE nickname = $1`,
		nickname,
	)
	if err != nil {
		return fmt.Errorf("failed to release nickname: %w", err)
	}

	return nil
}

// ReleaseAll clears every claim. Called once at process start: presence is
// rebuilt from scratch, so claims left behind by a previous process would
// block their nicknames forever.
func (r *NicknameRegistry) ReleaseAll(ctx context.Context) error {
	if r.pool == nil {
		return nil
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM active_nicknames`)
	if err != nil {
		return fmt.Errorf("failed to clear nickname claims: %w", err)
	}

	if tag.RowsAffected() > 0 {
		r.logger.Info().Int64("released", tag.RowsAffected()).Msg("Cleared stale nickname claims from previous run.")
	}

	return nil
}
