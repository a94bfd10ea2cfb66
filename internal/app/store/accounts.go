package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"peerchat/internal/app/db"
)

// Sentinel errors for account operations. Handlers map these onto the errs
// code table.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrNicknameTaken   = errors.New("nickname already registered")
	ErrTokenInvalid    = errors.New("token invalid")
	ErrTokenExpired    = errors.New("token expired")
)

// Account is a registered long-lived user account row.
type Account struct {
	ID                 int64
	Email              string
	Nickname           string
	NormalizedNickname string
	PasswordHash       string
	EmailVerified      *time.Time
	ProfileImage       *string
	CreatedAt          time.Time
	LastLogin          time.Time
}

// AccountStore persists accounts, credentials, and their verification and
// password-reset tokens.
type AccountStore struct {
	pool *pgxpool.Pool
}

// NewAccountStore creates an AccountStore on top of the given pool.
func NewAccountStore(pool *pgxpool.Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

const accountColumns = `id, email, nickname, normalized_nickname, password_hash, email_verified, profile_image, created_at, last_login`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Email, &a.Nickname, &a.NormalizedNickname, &a.PasswordHash,
		&a.EmailVerified, &a.ProfileImage, &a.CreatedAt, &a.LastLogin)
	return a, err
}

// Create inserts a new unverified account. Duplicate emails and nicknames are
// reported through the sentinel errors.
func (s *AccountStore) Create(ctx context.Context, email, nickname, normalizedNickname, passwordHash, verificationToken string) (Account, error) {
	if s.pool == nil {
		return Account{}, ErrUnavailable
	}

	account, err := scanAccount(s.pool.QueryRow(ctx,
		`INSERT INTO accounts (email, nickname, normalized_nickname, password_hash, verification_token)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+accountColumns,
		email, nickname, normalizedNickname, passwordHash, verificationToken,
	))

	if err != nil {
		if db.IsUniqueViolation(err) {
			if strings.Contains(db.UniqueConstraintName(err), "email") {
				return Account{}, ErrEmailTaken
			}
			return Account{}, ErrNicknameTaken
		}
		return Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

// GetByIdentifier fetches an account by email or by nickname.
func (s *AccountStore) GetByIdentifier(ctx context.Context, identifier string) (Account, error) {
	if s.pool == nil {
		return Account{}, ErrUnavailable
	}

	account, err := scanAccount(s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1 OR nickname = $1`,
		identifier,
	))

	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("failed to fetch account: %w", err)
	}

	return account, nil
}

// GetByEmail fetches an account by its email address.
func (s *AccountStore) GetByEmail(ctx context.Context, email string) (Account, error) {
	if s.pool == nil {
		return Account{}, ErrUnavailable
	}

	account, err := scanAccount(s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`,
		email,
	))

	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("failed to fetch account: %w", err)
	}

	return account, nil
}

// VerifyEmail marks the account holding the verification token as verified and
// consumes the token.
func (s *AccountStore) VerifyEmail(ctx context.Context, token string) error {
	if s.pool == nil {
		return ErrUnavailable
	}

	var id int64
	err := s.pool.QueryRow(ctx,
		`UPDATE accounts
		 SET email_verified = now(), verification_token = NULL
		 WHERE verification_token = $1
		 RETURNING id`,
		token,
	).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrTokenInvalid
	}
	if err != nil {
		return fmt.Errorf("failed to verify email: %w", err)
	}

	return nil
}

// SetResetToken stores a password-reset token with its expiry on the account
// with the given email. Returns false when no such account exists; callers
// must not reveal that to the requester.
func (s *AccountStore) SetResetToken(ctx context.Context, email, token string, expiry time.Time) (bool, error) {
	if s.pool == nil {
		return false, ErrUnavailable
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE accounts SET reset_token = $2, reset_token_expiry = $3 WHERE email = $1`,
		email, token, expiry,
	)
	if err != nil {
		return false, fmt.Errorf("failed to set reset token: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ResetPassword replaces the password hash for the account holding the reset
// token and consumes the token. Expired tokens are rejected.
func (s *AccountStore) ResetPassword(ctx context.Context, token, passwordHash string) error {
	if s.pool == nil {
		return ErrUnavailable
	}

	var expiry *time.Time
	var id int64
	err := s.pool.QueryRow(ctx,
		`SELECT id, reset_token_expiry FROM accounts WHERE reset_token = $1`,
		token,
	).Scan(&id, &expiry)

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrTokenInvalid
	}
	if err != nil {
		return fmt.Errorf("failed to fetch reset token: %w", err)
	}

	if expiry == nil || expiry.Before(time.Now()) {
		return ErrTokenExpired
	}

	_, err = s.pool.Exec(ctx,
		`UPDATE accounts
		 SET password_hash = $2, reset_token = NULL, reset_token_expiry = NULL
		 WHERE id = $1`,
		id, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	return nil
}

// UpdateLastLogin stamps the account's last_login with the current time.
func (s *AccountStore) UpdateLastLogin(ctx context.Context, id int64) error {
	if s.pool == nil {
		return ErrUnavailable
	}

	_, err := s.pool.Exec(ctx,
		`UPDATE accounts SET last_login = now() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return nil
}

// UpdateProfileImage stores (or clears, with nil) the account's avatar object key.
func (s *AccountStore) UpdateProfileImage(ctx context.Context, id int64, imageKey *string) error {
	if s.pool == nil {
		return ErrUnavailable
	}

	_, err := s.pool.Exec(ctx,
		`UPDATE accounts SET profile_image = $2 WHERE id = $1`,
		id, imageKey,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile image: %w", err)
	}

	return nil
}

// DeleteStale removes accounts whose last login is older than the cutoff.
func (s *AccountStore) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.pool == nil {
		return 0, ErrUnavailable
	}

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM accounts WHERE last_login < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale accounts: %w", err)
	}

	return tag.RowsAffected(), nil
}
