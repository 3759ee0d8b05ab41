package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ssi-studios/auth-service/internal/model"
)

const pgerrUniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, username, email, password_hash, is_verified,
	failed_login_attempts, locked_until, token_version, remember_me,
	preferences, created_at, updated_at`

func scanUser(row pgx.Row) (model.Account, error) {
	var u model.Account
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsVerified,
		&u.FailedLoginAttempts, &u.LockedUntil, &u.TokenVersion, &u.RememberMe,
		&u.Preferences, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.Account, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Account{}, model.ErrAccountNotFound
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// FindByIdentifier resolves an account by email or username, trimmed and
// case-insensitive.
func (r *UserRepository) FindByIdentifier(ctx context.Context, identifier string) (model.Account, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE lower(email) = lower($1) OR lower(username) = lower($1)`,
		strings.TrimSpace(identifier)))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Account{}, model.ErrAccountNotFound
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("find user by identifier: %w", err)
	}
	return u, nil
}

func (r *UserRepository) ExistsByEmailOrUsername(ctx context.Context, email string, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users
		 WHERE lower(email) = lower($1) OR lower(username) = lower($2))`,
		strings.TrimSpace(email), strings.TrimSpace(username)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check account exists: %w", err)
	}
	return exists, nil
}

// Create inserts the account. A unique-index violation surfaces as
// ErrAccountExists so a signup losing a race with a concurrent insert gets
// the same outcome as one caught by the existence pre-check.
func (r *UserRepository) Create(ctx context.Context, u model.Account) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, is_verified,
		     token_version, remember_me, preferences, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.IsVerified,
		u.TokenVersion, u.RememberMe, u.Preferences, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrUniqueViolation {
			return model.ErrAccountExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// RegisterFailedAttempt records one failed login in a single atomic update.
// An expired lock is cleared and the counter restarts at 1 for this attempt;
// otherwise the counter increments and the account locks once it reaches
// maxAttempts. Returns the resulting counter and lock deadline.
func (r *UserRepository) RegisterFailedAttempt(ctx context.Context, userID string, maxAttempts int, lockUntil time.Time, now time.Time) (int, *time.Time, error) {
	var attempts int
	var lockedUntil *time.Time
	err := r.pool.QueryRow(ctx,
		`UPDATE users SET
		     failed_login_attempts = CASE
		         WHEN locked_until IS NOT NULL AND locked_until <= $4 THEN 1
		         ELSE failed_login_attempts + 1
		     END,
		     locked_until = CASE
		         WHEN locked_until IS NOT NULL AND locked_until <= $4 THEN NULL
		         WHEN locked_until IS NOT NULL THEN locked_until
		         WHEN failed_login_attempts + 1 >= $2 THEN $3
		         ELSE NULL
		     END,
		     updated_at = $4
		 WHERE id = $1
		 RETURNING failed_login_attempts, locked_until`,
		userID, maxAttempts, lockUntil, now).Scan(&attempts, &lockedUntil)

	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil, model.ErrAccountNotFound
	}
	if err != nil {
		return 0, nil, fmt.Errorf("register failed attempt: %w", err)
	}
	return attempts, lockedUntil, nil
}

func (r *UserRepository) ResetFailedAttempts(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET failed_login_attempts = 0, locked_until = NULL, updated_at = $2
		 WHERE id = $1`,
		userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("reset failed attempts: %w", err)
	}
	return nil
}

func (r *UserRepository) SetRemember(ctx context.Context, userID string, remember bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET remember_me = $2, updated_at = $3 WHERE id = $1`,
		userID, remember, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set remember preference: %w", err)
	}
	return nil
}
