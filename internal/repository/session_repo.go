package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ssi-studios/auth-service/internal/model"
)

// SessionRepository stores device sessions as individual rows, so two
// concurrent logins from the same account never overwrite each other.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Add purges the account's expired sessions and inserts the new one.
func (r *SessionRepository) Add(ctx context.Context, s model.Session) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin add session: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM sessions WHERE user_id = $1 AND expires_at <= $2`,
		s.UserID, time.Now().UTC()); err != nil {
		return fmt.Errorf("purge expired sessions: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO sessions (id, user_id, device, ip_address, last_activity, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.UserID, s.Device, s.IPAddress, s.LastActivity, s.ExpiresAt, s.CreatedAt); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit add session: %w", err)
	}
	return nil
}

// TouchByDevice updates the most recently active live session matching the
// device descriptor. The refresh flow calls this opportunistically; absent
// or expired sessions are a no-op.
func (r *SessionRepository) TouchByDevice(ctx context.Context, userID string, device string) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`UPDATE sessions SET last_activity = $3
		 WHERE id = (SELECT id FROM sessions
		             WHERE user_id = $1 AND device = $2 AND expires_at > $3
		             ORDER BY last_activity DESC LIMIT 1)`,
		userID, device, now)
	if err != nil {
		return fmt.Errorf("touch session by device: %w", err)
	}
	return nil
}

// Remove deletes one session. Idempotent: removing an absent session
// succeeds.
func (r *SessionRepository) Remove(ctx context.Context, userID string, sessionID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM sessions WHERE id = $2 AND user_id = $1`, userID, sessionID)
	if err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// RemoveAll deletes every session for the account and bumps its
// token-generation counter in the same transaction. The bump is what makes
// previously issued refresh tokens stale; this is the only path that
// increments it.
func (r *SessionRepository) RemoveAll(ctx context.Context, userID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin remove all sessions: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET token_version = token_version + 1, updated_at = $2 WHERE id = $1`,
		userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("bump token version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit remove all sessions: %w", err)
	}
	return nil
}

// ListActive purges expired sessions for the account and returns the rest,
// most recently active first. Expired entries never reach the caller.
func (r *SessionRepository) ListActive(ctx context.Context, userID string) ([]model.Session, error) {
	now := time.Now().UTC()
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM sessions WHERE user_id = $1 AND expires_at <= $2`, userID, now); err != nil {
		return nil, fmt.Errorf("purge expired sessions: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, device, ip_address, last_activity, expires_at, created_at
		 FROM sessions WHERE user_id = $1 ORDER BY last_activity DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.Session, 0)
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.Device, &s.IPAddress,
			&s.LastActivity, &s.ExpiresAt, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
