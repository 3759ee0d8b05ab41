package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ssi-studios/auth-service/internal/model"
)

// AdminRepository backs the elevated account class. Admins have no lockout
// state, no sessions and no token-generation counter.
type AdminRepository struct {
	pool *pgxpool.Pool
}

func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

func (r *AdminRepository) FindByID(ctx context.Context, id string) (model.AdminAccount, error) {
	var a model.AdminAccount
	err := r.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, display_name, role, created_at
		 FROM admins WHERE id = $1`, id).
		Scan(&a.ID, &a.Username, &a.PasswordHash, &a.DisplayName, &a.Role, &a.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.AdminAccount{}, model.ErrAccountNotFound
	}
	if err != nil {
		return model.AdminAccount{}, fmt.Errorf("find admin by id: %w", err)
	}
	return a, nil
}

func (r *AdminRepository) FindByUsername(ctx context.Context, username string) (model.AdminAccount, error) {
	var a model.AdminAccount
	err := r.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, display_name, role, created_at
		 FROM admins WHERE lower(username) = lower($1)`, strings.TrimSpace(username)).
		Scan(&a.ID, &a.Username, &a.PasswordHash, &a.DisplayName, &a.Role, &a.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.AdminAccount{}, model.ErrAccountNotFound
	}
	if err != nil {
		return model.AdminAccount{}, fmt.Errorf("find admin by username: %w", err)
	}
	return a, nil
}

// Upsert seeds or refreshes a bootstrap admin from the environment.
func (r *AdminRepository) Upsert(ctx context.Context, a model.AdminAccount) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO admins (id, username, password_hash, display_name, role, created_at)
		 VALUES ($1, lower($2), $3, $4, $5, $6)
		 ON CONFLICT (username)
		 DO UPDATE SET password_hash = EXCLUDED.password_hash,
		               display_name = EXCLUDED.display_name,
		               role = EXCLUDED.role`,
		a.ID, a.Username, a.PasswordHash, a.DisplayName, a.Role, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert admin: %w", err)
	}
	return nil
}
