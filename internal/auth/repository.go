package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/event-horizon/backend/internal/models"
)

// Repository handles staff account persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a staff user.
func (r *Repository) Create(ctx context.Context, u *models.StaffUser) error {
	const q = `INSERT INTO staff_users (id, email, full_name, role, password_hash)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, u.Email, u.FullName, u.Role, u.PasswordHash).
		Scan(&u.ID, &u.CreatedAt)
}

// GetByEmail returns the staff user with the given email, or nil.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.StaffUser, error) {
	const q = `SELECT id, email, full_name, role, password_hash, created_at FROM staff_users WHERE email = $1`
	var u models.StaffUser
	err := r.pool.QueryRow(ctx, q, email).Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// GetByID returns the staff user by id, or nil.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.StaffUser, error) {
	const q = `SELECT id, email, full_name, role, password_hash, created_at FROM staff_users WHERE id = $1`
	var u models.StaffUser
	err := r.pool.QueryRow(ctx, q, id).Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
