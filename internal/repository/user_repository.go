package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ceureg/ceureg/internal/database"
	"github.com/ceureg/ceureg/internal/model"
)

// UserRepository handles directory user persistence
type UserRepository struct {
	db *database.Postgres
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *database.Postgres) *UserRepository {
	return &UserRepository{db: db}
}

// GetByName retrieves a user by display name. Used to resolve a
// coordinator's stored signature image for certificate rendering.
func (r *UserRepository) GetByName(ctx context.Context, name string) (*model.User, error) {
	query := `
		SELECT id, email, name, role, signature_url, provider_id, status, created_at
		FROM users
		WHERE name = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, name))
}

// scanUser scans a single user row
func (r *UserRepository) scanUser(row *sql.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Role,
		&user.SignatureURL,
		&user.ProviderID,
		&user.Status,
		&user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}
